package changes

import (
	"fmt"
	"strconv"
	"strings"
)

// BumpVersion computes the next version for a change type. Any prerelease or
// build suffix on the current version is discarded before bumping. When
// prereleaseName is set, the result carries a "-<name>.0" prerelease part;
// when suffix is set, "-<suffix>" is appended instead. The two are mutually
// exclusive (enforced at the flag layer).
func BumpVersion(current string, t ChangeType, prereleaseName, suffix string) (string, error) {
	if !t.BumpsVersion() {
		return "", fmt.Errorf("change type %s does not bump the version", t)
	}

	core := current
	if i := strings.IndexAny(core, "-+"); i >= 0 {
		core = core[:i]
	}
	parts := strings.Split(core, ".")
	if len(parts) != 3 {
		return "", fmt.Errorf("invalid version %q: want MAJOR.MINOR.PATCH", current)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return "", fmt.Errorf("invalid version %q: bad component %q", current, p)
		}
		nums[i] = n
	}

	switch t {
	case Major:
		nums[0]++
		nums[1], nums[2] = 0, 0
	case Minor:
		nums[1]++
		nums[2] = 0
	case Patch, Hotfix:
		nums[2]++
	}

	next := fmt.Sprintf("%d.%d.%d", nums[0], nums[1], nums[2])
	switch {
	case prereleaseName != "":
		next += "-" + prereleaseName + ".0"
	case suffix != "":
		next += "-" + suffix
	}
	return next, nil
}
