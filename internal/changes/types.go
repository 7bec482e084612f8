// Package changes implements the change ledger: pending version-bump
// requests authored as YAML files, applied as package.json edits and
// changelog updates.
package changes

import "fmt"

// ChangeType classifies a pending change. The numeric order is a severity
// ranking: anything above Dependency is a real version bump that gets
// published and tagged.
type ChangeType int

const (
	None ChangeType = iota
	Dependency
	Hotfix
	Patch
	Minor
	Major
)

var changeTypeNames = map[ChangeType]string{
	None:       "none",
	Dependency: "dependency",
	Hotfix:     "hotfix",
	Patch:      "patch",
	Minor:      "minor",
	Major:      "major",
}

func (t ChangeType) String() string {
	if name, ok := changeTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ChangeType(%d)", int(t))
}

// ParseChangeType converts the YAML string form to a ChangeType.
func ParseChangeType(s string) (ChangeType, error) {
	for t, name := range changeTypeNames {
		if name == s {
			return t, nil
		}
	}
	return None, fmt.Errorf("unknown change type %q", s)
}

// BumpsVersion reports whether this change type produces a real version bump
// (and therefore a publish and a tag).
func (t ChangeType) BumpsVersion() bool {
	return t > Dependency
}

// ChangeRecord is one pending change request for one package. Records are
// immutable once loaded, except for NewVersion which Apply fills in.
type ChangeRecord struct {
	PackageName string
	Type        ChangeType
	Comment     string

	// NewVersion is the bumped version, set by Ledger.Apply for records
	// whose type bumps the version. Empty otherwise.
	NewVersion string
}

// changeFile is the YAML-serializable form of a single change request file.
type changeFile struct {
	Package string `yaml:"package"`
	Type    string `yaml:"type"`
	Comment string `yaml:"comment,omitempty"`
}
