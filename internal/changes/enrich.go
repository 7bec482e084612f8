package changes

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	conventionalcommits "github.com/leodido/go-conventionalcommits"
	"github.com/leodido/go-conventionalcommits/parser"
)

// CommitDetails returns changelog-ready lines for the commits touching
// projectFolder since the last tag (or the 20 most recent commits when the
// repository has no tags). Only subjects that parse as conventional commits
// are included; everything else is noise for a changelog.
func CommitDetails(repoDir, projectFolder string) ([]string, error) {
	args := []string{"log", "--pretty=format:%s"}
	if lastTag, err := runGit(repoDir, "describe", "--tags", "--abbrev=0"); err == nil && lastTag != "" {
		args = append(args, lastTag+"..HEAD")
	} else {
		args = append(args, "--max-count=20")
	}
	args = append(args, "--", projectFolder)

	out, err := runGit(repoDir, args...)
	if err != nil {
		return nil, fmt.Errorf("listing commits for %s: %w", projectFolder, err)
	}
	if out == "" {
		return nil, nil
	}

	machine := parser.NewMachine(conventionalcommits.WithTypes(conventionalcommits.TypesConventional))
	var details []string
	for _, subject := range strings.Split(out, "\n") {
		subject = strings.TrimSpace(subject)
		if subject == "" {
			continue
		}
		res, err := machine.Parse([]byte(subject))
		if err != nil {
			continue
		}
		cc, ok := res.(*conventionalcommits.ConventionalCommit)
		if !ok {
			continue
		}
		line := cc.Type
		if cc.Scope != nil && *cc.Scope != "" {
			line += "(" + *cc.Scope + ")"
		}
		details = append(details, line+": "+cc.Description)
	}
	return details, nil
}

func runGit(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}
