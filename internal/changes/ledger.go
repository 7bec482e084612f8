package changes

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/calebmoss/slipway/internal/workspace"
)

// LoadOptions control how change files are loaded and applied.
type LoadOptions struct {
	// PrereleaseName, when set, turns every bumped version into a
	// "-<name>.0" prerelease. Mutually exclusive with Suffix.
	PrereleaseName string
	// Suffix, when set, is appended verbatim to every bumped version.
	Suffix string
	// IncludeCommitDetails enriches changelog entries with conventional
	// commit subjects from git history.
	IncludeCommitDetails bool
}

// Ledger is the ordered collection of pending change records for one
// orchestration run. The record order is the lexicographic file order; the
// change command writes sequence-prefixed filenames so authored order holds.
type Ledger struct {
	dir     string
	files   []string
	records []ChangeRecord
	opts    LoadOptions
}

// Load reads every .yaml change file in dir. A missing directory yields an
// empty ledger, not an error.
func Load(dir string, opts LoadOptions) (*Ledger, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return &Ledger{dir: dir, opts: opts}, nil
		}
		return nil, fmt.Errorf("reading change directory %s: %w", dir, err)
	}

	l := &Ledger{dir: dir, opts: opts}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		l.files = append(l.files, e.Name())
	}
	sort.Strings(l.files)

	for _, name := range l.files {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading change file %s: %w", path, err)
		}
		var cf changeFile
		if err := yaml.Unmarshal(data, &cf); err != nil {
			return nil, fmt.Errorf("parsing change file %s: %w", path, err)
		}
		if cf.Package == "" {
			return nil, fmt.Errorf("change file %s: missing package", path)
		}
		t, err := ParseChangeType(cf.Type)
		if err != nil {
			return nil, fmt.Errorf("change file %s: %w", path, err)
		}
		l.records = append(l.records, ChangeRecord{
			PackageName: cf.Package,
			Type:        t,
			Comment:     cf.Comment,
		})
	}
	return l, nil
}

// HasChanges reports whether any change records were loaded.
func (l *Ledger) HasChanges() bool {
	return len(l.records) > 0
}

// Records returns the ordered change list. After Apply, version-bumping
// records carry their NewVersion.
func (l *Ledger) Records() []ChangeRecord {
	return l.records
}

// Apply bumps the manifest version of every project named by a
// version-bumping record, refreshes the descriptor's CurrentVersion, and
// consumes the change files. Records for unknown packages are an error: the
// ledger and the catalog must agree before anything is mutated on disk.
func (l *Ledger) Apply(ws *workspace.Workspace) error {
	for i := range l.records {
		rec := &l.records[i]
		if !rec.Type.BumpsVersion() {
			continue
		}
		desc, ok := ws.Projects[rec.PackageName]
		if !ok {
			return fmt.Errorf("change file references unknown package %q", rec.PackageName)
		}
		next, err := BumpVersion(desc.CurrentVersion, rec.Type, l.opts.PrereleaseName, l.opts.Suffix)
		if err != nil {
			return fmt.Errorf("package %s: %w", rec.PackageName, err)
		}
		if err := workspace.WriteManifestVersion(ws.ProjectDir(desc), next); err != nil {
			return err
		}
		rec.NewVersion = next
		desc.CurrentVersion = next
	}

	// Consumed change files are deleted so the commit captures them and a
	// rerun starts from an empty ledger.
	for _, name := range l.files {
		if err := os.Remove(filepath.Join(l.dir, name)); err != nil {
			return fmt.Errorf("removing change file %s: %w", name, err)
		}
	}
	return nil
}

// UpdateChangelogs writes a changelog section for every version-bumping
// record. When regenerate is true, existing changelog files are replaced
// rather than prepended to.
func (l *Ledger) UpdateChangelogs(ws *workspace.Workspace, regenerate bool, now time.Time) error {
	for _, rec := range l.records {
		if !rec.Type.BumpsVersion() || rec.NewVersion == "" {
			continue
		}
		desc, ok := ws.Projects[rec.PackageName]
		if !ok {
			continue
		}
		comments := []string{rec.Comment}
		if l.opts.IncludeCommitDetails {
			details, err := CommitDetails(ws.RootDir, desc.ProjectFolder)
			if err != nil {
				return fmt.Errorf("package %s: %w", rec.PackageName, err)
			}
			comments = append(comments, details...)
		}
		if err := writeChangelogSection(ws.ProjectDir(desc), rec.PackageName, rec.NewVersion, comments, regenerate, now); err != nil {
			return err
		}
	}
	return nil
}

const changelogName = "CHANGELOG.md"

// writeChangelogSection prepends a "## <version>" section to the project
// changelog, creating the file with a title when absent or when regenerating.
func writeChangelogSection(projectDir, pkgName, version string, comments []string, regenerate bool, now time.Time) error {
	path := filepath.Join(projectDir, changelogName)

	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n", version)
	fmt.Fprintf(&b, "%s\n\n", now.Format("Mon, 02 Jan 2006"))
	for _, c := range comments {
		if c == "" {
			continue
		}
		fmt.Fprintf(&b, "- %s\n", c)
	}
	b.WriteString("\n")
	section := b.String()

	title := fmt.Sprintf("# Change Log - %s\n\n", pkgName)

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	var out string
	switch {
	case regenerate || len(existing) == 0:
		out = title + section
	case strings.HasPrefix(string(existing), "# "):
		// Insert after the existing title line and its blank line.
		body := string(existing)
		if i := strings.Index(body, "\n\n"); i >= 0 {
			out = body[:i+2] + section + body[i+2:]
		} else {
			out = body + "\n\n" + section
		}
	default:
		out = title + section + string(existing)
	}

	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
