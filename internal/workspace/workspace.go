// Package workspace loads the multi-package repository layout: the root
// slipway.toml project catalog and each project's package.json manifest.
package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// ManifestName is the per-project package manifest file.
const ManifestName = "package.json"

// CatalogName is the conventional location of the workspace catalog,
// relative to the repository root.
const CatalogName = "slipway.toml"

// ProjectDescriptor describes one publishable package in the repository.
type ProjectDescriptor struct {
	PackageName       string `toml:"package_name"`
	ProjectFolder     string `toml:"project_folder"`
	ShouldPublish     bool   `toml:"should_publish"`
	VersionPolicyName string `toml:"version_policy,omitempty"`

	// CurrentVersion is read from the project's package.json, not the catalog.
	CurrentVersion string `toml:"-"`
}

// catalog is the TOML-serializable form of slipway.toml.
type catalog struct {
	Projects []ProjectDescriptor `toml:"project"`
}

// Workspace is the loaded repository layout: the root directory and the
// project catalog keyed by unique package name.
type Workspace struct {
	RootDir  string
	Projects map[string]*ProjectDescriptor
}

// Load reads slipway.toml from rootDir and the current version of every
// listed project from its package.json. Duplicate package names are an error.
func Load(rootDir string) (*Workspace, error) {
	data, err := os.ReadFile(filepath.Join(rootDir, CatalogName))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", CatalogName, err)
	}

	var cat catalog
	if err := toml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", CatalogName, err)
	}

	ws := &Workspace{
		RootDir:  rootDir,
		Projects: make(map[string]*ProjectDescriptor, len(cat.Projects)),
	}
	for i := range cat.Projects {
		p := cat.Projects[i]
		if p.PackageName == "" || p.ProjectFolder == "" {
			return nil, fmt.Errorf("%s: project entry %d missing package_name or project_folder", CatalogName, i)
		}
		if _, ok := ws.Projects[p.PackageName]; ok {
			return nil, fmt.Errorf("%s: duplicate package %q", CatalogName, p.PackageName)
		}
		version, err := ManifestVersion(ws.ProjectDir(&p))
		if err != nil {
			return nil, fmt.Errorf("project %s: %w", p.PackageName, err)
		}
		p.CurrentVersion = version
		ws.Projects[p.PackageName] = &p
	}
	return ws, nil
}

// ProjectDir returns the absolute project folder for a descriptor.
func (w *Workspace) ProjectDir(p *ProjectDescriptor) string {
	return filepath.Join(w.RootDir, p.ProjectFolder)
}

// ManifestVersion reads the "version" field from package.json in dir.
func ManifestVersion(dir string) (string, error) {
	manifest, err := readManifest(dir)
	if err != nil {
		return "", err
	}
	version, _ := manifest["version"].(string)
	if version == "" {
		return "", fmt.Errorf("%s: missing version field", filepath.Join(dir, ManifestName))
	}
	return version, nil
}

// WriteManifestVersion rewrites package.json in dir with the version field
// set to newVersion, preserving all other fields.
func WriteManifestVersion(dir, newVersion string) error {
	manifest, err := readManifest(dir)
	if err != nil {
		return err
	}
	manifest["version"] = newVersion

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", ManifestName, err)
	}
	data = append(data, '\n')
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func readManifest(dir string) (map[string]any, error) {
	path := filepath.Join(dir, ManifestName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var manifest map[string]any
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return manifest, nil
}
