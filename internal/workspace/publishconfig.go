package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// PublishConfigName is the optional per-project publish configuration file.
const PublishConfigName = "publish.toml"

// PublishConfig holds per-project packaging settings. All fields are
// optional; a missing publish.toml behaves as a zero-value config.
type PublishConfig struct {
	// RollupTrimming enables declaration-folder synchronization before
	// packing public or beta tarballs.
	RollupTrimming bool `toml:"rollup_trimming"`

	DeclarationFolders DeclarationFolders `toml:"declaration_folders"`
}

// DeclarationFolders names the declaration output folders, relative to the
// project folder.
type DeclarationFolders struct {
	Internal string `toml:"internal"`
	Public   string `toml:"public"`
	Beta     string `toml:"beta"`
}

// LoadPublishConfig reads publish.toml from projectDir. If the file does not
// exist, it returns a zero-value config and no error, allowing callers to
// proceed without per-project settings.
func LoadPublishConfig(projectDir string) (PublishConfig, error) {
	data, err := os.ReadFile(filepath.Join(projectDir, PublishConfigName))
	if err != nil {
		if os.IsNotExist(err) {
			return PublishConfig{}, nil
		}
		return PublishConfig{}, fmt.Errorf("reading %s: %w", PublishConfigName, err)
	}

	var cfg PublishConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return PublishConfig{}, fmt.Errorf("parsing %s: %w", PublishConfigName, err)
	}
	return cfg, nil
}
