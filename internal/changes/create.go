package changes

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Create writes a new change file to dir and returns its path. Filenames are
// sequence-prefixed so the lexicographic load order preserves authored order.
func Create(dir, packageName string, t ChangeType, comment string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating change directory %s: %w", dir, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading change directory %s: %w", dir, err)
	}
	seq := 1
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".yaml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	if len(names) > 0 {
		// A file without a parseable sequence prefix falls back to the file
		// count so the new name cannot collide with an existing one.
		seq = len(names) + 1
		last := names[len(names)-1]
		if i := strings.IndexByte(last, '-'); i > 0 {
			if n, err := strconv.Atoi(last[:i]); err == nil {
				seq = n + 1
			}
		}
	}

	slug := strings.TrimPrefix(packageName, "@")
	slug = strings.ReplaceAll(slug, "/", "-")
	name := fmt.Sprintf("%04d-%s.yaml", seq, slug)

	data, err := yaml.Marshal(changeFile{Package: packageName, Type: t.String(), Comment: comment})
	if err != nil {
		return "", fmt.Errorf("marshaling change file: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
