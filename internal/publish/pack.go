package publish

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/calebmoss/slipway/internal/workspace"
)

// packProject produces a tarball for one project. For public and beta
// release types the declaration folders are synchronized first when the
// project's publish.toml enables rollup trimming; a missing config or
// missing folders silently skip the sync. In an active-publish run the
// tarball is moved into the release folder under its deterministic name.
func (o *Orchestrator) packProject(ctx context.Context, runID int64, desc *workspace.ProjectDescriptor) error {
	rt, err := ParseReleaseType(o.Opts.ReleaseType)
	if err != nil {
		return err
	}
	dir := o.Workspace.ProjectDir(desc)

	if rt != ReleaseInternal {
		cfg, err := workspace.LoadPublishConfig(dir)
		if err != nil {
			return fmt.Errorf("package %s: %w", desc.PackageName, err)
		}
		if src, dst, ok := DeclarationSync(cfg, rt); ok {
			if err := copyFolderFiles(filepath.Join(dir, src), filepath.Join(dir, dst)); err != nil {
				return fmt.Errorf("package %s: syncing declarations: %w", desc.PackageName, err)
			}
		}
	}

	tarball, err := o.Registry.Pack(ctx, dir, o.env())
	if err != nil {
		return err
	}
	o.UI.Packed(desc.PackageName, tarball)
	o.record(ctx, runID, "pack", desc.PackageName, desc.CurrentVersion, tarball)

	if !o.Opts.Publish {
		return nil
	}
	dest := filepath.Join(o.Opts.ReleaseFolder, TarballName(desc.PackageName, desc.CurrentVersion))
	if err := moveFile(filepath.Join(dir, tarball), dest); err != nil {
		return fmt.Errorf("package %s: moving tarball: %w", desc.PackageName, err)
	}
	o.UI.Info("moved %s to %s", tarball, dest)
	return nil
}

// copyFolderFiles copies every regular file from src into dst. If either
// folder does not exist, the copy is skipped without error.
func copyFolderFiles(src, dst string) error {
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return nil
	}
	if _, err := os.Stat(dst); os.IsNotExist(err) {
		return nil
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := copyFile(filepath.Join(src, e.Name()), filepath.Join(dst, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// moveFile renames src to dst, creating dst's parent directory. A rename
// across filesystems falls back to copy-and-remove.
func moveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}
