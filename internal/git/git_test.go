package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// initGitRepo creates a temporary git repo with an initial commit.
func initGitRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
		out, err := cmd.CombinedOutput()
		if err != nil {
			t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, out)
		}
	}
	run("init", "-b", "main")
	run("config", "user.name", "test")
	run("config", "user.email", "test@test.com")
	run("commit", "--allow-empty", "-m", "initial")
	return dir
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("valid repository", func(t *testing.T) {
		t.Parallel()
		dir := initGitRepo(t)
		c, err := New(context.Background(), "", dir)
		if err != nil {
			t.Fatal(err)
		}
		if c.GitPath != "git" {
			t.Errorf("GitPath = %q, want git", c.GitPath)
		}
	})

	t.Run("non-repository directory", func(t *testing.T) {
		t.Parallel()
		if _, err := New(context.Background(), "", t.TempDir()); err == nil {
			t.Fatal("expected error for non-repository")
		}
	})
}

func TestHasUncommittedChanges(t *testing.T) {
	t.Parallel()
	dir := initGitRepo(t)
	c, err := New(context.Background(), "", dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	dirty, err := c.HasUncommittedChanges(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if dirty {
		t.Error("fresh repo should be clean")
	}

	if err := os.WriteFile(filepath.Join(dir, "hello.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}
	dirty, err = c.HasUncommittedChanges(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !dirty {
		t.Error("untracked file should make the tree dirty")
	}
}

func TestCheckoutCommitAndBranches(t *testing.T) {
	t.Parallel()
	dir := initGitRepo(t)
	c, err := New(context.Background(), "", dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := c.Checkout(ctx, "publish-temp-1", true); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "bump.txt"), []byte("1.1.0"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := c.AddChanges(ctx); err != nil {
		t.Fatal(err)
	}
	if err := c.Commit(ctx, "Applying package updates."); err != nil {
		t.Fatal(err)
	}

	out, err := exec.Command("git", "-C", dir, "log", "-1", "--format=%s").Output()
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(string(out)); got != "Applying package updates." {
		t.Errorf("commit message = %q", got)
	}

	if err := c.Checkout(ctx, "main", false); err != nil {
		t.Fatal(err)
	}
	if err := c.Merge(ctx, "publish-temp-1"); err != nil {
		t.Fatal(err)
	}
	if err := c.DeleteBranch(ctx, "publish-temp-1", true); err != nil {
		t.Fatal(err)
	}
}

func TestAddTag(t *testing.T) {
	t.Parallel()
	dir := initGitRepo(t)
	c, err := New(context.Background(), "", dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	t.Run("shouldTag false is a no-op", func(t *testing.T) {
		if err := c.AddTag(ctx, false, "@acme/widgets", "1.1.0"); err != nil {
			t.Fatal(err)
		}
		out, _ := exec.Command("git", "-C", dir, "tag").Output()
		if strings.TrimSpace(string(out)) != "" {
			t.Errorf("unexpected tags: %s", out)
		}
	})

	t.Run("creates annotated tag", func(t *testing.T) {
		if err := c.AddTag(ctx, true, "@acme/widgets", "1.1.0"); err != nil {
			t.Fatal(err)
		}
		out, err := exec.Command("git", "-C", dir, "tag").Output()
		if err != nil {
			t.Fatal(err)
		}
		if got := strings.TrimSpace(string(out)); got != "acme-widgets_v1.1.0" {
			t.Errorf("tag = %q, want acme-widgets_v1.1.0", got)
		}
	})
}

func TestTagName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pkg, version, want string
	}{
		{"@acme/widgets", "1.2.3", "acme-widgets_v1.2.3"},
		{"widgets", "0.1.0", "widgets_v0.1.0"},
	}
	for _, tt := range tests {
		t.Run(tt.pkg, func(t *testing.T) {
			if got := TagName(tt.pkg, tt.version); got != tt.want {
				t.Errorf("TagName(%q, %q) = %q, want %q", tt.pkg, tt.version, got, tt.want)
			}
		})
	}
}
