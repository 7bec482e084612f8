// Package git drives the git CLI for the publish workflow. Every operation
// runs against a single working tree and blocks until the command exits;
// failures carry git's stderr in the wrapped error.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Client runs git commands in one working tree.
type Client struct {
	GitPath string // git binary; empty means "git"
	Dir     string // working tree root
	Verbose bool
}

// New validates that git is available and dir is inside a repository.
func New(ctx context.Context, gitPath, dir string) (*Client, error) {
	if gitPath == "" {
		gitPath = "git"
	}
	if _, err := exec.LookPath(gitPath); err != nil {
		return nil, fmt.Errorf("git not found: %w", err)
	}
	c := &Client{GitPath: gitPath, Dir: dir}
	if _, err := c.run(ctx, "rev-parse", "--git-dir"); err != nil {
		return nil, fmt.Errorf("%s is not a git repository: %w", dir, err)
	}
	return c, nil
}

func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	if c.Verbose {
		fmt.Fprintf(os.Stderr, "[git] running: git %s\n", strings.Join(args, " "))
	}
	cmd := exec.CommandContext(ctx, c.GitPath, append([]string{"-C", c.Dir}, args...)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Checkout switches to branch, creating it first when createNew is set.
func (c *Client) Checkout(ctx context.Context, branch string, createNew bool) error {
	args := []string{"checkout"}
	if createNew {
		args = append(args, "-b")
	}
	args = append(args, branch)
	_, err := c.run(ctx, args...)
	return err
}

// AddChanges stages everything in the working tree.
func (c *Client) AddChanges(ctx context.Context) error {
	_, err := c.run(ctx, "add", "-A")
	return err
}

// Commit creates a commit with the given message.
func (c *Client) Commit(ctx context.Context, message string) error {
	_, err := c.run(ctx, "commit", "-m", message)
	return err
}

// Push pushes branch to origin, setting the upstream for new branches.
func (c *Client) Push(ctx context.Context, branch string) error {
	_, err := c.run(ctx, "push", "--set-upstream", "origin", branch)
	return err
}

// PushTags pushes all local tags to origin.
func (c *Client) PushTags(ctx context.Context) error {
	_, err := c.run(ctx, "push", "origin", "--tags")
	return err
}

// Pull fast-forwards the current branch from origin.
func (c *Client) Pull(ctx context.Context) error {
	_, err := c.run(ctx, "pull")
	return err
}

// Merge merges branch into the current branch.
func (c *Client) Merge(ctx context.Context, branch string) error {
	_, err := c.run(ctx, "merge", branch)
	return err
}

// DeleteBranch removes a local branch. When requireMerged is false the
// branch is deleted even if unmerged (-D).
func (c *Client) DeleteBranch(ctx context.Context, branch string, requireMerged bool) error {
	flag := "-D"
	if requireMerged {
		flag = "-d"
	}
	_, err := c.run(ctx, "branch", flag, branch)
	return err
}

// DeleteRemoteBranch removes a branch from origin.
func (c *Client) DeleteRemoteBranch(ctx context.Context, branch string) error {
	_, err := c.run(ctx, "push", "origin", "--delete", branch)
	return err
}

// AddTag creates an annotated release tag for packageName@version. When
// shouldTag is false this is a no-op, which lets callers thread the tag
// condition (publish flag set, no custom registry) through one call site.
func (c *Client) AddTag(ctx context.Context, shouldTag bool, packageName, version string) error {
	if !shouldTag {
		return nil
	}
	tag := TagName(packageName, version)
	_, err := c.run(ctx, "tag", "-a", tag, "-m", fmt.Sprintf("%s v%s", packageName, version))
	return err
}

// HasUncommittedChanges reports whether the working tree is dirty.
func (c *Client) HasUncommittedChanges(ctx context.Context) (bool, error) {
	out, err := c.run(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return out != "", nil
}

// TagName returns the release tag for a package version. The npm scope
// marker is dropped and the scope separator becomes a hyphen so the tag is
// a single refname component.
func TagName(packageName, version string) string {
	name := strings.TrimPrefix(packageName, "@")
	name = strings.ReplaceAll(name, "/", "-")
	return name + "_v" + version
}
