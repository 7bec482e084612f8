// Package registry drives the npm CLI: querying published versions,
// publishing, and packing tarballs. Registry URL and auth token travel as
// npm_config_* environment overrides; tag and force are arguments.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Env carries per-run registry overrides applied to every npm invocation.
type Env struct {
	RegistryURL string
	AuthToken   string
}

// Environ merges the overrides into the ambient environment.
func (e Env) Environ() []string {
	env := os.Environ()
	if e.RegistryURL != "" {
		env = append(env, "npm_config_registry="+e.RegistryURL)
	}
	if e.AuthToken != "" {
		env = append(env, "npm_config__authToken="+e.AuthToken)
	}
	return env
}

// PublishOptions configure a single publish invocation.
type PublishOptions struct {
	Env   Env
	Tag   string // dist-tag; empty lets npm default to latest
	Force bool
}

// Client runs npm commands.
type Client struct {
	NpmPath string // npm binary; empty means "npm"
	Verbose bool
}

// New validates that the npm binary is reachable.
func New(npmPath string) (*Client, error) {
	if npmPath == "" {
		npmPath = "npm"
	}
	if _, err := exec.LookPath(npmPath); err != nil {
		return nil, fmt.Errorf("npm not found: %w", err)
	}
	return &Client{NpmPath: npmPath}, nil
}

func (c *Client) run(ctx context.Context, dir string, env []string, args ...string) (string, error) {
	npm := c.NpmPath
	if npm == "" {
		npm = "npm"
	}
	if c.Verbose {
		fmt.Fprintf(os.Stderr, "[npm] running: %s %s\n", npm, strings.Join(args, " "))
	}
	cmd := exec.CommandContext(ctx, npm, args...)
	cmd.Dir = dir
	cmd.Env = env
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("npm %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// PublishedVersions returns every version of packageName known to the
// registry. A package the registry has never seen yields an empty list.
func (c *Client) PublishedVersions(ctx context.Context, packageName, dir string, env Env) ([]string, error) {
	out, err := c.run(ctx, dir, env.Environ(), "view", packageName, "versions", "--json")
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return parseVersionsJSON(out)
}

// notFound reports whether an npm error means the package has never been
// published. Only the E404 error code qualifies; a bare "404" can appear in
// registry URLs or version strings of unrelated failures.
func notFound(err error) bool {
	return strings.Contains(err.Error(), "E404")
}

// parseVersionsJSON handles npm's two output shapes: a JSON array for
// packages with multiple versions and a bare JSON string for exactly one.
func parseVersionsJSON(out string) ([]string, error) {
	if out == "" {
		return nil, nil
	}
	var many []string
	if err := json.Unmarshal([]byte(out), &many); err == nil {
		return many, nil
	}
	var one string
	if err := json.Unmarshal([]byte(out), &one); err == nil {
		return []string{one}, nil
	}
	return nil, fmt.Errorf("unexpected npm versions output: %q", out)
}

// Publish publishes the package at dir.
func (c *Client) Publish(ctx context.Context, dir string, opts PublishOptions) error {
	_, err := c.run(ctx, dir, opts.Env.Environ(), PublishArgs(opts)...)
	return err
}

// PublishArgs builds the npm publish argument list for opts.
func PublishArgs(opts PublishOptions) []string {
	args := []string{"publish"}
	if opts.Tag != "" {
		args = append(args, "--tag", opts.Tag)
	}
	if opts.Force {
		args = append(args, "--force")
	}
	return args
}

// Pack produces a tarball in dir and returns its filename (the last line of
// npm pack output).
func (c *Client) Pack(ctx context.Context, dir string, env Env) (string, error) {
	out, err := c.run(ctx, dir, env.Environ(), "pack")
	if err != nil {
		return "", err
	}
	lines := strings.Split(out, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if name := strings.TrimSpace(lines[i]); name != "" {
			return name, nil
		}
	}
	return "", fmt.Errorf("npm pack produced no tarball name")
}
