// Package publish implements the publish orchestrator: pure decision
// functions over the change list plus the sequencing of git and registry
// operations around them.
package publish

import (
	"fmt"
	"strings"

	"github.com/calebmoss/slipway/internal/changes"
	"github.com/calebmoss/slipway/internal/workspace"
)

// ReleaseType selects the packaging flavor for tarball runs.
type ReleaseType string

const (
	ReleaseInternal ReleaseType = "internal"
	ReleasePublic   ReleaseType = "public"
	ReleaseBeta     ReleaseType = "beta"
)

// ParseReleaseType validates a release type string. Empty defaults to
// internal; anything else unknown is a configuration error.
func ParseReleaseType(s string) (ReleaseType, error) {
	switch ReleaseType(s) {
	case "":
		return ReleaseInternal, nil
	case ReleaseInternal, ReleasePublic, ReleaseBeta:
		return ReleaseType(s), nil
	}
	return "", fmt.Errorf("invalid release type %q: want internal, public, or beta", s)
}

// HotfixOverride scans the full change list once, before any publish call,
// and returns the dist-tag override ("hotfix") if any record is a hotfix.
// The override applies to every publish in the run that has no explicit tag.
func HotfixOverride(records []changes.ChangeRecord) string {
	for _, rec := range records {
		if rec.Type == changes.Hotfix {
			return "hotfix"
		}
	}
	return ""
}

// PublishTag resolves the dist-tag for publish calls: an explicit tag wins,
// then the hotfix override, then empty (npm's default).
func PublishTag(explicit, override string) string {
	if explicit != "" {
		return explicit
	}
	return override
}

// PublishCandidates is the first of the two passes over the change list: it
// keeps every record that represents a real version bump. Dependency-only
// and no-op records never reach the registry.
func PublishCandidates(records []changes.ChangeRecord) []changes.ChangeRecord {
	var out []changes.ChangeRecord
	for _, rec := range records {
		if rec.Type.BumpsVersion() {
			out = append(out, rec)
		}
	}
	return out
}

// TagAction names one release tag to create.
type TagAction struct {
	PackageName string
	Version     string
}

// TagCandidates is the second pass: one tag per version-bumping record whose
// project exists and is publishable. Publishing has already completed for the
// whole list when this runs, so a failure during tagging never leaves a
// half-published, half-tagged release. A bumping record without a NewVersion
// at this point is a logic error, not a recoverable condition.
func TagCandidates(records []changes.ChangeRecord, projects map[string]*workspace.ProjectDescriptor) ([]TagAction, error) {
	var out []TagAction
	for _, rec := range records {
		if !rec.Type.BumpsVersion() {
			continue
		}
		desc, ok := projects[rec.PackageName]
		if !ok || !desc.ShouldPublish {
			continue
		}
		if rec.NewVersion == "" {
			return nil, fmt.Errorf("internal error: no new version recorded for %s", rec.PackageName)
		}
		out = append(out, TagAction{PackageName: rec.PackageName, Version: rec.NewVersion})
	}
	return out, nil
}

// QualifiesForAll reports whether a descriptor participates in publish-all
// mode: it must be publishable, and when a version-policy filter is given it
// must match the descriptor's policy name.
func QualifiesForAll(desc *workspace.ProjectDescriptor, policyFilter string) bool {
	if !desc.ShouldPublish {
		return false
	}
	return policyFilter == "" || policyFilter == desc.VersionPolicyName
}

// AlreadyPublished reports whether version appears in the registry's
// published list.
func AlreadyPublished(version string, published []string) bool {
	for _, v := range published {
		if v == version {
			return true
		}
	}
	return false
}

// TarballName returns the deterministic tarball filename for a package
// version: scoped names drop the scope marker and hyphenate the separator,
// unscoped names are used as-is.
func TarballName(packageName, version string) string {
	name := strings.TrimPrefix(packageName, "@")
	name = strings.ReplaceAll(name, "/", "-")
	return name + "-" + version + ".tgz"
}

// DeclarationSync computes the declaration-folder copy plan for a release
// type: the type-specific source folder and the internal destination folder,
// both relative to the project folder. The plan is empty unless rollup
// trimming is enabled and the release type is public or beta; whether the
// folders actually exist is the executor's concern.
func DeclarationSync(cfg workspace.PublishConfig, rt ReleaseType) (src, dst string, ok bool) {
	if !cfg.RollupTrimming {
		return "", "", false
	}
	switch rt {
	case ReleasePublic:
		src = cfg.DeclarationFolders.Public
	case ReleaseBeta:
		src = cfg.DeclarationFolders.Beta
	default:
		return "", "", false
	}
	dst = cfg.DeclarationFolders.Internal
	if src == "" || dst == "" {
		return "", "", false
	}
	return src, dst, true
}
