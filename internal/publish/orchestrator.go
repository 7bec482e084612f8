package publish

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/calebmoss/slipway/internal/changes"
	"github.com/calebmoss/slipway/internal/history"
	"github.com/calebmoss/slipway/internal/registry"
	"github.com/calebmoss/slipway/internal/ui"
	"github.com/calebmoss/slipway/internal/workspace"
)

// GitClient is the version-control surface the orchestrator drives.
// *git.Client implements it; tests substitute a fake.
type GitClient interface {
	Checkout(ctx context.Context, branch string, createNew bool) error
	AddChanges(ctx context.Context) error
	Commit(ctx context.Context, message string) error
	Push(ctx context.Context, branch string) error
	PushTags(ctx context.Context) error
	Pull(ctx context.Context) error
	Merge(ctx context.Context, branch string) error
	DeleteBranch(ctx context.Context, branch string, requireMerged bool) error
	DeleteRemoteBranch(ctx context.Context, branch string) error
	AddTag(ctx context.Context, shouldTag bool, packageName, version string) error
	HasUncommittedChanges(ctx context.Context) (bool, error)
}

// RegistryClient is the package-registry surface. *registry.Client
// implements it.
type RegistryClient interface {
	PublishedVersions(ctx context.Context, packageName, dir string, env registry.Env) ([]string, error)
	Publish(ctx context.Context, dir string, opts registry.PublishOptions) error
	Pack(ctx context.Context, dir string, env registry.Env) (string, error)
}

// Ledger is the change-ledger surface. *changes.Ledger implements it.
type Ledger interface {
	HasChanges() bool
	Records() []changes.ChangeRecord
	Apply(ws *workspace.Workspace) error
	UpdateChangelogs(ws *workspace.Workspace, regenerate bool, now time.Time) error
}

// Options configure one orchestration run.
type Options struct {
	Publish              bool   // actually push, publish, and tag
	Pack                 bool   // produce tarballs instead of publishing
	RegistryURL          string // custom registry; suppresses tagging
	AuthToken            string
	Tag                  string // explicit dist-tag
	TargetBranch         string
	Force                bool
	VersionPolicy        string // publish-all filter
	ReleaseFolder        string // tarball destination
	ReleaseType          string // internal, public, or beta
	RegenerateChangelogs bool
}

// Orchestrator sequences the publish workflow over one working tree. All
// operations are strictly sequential: git and registry state must be
// observed consistently between iterations.
type Orchestrator struct {
	Git       GitClient
	Registry  RegistryClient
	Workspace *workspace.Workspace
	UI        *ui.Printer
	History   *history.Store // nil disables run recording
	Opts      Options

	// Now is the clock used for temp branch names and changelog dates.
	// Defaults to time.Now.
	Now func() time.Time
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o *Orchestrator) env() registry.Env {
	return registry.Env{RegistryURL: o.Opts.RegistryURL, AuthToken: o.Opts.AuthToken}
}

// shouldTag is the global tag condition: tags are created only when the
// publish flag is set and no custom registry URL is configured.
func (o *Orchestrator) shouldTag() bool {
	return o.Opts.Publish && o.Opts.RegistryURL == ""
}

func (o *Orchestrator) record(ctx context.Context, runID int64, kind, pkg, version, detail string) {
	if err := o.History.RecordAction(ctx, runID, kind, pkg, version, detail); err != nil {
		o.UI.Warn("history: %v", err)
	}
}

// PublishChanges runs the publish-changes workflow: apply the ledger on a
// temp branch, publish every bumped package, tag, and merge back to the
// target branch. Any git or registry failure aborts the remaining sequence;
// the only rollback is the clean-tree discard of the temp branch.
func (o *Orchestrator) PublishChanges(ctx context.Context, ledger Ledger) (err error) {
	if !ledger.HasChanges() {
		o.UI.Info("no pending changes")
		return nil
	}

	runID, herr := o.History.BeginRun(ctx, "publish-changes")
	if herr != nil {
		o.UI.Warn("history: %v", herr)
	}
	status := "failed"
	defer func() {
		if ferr := o.History.FinishRun(ctx, runID, status); ferr != nil {
			o.UI.Warn("history: %v", ferr)
		}
	}()

	tempBranch := fmt.Sprintf("publish-temp-%d", o.now().Unix())
	o.UI.Step("creating temp branch %s", tempBranch)
	if err := o.Git.Checkout(ctx, tempBranch, true); err != nil {
		return err
	}

	if err := ledger.Apply(o.Workspace); err != nil {
		return err
	}
	if err := ledger.UpdateChangelogs(o.Workspace, o.Opts.RegenerateChangelogs, o.now()); err != nil {
		return err
	}

	dirty, err := o.Git.HasUncommittedChanges(ctx)
	if err != nil {
		return err
	}
	if !dirty {
		// Idempotence guard: nothing changed on disk, so discard the temp
		// branch without pushing anything.
		o.UI.Info("no changes produced; discarding %s", tempBranch)
		if err := o.Git.Checkout(ctx, o.Opts.TargetBranch, false); err != nil {
			return err
		}
		if err := o.Git.DeleteBranch(ctx, tempBranch, false); err != nil {
			return err
		}
		status = "no-op"
		return nil
	}

	if err := o.Git.AddChanges(ctx); err != nil {
		return err
	}
	if err := o.Git.Commit(ctx, "Applying package updates."); err != nil {
		return err
	}
	o.record(ctx, runID, "commit", "", "", tempBranch)

	if !o.Opts.Publish {
		o.UI.DryRun("changes applied and committed on %s; re-run with --publish to release", tempBranch)
		status = "applied"
		return nil
	}

	if err := o.Git.Push(ctx, tempBranch); err != nil {
		return err
	}

	records := ledger.Records()
	tag := PublishTag(o.Opts.Tag, HotfixOverride(records))

	// First pass: publish. The tag pass below does not start until every
	// qualifying package has been through this loop, so a mid-publish
	// failure leaves no partial tag set.
	for _, rec := range PublishCandidates(records) {
		desc, ok := o.Workspace.Projects[rec.PackageName]
		if !ok {
			o.UI.Skip(rec.PackageName, "no matching project in slipway.toml")
			continue
		}
		if !desc.ShouldPublish {
			o.UI.Skip(rec.PackageName, "publishing disabled in slipway.toml")
			continue
		}
		if err := o.publishPackage(ctx, runID, desc, tag); err != nil {
			return err
		}
	}

	// Second pass: tag.
	tagActions, err := TagCandidates(records, o.Workspace.Projects)
	if err != nil {
		return err
	}
	for _, ta := range tagActions {
		if err := o.Git.AddTag(ctx, o.shouldTag(), ta.PackageName, ta.Version); err != nil {
			return err
		}
		if o.shouldTag() {
			o.UI.Tagged(ta.PackageName + "@" + ta.Version)
			o.record(ctx, runID, "tag", ta.PackageName, ta.Version, "")
		}
	}
	if o.shouldTag() && len(tagActions) > 0 {
		if err := o.Git.PushTags(ctx); err != nil {
			return err
		}
	}

	o.UI.Step("merging %s into %s", tempBranch, o.Opts.TargetBranch)
	if err := o.Git.Checkout(ctx, o.Opts.TargetBranch, false); err != nil {
		return err
	}
	if err := o.Git.Pull(ctx); err != nil {
		return err
	}
	if err := o.Git.Merge(ctx, tempBranch); err != nil {
		return err
	}
	if err := o.Git.Push(ctx, o.Opts.TargetBranch); err != nil {
		return err
	}
	if err := o.Git.DeleteBranch(ctx, tempBranch, true); err != nil {
		return err
	}
	if err := o.Git.DeleteRemoteBranch(ctx, tempBranch); err != nil {
		return err
	}

	status = "ok"
	return nil
}

// publishPackage publishes one package unless its current version is already
// in the registry (and force is not set). Skips are diagnostics, not errors.
func (o *Orchestrator) publishPackage(ctx context.Context, runID int64, desc *workspace.ProjectDescriptor, tag string) error {
	dir := o.Workspace.ProjectDir(desc)
	published, err := o.Registry.PublishedVersions(ctx, desc.PackageName, dir, o.env())
	if err != nil {
		return err
	}
	if !o.Opts.Force && AlreadyPublished(desc.CurrentVersion, published) {
		o.UI.Skip(desc.PackageName, fmt.Sprintf("version %s already published", desc.CurrentVersion))
		return nil
	}
	opts := registry.PublishOptions{Env: o.env(), Tag: tag, Force: o.Opts.Force}
	if err := o.Registry.Publish(ctx, dir, opts); err != nil {
		return err
	}
	o.UI.Published(desc.PackageName, desc.CurrentVersion)
	o.record(ctx, runID, "publish", desc.PackageName, desc.CurrentVersion, tag)
	return nil
}

// PublishAll runs the publish-all workflow over every cataloged project.
// Qualifying packages are published (or packed) individually; the target
// branch is pushed once at the end, and only if something was published.
func (o *Orchestrator) PublishAll(ctx context.Context) error {
	if _, err := ParseReleaseType(o.Opts.ReleaseType); err != nil {
		return err
	}

	runID, herr := o.History.BeginRun(ctx, "publish-all")
	if herr != nil {
		o.UI.Warn("history: %v", herr)
	}
	status := "failed"
	defer func() {
		if ferr := o.History.FinishRun(ctx, runID, status); ferr != nil {
			o.UI.Warn("history: %v", ferr)
		}
	}()

	names := make([]string, 0, len(o.Workspace.Projects))
	for name := range o.Workspace.Projects {
		names = append(names, name)
	}
	sort.Strings(names)

	publishedAny := false
	for _, name := range names {
		desc := o.Workspace.Projects[name]
		if !QualifiesForAll(desc, o.Opts.VersionPolicy) {
			continue
		}

		if o.Opts.Pack {
			if err := o.packProject(ctx, runID, desc); err != nil {
				return err
			}
			continue
		}

		dir := o.Workspace.ProjectDir(desc)
		published, err := o.Registry.PublishedVersions(ctx, desc.PackageName, dir, o.env())
		if err != nil {
			return err
		}
		if !o.Opts.Force && AlreadyPublished(desc.CurrentVersion, published) {
			o.UI.Skip(desc.PackageName, "not updated")
			continue
		}
		if !o.Opts.Publish {
			o.UI.DryRun("would publish %s@%s", desc.PackageName, desc.CurrentVersion)
			continue
		}
		opts := registry.PublishOptions{Env: o.env(), Tag: o.Opts.Tag, Force: o.Opts.Force}
		if err := o.Registry.Publish(ctx, dir, opts); err != nil {
			return err
		}
		o.UI.Published(desc.PackageName, desc.CurrentVersion)
		o.record(ctx, runID, "publish", desc.PackageName, desc.CurrentVersion, o.Opts.Tag)
		publishedAny = true

		if err := o.Git.AddTag(ctx, o.shouldTag(), desc.PackageName, desc.CurrentVersion); err != nil {
			return err
		}
		if o.shouldTag() {
			o.UI.Tagged(desc.PackageName + "@" + desc.CurrentVersion)
			o.record(ctx, runID, "tag", desc.PackageName, desc.CurrentVersion, "")
		}
	}

	// One batched push, not one per package.
	if publishedAny {
		if err := o.Git.Push(ctx, o.Opts.TargetBranch); err != nil {
			return err
		}
	}

	status = "ok"
	return nil
}
