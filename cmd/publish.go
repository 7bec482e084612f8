package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/calebmoss/slipway/internal/changes"
	"github.com/calebmoss/slipway/internal/config"
	"github.com/calebmoss/slipway/internal/git"
	"github.com/calebmoss/slipway/internal/history"
	"github.com/calebmoss/slipway/internal/publish"
	"github.com/calebmoss/slipway/internal/registry"
	"github.com/calebmoss/slipway/internal/ui"
	"github.com/calebmoss/slipway/internal/workspace"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Apply pending changes and publish packages",
	RunE:  runPublish,
}

func init() {
	f := publishCmd.Flags()
	f.Bool("apply", false, "apply pending change files on a temp branch")
	f.Bool("publish", false, "actually push, publish, and tag (otherwise dry run)")
	f.Bool("pack", false, "produce tarballs instead of publishing")
	f.String("registry", "", "custom registry URL")
	f.String("npm-auth-token", "", "registry auth token")
	f.String("tag", "", "dist-tag for published versions")
	f.String("target-branch", "", "branch to merge into (default from config)")
	f.String("prerelease-name", "", "prerelease naming token for bumped versions")
	f.String("suffix", "", "suffix appended to bumped versions")
	f.Bool("force", false, "publish even when the version already exists")
	f.Bool("include-all", false, "consider every publishable package")
	f.String("version-policy", "", "only include packages with this version policy")
	f.String("release-folder", "", "destination folder for tarballs (default from config)")
	f.String("release-type", "", "release type for pack runs: internal, public, or beta")
	f.Bool("regenerate-changelogs", false, "rewrite changelog files instead of prepending")
	f.Bool("commit-details", false, "enrich changelog entries with commit subjects")

	rootCmd.AddCommand(publishCmd)
}

// publishFlags is the resolved flag surface of the publish command,
// separated from cobra so combination rules are testable.
type publishFlags struct {
	Apply                bool
	Publish              bool
	Pack                 bool
	Registry             string
	AuthToken            string
	Tag                  string
	TargetBranch         string
	PrereleaseName       string
	Suffix               string
	Force                bool
	IncludeAll           bool
	VersionPolicy        string
	ReleaseFolder        string
	ReleaseType          string
	RegenerateChangelogs bool
	CommitDetails        bool
}

func collectPublishFlags(cmd *cobra.Command) publishFlags {
	var f publishFlags
	f.Apply, _ = cmd.Flags().GetBool("apply")
	f.Publish, _ = cmd.Flags().GetBool("publish")
	f.Pack, _ = cmd.Flags().GetBool("pack")
	f.Registry, _ = cmd.Flags().GetString("registry")
	f.AuthToken, _ = cmd.Flags().GetString("npm-auth-token")
	f.Tag, _ = cmd.Flags().GetString("tag")
	f.TargetBranch, _ = cmd.Flags().GetString("target-branch")
	f.PrereleaseName, _ = cmd.Flags().GetString("prerelease-name")
	f.Suffix, _ = cmd.Flags().GetString("suffix")
	f.Force, _ = cmd.Flags().GetBool("force")
	f.IncludeAll, _ = cmd.Flags().GetBool("include-all")
	f.VersionPolicy, _ = cmd.Flags().GetString("version-policy")
	f.ReleaseFolder, _ = cmd.Flags().GetString("release-folder")
	f.ReleaseType, _ = cmd.Flags().GetString("release-type")
	f.RegenerateChangelogs, _ = cmd.Flags().GetBool("regenerate-changelogs")
	f.CommitDetails, _ = cmd.Flags().GetBool("commit-details")
	return f
}

// validatePublishFlags enforces the mutually exclusive and dependent flag
// combinations. All of these are configuration errors and fail before any
// side effect.
func validatePublishFlags(f publishFlags) error {
	switch {
	case !f.Apply && !f.IncludeAll:
		return errors.New("one of --apply or --include-all is required")
	case f.Apply && f.IncludeAll:
		return errors.New("--apply and --include-all are mutually exclusive")
	case f.Pack && !f.IncludeAll:
		return errors.New("--pack requires --include-all")
	case f.ReleaseFolder != "" && !f.Pack:
		return errors.New("--release-folder requires --pack")
	case f.ReleaseType != "" && !f.Pack:
		return errors.New("--release-type requires --pack")
	case f.Registry != "" && f.Pack:
		return errors.New("--registry conflicts with --pack")
	case f.PrereleaseName != "" && f.Suffix != "":
		return errors.New("--prerelease-name and --suffix are mutually exclusive")
	}
	if _, err := publish.ParseReleaseType(f.ReleaseType); err != nil {
		return err
	}
	return nil
}

func runPublish(cmd *cobra.Command, args []string) error {
	flags := collectPublishFlags(cmd)
	if err := validatePublishFlags(flags); err != nil {
		return err
	}

	cfg := config.Load()
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		cfg.Verbose = true
	}
	if flags.TargetBranch == "" {
		flags.TargetBranch = cfg.TargetBranch
	}
	if flags.ReleaseFolder == "" {
		flags.ReleaseFolder = cfg.ReleaseFolder
	}

	printer := ui.New()
	wd, err := os.Getwd()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	orch, ledger, err := buildOrchestrator(ctx, wd, cfg, flags, printer)
	if err != nil {
		return err
	}
	defer orch.History.Close()

	if flags.Apply {
		return orch.PublishChanges(ctx, ledger)
	}
	return orch.PublishAll(ctx)
}

// buildOrchestrator wires the workspace, collaborators, and run ledger into
// a ready orchestrator. A history store that fails to open is a warning, not
// a fatal error: publishing must not depend on local bookkeeping.
func buildOrchestrator(ctx context.Context, wd string, cfg config.Config, flags publishFlags, printer *ui.Printer) (*publish.Orchestrator, *changes.Ledger, error) {
	ws, err := workspace.Load(wd)
	if err != nil {
		return nil, nil, err
	}

	gitClient, err := git.New(ctx, cfg.GitPath, wd)
	if err != nil {
		return nil, nil, err
	}
	gitClient.Verbose = cfg.Verbose

	reg, err := registry.New(cfg.NpmPath)
	if err != nil {
		return nil, nil, err
	}
	reg.Verbose = cfg.Verbose

	hist, err := history.Open(ctx, filepath.Join(wd, cfg.HistoryPath))
	if err != nil {
		printer.Warn("history disabled: %v", err)
		hist = nil
	}

	var ledger *changes.Ledger
	if flags.Apply {
		ledger, err = changes.Load(filepath.Join(wd, cfg.ChangesDir), changes.LoadOptions{
			PrereleaseName:       flags.PrereleaseName,
			Suffix:               flags.Suffix,
			IncludeCommitDetails: flags.CommitDetails,
		})
		if err != nil {
			return nil, nil, err
		}
	}

	orch := &publish.Orchestrator{
		Git:       gitClient,
		Registry:  reg,
		Workspace: ws,
		UI:        printer,
		History:   hist,
		Opts: publish.Options{
			Publish:              flags.Publish,
			Pack:                 flags.Pack,
			RegistryURL:          flags.Registry,
			AuthToken:            flags.AuthToken,
			Tag:                  flags.Tag,
			TargetBranch:         flags.TargetBranch,
			Force:                flags.Force,
			VersionPolicy:        flags.VersionPolicy,
			ReleaseFolder:        flags.ReleaseFolder,
			ReleaseType:          flags.ReleaseType,
			RegenerateChangelogs: flags.RegenerateChangelogs,
		},
	}
	return orch, ledger, nil
}
