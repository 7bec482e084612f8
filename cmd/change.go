package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/calebmoss/slipway/internal/changes"
	"github.com/calebmoss/slipway/internal/config"
	"github.com/calebmoss/slipway/internal/workspace"
)

var changeCmd = &cobra.Command{
	Use:   "change",
	Short: "Author or list pending change files",
	RunE:  runChange,
}

func init() {
	changeCmd.Flags().String("project", "", "package name the change applies to")
	changeCmd.Flags().String("type", "", "change type: none, dependency, hotfix, patch, minor, or major")
	changeCmd.Flags().String("message", "", "changelog comment for the change")
	changeCmd.Flags().Bool("list", false, "list pending change files")

	rootCmd.AddCommand(changeCmd)
}

func runChange(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	changesDir := filepath.Join(wd, cfg.ChangesDir)

	if list, _ := cmd.Flags().GetBool("list"); list {
		ledger, err := changes.Load(changesDir, changes.LoadOptions{})
		if err != nil {
			return err
		}
		if !ledger.HasChanges() {
			fmt.Println("no pending changes")
			return nil
		}
		for _, rec := range ledger.Records() {
			fmt.Printf("%-12s %s", rec.Type, rec.PackageName)
			if rec.Comment != "" {
				fmt.Printf(": %s", rec.Comment)
			}
			fmt.Println()
		}
		return nil
	}

	project, _ := cmd.Flags().GetString("project")
	typeName, _ := cmd.Flags().GetString("type")
	message, _ := cmd.Flags().GetString("message")
	if project == "" || typeName == "" {
		return errors.New("--project and --type are required (or use --list)")
	}

	t, err := changes.ParseChangeType(typeName)
	if err != nil {
		return err
	}

	// The package must be cataloged; a typo here would surface much later
	// as a skipped publish.
	ws, err := workspace.Load(wd)
	if err != nil {
		return err
	}
	if _, ok := ws.Projects[project]; !ok {
		return fmt.Errorf("package %q not found in %s", project, workspace.CatalogName)
	}

	path, err := changes.Create(changesDir, project, t, message)
	if err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
