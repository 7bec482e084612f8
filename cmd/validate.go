package cmd

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/calebmoss/slipway/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that required tools are available",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		ok := true

		if _, err := exec.LookPath(cfg.GitPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ git: %v\n", err)
			ok = false
		} else {
			fmt.Fprintln(os.Stderr, "✓ git found")
		}

		if _, err := exec.LookPath(cfg.NpmPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ npm: %v\n", err)
			ok = false
		} else {
			fmt.Fprintln(os.Stderr, "✓ npm found")
		}

		if !ok {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
