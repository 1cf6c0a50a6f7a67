package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aretw0/tenken/internal/platform"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a tenken project in the current directory",
	Long: `Create tenken.yaml and the .tenken data directory in the current directory,
seeded with the built-in checklist.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}

		cfgFile := filepath.Join(cwd, platform.ConfigFile)
		if _, err := os.Stat(cfgFile); errors.Is(err, os.ErrNotExist) {
			cfg := platform.Config{Adapter: firstNonEmpty(adapter, "fs"), Locale: localeName}
			if err := cfg.Save(cfgFile); err != nil {
				return fmt.Errorf("failed to write %s: %w", platform.ConfigFile, err)
			}
		}

		return withSession(func(cmd *cobra.Command, args []string, e *env) error {
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized tenken project in %s (template: %s)\n", e.root, e.sess.CurrentTemplate())
			return nil
		})(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
