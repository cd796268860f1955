package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"repowiki/internal/config"
	"repowiki/internal/errors"
	"repowiki/internal/rules"
	"repowiki/internal/store"
)

var (
	initForce bool
	initRules bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a repowiki workspace",
	Long:  "Creates .repowiki/config.json with default settings in the workspace root",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing configuration")
	initCmd.Flags().BoolVar(&initRules, "rules", false, "Also write the built-in rules to .repowiki/rules.toml and use them")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	root, err := filepath.Abs(rootFlag)
	if err != nil {
		return errors.New(errors.InternalError, "Failed to resolve root", err)
	}
	out := cmd.OutOrStdout()

	configPath := filepath.Join(root, config.Dir, "config.json")
	if _, statErr := os.Stat(configPath); statErr == nil && !initForce {
		// Already initialized is success.
		fmt.Fprintln(out, "repowiki already initialized.")
		fmt.Fprintf(out, "Configuration at: %s\n", configPath)
		fmt.Fprintln(out, "\nRun 'repowiki init --force' to reinitialize.")
		return nil
	}

	cfg := config.DefaultConfig()
	if initRules {
		var buf bytes.Buffer
		if err := rules.Default().Dump(&buf); err != nil {
			return errors.New(errors.InternalError, "Failed to encode rules", err)
		}
		cfg.RulesFile = filepath.Join(config.Dir, "rules.toml")
		if err := store.WriteFileAtomic(config.Resolve(root, cfg.RulesFile), buf.Bytes()); err != nil {
			return errors.New(errors.InternalError, "Failed to write rules file", err)
		}
	}
	if err := cfg.Save(root); err != nil {
		return errors.New(errors.InternalError, "Failed to write config file", err)
	}

	fmt.Fprintf(out, "✓ Initialized repowiki in %s\n", filepath.Join(root, config.Dir))
	fmt.Fprintf(out, "  Config: %s\n", configPath)
	if cfg.RulesFile != "" {
		fmt.Fprintf(out, "  Rules:  %s\n", config.Resolve(root, cfg.RulesFile))
	}
	fmt.Fprintln(out, "\nNext: repowiki update <snapshot.json>")
	return nil
}
