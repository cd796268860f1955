package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"repowiki/internal/config"
	"repowiki/internal/rules"
)

var (
	rulesDefault bool
	rulesCheck   string
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print or check classification rules",
	Long: `Prints the effective rule tables as TOML. With --default the built-in tables
are printed, which is a starting point for a rules override file. With
--check the given override file is compiled and reported.`,
	Args: cobra.NoArgs,
	RunE: runRules,
}

func init() {
	rulesCmd.Flags().BoolVar(&rulesDefault, "default", false, "Print the built-in rules")
	rulesCmd.Flags().StringVar(&rulesCheck, "check", "", "Validate a rules override file")
	rootCmd.AddCommand(rulesCmd)
}

func runRules(cmd *cobra.Command, args []string) error {
	if rulesCheck != "" {
		rs, err := rules.Load(rulesCheck)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %s, default %s\n",
			rulesCheck, pluralize(len(rs.Categories()), "category", "categories"), rs.DefaultCategory())
		return nil
	}

	rs := rules.Default()
	if !rulesDefault {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()
		if rs, err = rules.Load(config.Resolve(s.root, s.cfg.RulesFile)); err != nil {
			return err
		}
	}
	return rs.Dump(cmd.OutOrStdout())
}
