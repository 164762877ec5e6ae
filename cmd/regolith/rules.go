package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"regolith-hq/regolith/pkg/policy/inspect"
	"regolith-hq/regolith/pkg/policy/source"
)

var rulesFlags struct {
	jsonOutput bool
}

var rulesCmd = &cobra.Command{
	Use:   "rules <path>",
	Short: "Print the rule inventory for a policy file or directory",
	Long: `Scan Rego policy sources and print every rule with its name,
description, and source line span. Descriptions come from the comment
immediately preceding the rule head.

Examples:
  # Inventory a policy directory
  regolith rules ./policies

  # Machine-readable output
  regolith rules ./policies --json`,
	Args: cobra.ExactArgs(1),
	RunE: runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)

	rulesCmd.Flags().BoolVar(&rulesFlags.jsonOutput, "json", false, "output as JSON")
}

func runRules(cmd *cobra.Command, args []string) error {
	src := source.NewFileSource(args[0], nil)

	policies, err := src.LoadPolicies(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load policies: %v", err)
	}

	inventory := inspect.ExtractAll(policies)

	if rulesFlags.jsonOutput {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(inventory)
	}

	names := make([]string, 0, len(inventory))
	for name := range inventory {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		rules := inventory[name]
		fmt.Printf("%s (%d rules)\n", name, len(rules))
		for _, rule := range rules {
			if rule.Description != "" {
				fmt.Printf("  %s (lines %d-%d): %s\n", rule.Name, rule.StartLine, rule.EndLine, rule.Description)
			} else {
				fmt.Printf("  %s (lines %d-%d)\n", rule.Name, rule.StartLine, rule.EndLine)
			}
		}
	}
	return nil
}
