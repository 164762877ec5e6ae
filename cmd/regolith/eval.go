package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"regolith-hq/regolith/pkg/policy/engine"
	"regolith-hq/regolith/pkg/policy/source"
)

var evalFlags struct {
	policyPath string
	inputPath  string
	dataPath   string
	coverage   bool
}

var evalCmd = &cobra.Command{
	Use:   "eval <query>",
	Short: "Evaluate a query against a policy set",
	Long: `Load policies, evaluate a Rego query against them, and print the
result as JSON. An undefined result prints "undefined".

Examples:
  # Evaluate with an input document
  regolith eval --policy ./policies --input input.json "data.authz.allow"

  # Evaluate with external data
  regolith eval --policy ./policies --data roles.json "data.authz.allow"

  # Report which policy lines the evaluation covered
  regolith eval --policy ./policies --coverage "data.authz.allow"`,
	Args: cobra.ExactArgs(1),
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().StringVarP(&evalFlags.policyPath, "policy", "p", "./policies", "policy file or directory")
	evalCmd.Flags().StringVarP(&evalFlags.inputPath, "input", "i", "", "JSON input document file")
	evalCmd.Flags().StringVarP(&evalFlags.dataPath, "data", "d", "", "JSON external data file")
	evalCmd.Flags().BoolVar(&evalFlags.coverage, "coverage", false, "report evaluation coverage")
}

func runEval(cmd *cobra.Command, args []string) error {
	src := source.NewFileSource(evalFlags.policyPath, nil)

	policies, err := src.LoadPolicies(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load policies: %v", err)
	}

	eng := engine.New()
	if err := eng.ReplacePolicies(policies); err != nil {
		return fmt.Errorf("failed to compile policies: %v", err)
	}

	if evalFlags.inputPath != "" {
		data, err := os.ReadFile(evalFlags.inputPath)
		if err != nil {
			return fmt.Errorf("failed to read input file: %v", err)
		}
		if err := eng.SetInput(string(data)); err != nil {
			return err
		}
	}

	if evalFlags.dataPath != "" {
		data, err := os.ReadFile(evalFlags.dataPath)
		if err != nil {
			return fmt.Errorf("failed to read data file: %v", err)
		}
		if err := eng.AddData(string(data)); err != nil {
			return err
		}
	}

	eng.EnableCoverage(evalFlags.coverage)

	result, err := eng.EvalQuery(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if !result.Defined {
		fmt.Println("undefined")
	} else {
		encoded, err := json.MarshalIndent(result.Value, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %v", err)
		}
		fmt.Println(string(encoded))
	}

	if evalFlags.coverage {
		report, err := json.MarshalIndent(eng.Coverage(), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode coverage report: %v", err)
		}
		fmt.Fprintf(os.Stderr, "coverage: %s\n", report)
	}

	return nil
}
