package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zerologr"
	"github.com/spf13/cobra"

	"github.com/rastergen/rastergen"
	_ "github.com/rastergen/rastergen/examples/generators"
	"github.com/rastergen/rastergen/pkg/log"
)

var (
	verbose bool
	genName string

	logger = logr.Discard()
)

var rootCmd = &cobra.Command{
	Use:          "rastergen",
	Short:        "Ahead-of-time compiler for registered pipeline generators",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = zerologr.New(log.New(verbose))
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered generators",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range rastergen.List() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
	},
}

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Show a generator and its parameters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		inst, err := rastergen.Create(genName)
		if err != nil {
			return err
		}
		inst.Describe(cmd.OutOrStdout())
		return nil
	},
}

var testCmd = &cobra.Command{
	Use:   "test [name=value ...]",
	Short: "Run a generator's self test",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		inst, err := rastergen.Create(genName)
		if err != nil {
			return err
		}
		if err := applyAssignments(inst, args); err != nil {
			return err
		}
		ok, diag := rastergen.Verify(inst)
		if !ok {
			return fmt.Errorf("self test of %q failed: %s", genName, diag)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ok %s: %s\n", genName, diag)
		return nil
	},
}

// applyAssignments sets positional name=value pairs, last write winning.
func applyAssignments(inst *rastergen.Instance, args []string) error {
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("malformed assignment %q, want name=value", arg)
		}
		if err := inst.SetParamString(name, value); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	zerologr.NameFieldName = "logger"
	zerologr.NameSeparator = "/"

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	describeCmd.Flags().StringVarP(&genName, "generator", "g", "", "generator name")
	_ = describeCmd.MarkFlagRequired("generator")
	testCmd.Flags().StringVarP(&genName, "generator", "g", "", "generator name")
	_ = testCmd.MarkFlagRequired("generator")

	rootCmd.AddCommand(listCmd, describeCmd, testCmd, genCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
