package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/topograph-dev/topograph/internal/output"
	intprogress "github.com/topograph-dev/topograph/internal/progress"
	"github.com/topograph-dev/topograph/pkg/engine"
)

var graphCmd = &cobra.Command{
	Use:     "graph [path]",
	Aliases: []string{"dag"},
	Short:   "Emit the dependency graph (Mermaid or JSON)",
	Args:    cobra.MaximumNArgs(1),
	RunE:    runGraph,
}

func init() {
	rootCmd.AddCommand(graphCmd)
}

func runGraph(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts := cfg.EngineOptions()
	opts.Reporter = intprogress.NewBarReporter()

	result, err := engine.New().Analyze(cmd.Context(), root, opts)
	if err != nil {
		return err
	}

	outFile, _ := cmd.Flags().GetString("output")
	formatter, err := output.NewFormatter(output.ParseFormat(getFormat(cmd, cfg)), outFile, cfg.Output.Color)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(result.Graph)
	}

	fmt.Fprintln(formatter.Writer(), "```mermaid")
	fmt.Fprint(formatter.Writer(), result.Graph.ToMermaid())
	fmt.Fprintln(formatter.Writer(), "```")
	return nil
}
