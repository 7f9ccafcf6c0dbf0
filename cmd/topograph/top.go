package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/topograph-dev/topograph/internal/output"
	intprogress "github.com/topograph-dev/topograph/internal/progress"
	"github.com/topograph-dev/topograph/pkg/engine"
)

var topCmd = &cobra.Command{
	Use:   "top <metric> [path]",
	Short: "Rank files by a metric (importance, risk, chokepoint, payoff, pagerank, ...)",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runTop,
}

func init() {
	topCmd.Flags().IntP("count", "k", 10, "Number of files to show")
	rootCmd.AddCommand(topCmd)
}

func runTop(cmd *cobra.Command, args []string) error {
	metric := args[0]
	root := "."
	if len(args) > 1 {
		root = args[1]
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts := cfg.EngineOptions()
	opts.Reporter = intprogress.NewBarReporter()

	eng := engine.New()
	if _, err := eng.Analyze(cmd.Context(), root, opts); err != nil {
		return err
	}

	k, _ := cmd.Flags().GetInt("count")
	top, err := eng.TopBy(metric, k)
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
		return formatter.JSON(top)
	}

	rows := make([][]string, len(top))
	for i, rec := range top {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			rec.Path,
			fmt.Sprintf("%.3f", rec.Importance),
			fmt.Sprintf("%.3f", rec.Risk),
			fmt.Sprintf("%.3f", rec.Payoff),
		}
	}
	return formatter.Table(fmt.Sprintf("Top %d by %s", len(top), metric),
		[]string{"#", "Path", "Importance", "Risk", "Payoff"}, rows)
}
