package main

import (
	"github.com/spf13/cobra"

	"github.com/topograph-dev/topograph/pkg/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "topograph",
	Short: "Dependency graph analysis engine",
	Long: `Topograph turns a source tree into a typed dependency graph, runs a
graph-metric suite over it (PageRank, k-core, communities, sampled
betweenness), and scores every file on four composite indices:
importance, risk, chokepoint, and refactor payoff.

Supports: JavaScript, TypeScript, Python, C`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to config file (TOML, YAML, or JSON)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringP("format", "f", "", "Output format: text, json, markdown")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Write output to file instead of stdout")
}

// loadConfig resolves the effective config: an explicit --config path
// or the standard search locations.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.Load(cfgFile)
	}
	return config.LoadOrDefault(), nil
}

func getFormat(cmd *cobra.Command, cfg *config.Config) string {
	if f, _ := cmd.Flags().GetString("format"); f != "" {
		return f
	}
	return cfg.Output.Format
}
