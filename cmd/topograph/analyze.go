package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/topograph-dev/topograph/internal/output"
	intprogress "github.com/topograph-dev/topograph/internal/progress"
	"github.com/topograph-dev/topograph/internal/vcs"
	"github.com/topograph-dev/topograph/pkg/ast"
	"github.com/topograph-dev/topograph/pkg/discovery"
	"github.com/topograph-dev/topograph/pkg/engine"
	"github.com/topograph-dev/topograph/pkg/source"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Analyze a source tree and score every file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("ref", "", "Analyze a committed revision instead of the working tree")
	analyzeCmd.Flags().Int("workers", 0, "Parser worker count (default: logical CPUs)")
	analyzeCmd.Flags().Uint64("seed", 0, "RNG seed for sampling and community tie-breaks")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts := cfg.EngineOptions()
	if workers, _ := cmd.Flags().GetInt("workers"); workers > 0 {
		opts.Workers = workers
	}
	if seed, _ := cmd.Flags().GetUint64("seed"); seed != 0 {
		opts.RNGSeed = seed
	}
	opts.Reporter = intprogress.NewBarReporter()

	eng := engine.New()
	var result *engine.AnalysisResult
	if ref, _ := cmd.Flags().GetString("ref"); ref != "" {
		result, err = analyzeRef(cmd.Context(), eng, root, ref, opts)
	} else {
		result, err = eng.Analyze(cmd.Context(), root, opts)
	}
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
		return formatter.JSON(result)
	}
	return renderAnalysis(formatter, eng, result)
}

// analyzeRef enumerates a committed git tree and feeds it to the
// engine through the external-enumerator seam.
func analyzeRef(ctx context.Context, eng *engine.Engine, root, ref string, opts engine.Options) (*engine.AnalysisResult, error) {
	repo, err := vcs.DefaultOpener().PlainOpenWithDetect(root)
	if err != nil {
		return nil, err
	}
	tree, err := repo.TreeAt(ref)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", ref, err)
	}

	src := source.NewTree(tree)
	var files []discovery.File
	err = tree.Files(func(path string) error {
		lang := ast.DetectLanguage(path)
		if lang == ast.LangUnknown {
			return nil
		}
		content, rerr := src.Read(path)
		if rerr != nil {
			return nil
		}
		files = append(files, discovery.File{
			Path:     filepath.Join(repo.Root(), path),
			Content:  content,
			Language: lang,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return eng.AnalyzeFiles(ctx, files, opts)
}

func renderAnalysis(formatter *output.Formatter, eng *engine.Engine, result *engine.AnalysisResult) error {
	s := result.Summary
	if err := formatter.Table("Summary",
		[]string{"Metric", "Value"},
		[][]string{
			{"State", string(result.State)},
			{"Files", strconv.Itoa(s.TotalNodes)},
			{"Import edges", strconv.Itoa(s.TotalEdges)},
			{"Communities", strconv.Itoa(s.CommunityCount)},
			{"Modularity", fmt.Sprintf("%.4f", s.Modularity)},
			{"Avg complexity", fmt.Sprintf("%.2f", s.AvgComplexity)},
			{"High risk (>0.7)", strconv.Itoa(s.HighRiskCount)},
			{"Circular groups", strconv.Itoa(s.CircularGroups)},
		}); err != nil {
		return err
	}

	top, err := eng.TopBy("importance", 10)
	if err == nil && len(top) > 0 {
		rows := make([][]string, len(top))
		for i, rec := range top {
			rows[i] = []string{
				filepath.Base(rec.Path),
				fmt.Sprintf("%.3f", rec.Importance),
				fmt.Sprintf("%.3f", rec.Risk),
				fmt.Sprintf("%.3f", rec.Chokepoint),
				fmt.Sprintf("%.3f", rec.Payoff),
				strconv.Itoa(rec.Community),
			}
		}
		if err := formatter.Table("Top files by importance",
			[]string{"File", "Importance", "Risk", "Chokepoint", "Payoff", "Community"}, rows); err != nil {
			return err
		}
	}

	if n := len(result.Diagnostics); n > 0 {
		formatter.Warning("%d diagnostics (parse errors, unresolved imports, timeouts)", n)
		if verbose {
			for _, d := range result.Diagnostics {
				fmt.Fprintf(formatter.Writer(), "  [%s] %s %s\n", d.Kind, d.Path, d.Message)
			}
		}
	} else {
		formatter.Success("Analysis complete, no diagnostics")
	}
	return nil
}
