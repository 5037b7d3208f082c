package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"privaflow/internal/util"
	"privaflow/pkg/export"
	"privaflow/pkg/flowgraph"
	"privaflow/pkg/logger"
	"privaflow/pkg/logger/console"
	"privaflow/pkg/pipeline"
)

func main() {
	var (
		recordsPath  string
		segmentsPath string
		outputDir    string
		mainParty    string
		topN         int
		rankBy       string
		sampleSize   int
		sampleRate   float64
		seed         int64
		writeXLSX    bool
	)

	rootCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run a privacy-policy data-flow analysis over local CSV files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalysis(cmd.Context(), analysisParams{
				recordsPath:  recordsPath,
				segmentsPath: segmentsPath,
				outputDir:    outputDir,
				mainParty:    mainParty,
				topN:         topN,
				rankBy:       rankBy,
				sampleSize:   sampleSize,
				sampleRate:   sampleRate,
				seed:         seed,
				writeXLSX:    writeXLSX,
			})
		},
	}

	rootCmd.Flags().StringVar(&recordsPath, "records", "", "Extraction records CSV")
	rootCmd.Flags().StringVar(&segmentsPath, "segments", "", "Text segments CSV (optional)")
	rootCmd.Flags().StringVar(&outputDir, "output", "results", "Output directory")
	rootCmd.Flags().StringVar(&mainParty, "main-party", "", "Canonical name of the policy's own organization")
	rootCmd.Flags().IntVar(&topN, "top-n", 10, "Entity count for the most-inward/most-outward tables")
	rootCmd.Flags().StringVar(&rankBy, "rank-by", "degree", "Top-N ranking: degree or weight")
	rootCmd.Flags().IntVar(&sampleSize, "sample-size", 0, "Verification sample size (overrides --sample-rate)")
	rootCmd.Flags().Float64Var(&sampleRate, "sample-rate", 0.4, "Verification sample fraction")
	rootCmd.Flags().Int64Var(&seed, "seed", 1, "Sampling seed")
	rootCmd.Flags().BoolVar(&writeXLSX, "xlsx", false, "Also write the verification sample as a workbook")
	_ = rootCmd.MarkFlagRequired("records")
	_ = rootCmd.MarkFlagRequired("main-party")

	util.LoadEnv()
	debug := util.GetEnvBool("DEBUG", false)
	logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	}))

	if err := rootCmd.Execute(); err != nil {
		logger.Fatal("Analysis failed", "err", err)
	}
}

type analysisParams struct {
	recordsPath  string
	segmentsPath string
	outputDir    string
	mainParty    string
	topN         int
	rankBy       string
	sampleSize   int
	sampleRate   float64
	seed         int64
	writeXLSX    bool
}

func runAnalysis(ctx context.Context, p analysisParams) error {
	records, err := os.Open(p.recordsPath)
	if err != nil {
		return fmt.Errorf("opening records: %w", err)
	}
	defer records.Close()

	var segments *os.File
	if p.segmentsPath != "" {
		segments, err = os.Open(p.segmentsPath)
		if err != nil {
			return fmt.Errorf("opening segments: %w", err)
		}
		defer segments.Close()
	}

	cfg := pipeline.Config{
		MainParty:  p.mainParty,
		TopN:       p.topN,
		RankBy:     flowgraph.RankBy(p.rankBy),
		SampleSize: p.sampleSize,
		SampleRate: p.sampleRate,
		Seed:       p.seed,
	}

	var result *pipeline.Result
	if segments != nil {
		result, err = pipeline.Run(ctx, records, segments, cfg)
	} else {
		result, err = pipeline.Run(ctx, records, nil, cfg)
	}
	if err != nil {
		return err
	}

	if err := os.MkdirAll(p.outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	if result.EmptyGraph {
		logger.Warn("[Analyze] Input produced an empty graph, writing summary only")
		return writeFile(p.outputDir, "basics.csv", func(f *os.File) error {
			return export.WriteBasicsCSV(f, result.Basics)
		})
	}

	outputs := []struct {
		name  string
		write func(*os.File) error
	}{
		{"nodes.csv", func(f *os.File) error { return export.WriteNodesCSV(f, result.Graph) }},
		{"edges.csv", func(f *os.File) error { return export.WriteEdgesCSV(f, result.Graph) }},
		{"degree.csv", func(f *os.File) error { return export.WriteDegreeCSV(f, result.Analysis.Degree) }},
		{"betweenness.csv", func(f *os.File) error { return export.WriteMetricCSV(f, result.Analysis.Betweenness) }},
		{"closeness.csv", func(f *os.File) error { return export.WriteMetricCSV(f, result.Analysis.Closeness) }},
		{"most_inward.csv", func(f *os.File) error { return export.WriteMetricCSV(f, result.Analysis.TopInward) }},
		{"most_outward.csv", func(f *os.File) error { return export.WriteMetricCSV(f, result.Analysis.TopOutward) }},
		{"longest_path.csv", func(f *os.File) error { return export.WriteLongestPathCSV(f, result.Analysis.LongestPath) }},
		{"basics.csv", func(f *os.File) error { return export.WriteBasicsCSV(f, result.Basics) }},
		{"verification.csv", func(f *os.File) error { return export.WriteVerificationCSV(f, result.Sample) }},
	}
	if result.Analysis.Tree != nil {
		outputs = append(outputs, struct {
			name  string
			write func(*os.File) error
		}{"tree.csv", func(f *os.File) error { return export.WriteTreeCSV(f, result.Analysis.Tree) }})
	}
	if p.writeXLSX {
		outputs = append(outputs, struct {
			name  string
			write func(*os.File) error
		}{"verification.xlsx", func(f *os.File) error { return export.WriteVerificationXLSX(f, result.Sample) }})
	}

	for _, out := range outputs {
		if err := writeFile(p.outputDir, out.name, out.write); err != nil {
			return err
		}
	}

	logger.Info("[Analyze] Results written",
		"dir", p.outputDir,
		"nodes", result.Basics.Nodes,
		"edges", result.Basics.Edges,
		"sampled", len(result.Sample.Records),
	)
	return nil
}

func writeFile(dir, name string, write func(*os.File) error) error {
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
