package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/briandowns/spinner"
	"github.com/recomp/recomp/config"
	"github.com/recomp/recomp/logger"
	"github.com/recomp/recomp/pkg/compare"
	"github.com/recomp/recomp/pkg/core"
	"github.com/recomp/recomp/pkg/readers"
	"github.com/recomp/recomp/pkg/writers"
	"github.com/recomp/recomp/report"
	"github.com/spf13/cobra"
)

// CompareOptions represents the options for the compare command.
type CompareOptions struct {
	ConfigPath string

	LeftPath  string
	RightPath string
	LeftType  string
	RightType string

	KeyColumns []string
	OnIndex    bool
	AbsTol     float64
	RelTol     float64
	LeftName   string
	RightName  string

	Parallel   bool
	NumWorkers int
	BatchSize  int64

	TextPath    string
	JSONPath    string
	HTMLPath    string
	SampleCount int

	OutputDir    string
	OutputFormat string
}

// newCompareCommand creates a new compare command.
func newCompareCommand() *cobra.Command {
	options := &CompareOptions{
		LeftType:     "auto",
		RightType:    "auto",
		Parallel:     true,
		NumWorkers:   4,
		BatchSize:    10000,
		SampleCount:  10,
		OutputFormat: "parquet",
	}

	cmd := &cobra.Command{
		Use:   "compare [flags] LEFT RIGHT",
		Short: "Compare two datasets and report their differences",
		Long: `The compare command matches the records of two datasets and reports,
per column, where the matched rows disagree.

Records are matched on the key columns given with --key, or by row
position with --on-index. Numeric columns compare equal when
|left-right| <= abs-tol + rel-tol*|right|. Duplicate keys are paired by
sorting each key group by the remaining columns.

With --config the datasets and settings come from a YAML file and the
positional arguments are omitted.`,
		Args: cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if options.ConfigPath == "" && len(args) != 2 {
				return fmt.Errorf("provide LEFT and RIGHT paths, or --config")
			}
			if len(args) == 2 {
				options.LeftPath = args[0]
				options.RightPath = args[1]
			}
			return runCompare(options)
		},
	}

	cmd.Flags().StringVarP(&options.ConfigPath, "config", "c", "", "YAML configuration file")
	cmd.Flags().StringVar(&options.LeftType, "left-type", options.LeftType, "Left dataset type (csv, parquet, arrow, adbc, auto)")
	cmd.Flags().StringVar(&options.RightType, "right-type", options.RightType, "Right dataset type (csv, parquet, arrow, adbc, auto)")
	cmd.Flags().StringSliceVarP(&options.KeyColumns, "key", "k", nil, "Key columns to match records on")
	cmd.Flags().BoolVar(&options.OnIndex, "on-index", false, "Match records by row position instead of key columns")
	cmd.Flags().Float64Var(&options.AbsTol, "abs-tol", 0, "Absolute tolerance for numeric comparisons")
	cmd.Flags().Float64Var(&options.RelTol, "rel-tol", 0, "Relative tolerance for numeric comparisons")
	cmd.Flags().StringVar(&options.LeftName, "left-name", "", "Display name for the left dataset")
	cmd.Flags().StringVar(&options.RightName, "right-name", "", "Display name for the right dataset")
	cmd.Flags().BoolVar(&options.Parallel, "parallel", options.Parallel, "Compare columns in parallel")
	cmd.Flags().IntVar(&options.NumWorkers, "workers", options.NumWorkers, "Number of worker threads for parallel comparison")
	cmd.Flags().Int64VarP(&options.BatchSize, "batch-size", "b", options.BatchSize, "Batch size for reading")
	cmd.Flags().StringVar(&options.TextPath, "text-report", "", "Write the text report to this path instead of stdout")
	cmd.Flags().StringVar(&options.JSONPath, "json-report", "", "Write a JSON report to this path")
	cmd.Flags().StringVar(&options.HTMLPath, "html-report", "", "Write an HTML report to this path")
	cmd.Flags().IntVar(&options.SampleCount, "samples", options.SampleCount, "Mismatched rows to sample per column")
	cmd.Flags().StringVarP(&options.OutputDir, "output-dir", "o", "", "Export matched and unmatched row partitions to this directory")
	cmd.Flags().StringVarP(&options.OutputFormat, "format", "f", options.OutputFormat, "Partition export format (parquet, arrow, csv, json)")

	return cmd
}

// applyConfig overlays file settings onto the options. Flags that were set
// explicitly keep their values.
func applyConfig(options *CompareOptions, cfg *config.Config) {
	if options.LeftPath == "" {
		options.LeftPath = cfg.Left.Path
	}
	if options.RightPath == "" {
		options.RightPath = cfg.Right.Path
	}
	if options.LeftType == "auto" && cfg.Left.Type != "" {
		options.LeftType = cfg.Left.Type
	}
	if options.RightType == "auto" && cfg.Right.Type != "" {
		options.RightType = cfg.Right.Type
	}
	if options.KeyColumns == nil {
		options.KeyColumns = cfg.Compare.JoinColumns
	}
	if !options.OnIndex {
		options.OnIndex = cfg.Compare.OnIndex
	}
	if options.AbsTol == 0 {
		options.AbsTol = cfg.Compare.AbsTol
	}
	if options.RelTol == 0 {
		options.RelTol = cfg.Compare.RelTol
	}
	if options.LeftName == "" {
		options.LeftName = cfg.Compare.LeftName
	}
	if options.RightName == "" {
		options.RightName = cfg.Compare.RightName
	}
	if cfg.Compare.Workers > 0 {
		options.NumWorkers = cfg.Compare.Workers
	}
	if options.TextPath == "" {
		options.TextPath = cfg.Report.TextPath
	}
	if options.JSONPath == "" {
		options.JSONPath = cfg.Report.JSONPath
	}
	if options.HTMLPath == "" {
		options.HTMLPath = cfg.Report.HTMLPath
	}
	if cfg.Report.SampleCount > 0 {
		options.SampleCount = cfg.Report.SampleCount
	}
}

// runCompare executes the compare command with the given options.
func runCompare(options *CompareOptions) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Println("\nCancelling operation...")
		cancel()
	}()

	var fileCfg *config.Config
	if options.ConfigPath != "" {
		cfg, err := config.LoadConfig(options.ConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		applyConfig(options, cfg)
		fileCfg = cfg
	}

	log := logger.Named("compare")
	defer logger.Sync()

	spin := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	spin.Suffix = " Loading datasets..."
	spin.Start()

	left, err := readers.Load(ctx, readerConfig(options.LeftPath, options.LeftType, options.BatchSize, fileCfg, true))
	if err != nil {
		spin.Stop()
		return fmt.Errorf("failed to load left dataset: %w", err)
	}
	defer left.Release()

	right, err := readers.Load(ctx, readerConfig(options.RightPath, options.RightType, options.BatchSize, fileCfg, false))
	if err != nil {
		spin.Stop()
		return fmt.Errorf("failed to load right dataset: %w", err)
	}
	defer right.Release()

	spin.Suffix = " Comparing..."

	comparison, err := compare.NewComparison(left, right, compare.Options{
		JoinColumns: options.KeyColumns,
		OnIndex:     options.OnIndex,
		AbsTol:      options.AbsTol,
		RelTol:      options.RelTol,
		LeftName:    options.LeftName,
		RightName:   options.RightName,
		Parallel:    options.Parallel,
		NumWorkers:  options.NumWorkers,
		Logger:      log,
	})
	spin.Stop()
	if err != nil {
		return err
	}
	defer comparison.Release()

	reportOpts := report.Options{SampleCount: options.SampleCount}

	if options.TextPath == "" {
		text, err := (&report.TextGenerator{}).Generate(comparison, reportOpts)
		if err != nil {
			return fmt.Errorf("failed to render report: %w", err)
		}
		fmt.Print(string(text))
	}

	if err := report.SaveReports(comparison, reportOpts, report.Paths{
		Text: options.TextPath,
		JSON: options.JSONPath,
		HTML: options.HTMLPath,
	}); err != nil {
		return fmt.Errorf("failed to save reports: %w", err)
	}

	if options.OutputDir != "" {
		if err := exportPartitions(ctx, comparison, options.OutputDir, options.OutputFormat); err != nil {
			return fmt.Errorf("failed to export partitions: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Partitions written to %s\n", options.OutputDir)
	}

	if !comparison.Matches(false) {
		os.Exit(1)
	}
	return nil
}

// readerConfig builds the reader configuration for one side, folding in the
// ADBC settings from the config file when present.
func readerConfig(path, typ string, batchSize int64, cfg *config.Config, isLeft bool) core.ReaderConfig {
	rc := core.ReaderConfig{Path: path, BatchSize: batchSize}
	if typ != "auto" {
		rc.Type = typ
	}
	if cfg != nil {
		src := cfg.Right
		if isLeft {
			src = cfg.Left
		}
		rc.Driver = src.Driver
		rc.URI = src.URI
		rc.Table = src.Table
		rc.Query = src.Query
		if src.BatchSize > 0 {
			rc.BatchSize = src.BatchSize
		}
	}
	return rc
}

// exportPartitions writes the matched, left-only and right-only rows as
// separate files in the chosen format.
func exportPartitions(ctx context.Context, c *compare.Comparison, dir, format string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	partitions := map[string]arrow.Record{
		"matched":    c.MatchedRows(),
		"left_only":  c.LeftOnlyRows(),
		"right_only": c.RightOnlyRows(),
	}
	for name, rec := range partitions {
		if rec == nil || rec.NumRows() == 0 {
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("%s.%s", name, format))
		if err := writers.Save(ctx, core.WriterConfig{Type: format, Path: path}, rec); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return nil
}
