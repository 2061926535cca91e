package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"stockpulse/internal/config"
	"stockpulse/internal/dataprocessing"
	"stockpulse/internal/exporter"
	"stockpulse/internal/infrastructure"
	"stockpulse/internal/validation"
	"stockpulse/pkg/contracts/domain"
)

// output is what the processor prints to stdout
type output struct {
	Dataset datasetSummary `json:"dataset"`
	Views   *domain.Views  `json:"views"`
	Reports []string       `json:"reports,omitempty"`
}

type datasetSummary struct {
	FileName  string `json:"file_name"`
	Format    string `json:"format"`
	SheetName string `json:"sheet_name"`
	RowCount  int    `json:"row_count"`
}

// options are the parsed command-line flags
type options struct {
	in        string
	from      string
	to        string
	processes []domain.Process
	outDir    string
	format    exporter.Format
	logLevel  string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "processor: %v\n", err)
		}
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("processor", flag.ContinueOnError)
	fs.SetOutput(stderr)

	in := fs.String("in", "", "movement workbook to process (.xlsx, .xls or .csv)")
	from := fs.String("from", "", "first date to include, YYYY-MM-DD")
	to := fs.String("to", "", "last date to include, YYYY-MM-DD")
	process := fs.String("process", "", "comma-separated processes to include (Entrada,Salida,Devolucion,Legalizado,Sin Proceso)")
	out := fs.String("out", "", "directory to write the inventory and stock reports to")
	format := fs.String("format", "xlsx", "report format: xlsx or csv")
	logLevel := fs.String("log-level", "warn", "log level written to stderr")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *in == "" {
		fs.Usage()
		return nil, fmt.Errorf("-in is required")
	}

	f, err := exporter.ParseFormat(*format)
	if err != nil {
		return nil, err
	}

	opts := &options{
		in:       *in,
		from:     *from,
		to:       *to,
		outDir:   *out,
		format:   f,
		logLevel: *logLevel,
	}
	for _, p := range strings.Split(*process, ",") {
		if p = strings.TrimSpace(p); p != "" {
			opts.processes = append(opts.processes, domain.Process(p))
		}
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	logger := infrastructure.NewLoggerWithWriter(stderr, opts.logLevel).
		With(slog.String("component", "processor"))

	cfg, err := config.Load()
	if err != nil {
		logger.WarnContext(ctx, "configuration not loaded, using defaults",
			slog.String("error", err.Error()))
		cfg = config.Default()
	}
	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}

	q := domain.QueryState{DateFrom: opts.from, DateTo: opts.to, Processes: opts.processes}
	if err := validation.NewQueryValidator().Validate(q); err != nil {
		return fmt.Errorf("invalid filters: %w", err)
	}

	files := validation.NewFileValidator(logger)
	if err := files.ValidateWorkbookFile(opts.in); err != nil {
		return err
	}
	data, err := os.ReadFile(opts.in)
	if err != nil {
		return fmt.Errorf("read %s: %w", opts.in, err)
	}

	start := time.Now()
	ds, err := dataprocessing.Ingest(filepath.Base(opts.in), data, dataprocessing.NewNormalizer(loc))
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", opts.in, err)
	}
	logger.InfoContext(ctx, "workbook ingested",
		slog.String("file", opts.in),
		slog.String("format", ds.Format),
		slog.Int("rows", len(ds.Records)),
		slog.Duration("duration", time.Since(start)))

	engine := dataprocessing.NewEngine(
		dataprocessing.WithLocation(loc),
		dataprocessing.WithParetoLimit(cfg.Ingest.ParetoLimit),
		dataprocessing.WithTopStockLimit(cfg.Ingest.TopStockLimit),
		dataprocessing.WithLogger(logger),
	)
	views, err := engine.Compute(ctx, ds.Records, q)
	if err != nil {
		return fmt.Errorf("compute views: %w", err)
	}

	result := output{
		Dataset: datasetSummary{
			FileName:  filepath.Base(opts.in),
			Format:    ds.Format,
			SheetName: ds.SheetName,
			RowCount:  len(ds.Records),
		},
		Views: views,
	}

	if opts.outDir != "" {
		result.Reports, err = writeReports(opts, ds.Records, q, loc, files, logger)
		if err != nil {
			return err
		}
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// writeReports saves both reports for the records matching q
func writeReports(opts *options, records []domain.MovementRecord, q domain.QueryState, loc *time.Location, files *validation.FileValidator, logger *slog.Logger) ([]string, error) {
	if err := files.ValidateOutputDirectory(opts.outDir); err != nil {
		return nil, err
	}

	matched, err := dataprocessing.ApplyQuery(records, q, loc)
	if err != nil {
		return nil, err
	}
	summary := dataprocessing.CalculateMaterialSummary(matched)

	exp := exporter.New(logger)
	now := time.Now().In(loc)
	var paths []string
	for _, report := range []exporter.Report{exporter.InventoryReport, exporter.StockReport} {
		path, err := exp.SaveToDir(opts.outDir, report, opts.format, summary, now)
		if err != nil {
			return paths, fmt.Errorf("write %s report: %w", report.Kind, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
