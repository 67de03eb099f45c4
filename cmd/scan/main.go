package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/p1nka/cbuae-dormancy/internal/config"
	"github.com/p1nka/cbuae-dormancy/internal/domain"
	"github.com/p1nka/cbuae-dormancy/internal/export"
	"github.com/p1nka/cbuae-dormancy/internal/logging"
	"github.com/p1nka/cbuae-dormancy/internal/service"
	"github.com/p1nka/cbuae-dormancy/internal/store"
)

func main() {
	var (
		asOfFlag   = flag.String("as-of", "", "Reference date as YYYY-MM-DD (defaults to today)")
		formatFlag = flag.String("format", "table", "Report format: table, json, csv, or pdf")
		outFlag    = flag.String("output", "", "Output path (defaults to stdout)")
		dbFlag     = flag.String("db", "", "Scan store path (defaults to STORE_PATH; \"none\" keeps history in memory)")
		workers    = flag.Int("workers", 4, "Number of concurrent workers when scanning multiple files")
	)
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "usage: scan [flags] dataset.csv [dataset.csv ...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Reports go to stdout, so logs go to stderr.
	logger := logging.NewWithWriter(os.Stderr, cfg.Logging).With("component", "scan")

	format := *formatFlag
	switch format {
	case "text":
		format = "table"
	case "table", "json", "csv", "pdf":
	default:
		logger.Error("unknown format", "format", format)
		os.Exit(2)
	}
	if (format == "csv" || format == "pdf") && len(paths) > 1 {
		logger.Error("csv and pdf formats accept a single dataset", "format", format, "datasets", len(paths))
		os.Exit(2)
	}

	var asOf *time.Time
	if *asOfFlag != "" {
		parsed, err := time.Parse(time.DateOnly, *asOfFlag)
		if err != nil {
			logger.Error("invalid as-of date, expected YYYY-MM-DD", "value", *asOfFlag)
			os.Exit(2)
		}
		asOf = &parsed
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	scanStore, closeStore, err := openStore(cfg, *dbFlag)
	if err != nil {
		logger.Error("failed to open scan store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("closing scan store failed", "error", err)
		}
	}()

	svc := service.NewComplianceService(scanStore)
	scanner := service.NewBatchScanner(svc, *workers)

	start := time.Now()
	scans, scanErr := scanner.ScanFiles(ctx, paths, asOf)
	if scanErr != nil {
		var taskErr *service.TaskError
		if errors.As(scanErr, &taskErr) {
			for _, err := range taskErr.Errors {
				logger.Error("dataset scan failed", "error", err)
			}
		} else {
			logger.Error("batch scan aborted", "error", scanErr)
			os.Exit(1)
		}
	}

	out := io.Writer(os.Stdout)
	if *outFlag != "" {
		file, err := os.Create(*outFlag)
		if err != nil {
			logger.Error("failed to create output file", "error", err, "path", *outFlag)
			os.Exit(1)
		}
		defer file.Close()
		out = file
	}

	if err := render(out, format, scans); err != nil {
		logger.Error("failed to write report", "error", err)
		os.Exit(1)
	}

	logger.Info("scan complete",
		"datasets", len(paths),
		"succeeded", len(scans),
		"duration", time.Since(start).String(),
	)
	if scanErr != nil {
		os.Exit(1)
	}
}

// openStore resolves the scan store: the configured SQLite path by default,
// an explicit -db path when given, or an in-memory store for runs that should
// leave no history behind.
func openStore(cfg config.Config, dbFlag string) (service.ScanStore, func() error, error) {
	if dbFlag == "none" {
		memStore := store.NewMemoryStore()
		return memStore, memStore.Close, nil
	}
	path := cfg.Storage.Path
	if dbFlag != "" {
		path = dbFlag
	}
	sqlStore, err := store.NewSQLiteStore(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	return sqlStore, sqlStore.Close, nil
}

// scanOutput is the JSON shape of one completed scan.
type scanOutput struct {
	Path      string
	ScanID    string
	CreatedAt time.Time
	Report    domain.ScanReport
}

func render(out io.Writer, format string, scans []service.FileScan) error {
	switch format {
	case "csv":
		if len(scans) == 0 {
			return nil
		}
		return export.WriteDormantCSV(out, scans[0].Result.Report)
	case "pdf":
		if len(scans) == 0 {
			return nil
		}
		return export.WriteSummaryPDF(out, scans[0].Result.Report)
	case "json":
		outputs := make([]scanOutput, 0, len(scans))
		for _, scan := range scans {
			outputs = append(outputs, scanOutput{
				Path:      scan.Path,
				ScanID:    scan.Result.ID,
				CreatedAt: scan.Result.CreatedAt,
				Report:    scan.Result.Report,
			})
		}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if len(outputs) == 1 {
			return encoder.Encode(outputs[0])
		}
		return encoder.Encode(outputs)
	default:
		for i, scan := range scans {
			if len(scans) > 1 {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintf(out, "== %s (scan %s) ==\n", scan.Path, scan.Result.ID)
			}
			if err := export.WriteReportText(out, scan.Result.Report); err != nil {
				return err
			}
		}
		return nil
	}
}
