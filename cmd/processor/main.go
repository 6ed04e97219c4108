// Command processor runs batch demand extraction: point it at an xlsx file
// or a directory of them and it writes one forecast dataset per input.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"demandcli/internal/config"
	"demandcli/internal/demand"
	"demandcli/internal/exporter"
	"demandcli/internal/infrastructure"
	"demandcli/internal/services"
	"demandcli/pkg/contracts/domain"
)

func main() {
	in := flag.String("in", "", "input .xlsx file or directory of .xlsx files")
	out := flag.String("out", ".", "output directory")
	horizon := flag.Int("horizon", demand.DefaultHorizon, "number of future months to predict (1..24)")
	format := flag.String("format", "json", "output format: json, csv or xlsx")
	workers := flag.Int("workers", 4, "number of files processed concurrently")
	logLevel := flag.String("loglevel", "info", "log level: debug, info, warn, error")
	flag.Parse()

	if *in == "" {
		fmt.Fprintln(os.Stderr, "usage: processor -in file.xlsx|dir [-out dir] [-horizon 6] [-format json|csv|xlsx] [-workers 4]")
		os.Exit(2)
	}
	if *horizon < 1 || *horizon > 24 {
		fmt.Fprintln(os.Stderr, "horizon must be between 1 and 24")
		os.Exit(2)
	}
	switch *format {
	case "json", "csv", "xlsx":
	default:
		fmt.Fprintf(os.Stderr, "unsupported format: %s\n", *format)
		os.Exit(2)
	}

	logger, err := infrastructure.InitializeLogger(config.LoggingConfig{
		Level:  *logLevel,
		Output: "stdout",
	})
	if err != nil {
		slog.Error("failed to initialize logger", slog.String("error", err.Error()))
		os.Exit(1)
	}

	inputs, err := collectInputs(*in)
	if err != nil {
		logger.Error("failed to collect inputs", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if len(inputs) == 0 {
		logger.Error("no .xlsx files found", slog.String("in", *in))
		os.Exit(1)
	}

	if err := os.MkdirAll(*out, 0o755); err != nil {
		logger.Error("failed to create output directory", slog.String("error", err.Error()))
		os.Exit(1)
	}

	svc := services.NewExtractionService(config.Default().Extraction, nil, nil, nil, logger)

	start := time.Now()
	var failures atomic.Int64

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(*workers)

	for _, input := range inputs {
		input := input
		g.Go(func() error {
			if err := processFile(ctx, svc, input, *out, *horizon, *format, logger); err != nil {
				failures.Add(1)
				logger.Error("extraction failed",
					slog.String("file", input),
					slog.String("error", err.Error()))
			}
			// Keep going; failures are counted, not fatal to the batch
			return nil
		})
	}
	g.Wait()

	logger.Info("batch complete",
		slog.Int("files", len(inputs)),
		slog.Int64("failed", failures.Load()),
		slog.Duration("duration", time.Since(start)))

	if failures.Load() > 0 {
		os.Exit(1)
	}
}

// collectInputs expands a file or directory argument into xlsx paths
func collectInputs(in string) ([]string, error) {
	info, err := os.Stat(in)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{in}, nil
	}

	entries, err := os.ReadDir(in)
	if err != nil {
		return nil, err
	}

	var inputs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		// Skip Excel lock files
		if strings.HasPrefix(name, "~$") {
			continue
		}
		if strings.EqualFold(filepath.Ext(name), ".xlsx") {
			inputs = append(inputs, filepath.Join(in, name))
		}
	}
	sort.Strings(inputs)
	return inputs, nil
}

func processFile(ctx context.Context, svc *services.ExtractionService, input, outDir string, horizon int, format string, logger *slog.Logger) error {
	file, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("opening %s: %w", input, err)
	}
	defer file.Close()

	dataset, err := svc.ExtractWorkbook(ctx, file, services.Options{Horizon: horizon})
	if err != nil {
		return err
	}

	outPath := outputPath(outDir, input, format)
	if err := writeDataset(outPath, format, dataset); err != nil {
		return err
	}

	logger.Info("extracted",
		slog.String("file", filepath.Base(input)),
		slog.Int("products", dataset.Summary.Products),
		slog.Float64("total_forecast", dataset.Summary.TotalForecast),
		slog.String("out", outPath))
	return nil
}

func outputPath(outDir, input, format string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(outDir, base+"-forecast."+format)
}

func writeDataset(path, format string, dataset *domain.ChartDataset) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer out.Close()

	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(dataset); err != nil {
			return fmt.Errorf("encoding %s: %w", path, err)
		}
	case "csv":
		if err := exporter.WriteDatasetCSV(out, dataset); err != nil {
			return err
		}
	case "xlsx":
		if err := exporter.WriteDatasetXLSX(out, dataset); err != nil {
			return err
		}
	}
	return nil
}
