package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"tablenorm/internal/config"
	"tablenorm/internal/exporter"
	"tablenorm/internal/infrastructure"
	"tablenorm/internal/normalize"
	"tablenorm/internal/quality"
	"tablenorm/internal/reader"
)

func main() {
	inDir := flag.String("in", "data/source", "input directory with .xlsx survey exports")
	outDir := flag.String("out", "data/clean", "output directory for normalized CSV and quality reports")
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	logger.Info("Starting survey table normalization",
		slog.String("input_dir", *inDir),
		slog.String("output_dir", *outDir))

	entries, err := os.ReadDir(*inDir)
	if err != nil {
		logger.Error("Failed to read input directory", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".xlsx") || strings.HasPrefix(name, "~$") {
			continue
		}
		files = append(files, name)
	}
	logger.Info("Workbooks discovered", slog.Int("count", len(files)))
	fmt.Printf("Found %d workbooks\n", len(files))

	if len(files) == 0 {
		logger.Warn("No workbooks found in input directory",
			slog.String("input_dir", *inDir),
			slog.String("pattern", "*.xlsx"))
		return
	}

	analyzer := quality.NewAnalyzer(cfg.Cleaning, logger)
	cleaner := quality.NewCleaner(cfg.Cleaning, logger)

	processed := 0
	for i, name := range files {
		logger.Info("Processing workbook",
			slog.Int("current", i+1),
			slog.Int("total", len(files)),
			slog.String("filename", name))
		fmt.Printf("Processing workbook %d of %d: %s\n", i+1, len(files), name)

		if err := processWorkbook(filepath.Join(*inDir, name), *outDir, cfg, analyzer, cleaner, logger); err != nil {
			logger.Error("Error processing workbook",
				slog.String("filename", name),
				slog.String("error", err.Error()))
			continue
		}
		processed++
	}

	logger.Info("Processing complete",
		slog.Int("processed", processed),
		slog.Int("failed", len(files)-processed))
	fmt.Printf("Processing complete: %d of %d workbooks\n", processed, len(files))
}

func processWorkbook(path, outDir string, cfg *config.Config, analyzer *quality.Analyzer, cleaner *quality.Cleaner, logger *slog.Logger) error {
	grid, sheet, err := reader.LoadGrid(path, logger)
	if err != nil {
		return err
	}

	table, anchor := normalize.BuildTable(grid, cfg.Pipeline, logger)
	scoreBefore := analyzer.ComputeQualityScore(table)

	issues, err := analyzer.Issues(table)
	if err != nil {
		return err
	}

	clean, actions, err := cleaner.Clean(table)
	if err != nil {
		return err
	}
	scoreAfter := analyzer.ComputeQualityScore(clean)

	logger.Info("Workbook cleaned",
		slog.String("sheet", sheet),
		slog.Int("rows", clean.Len()),
		slog.Int("issues", len(issues)),
		slog.Int("actions", len(actions)),
		slog.Float64("score_before", scoreBefore.Overall),
		slog.Float64("score_after", scoreAfter.Overall))

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if err := exporter.SaveTableCSV(filepath.Join(outDir, base+".csv"), clean); err != nil {
		return err
	}
	return exporter.SaveReportJSON(filepath.Join(outDir, base+"_quality.json"), exporter.Report{
		Source:      filepath.Base(path),
		Sheet:       sheet,
		Anchor:      anchor,
		ScoreBefore: scoreBefore,
		ScoreAfter:  scoreAfter,
		Issues:      issues,
		Actions:     actions,
	})
}
