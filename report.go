package couponsim

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// WriteCSV writes the histogram as a two-column file: a header row followed by one
// "runs,occurrences" line per run count from 1 to MaxRuns.
func WriteCSV(w io.Writer, hist *Histogram) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(strings.SplitN(ResultFileHeader, ",", 2)); err != nil {
		return err
	}

	for _, e := range hist.Entries() {
		record := []string{strconv.Itoa(e.Runs), strconv.FormatInt(e.Occurrences, 10)}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ResultFileName returns the name of a result file, e.g. results-2024-12-17-14-30-22.txt
func ResultFileName(prefix, layout string, t time.Time) string {
	if layout == "" {
		layout = DefaultTimestampFormat
	}
	return prefix + t.Format(layout) + ".txt"
}

// WriteResultFile writes the histogram into dir and returns the file path
func WriteResultFile(cfg *OutputConfig, hist *Histogram, t time.Time) (string, error) {
	if cfg == nil {
		cfg = DefaultOutputConfig()
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(cfg.Dir, ResultFileName(cfg.FilePrefix, cfg.TimestampFormat, t))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create result file: %w", err)
	}

	if err := WriteCSV(f, hist); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write result file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close result file: %w", err)
	}

	return path, nil
}

// summaryDocument is the YAML layout of a run summary
type summaryDocument struct {
	Report          *SimulationReport `yaml:"report"`
	MissProbability float64           `yaml:"miss_probability"`
	Summary         Summary           `yaml:"summary"`
}

// WriteSummaryYAML writes the run parameters and summary statistics as YAML
func WriteSummaryYAML(w io.Writer, report *SimulationReport) error {
	doc := summaryDocument{
		Report:          report,
		MissProbability: report.Probabilities.MissProbability(),
		Summary:         report.Histogram().Stats(),
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	return enc.Close()
}
