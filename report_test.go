package couponsim

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestWriteCSV(t *testing.T) {
	h := NewHistogram(4)
	h.Record(TrialOutcome{Draws: 2, Completed: true})
	h.Record(TrialOutcome{Draws: 2, Completed: true})
	h.Record(TrialOutcome{Draws: 4, Completed: false})

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, h))

	want := "Number of Runs for Full Set,Occurences\n" +
		"1,0\n" +
		"2,2\n" +
		"3,0\n" +
		"4,1\n"
	assert.Equal(t, want, buf.String())
}

func TestResultFileName(t *testing.T) {
	ts := time.Date(2024, 12, 17, 14, 30, 22, 0, time.UTC)

	assert.Equal(t, "results-2024-12-17-14-30-22.txt", ResultFileName(DefaultFilePrefix, DefaultTimestampFormat, ts))
	assert.Equal(t, "results-2024-12-17-14-30-22.txt", ResultFileName("results-", "", ts))
	assert.Equal(t, "batch-20241217.txt", ResultFileName("batch-", "20060102", ts))
}

func TestWriteResultFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	cfg := DefaultOutputConfig()
	cfg.Dir = dir

	h := NewHistogram(3)
	h.Record(TrialOutcome{Draws: 1, Completed: true})

	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	path, err := WriteResultFile(cfg, h, ts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "results-2024-01-02-03-04-05.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, []string{"Number of Runs for Full Set,Occurences", "1,1", "2,0", "3,0"}, lines)
}

func TestWriteSummaryYAML(t *testing.T) {
	report := &SimulationReport{
		ID:            "20240101_000000_ab",
		Probabilities: ProbabilityVector{0.5, 0.25},
		Trials:        4,
		MaxRuns:       5,
		Seed:          9,
		Seeded:        true,
		Workers:       2,
		Counts:        []int64{0, 1, 2, 0, 1},
		Capped:        1,
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSummaryYAML(&buf, report))

	var doc struct {
		Report struct {
			ID            string    `yaml:"id"`
			Probabilities []float64 `yaml:"probabilities"`
			Seed          uint64    `yaml:"seed"`
			Counts        []int64   `yaml:"counts"`
		} `yaml:"report"`
		MissProbability float64 `yaml:"miss_probability"`
		Summary         Summary `yaml:"summary"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "20240101_000000_ab", doc.Report.ID)
	assert.Equal(t, []float64{0.5, 0.25}, doc.Report.Probabilities)
	assert.Equal(t, uint64(9), doc.Report.Seed)
	assert.Nil(t, doc.Report.Counts, "raw counts belong in the results file")
	assert.InDelta(t, 0.25, doc.MissProbability, 1e-12)

	assert.Equal(t, int64(4), doc.Summary.Trials)
	assert.Equal(t, int64(1), doc.Summary.Capped)
	assert.Equal(t, 2, doc.Summary.Min)
	assert.Equal(t, 5, doc.Summary.Max)
	assert.InDelta(t, 3.25, doc.Summary.Mean, 1e-9)
	assert.Equal(t, 3, doc.Summary.P50)
}
