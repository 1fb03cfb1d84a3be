package app

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"scan-facts/internal/core/pipeline"
)

func TestPercentileDuration(t *testing.T) {
	t.Parallel()

	samples := []time.Duration{5 * time.Second, 1 * time.Second, 3 * time.Second, 2 * time.Second, 4 * time.Second}
	tests := []struct {
		percentile int
		want       time.Duration
	}{
		{0, time.Second},
		{50, 3 * time.Second},
		{95, 5 * time.Second},
		{100, 5 * time.Second},
	}
	for _, tt := range tests {
		if got := percentileDuration(samples, tt.percentile); got != tt.want {
			t.Fatalf("percentileDuration(p%d) = %v, want %v", tt.percentile, got, tt.want)
		}
	}
	if got := percentileDuration(nil, 95); got != 0 {
		t.Fatalf("empty samples should give 0, got %v", got)
	}
	if samples[0] != 5*time.Second {
		t.Fatalf("input slice must not be reordered")
	}
}

func TestWriteRunMetricsReport(t *testing.T) {
	t.Parallel()

	metrics := newRunMetrics("find")
	metrics.Record("a.txt", pipeline.Stats{Lines: 10, Facts: 4, Duration: 2 * time.Second}, nil)
	metrics.Record("b.txt", pipeline.Stats{Lines: 3, Facts: 1, Duplicates: 2, Duration: 500 * time.Millisecond}, errors.New("boom"))

	path := filepath.Join(t.TempDir(), "metrics.json")
	if err := writeRunMetricsReport(path, metrics, 3*time.Second); err != nil {
		t.Fatalf("writeRunMetricsReport() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		Run struct {
			Parser       string  `json:"parser"`
			InputsTotal  int     `json:"inputs_total"`
			InputsFailed int     `json:"inputs_failed"`
			Lines        int     `json:"lines"`
			Facts        int     `json:"facts"`
			Duplicates   int     `json:"duplicates"`
			SlowestInput string  `json:"slowest_input"`
			Duration     float64 `json:"duration_seconds"`
		} `json:"run"`
		Inputs []struct {
			Name   string  `json:"name"`
			Status string  `json:"status"`
			Error  string  `json:"error"`
			LPS    float64 `json:"lines_per_second"`
		} `json:"inputs"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if got.Run.Parser != "find" || got.Run.InputsTotal != 2 || got.Run.InputsFailed != 1 {
		t.Fatalf("unexpected run entry %+v", got.Run)
	}
	if got.Run.Lines != 13 || got.Run.Facts != 5 || got.Run.Duplicates != 2 || got.Run.Duration != 3 {
		t.Fatalf("unexpected totals %+v", got.Run)
	}
	if got.Run.SlowestInput != "a.txt" {
		t.Fatalf("slowest input = %q", got.Run.SlowestInput)
	}
	if len(got.Inputs) != 2 || got.Inputs[1].Status != "fallo" || got.Inputs[1].Error != "boom" || got.Inputs[0].LPS != 5 {
		t.Fatalf("unexpected inputs %+v", got.Inputs)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temporary file should be renamed away")
	}
}

func TestNilRunMetricsIsSafe(t *testing.T) {
	t.Parallel()

	var metrics *runMetrics
	metrics.Record("x", pipeline.Stats{}, nil)
	if metrics.Summaries() != nil {
		t.Fatal("nil metrics should have no summaries")
	}
}
