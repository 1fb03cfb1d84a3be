package app

import (
	"encoding/json"
	"math"
	"os"
	"sort"
	"sync"
	"time"

	"scan-facts/internal/core/pipeline"
	"scan-facts/internal/platform/logx"
)

type inputMetric struct {
	Name       string
	Status     string
	Error      string
	Lines      int
	Facts      int
	Filtered   int
	Duplicates int
	Duration   time.Duration
}

// runMetrics acumula el resumen de cada captura de una ejecución.
type runMetrics struct {
	mu     sync.Mutex
	parser string
	inputs []inputMetric
}

func newRunMetrics(parser string) *runMetrics {
	return &runMetrics{parser: parser}
}

// Record es compatible con pipeline.Options.OnInput.
func (m *runMetrics) Record(name string, stats pipeline.Stats, failure error) {
	if m == nil {
		return
	}
	metric := inputMetric{
		Name:       name,
		Status:     "ok",
		Lines:      stats.Lines,
		Facts:      stats.Facts,
		Filtered:   stats.Filtered,
		Duplicates: stats.Duplicates,
		Duration:   stats.Duration,
	}
	if failure != nil {
		metric.Status = "fallo"
		metric.Error = failure.Error()
	}
	m.mu.Lock()
	m.inputs = append(m.inputs, metric)
	m.mu.Unlock()
}

func (m *runMetrics) Summaries() []inputMetric {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]inputMetric, len(m.inputs))
	copy(out, m.inputs)
	return out
}

func logRunMetrics(metrics *runMetrics, runDuration time.Duration) {
	summaries := metrics.Summaries()
	if len(summaries) < 2 {
		return
	}

	durations := make([]time.Duration, 0, len(summaries))
	var sequential time.Duration
	for _, metric := range summaries {
		durations = append(durations, metric.Duration)
		sequential += metric.Duration
	}
	fields := logx.Fields{
		"parser":        metrics.parser,
		"inputs":        len(summaries),
		"p95_ms":        percentileDuration(durations, 95).Milliseconds(),
		"sequential_ms": sequential.Milliseconds(),
		"run_ms":        runDuration.Milliseconds(),
	}
	if runDuration > 0 && sequential > 0 {
		fields["speedup"] = round3(sequential.Seconds() / runDuration.Seconds())
	}
	logx.Info("resumen del lote", fields)
}

func writeRunMetricsReport(path string, metrics *runMetrics, runDuration time.Duration) error {
	type inputEntry struct {
		Name            string  `json:"name"`
		Status          string  `json:"status"`
		Error           string  `json:"error,omitempty"`
		Lines           int     `json:"lines"`
		Facts           int     `json:"facts"`
		Filtered        int     `json:"filtered,omitempty"`
		Duplicates      int     `json:"duplicates,omitempty"`
		DurationSeconds float64 `json:"duration_seconds"`
		LinesPerSecond  float64 `json:"lines_per_second,omitempty"`
	}

	type runEntry struct {
		Parser          string  `json:"parser"`
		DurationSeconds float64 `json:"duration_seconds"`
		InputsTotal     int     `json:"inputs_total"`
		InputsFailed    int     `json:"inputs_failed"`
		Lines           int     `json:"lines"`
		Facts           int     `json:"facts"`
		Filtered        int     `json:"filtered"`
		Duplicates      int     `json:"duplicates"`
		P95Duration     float64 `json:"p95_duration_seconds,omitempty"`
		SlowestInput    string  `json:"slowest_input,omitempty"`
	}

	type report struct {
		GeneratedAt time.Time    `json:"generated_at"`
		Run         runEntry     `json:"run"`
		Inputs      []inputEntry `json:"inputs"`
	}

	summaries := metrics.Summaries()
	run := runEntry{
		Parser:          metrics.parser,
		DurationSeconds: secondsWithMillis(runDuration),
		InputsTotal:     len(summaries),
	}
	entries := make([]inputEntry, 0, len(summaries))
	durations := make([]time.Duration, 0, len(summaries))
	var slowest time.Duration

	for _, metric := range summaries {
		entry := inputEntry{
			Name:            metric.Name,
			Status:          metric.Status,
			Error:           metric.Error,
			Lines:           metric.Lines,
			Facts:           metric.Facts,
			Filtered:        metric.Filtered,
			Duplicates:      metric.Duplicates,
			DurationSeconds: secondsWithMillis(metric.Duration),
		}
		if metric.Duration > 0 && metric.Lines > 0 {
			entry.LinesPerSecond = round3(float64(metric.Lines) / metric.Duration.Seconds())
		}
		entries = append(entries, entry)

		if metric.Status != "ok" {
			run.InputsFailed++
		}
		run.Lines += metric.Lines
		run.Facts += metric.Facts
		run.Filtered += metric.Filtered
		run.Duplicates += metric.Duplicates
		durations = append(durations, metric.Duration)
		if metric.Duration > slowest {
			slowest = metric.Duration
			run.SlowestInput = metric.Name
		}
	}
	if len(durations) > 0 {
		run.P95Duration = secondsWithMillis(percentileDuration(durations, 95))
	}

	return writeMetricsFile(path, report{
		GeneratedAt: time.Now().UTC(),
		Run:         run,
		Inputs:      entries,
	})
}

func secondsWithMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return math.Round(d.Seconds()*1000) / 1000
}

func round3(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*1000) / 1000
}

func writeMetricsFile(path string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

func percentileDuration(durations []time.Duration, percentile int) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})
	if percentile <= 0 {
		return sorted[0]
	}
	if percentile >= 100 {
		return sorted[len(sorted)-1]
	}
	rank := (percentile*len(sorted) + 100 - 1) / 100
	index := rank - 1
	if index < 0 {
		index = 0
	}
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}
