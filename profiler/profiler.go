// Package profiler - per-operation timing statistics for processing runs.
package profiler

import (
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// OperationStats summarizes the recorded durations of one operation.
type OperationStats struct {
	Name  string        `json:"name" yaml:"name"`
	Count int64         `json:"count" yaml:"count"`
	Total time.Duration `json:"total" yaml:"total"`
	Min   time.Duration `json:"min" yaml:"min"`
	Max   time.Duration `json:"max" yaml:"max"`
}

// Avg returns the mean duration.
func (s OperationStats) Avg() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

// Profiler accumulates operation timings. It is safe for concurrent use.
type Profiler struct {
	mu         sync.Mutex
	startTime  time.Time
	operations map[string]*OperationStats
}

// New creates an empty profiler.
func New() *Profiler {
	return &Profiler{startTime: time.Now(), operations: make(map[string]*OperationStats)}
}

// StartOperation begins timing an operation.
//
// Arguments:
// - name: The name of the operation to track.
//
// Returns:
// - A function to call when the operation completes.
//
// @example
// done := p.StartOperation("gauss")
// defer done()
func (p *Profiler) StartOperation(name string) func() {
	start := time.Now()
	return func() {
		p.Record(name, time.Since(start))
	}
}

// Record adds one duration for name.
func (p *Profiler) Record(name string, duration time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats, exists := p.operations[name]
	if !exists {
		stats = &OperationStats{Name: name, Min: duration, Max: duration}
		p.operations[name] = stats
	}
	stats.Count++
	stats.Total += duration
	if duration < stats.Min {
		stats.Min = duration
	}
	if duration > stats.Max {
		stats.Max = duration
	}
}

// Snapshot returns the statistics sorted by operation name.
func (p *Profiler) Snapshot() []OperationStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]OperationStats, 0, len(p.operations))
	for _, stats := range p.operations {
		out = append(out, *stats)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Report logs one line per operation followed by a memory summary.
func (p *Profiler) Report(log zerolog.Logger) {
	for _, stats := range p.Snapshot() {
		log.Info().
			Str("op", stats.Name).
			Int64("count", stats.Count).
			Dur("avg", stats.Avg().Truncate(time.Microsecond)).
			Dur("min", stats.Min.Truncate(time.Microsecond)).
			Dur("max", stats.Max.Truncate(time.Microsecond)).
			Msg("operation timings")
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	log.Info().
		Dur("uptime", time.Since(p.startTime).Truncate(time.Millisecond)).
		Str("alloc", formatBytes(mem.Alloc)).
		Str("totalAlloc", formatBytes(mem.TotalAlloc)).
		Uint32("gcCycles", mem.NumGC).
		Msg("memory usage")
}

// formatBytes formats byte counts in human-readable format.
func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
