package benchmark

import (
	"runtime"
	"sort"
	"time"
)

// Metrics is the outcome of one scenario.
type Metrics struct {
	Scenario  Scenario  `json:"scenario" yaml:"scenario"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	Iterations    int           `json:"iterations" yaml:"iterations"`
	Errors        int           `json:"errors" yaml:"errors"`
	TotalDuration time.Duration `json:"totalDuration" yaml:"totalDuration"`
	AvgDuration   time.Duration `json:"avgDuration" yaml:"avgDuration"`
	MinDuration   time.Duration `json:"minDuration" yaml:"minDuration"`
	MaxDuration   time.Duration `json:"maxDuration" yaml:"maxDuration"`
	P95Duration   time.Duration `json:"p95Duration" yaml:"p95Duration"`

	FramesPerSecond     float64 `json:"framesPerSecond" yaml:"framesPerSecond"`
	MegapixelsPerSecond float64 `json:"megapixelsPerSecond" yaml:"megapixelsPerSecond"`

	Memory MemoryMetrics `json:"memory" yaml:"memory"`
	NumCPU int           `json:"numCPU" yaml:"numCPU"`
}

// MemoryMetrics tracks memory usage during a scenario.
type MemoryMetrics struct {
	// Bytes allocated by the timed iterations.
	AllocatedBytes uint64 `json:"allocatedBytes" yaml:"allocatedBytes"`
	// Heap in use after the last iteration.
	HeapInUse uint64 `json:"heapInUse" yaml:"heapInUse"`
	// Garbage collections triggered by the timed iterations.
	GCCycles uint32 `json:"gcCycles" yaml:"gcCycles"`
}

// ErrorRate returns the fraction of failed iterations.
func (m *Metrics) ErrorRate() float64 {
	if m.Iterations == 0 {
		return 0
	}
	return float64(m.Errors) / float64(m.Iterations)
}

// collector gathers per-iteration samples.
type collector struct {
	durations []time.Duration
	errors    int
	before    runtime.MemStats
}

func newCollector(iterations int) *collector {
	c := &collector{durations: make([]time.Duration, 0, iterations)}
	runtime.GC()
	runtime.ReadMemStats(&c.before)
	return c
}

func (c *collector) record(d time.Duration, err error) {
	if err != nil {
		c.errors++
		return
	}
	c.durations = append(c.durations, d)
}

// finish computes the summary for scenario s.
func (c *collector) finish(s Scenario) *Metrics {
	var after runtime.MemStats
	runtime.ReadMemStats(&after)

	m := &Metrics{
		Scenario:   s,
		Timestamp:  time.Now(),
		Iterations: len(c.durations) + c.errors,
		Errors:     c.errors,
		NumCPU:     runtime.NumCPU(),
		Memory: MemoryMetrics{
			AllocatedBytes: after.TotalAlloc - c.before.TotalAlloc,
			HeapInUse:      after.HeapInuse,
			GCCycles:       after.NumGC - c.before.NumGC,
		},
	}
	if len(c.durations) == 0 {
		return m
	}

	sorted := append([]time.Duration(nil), c.durations...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for _, d := range sorted {
		m.TotalDuration += d
	}
	m.MinDuration = sorted[0]
	m.MaxDuration = sorted[len(sorted)-1]
	m.AvgDuration = m.TotalDuration / time.Duration(len(sorted))
	m.P95Duration = sorted[min(len(sorted)-1, len(sorted)*95/100)]

	if seconds := m.TotalDuration.Seconds(); seconds > 0 {
		m.FramesPerSecond = float64(len(sorted)) / seconds
		pixels := float64(s.Resolution.Width*s.Resolution.Height) * float64(len(sorted))
		m.MegapixelsPerSecond = pixels / 1_000_000.0 / seconds
	}
	return m
}
