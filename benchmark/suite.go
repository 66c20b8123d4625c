// Package benchmark - timed scenarios for the image operations, run on
// synthetic images so results are comparable across machines and backends.
package benchmark

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/nvr-ai/go-imgproc/fourier"
	"github.com/nvr-ai/go-imgproc/images"
	"github.com/nvr-ai/go-imgproc/images/kernels"
)

// Suite runs scenarios and keeps their results.
type Suite struct {
	outputDir string
	logger    zerolog.Logger
	filter    kernels.Options

	mu      sync.Mutex
	results []*Metrics
}

// NewSuite creates a suite that writes its reports to outputDir.
//
// Arguments:
// - outputDir: Directory for SaveResults; created on demand.
// - logger: Receives one line per scenario.
// - filter: Edge handling and parallelism used by the spatial filters.
//
// Returns:
// - The suite.
//
// @example
// suite := benchmark.NewSuite("bench", log, kernels.Options{Parallel: true})
// for _, s := range benchmark.QuickScenarios("720p").Scenarios {
//     _, _ = suite.RunScenario(ctx, s)
// }
// _, _ = suite.SaveResults()
func NewSuite(outputDir string, logger zerolog.Logger, filter kernels.Options) *Suite {
	if filter.Pool == nil {
		filter.Pool = &kernels.Pool{}
	}
	return &Suite{outputDir: outputDir, logger: logger, filter: filter}
}

// Results returns the metrics recorded so far.
func (s *Suite) Results() []*Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Metrics(nil), s.results...)
}

// RunScenario times one scenario. Each iteration runs on a fresh copy of the
// generated image; spectrum setup for spectral scenarios is not timed.
//
// Returns:
// - The metrics, also appended to the suite results.
// - error if the scenario is malformed or ctx is cancelled.
func (s *Suite) RunScenario(ctx context.Context, scenario Scenario) (*Metrics, error) {
	op, err := images.ParseOperation(scenario.Operation, scenario.Args...)
	if err != nil {
		return nil, errors.Wrapf(err, "scenario %s", scenario.Name)
	}
	src, err := images.ParseDataSource(scenario.Source)
	if err != nil {
		return nil, errors.Wrapf(err, "scenario %s", scenario.Name)
	}
	tr, err := fourier.New(scenario.FFTBackend)
	if err != nil {
		return nil, errors.Wrapf(err, "scenario %s", scenario.Name)
	}
	if scenario.Iterations < 1 {
		return nil, errors.Errorf("scenario %s: iterations %d", scenario.Name, scenario.Iterations)
	}

	res := scenario.Resolution
	base, err := Generate(scenario.Pattern, res.Width, res.Height)
	if err != nil {
		return nil, errors.Wrapf(err, "scenario %s", scenario.Name)
	}

	_, needsSpectrum := op.(images.Reconstruct)
	needsSpectrum = needsSpectrum || src == images.SourceSpectrum

	iteration := func() (time.Duration, error) {
		img, err := images.FromBuffer(base.Clone(), res.Width, res.Height,
			images.WithTransformer(tr), images.WithFilterOptions(s.filter))
		if err != nil {
			return 0, err
		}
		defer img.Close()
		if needsSpectrum {
			if _, err := img.ComputeSpectrum(); err != nil {
				return 0, err
			}
		}

		start := time.Now()
		out, err := img.Apply(op, src)
		elapsed := time.Since(start)
		if err != nil {
			return 0, err
		}
		out.Close()
		return elapsed, nil
	}

	for i := 0; i < scenario.WarmupRuns; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := iteration(); err != nil {
			return nil, errors.Wrapf(err, "scenario %s warmup", scenario.Name)
		}
	}

	c := newCollector(scenario.Iterations)
	for i := 0; i < scenario.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c.record(iteration())
	}
	m := c.finish(scenario)

	s.mu.Lock()
	s.results = append(s.results, m)
	s.mu.Unlock()

	s.logger.Info().
		Str("scenario", scenario.Name).
		Str("resolution", res.String()).
		Dur("avg", m.AvgDuration).
		Dur("p95", m.P95Duration).
		Float64("fps", m.FramesPerSecond).
		Float64("mpps", m.MegapixelsPerSecond).
		Int("errors", m.Errors).
		Msg("scenario complete")
	return m, nil
}

// RunSet runs every scenario of set in order and stops at the first error.
func (s *Suite) RunSet(ctx context.Context, set *ScenarioSet) error {
	s.logger.Info().Str("set", set.Name).Int("scenarios", len(set.Scenarios)).Msg("running scenario set")
	for _, scenario := range set.Scenarios {
		if _, err := s.RunScenario(ctx, scenario); err != nil {
			return err
		}
	}
	return nil
}

// SaveResults writes the results as results_<timestamp>.json and
// results_<timestamp>.csv in the output directory.
//
// Returns:
// - The paths of the JSON and CSV files.
// - error if the directory or a file cannot be written.
func (s *Suite) SaveResults() ([]string, error) {
	results := s.Results()
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create output directory")
	}

	stamp := time.Now().Format("20060102_150405")
	jsonPath := filepath.Join(s.outputDir, fmt.Sprintf("results_%s.json", stamp))
	csvPath := filepath.Join(s.outputDir, fmt.Sprintf("results_%s.csv", stamp))

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshal results")
	}
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return nil, errors.Wrap(err, "write JSON results")
	}
	if err := writeCSV(csvPath, results); err != nil {
		return nil, err
	}

	s.logger.Info().Str("json", jsonPath).Str("csv", csvPath).Msg("results saved")
	return []string{jsonPath, csvPath}, nil
}

var csvHeader = []string{
	"scenario", "operation", "source", "fft_backend", "resolution", "width", "height",
	"iterations", "errors", "avg_ms", "min_ms", "max_ms", "p95_ms",
	"fps", "megapixels_per_s", "allocated_bytes", "gc_cycles",
}

func writeCSV(path string, results []*Metrics) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create CSV results")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return errors.Wrap(err, "write CSV header")
	}
	ms := func(d time.Duration) string {
		return strconv.FormatFloat(float64(d)/float64(time.Millisecond), 'f', 3, 64)
	}
	for _, m := range results {
		sc := m.Scenario
		row := []string{
			sc.Name, sc.Operation, sc.Source, sc.FFTBackend, sc.Resolution.Name,
			strconv.Itoa(sc.Resolution.Width), strconv.Itoa(sc.Resolution.Height),
			strconv.Itoa(m.Iterations), strconv.Itoa(m.Errors),
			ms(m.AvgDuration), ms(m.MinDuration), ms(m.MaxDuration), ms(m.P95Duration),
			strconv.FormatFloat(m.FramesPerSecond, 'f', 2, 64),
			strconv.FormatFloat(m.MegapixelsPerSecond, 'f', 2, 64),
			strconv.FormatUint(m.Memory.AllocatedBytes, 10),
			strconv.FormatUint(uint64(m.Memory.GCCycles), 10),
		}
		if err := w.Write(row); err != nil {
			return errors.Wrap(err, "write CSV row")
		}
	}
	w.Flush()
	return errors.Wrap(w.Error(), "flush CSV results")
}
