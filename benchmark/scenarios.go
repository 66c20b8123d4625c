package benchmark

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-imgproc/images"
)

// Pattern selects the synthetic image a scenario runs on.
type Pattern string

const (
	// PatternNoise is uniform random noise.
	PatternNoise Pattern = "noise"
	// PatternGradient is a diagonal ramp from black to white.
	PatternGradient Pattern = "gradient"
	// PatternChessboard alternates 8x8 black and white squares.
	PatternChessboard Pattern = "chessboard"
)

// Generate renders a pattern. Noise is seeded so runs are repeatable.
func Generate(pattern Pattern, width, height int) (images.Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Wrapf(images.ErrDimensions, "%dx%d", width, height)
	}
	buf := make(images.Buffer, width*height)
	switch pattern {
	case PatternNoise, "":
		rng := rand.New(rand.NewSource(1))
		for i := range buf {
			buf[i] = rng.Float32()
		}
	case PatternGradient:
		span := float32(math.Max(1, float64(width+height-2)))
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				buf[x+y*width] = float32(x+y) / span
			}
		}
	case PatternChessboard:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				buf[x+y*width] = float32((x/8 + y/8) % 2)
			}
		}
	default:
		return nil, errors.Errorf("unknown pattern %q", pattern)
	}
	return buf, nil
}

// Scenario is one operation timed on one synthetic image.
type Scenario struct {
	Name       string     `json:"name" yaml:"name"`
	Operation  string     `json:"operation" yaml:"operation"`
	Args       []string   `json:"args,omitempty" yaml:"args,omitempty"`
	Source     string     `json:"source,omitempty" yaml:"source,omitempty"`
	Resolution Resolution `json:"resolution" yaml:"resolution"`
	Pattern    Pattern    `json:"pattern" yaml:"pattern"`
	FFTBackend string     `json:"fftBackend,omitempty" yaml:"fftBackend,omitempty"`
	Iterations int        `json:"iterations" yaml:"iterations"`
	WarmupRuns int        `json:"warmupRuns" yaml:"warmupRuns"`
}

// ScenarioBuilder helps build test scenarios with fluent API
type ScenarioBuilder struct {
	scenario Scenario
}

// NewScenarioBuilder creates a builder with 10 iterations, 1 warmup run, a
// 512x512 noise image and the image data source.
func NewScenarioBuilder(name string) *ScenarioBuilder {
	res, _ := ResolutionByName("square")
	return &ScenarioBuilder{
		scenario: Scenario{
			Name:       name,
			Source:     "image",
			Resolution: res,
			Pattern:    PatternNoise,
			Iterations: 10,
			WarmupRuns: 1,
		},
	}
}

// WithOperation sets the operation and its text arguments.
func (sb *ScenarioBuilder) WithOperation(name string, args ...string) *ScenarioBuilder {
	sb.scenario.Operation = name
	sb.scenario.Args = args
	return sb
}

// WithSource sets the data source ("image" or "spectrum").
func (sb *ScenarioBuilder) WithSource(source string) *ScenarioBuilder {
	sb.scenario.Source = source
	return sb
}

// WithResolution sets the image size.
func (sb *ScenarioBuilder) WithResolution(width, height int) *ScenarioBuilder {
	sb.scenario.Resolution = Resolution{Name: fmt.Sprintf("%dx%d", width, height), Width: width, Height: height}
	return sb
}

// WithNamedResolution sets one of the named sizes; unknown names are ignored.
func (sb *ScenarioBuilder) WithNamedResolution(name string) *ScenarioBuilder {
	if res, ok := ResolutionByName(name); ok {
		sb.scenario.Resolution = res
	}
	return sb
}

// WithPattern sets the synthetic image.
func (sb *ScenarioBuilder) WithPattern(pattern Pattern) *ScenarioBuilder {
	sb.scenario.Pattern = pattern
	return sb
}

// WithFFTBackend sets the Fourier backend.
func (sb *ScenarioBuilder) WithFFTBackend(name string) *ScenarioBuilder {
	sb.scenario.FFTBackend = name
	return sb
}

// WithIterations sets the number of timed iterations.
func (sb *ScenarioBuilder) WithIterations(iterations int) *ScenarioBuilder {
	sb.scenario.Iterations = iterations
	return sb
}

// WithWarmupRuns sets the number of untimed iterations.
func (sb *ScenarioBuilder) WithWarmupRuns(warmups int) *ScenarioBuilder {
	sb.scenario.WarmupRuns = warmups
	return sb
}

// Build returns the configured test scenario
func (sb *ScenarioBuilder) Build() Scenario {
	return sb.scenario
}

// ScenarioSet represents a collection of related test scenarios
type ScenarioSet struct {
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Scenarios   []Scenario `json:"scenarios" yaml:"scenarios"`
}

// QuickScenarios compares the convolution paths, the bilateral filter and
// both Fourier backends at one resolution.
func QuickScenarios(resolution string) *ScenarioSet {
	build := func(name, op string, args ...string) *ScenarioBuilder {
		return NewScenarioBuilder(fmt.Sprintf("%s_%s", name, resolution)).
			WithNamedResolution(resolution).
			WithOperation(op, args...)
	}

	return &ScenarioSet{
		Name:        "quick",
		Description: "Spatial filter and spectral engine at " + resolution,
		Scenarios: []Scenario{
			build("negate", "negate").Build(),
			build("equalize", "equalize").WithPattern(PatternGradient).Build(),
			build("gauss_2d", "gauss", "2").Build(),
			build("gauss_separable", "gauss", "2", "separable").Build(),
			build("bilateral", "bilateral", "1", "0.3").WithIterations(3).Build(),
			build("spectrum_gonum", "spectrum").WithFFTBackend("gonum").Build(),
			build("spectrum_godsp", "spectrum").WithFFTBackend("godsp").Build(),
			build("lowpass", "lowpass", "0.05").WithPattern(PatternChessboard).Build(),
		},
	}
}

// SaveScenarioSet saves a scenario set to a JSON file
func SaveScenarioSet(scenarioSet *ScenarioSet, filename string) error {
	data, err := json.MarshalIndent(scenarioSet, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal scenario set")
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return errors.Wrap(err, "write scenario file")
	}
	return nil
}

// LoadScenarioSet loads a scenario set from a JSON or YAML file.
func LoadScenarioSet(filename string) (*ScenarioSet, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "read scenario file")
	}

	var scenarioSet ScenarioSet
	if err := yaml.Unmarshal(data, &scenarioSet); err != nil {
		return nil, errors.Wrap(err, "unmarshal scenario set")
	}
	return &scenarioSet, nil
}
