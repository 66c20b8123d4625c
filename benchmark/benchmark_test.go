package benchmark

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-imgproc/images/kernels"
)

func TestResolutions(t *testing.T) {
	r, ok := ResolutionByName("1080p")
	require.True(t, ok)
	assert.Equal(t, 1920, r.Width)
	assert.Equal(t, 2.07, r.MegaPixels())
	assert.Contains(t, r.String(), "1920x1080")

	_, ok = ResolutionByName("8k")
	assert.False(t, ok)

	all := Resolutions()
	require.NotEmpty(t, all)
	assert.Equal(t, "thumb", all[0].Name)
	assert.Equal(t, "4k", all[len(all)-1].Name)
	assert.Zero(t, Resolution{}.MegaPixels())
}

func TestGenerate(t *testing.T) {
	noise, err := Generate(PatternNoise, 16, 8)
	require.NoError(t, err)
	again, err := Generate(PatternNoise, 16, 8)
	require.NoError(t, err)
	assert.Equal(t, noise, again, "noise is seeded")

	grad, err := Generate(PatternGradient, 4, 4)
	require.NoError(t, err)
	assert.Zero(t, grad[0])
	assert.Equal(t, float32(1), grad[15])

	board, err := Generate(PatternChessboard, 16, 16)
	require.NoError(t, err)
	assert.Zero(t, board[0])
	assert.Equal(t, float32(1), board[8])

	_, err = Generate("stripes", 4, 4)
	assert.Error(t, err)
	_, err = Generate(PatternNoise, 0, 4)
	assert.Error(t, err)
}

func TestScenarioBuilder(t *testing.T) {
	s := NewScenarioBuilder("blur").
		WithOperation("gauss", "1.5", "separable").
		WithResolution(320, 240).
		WithPattern(PatternGradient).
		WithFFTBackend("godsp").
		WithIterations(3).
		WithWarmupRuns(0).
		Build()

	assert.Equal(t, "blur", s.Name)
	assert.Equal(t, []string{"1.5", "separable"}, s.Args)
	assert.Equal(t, 320, s.Resolution.Width)
	assert.Equal(t, "320x240", s.Resolution.Name)
	assert.Equal(t, PatternGradient, s.Pattern)
	assert.Equal(t, 3, s.Iterations)

	named := NewScenarioBuilder("n").WithNamedResolution("vga").WithNamedResolution("bogus").Build()
	assert.Equal(t, 640, named.Resolution.Width)
}

func TestScenarioSetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	set := QuickScenarios("thumb")
	path := filepath.Join(dir, "quick.json")
	require.NoError(t, SaveScenarioSet(set, path))

	loaded, err := LoadScenarioSet(path)
	require.NoError(t, err)
	assert.Equal(t, set.Scenarios, loaded.Scenarios)

	yamlPath := filepath.Join(dir, "set.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`name: custom
scenarios:
  - name: neg
    operation: negate
    resolution: {name: tiny, width: 8, height: 8}
    pattern: gradient
    iterations: 2
`), 0o644))
	custom, err := LoadScenarioSet(yamlPath)
	require.NoError(t, err)
	require.Len(t, custom.Scenarios, 1)
	assert.Equal(t, 8, custom.Scenarios[0].Resolution.Height)

	_, err = LoadScenarioSet(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestRunScenario(t *testing.T) {
	suite := NewSuite(t.TempDir(), zerolog.Nop(), kernels.Options{Parallel: true})
	s := NewScenarioBuilder("gauss").
		WithOperation("gauss", "1").
		WithResolution(32, 24).
		WithIterations(4).
		Build()

	m, err := suite.RunScenario(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, 4, m.Iterations)
	assert.Zero(t, m.Errors)
	assert.Zero(t, m.ErrorRate())
	assert.LessOrEqual(t, m.MinDuration, m.AvgDuration)
	assert.LessOrEqual(t, m.AvgDuration, m.MaxDuration)
	assert.Greater(t, m.FramesPerSecond, 0.0)
	assert.Len(t, suite.Results(), 1)
}

func TestRunScenarioSpectral(t *testing.T) {
	suite := NewSuite(t.TempDir(), zerolog.Nop(), kernels.Options{})
	for _, s := range []Scenario{
		NewScenarioBuilder("recon").WithOperation("reconstruct").WithResolution(16, 16).WithIterations(2).Build(),
		NewScenarioBuilder("neg_spectrum").WithOperation("negate").WithSource("spectrum").
			WithFFTBackend("godsp").WithResolution(16, 8).WithIterations(2).Build(),
		NewScenarioBuilder("lowpass").WithOperation("lowpass", "0.1").WithResolution(16, 16).WithIterations(2).Build(),
	} {
		m, err := suite.RunScenario(context.Background(), s)
		require.NoError(t, err, s.Name)
		assert.Zero(t, m.Errors, s.Name)
	}
}

func TestRunScenarioErrors(t *testing.T) {
	suite := NewSuite(t.TempDir(), zerolog.Nop(), kernels.Options{})
	ctx := context.Background()

	bad := []Scenario{
		NewScenarioBuilder("op").WithOperation("sharpen").Build(),
		NewScenarioBuilder("args").WithOperation("gamma", "-1").Build(),
		NewScenarioBuilder("source").WithOperation("negate").WithSource("fourier").Build(),
		NewScenarioBuilder("fft").WithOperation("spectrum").WithFFTBackend("fftw").Build(),
		NewScenarioBuilder("iterations").WithOperation("negate").WithIterations(0).Build(),
		NewScenarioBuilder("pattern").WithOperation("negate").WithPattern("stripes").Build(),
	}
	for _, s := range bad {
		_, err := suite.RunScenario(ctx, s)
		assert.Error(t, err, s.Name)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err := suite.RunScenario(cancelled, NewScenarioBuilder("c").WithOperation("negate").WithResolution(4, 4).Build())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, suite.Results())
}

func TestSaveResults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	suite := NewSuite(dir, zerolog.Nop(), kernels.Options{})
	set := &ScenarioSet{Name: "tiny", Scenarios: []Scenario{
		NewScenarioBuilder("neg").WithOperation("negate").WithResolution(8, 8).WithIterations(2).Build(),
		NewScenarioBuilder("eq").WithOperation("equalize").WithResolution(8, 8).WithIterations(2).Build(),
	}}
	require.NoError(t, suite.RunSet(context.Background(), set))

	paths, err := suite.SaveResults()
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.FileExists(t, paths[0])

	f, err := os.Open(paths[1])
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "neg", rows[1][0])
	assert.Equal(t, "equalize", rows[2][1])
}
