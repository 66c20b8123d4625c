package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-imgproc/codec"
)

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	const w, h = 12, 8
	raw := &codec.Raw{Width: w, Height: h, Channels: 1, Pix: make([]uint8, w*h)}
	for i := range raw.Pix {
		raw.Pix[i] = uint8(i * 2)
	}
	path := filepath.Join(dir, name)
	require.NoError(t, codec.Default().EncodeFile(path, raw))
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCommand()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestApplyWritesPrefixedOutputs(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "a.png")
	writePNG(t, dir, "b.png")
	out := filepath.Join(dir, "out")

	_, logs, err := execute(t, "apply", "-i", dir, "-o", out, "--workers", "2", "--profile", "t", "0.5")
	require.NoError(t, err)

	for _, name := range []string{"t_a.png", "t_b.png"} {
		_, err := os.Stat(filepath.Join(out, name))
		assert.NoError(t, err, name)
	}
	assert.Contains(t, logs, `"saved":2`)
	assert.Contains(t, logs, "operation timings")
}

func TestApplySkipsOwnOutputs(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "a.png")

	_, _, err := execute(t, "apply", "-i", dir, "negate")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "n_a.png"))
	require.NoError(t, err)

	// A second run over the same directory does not produce n_n_a.png.
	_, _, err = execute(t, "apply", "-i", dir, "negate")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "n_n_a.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestApplySpectrumSource(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "a.png")

	_, _, err := execute(t, "apply", "-i", path, "--source", "spectrum", "--fft", "godsp", "gamma", "0.5")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "g_a.png"))
	assert.NoError(t, err)
}

func TestApplyErrors(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "a.png")

	testCases := []struct {
		name string
		args []string
	}{
		{name: "invalid parameter", args: []string{"apply", "-i", path, "threshold", "2"}},
		{name: "unknown operation", args: []string{"apply", "-i", path, "sharpen"}},
		{name: "missing input", args: []string{"apply", "-i", filepath.Join(dir, "none.png"), "negate"}},
		{name: "bad backend", args: []string{"apply", "-i", path, "--fft", "fftw", "negate"}},
		{name: "no input flag", args: []string{"apply", "negate"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := execute(t, tc.args...)
			assert.Error(t, err)
		})
	}
}

func TestApplyConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "a.png")
	out := filepath.Join(dir, "from-config")
	cfgPath := filepath.Join(dir, "imgproc.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("outputDir: "+out+"\nworkers: 1\n"), 0o600))

	_, _, err := execute(t, "apply", "--config", cfgPath, "-i", path, "gauss", "1", "separable")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(out, "gb_a.png"))
	assert.NoError(t, err)
}

func TestOpsCommand(t *testing.T) {
	stdout, _, err := execute(t, "ops")
	require.NoError(t, err)
	assert.Contains(t, stdout, "negate")
	assert.Contains(t, stdout, "bilateral <spatialSigma> <brightnessSigma>")
}

func TestKernelCommand(t *testing.T) {
	stdout, _, err := execute(t, "kernel", "--sigma", "1", "--size", "10")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "size 11, sum 1.000000, separable true"))
	// Header, 11 rows, two profiles.
	assert.Len(t, lines, 1+11+2)

	stdout, _, err = execute(t, "kernel", "--values", "0,1,0,1,1,1,0,1,0")
	require.NoError(t, err)
	assert.Contains(t, stdout, "separable false")
	assert.NotContains(t, stdout, "x: ")
}

func TestBenchCommand(t *testing.T) {
	dir := t.TempDir()
	set := filepath.Join(dir, "set.yaml")
	require.NoError(t, os.WriteFile(set, []byte(`name: tiny
scenarios:
  - name: blur
    operation: gauss
    args: ["1", "separable"]
    resolution: {name: tiny, width: 16, height: 12}
    pattern: chessboard
    iterations: 2
  - name: spectrum
    operation: spectrum
    fftBackend: godsp
    resolution: {name: tiny, width: 16, height: 12}
    iterations: 2
`), 0o644))

	reports := filepath.Join(dir, "reports")
	_, logs, err := execute(t, "bench", "--scenarios", set, "-o", reports)
	require.NoError(t, err)
	assert.Contains(t, logs, "scenario complete")

	entries, err := os.ReadDir(reports)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	saved := filepath.Join(dir, "quick.json")
	_, _, err = execute(t, "bench", "--resolution", "vga", "--save-scenarios", saved)
	require.NoError(t, err)
	assert.FileExists(t, saved)

	_, _, err = execute(t, "bench", "--resolution", "8k")
	assert.Error(t, err)
}
