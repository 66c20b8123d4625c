// Package config - YAML configuration for batch image processing.
package config

import (
	"os"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-imgproc/codec"
	"github.com/nvr-ai/go-imgproc/fourier"
	"github.com/nvr-ai/go-imgproc/logger"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

// Config holds every setting of a processing run. Command line flags
// override the values loaded from file.
type Config struct {
	// OutputDir receives processed images; empty writes next to the input.
	OutputDir string `json:"outputDir" yaml:"outputDir"`
	// Quality for lossy output formats, 1..100.
	Quality int `json:"quality" yaml:"quality"`
	// MaxDimension downscales larger inputs on load; 0 disables.
	MaxDimension int `json:"maxDimension" yaml:"maxDimension"`
	// CodecBackend is "imaging" or "opencv".
	CodecBackend string `json:"codecBackend" yaml:"codecBackend"`
	// FFTBackend is "gonum" or "godsp".
	FFTBackend string `json:"fftBackend" yaml:"fftBackend"`
	// Workers bounds the number of images processed concurrently.
	Workers int `json:"workers" yaml:"workers"`
	// LogLevel is a zerolog level name.
	LogLevel string `json:"logLevel" yaml:"logLevel"`
	// Console selects human readable log output.
	Console bool `json:"console" yaml:"console"`
	// EdgeMode is "clamp", "mirror" or "wrap".
	EdgeMode string `json:"edgeMode" yaml:"edgeMode"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Quality:      codec.DefaultQuality,
		CodecBackend: codec.BackendImaging,
		FFTBackend:   fourier.BackendGonum,
		Workers:      runtime.NumCPU(),
		LogLevel:     "info",
		EdgeMode:     "clamp",
	}
}

// Load reads a YAML file over the defaults and validates the result.
//
// Arguments:
// - path: The YAML file.
//
// Returns:
// - The configuration.
// - error if the file cannot be read or parsed, or fails validation.
//
// @example
// cfg, err := config.Load("imgproc.yaml")
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, cfg.Validate()
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var problems []string
	if c.Quality < 1 || c.Quality > 100 {
		problems = append(problems, "quality must be in 1..100")
	}
	if c.MaxDimension < 0 {
		problems = append(problems, "maxDimension must not be negative")
	}
	if !lo.Contains(codec.Backends(), c.CodecBackend) {
		problems = append(problems, "codecBackend must be one of "+strings.Join(codec.Backends(), ", "))
	}
	if !lo.Contains(fourier.Backends(), c.FFTBackend) {
		problems = append(problems, "fftBackend must be one of "+strings.Join(fourier.Backends(), ", "))
	}
	if c.Workers < 1 {
		problems = append(problems, "workers must be at least 1")
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, "logLevel is not a known level")
	}
	switch c.EdgeMode {
	case "clamp", "mirror", "wrap":
	default:
		problems = append(problems, "edgeMode must be clamp, mirror or wrap")
	}

	if len(problems) > 0 {
		return errors.Wrap(ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}
