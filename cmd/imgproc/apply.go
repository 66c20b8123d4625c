package main

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nvr-ai/go-imgproc/codec"
	"github.com/nvr-ai/go-imgproc/config"
	"github.com/nvr-ai/go-imgproc/fourier"
	"github.com/nvr-ai/go-imgproc/images"
	"github.com/nvr-ai/go-imgproc/images/kernels"
	"github.com/nvr-ai/go-imgproc/logger"
	"github.com/nvr-ai/go-imgproc/profiler"
	"github.com/nvr-ai/go-imgproc/util"
)

type applyFlags struct {
	inputs       []string
	outputDir    string
	source       string
	quality      int
	maxDimension int
	codecBackend string
	fftBackend   string
	edgeMode     string
	workers      int
	profile      bool
}

func newApplyCommand(global *globalFlags) *cobra.Command {
	flags := &applyFlags{}
	cmd := &cobra.Command{
		Use:   "apply <operation> [args...]",
		Short: "Apply one operation to every input and save the results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, global, flags)
			if err != nil {
				return err
			}
			log, err := logger.New(logger.Options{Level: cfg.LogLevel, Console: cfg.Console, Writer: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			return runApply(cmd.Context(), cfg, flags, args, log)
		},
	}

	f := cmd.Flags()
	f.StringSliceVarP(&flags.inputs, "input", "i", nil, "Input files or directories")
	f.StringVarP(&flags.outputDir, "output-dir", "o", "", "Output directory (default: next to each input)")
	f.StringVar(&flags.source, "source", "image", "Buffer to operate on: image or spectrum")
	f.IntVar(&flags.quality, "quality", codec.DefaultQuality, "Output quality for lossy formats")
	f.IntVar(&flags.maxDimension, "max-dimension", 0, "Downscale inputs larger than this (0 disables)")
	f.StringVar(&flags.codecBackend, "codec", codec.BackendImaging, "Codec backend: "+strings.Join(codec.Backends(), ", "))
	f.StringVar(&flags.fftBackend, "fft", fourier.BackendGonum, "Fourier backend: "+strings.Join(fourier.Backends(), ", "))
	f.StringVar(&flags.edgeMode, "edge", "clamp", "Filter edge mode: clamp, mirror or wrap")
	f.IntVar(&flags.workers, "workers", 0, "Images processed concurrently (default: number of CPUs)")
	f.BoolVar(&flags.profile, "profile", false, "Log per-operation timings when done")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

// resolveConfig loads the configuration file, if any, and applies the flags
// the user set explicitly.
func resolveConfig(cmd *cobra.Command, global *globalFlags, flags *applyFlags) (config.Config, error) {
	cfg := config.Default()
	if global.configPath != "" {
		loaded, err := config.Load(global.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	changed := cmd.Flags().Changed
	if changed("output-dir") {
		cfg.OutputDir = flags.outputDir
	}
	if changed("quality") {
		cfg.Quality = flags.quality
	}
	if changed("max-dimension") {
		cfg.MaxDimension = flags.maxDimension
	}
	if changed("codec") {
		cfg.CodecBackend = flags.codecBackend
	}
	if changed("fft") {
		cfg.FFTBackend = flags.fftBackend
	}
	if changed("edge") {
		cfg.EdgeMode = flags.edgeMode
	}
	if changed("workers") {
		cfg.Workers = flags.workers
	}
	if changed("log-level") {
		cfg.LogLevel = global.logLevel
	}
	if changed("console") {
		cfg.Console = global.console
	}
	return cfg, cfg.Validate()
}

func runApply(ctx context.Context, cfg config.Config, flags *applyFlags, args []string, log zerolog.Logger) error {
	op, err := images.ParseOperation(args[0], args[1:]...)
	if err != nil {
		return err
	}
	src, err := images.ParseDataSource(flags.source)
	if err != nil {
		return err
	}

	c, err := codec.New(codec.Options{Backend: cfg.CodecBackend, Quality: cfg.Quality, MaxDimension: cfg.MaxDimension})
	if err != nil {
		return err
	}
	tr, err := fourier.New(cfg.FFTBackend)
	if err != nil {
		return err
	}
	opts := []images.Option{
		images.WithLogger(logger.Component(log, "images")),
		images.WithCodec(c),
		images.WithTransformer(tr),
		images.WithFilterOptions(kernels.Options{
			Edge:     kernels.ParseEdgeMode(cfg.EdgeMode),
			Pool:     &kernels.Pool{},
			Parallel: true,
		}),
	}

	// Outputs written next to their inputs must not be picked up again.
	files, err := util.ExpandInputs(flags.inputs, func(name string) bool {
		return strings.HasPrefix(name, op.Prefix())
	})
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.New("no image files found in the inputs")
	}

	prof := profiler.New()
	var saved atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for _, file := range files {
		file := file
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := processFile(file.Path, op, src, cfg.OutputDir, opts, prof)
			if err != nil {
				return errors.Wrap(err, file.Path)
			}
			saved.Add(1)
			log.Info().Str("op", op.Name()).Str("path", file.Path).Str("output", out).Msg("saved")
			return nil
		})
	}
	err = g.Wait()

	if flags.profile {
		prof.Report(logger.Component(log, "profiler"))
	}
	log.Info().Int64("saved", saved.Load()).Int("inputs", len(files)).Msg("done")
	return err
}

func processFile(path string, op images.Operation, src images.DataSource, outputDir string, opts []images.Option, prof *profiler.Profiler) (string, error) {
	done := prof.StartOperation("load")
	img, err := images.Load(path, opts...)
	done()
	if err != nil {
		return "", err
	}
	defer img.Close()

	if src == images.SourceSpectrum {
		done = prof.StartOperation("spectrum")
		_, err = img.ComputeSpectrum()
		done()
		if err != nil {
			return "", err
		}
	}

	done = prof.StartOperation(op.Name())
	defer done()
	return img.Run(op, src, outputDir)
}
