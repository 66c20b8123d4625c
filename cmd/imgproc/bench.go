package main

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nvr-ai/go-imgproc/benchmark"
	"github.com/nvr-ai/go-imgproc/config"
	"github.com/nvr-ai/go-imgproc/images/kernels"
	"github.com/nvr-ai/go-imgproc/logger"
)

type benchFlags struct {
	scenarios  string
	resolution string
	outputDir  string
	save       string
}

func newBenchCommand(global *globalFlags) *cobra.Command {
	flags := &benchFlags{}
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time operations on synthetic images and write JSON and CSV reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Default()
			if global.configPath != "" {
				loaded, err := config.Load(global.configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if global.logLevel != "" {
				cfg.LogLevel = global.logLevel
			}
			log, err := logger.New(logger.Options{
				Level:   cfg.LogLevel,
				Console: cfg.Console || global.console,
				Writer:  cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			return runBench(cmd, cfg, flags, log)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.scenarios, "scenarios", "", "JSON or YAML scenario set (default: built-in quick set)")
	f.StringVar(&flags.resolution, "resolution", "720p", "Named resolution for the built-in set")
	f.StringVarP(&flags.outputDir, "output-dir", "o", "bench", "Report directory")
	f.StringVar(&flags.save, "save-scenarios", "", "Write the scenario set to this file and exit")
	return cmd
}

func runBench(cmd *cobra.Command, cfg config.Config, flags *benchFlags, log zerolog.Logger) error {
	var set *benchmark.ScenarioSet
	if flags.scenarios != "" {
		loaded, err := benchmark.LoadScenarioSet(flags.scenarios)
		if err != nil {
			return err
		}
		set = loaded
	} else {
		if _, ok := benchmark.ResolutionByName(flags.resolution); !ok {
			return errors.Errorf("unknown resolution %q", flags.resolution)
		}
		set = benchmark.QuickScenarios(flags.resolution)
	}

	if flags.save != "" {
		return benchmark.SaveScenarioSet(set, flags.save)
	}

	suite := benchmark.NewSuite(flags.outputDir, logger.Component(log, "benchmark"), kernels.Options{
		Edge:     kernels.ParseEdgeMode(cfg.EdgeMode),
		Parallel: true,
	})
	if err := suite.RunSet(cmd.Context(), set); err != nil {
		return err
	}
	_, err := suite.SaveResults()
	return err
}
