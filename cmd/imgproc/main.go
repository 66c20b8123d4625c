// Command imgproc applies grayscale transforms to image files.
//
//	imgproc apply -i lena.jpg gauss 1.5 separable
//	imgproc apply -i frames/ -o out --workers 4 equalize
//	imgproc apply -i lena.jpg --source spectrum gamma 0.5
//	imgproc kernel --sigma 1 --size 10
//	imgproc ops
//	imgproc bench --resolution 1080p -o bench
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	console    bool
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:          "imgproc",
		Short:        "Grayscale image transformation engine",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&flags.console, "console", false, "Human readable log output")

	root.AddCommand(newApplyCommand(flags), newOpsCommand(), newKernelCommand(), newBenchCommand(flags))
	return root
}
