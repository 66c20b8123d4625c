package main

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/nvr-ai/go-imgproc/images"
	"github.com/nvr-ai/go-imgproc/images/kernels"
)

func newOpsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ops",
		Short: "List the available operations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lines := lo.Map(images.OperationNames(), func(name string, _ int) string {
				return fmt.Sprintf("  %-12s %s", name, images.OperationUsage(name))
			})
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Operations:\n%s\n", strings.Join(lines, "\n"))
			return err
		},
	}
}

type kernelFlags struct {
	sigma  float64
	size   int
	values string
}

func newKernelCommand() *cobra.Command {
	flags := &kernelFlags{}
	cmd := &cobra.Command{
		Use:   "kernel",
		Short: "Print a Gaussian or explicit kernel and its separable profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, err := buildKernel(flags)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "size %d, sum %.6f, separable %t\n%s", k.Size, k.Sum(), k.Separable(), k)
			if x, y, err := k.Split(); err == nil {
				fmt.Fprintf(out, "x: %s\ny: %s\n", formatProfile(x), formatProfile(y))
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&flags.sigma, "sigma", 1, "Gaussian standard deviation")
	cmd.Flags().IntVar(&flags.size, "size", 1, "Requested kernel size (rounded up to odd)")
	cmd.Flags().StringVar(&flags.values, "values", "", "Explicit comma separated weights instead of a Gaussian")
	return cmd
}

func buildKernel(flags *kernelFlags) (*kernels.Kernel, error) {
	if flags.values != "" {
		op, err := images.ParseOperation("convolve", flags.values)
		if err != nil {
			return nil, err
		}
		return op.(images.Convolution).Kernel, nil
	}
	k, err := kernels.NewKernel(flags.size)
	if err != nil {
		return nil, err
	}
	if err := k.CreateGauss(flags.sigma); err != nil {
		return nil, err
	}
	return k, nil
}

func formatProfile(p []float64) string {
	return strings.Join(lo.Map(p, func(v float64, _ int) string {
		return fmt.Sprintf("%.6f", v)
	}), " ")
}
