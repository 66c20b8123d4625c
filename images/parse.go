package images

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-imgproc/images/kernels"
)

// operationSpec describes how to build an operation from text arguments.
type operationSpec struct {
	usage string
	build func(args []string) (Operation, error)
}

var operationSpecs = map[string]operationSpec{
	"negate": {"negate", func([]string) (Operation, error) { return Negate{}, nil }},
	"threshold": {"threshold <level>", func(args []string) (Operation, error) {
		v, err := float32Arg(args, 0, "level")
		return Threshold{Level: v}, err
	}},
	"brightness": {"brightness <delta>", func(args []string) (Operation, error) {
		v, err := float32Arg(args, 0, "delta")
		return Brightness{Delta: v}, err
	}},
	"contrast": {"contrast <factor>", func(args []string) (Operation, error) {
		v, err := float32Arg(args, 0, "factor")
		return Contrast{Factor: v}, err
	}},
	"gamma": {"gamma <exponent>", func(args []string) (Operation, error) {
		v, err := float32Arg(args, 0, "exponent")
		return Gamma{Exponent: v}, err
	}},
	"quantize": {"quantize <levels>", func(args []string) (Operation, error) {
		if len(args) < 1 {
			return nil, errors.Wrap(ErrInvalidParameter, "missing levels")
		}
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidParameter, "levels %q is not an integer", args[0])
		}
		return Quantize{Levels: v}, nil
	}},
	"equalize": {"equalize", func([]string) (Operation, error) { return Equalize{}, nil }},
	"gauss": {"gauss <sigma> [separable]", func(args []string) (Operation, error) {
		sigma, err := float64Arg(args, 0, "sigma")
		if err != nil {
			return nil, err
		}
		separable := len(args) > 1 && (args[1] == "separable" || args[1] == "1d")
		return GaussianBlur{Sigma: sigma, Separable: separable}, nil
	}},
	"convolve": {"convolve <w1,w2,...,wn²> [separable]", func(args []string) (Operation, error) {
		if len(args) < 1 {
			return nil, errors.Wrap(ErrInvalidParameter, "missing kernel weights")
		}
		values, err := parseFloats(args[0])
		if err != nil {
			return nil, err
		}
		k, err := kernels.NewFromValues(values)
		if err != nil {
			return nil, err
		}
		kind := kernels.Convolution2D
		if len(args) > 1 && (args[1] == "separable" || args[1] == "1d") {
			kind = kernels.ConvolutionSeparable
		}
		return Convolution{Kernel: k, Type: kind}, nil
	}},
	"bilateral": {"bilateral <spatialSigma> <brightnessSigma>", func(args []string) (Operation, error) {
		spatial, err := float64Arg(args, 0, "spatial sigma")
		if err != nil {
			return nil, err
		}
		brightness, err := float64Arg(args, 1, "brightness sigma")
		return BilateralFilter{SpatialSigma: spatial, BrightnessSigma: brightness}, err
	}},
	"spectrum":    {"spectrum", func([]string) (Operation, error) { return SpectrumView{}, nil }},
	"reconstruct": {"reconstruct", func([]string) (Operation, error) { return Reconstruct{}, nil }},
	"lowpass": {"lowpass <cutoff>", func(args []string) (Operation, error) {
		v, err := float64Arg(args, 0, "cutoff")
		return FrequencyFilter{Cutoff: v}, err
	}},
	"highpass": {"highpass <cutoff>", func(args []string) (Operation, error) {
		v, err := float64Arg(args, 0, "cutoff")
		return FrequencyFilter{Cutoff: v, HighPass: true}, err
	}},
}

// Single letter commands of the interactive tool.
var operationAliases = map[string]string{
	"n": "negate",
	"t": "threshold",
	"b": "brightness",
	"c": "contrast",
	"g": "gamma",
	"k": "quantize",
	"h": "equalize",
}

// ParseOperation builds an operation from its name and text arguments and
// validates it.
//
// Arguments:
// - name: Operation name or single letter alias (n, t, b, c, g, k, h).
// - args: Positional arguments.
//
// Returns:
// - The operation.
// - error if the name is unknown or an argument is missing or invalid.
//
// @example
// op, err := images.ParseOperation("t", "0.5") // Threshold{Level: 0.5}
func ParseOperation(name string, args ...string) (Operation, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if full, ok := operationAliases[name]; ok {
		name = full
	}
	spec, ok := operationSpecs[name]
	if !ok {
		return nil, errors.Wrapf(ErrInvalidParameter, "unknown operation %q", name)
	}
	op, err := spec.build(args)
	if err != nil {
		return nil, err
	}
	if err := op.Validate(); err != nil {
		return nil, err
	}
	return op, nil
}

// OperationNames lists every operation name in sorted order.
func OperationNames() []string {
	names := make([]string, 0, len(operationSpecs))
	for name := range operationSpecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OperationUsage returns the argument synopsis of an operation.
func OperationUsage(name string) string {
	return operationSpecs[name].usage
}

func float64Arg(args []string, i int, name string) (float64, error) {
	if len(args) <= i {
		return 0, errors.Wrapf(ErrInvalidParameter, "missing %s", name)
	}
	v, err := strconv.ParseFloat(args[i], 64)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidParameter, "%s %q is not a number", name, args[i])
	}
	return v, nil
}

func float32Arg(args []string, i int, name string) (float32, error) {
	v, err := float64Arg(args, i, name)
	return float32(v), err
}

func parseFloats(list string) ([]float64, error) {
	fields := strings.FieldsFunc(list, func(r rune) bool { return r == ',' || r == ' ' })
	values := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidParameter, "kernel weight %q is not a number", f)
		}
		values = append(values, v)
	}
	return values, nil
}
