// Package fourier - forward and inverse 2D discrete Fourier transforms over
// row-major complex grids.
//
// Both directions are unnormalized: Inverse2D(Forward2D(x)) == x * width * height.
// Callers divide by the pixel count themselves.
package fourier

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrUnknownBackend is returned by New for an unregistered backend name.
	ErrUnknownBackend = errors.New("unknown fourier backend")
	// ErrDimensions is returned when a grid does not hold width*height values.
	ErrDimensions = errors.New("grid does not match dimensions")
)

// Transformer computes 2D complex-to-complex DFTs in place.
type Transformer interface {
	// Forward2D replaces grid with its forward transform and returns it.
	Forward2D(width, height int, grid []complex128) ([]complex128, error)
	// Inverse2D replaces grid with its unnormalized inverse transform and returns it.
	Inverse2D(width, height int, grid []complex128) ([]complex128, error)
}

// Backend names accepted by New.
const (
	BackendGonum = "gonum"
	BackendGoDSP = "godsp"
)

var backends = map[string]func() Transformer{
	BackendGonum: func() Transformer { return Gonum{} },
	BackendGoDSP: func() Transformer { return GoDSP{} },
}

// New returns the transformer registered under name. An empty name selects
// the gonum backend.
//
// Arguments:
// - name: Backend name ("gonum" or "godsp").
//
// Returns:
// - The transformer.
// - error if the name is unknown.
//
// @example
// t, err := fourier.New("gonum")
func New(name string) (Transformer, error) {
	if name == "" {
		name = BackendGonum
	}
	ctor, ok := backends[strings.ToLower(name)]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownBackend, "%q (available: %s)", name, strings.Join(Backends(), ", "))
	}
	return ctor(), nil
}

// Backends lists the registered backend names in sorted order.
func Backends() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func checkGrid(width, height int, grid []complex128) error {
	if width <= 0 || height <= 0 || len(grid) != width*height {
		return errors.Wrapf(ErrDimensions, "%d values for %dx%d", len(grid), width, height)
	}
	return nil
}
