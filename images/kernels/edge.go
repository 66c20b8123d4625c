package kernels

import (
	"sync"
)

// EdgeMode defines how sampling behaves outside the image bounds.
// - Clamp: repeats edge pixels (replicate border).
// - Mirror: reflects coordinates.
// - Wrap: tiles the image (periodic).
type EdgeMode int

const (
	EdgeClamp EdgeMode = iota
	EdgeMirror
	EdgeWrap
)

// String returns the configuration name of the edge mode.
func (m EdgeMode) String() string {
	switch m {
	case EdgeMirror:
		return "mirror"
	case EdgeWrap:
		return "wrap"
	default:
		return "clamp"
	}
}

// ParseEdgeMode maps a configuration name to an EdgeMode. Unknown names
// fall back to EdgeClamp.
func ParseEdgeMode(name string) EdgeMode {
	switch name {
	case "mirror":
		return EdgeMirror
	case "wrap":
		return EdgeWrap
	default:
		return EdgeClamp
	}
}

// Options configures a filter call. The zero value clamps edges, allocates
// fresh buffers and runs serially.
type Options struct {
	Edge     EdgeMode // Edge sampling mode.
	Pool     *Pool    // Optional buffer pool for intermediate/dst reuse.
	Parallel bool     // Enable row/column parallelism.
}

// Pool lets callers reuse large float buffers between filter calls.
type Pool struct {
	buffers sync.Pool // *[]float32
}

// Get returns a buffer of exactly n elements. Contents are unspecified; every
// filter pass fully overwrites its destination.
func (p *Pool) Get(n int) []float32 {
	if p == nil {
		return make([]float32, n)
	}
	if v := p.buffers.Get(); v != nil {
		buf := *(v.(*[]float32))
		if cap(buf) >= n {
			return buf[:n]
		}
	}
	return make([]float32, n)
}

// Put hands a buffer back for reuse. The caller must not touch buf afterwards.
func (p *Pool) Put(buf []float32) {
	if p == nil || buf == nil {
		return
	}
	p.buffers.Put(&buf)
}

// mapCoord maps an index i to [0, n) according to edge mode.
// For Clamp: clamp to [0, n-1].
// For Mirror: reflect indices ... -2,-1,0,1,2, ... -> 1,0,0,1,2, ... (no duplication at edges).
// For Wrap: modulo wrap to [0, n).
func mapCoord(i, n int, mode EdgeMode) int {
	switch mode {
	case EdgeMirror:
		if n == 1 {
			return 0
		}
		for i < 0 || i >= n {
			if i < 0 {
				i = -i - 1
			} else {
				i = 2*n - i - 1
			}
		}
		return i
	case EdgeWrap:
		i %= n
		if i < 0 {
			i += n
		}
		return i
	default:
		if i < 0 {
			return 0
		}
		if i >= n {
			return n - 1
		}
		return i
	}
}

// forEachLine runs task for every index in [0, n), splitting the range into
// chunks processed by separate goroutines when parallel is set.
func forEachLine(n int, parallel bool, task func(i int)) {
	if !parallel || n < 4 {
		for i := 0; i < n; i++ {
			task(i)
		}
		return
	}

	chunk := chooseChunk(n)
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				task(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// chooseChunk picks a work chunk size that balances overhead and cache locality.
func chooseChunk(n int) int {
	switch {
	case n >= 2048:
		return 128
	case n >= 512:
		return 64
	default:
		return 32
	}
}
