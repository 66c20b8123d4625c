package benchmark

import (
	"fmt"
	"math"
	"sort"
)

// Resolution is a named frame size.
type Resolution struct {
	Name   string `json:"name" yaml:"name"`
	Width  int    `json:"width" yaml:"width"`
	Height int    `json:"height" yaml:"height"`
}

// MegaPixels returns the pixel count in millions, rounded to two decimals.
func (r Resolution) MegaPixels() float64 {
	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}
	mp := float64(r.Width*r.Height) / 1_000_000.0
	return math.Round(mp*100) / 100
}

// String returns a human-readable summary of the resolution.
func (r Resolution) String() string {
	return fmt.Sprintf("%s (%dx%d, %.2fMP)", r.Name, r.Width, r.Height, r.MegaPixels())
}

// resolutions holds the named sizes accepted by ResolutionByName.
var resolutions = map[string]Resolution{
	"thumb":  {Name: "thumb", Width: 128, Height: 128},
	"vga":    {Name: "vga", Width: 640, Height: 480},
	"nhd":    {Name: "nhd", Width: 640, Height: 360},
	"720p":   {Name: "720p", Width: 1280, Height: 720},
	"1080p":  {Name: "1080p", Width: 1920, Height: 1080},
	"1440p":  {Name: "1440p", Width: 2560, Height: 1440},
	"4k":     {Name: "4k", Width: 3840, Height: 2160},
	"square": {Name: "square", Width: 512, Height: 512},
}

// ResolutionByName looks up a named resolution.
func ResolutionByName(name string) (Resolution, bool) {
	r, ok := resolutions[name]
	return r, ok
}

// Resolutions returns every named resolution ordered by pixel count.
func Resolutions() []Resolution {
	all := make([]Resolution, 0, len(resolutions))
	for _, r := range resolutions {
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool {
		pi, pj := all[i].Width*all[i].Height, all[j].Width*all[j].Height
		if pi != pj {
			return pi < pj
		}
		return all[i].Name < all[j].Name
	})
	return all
}
