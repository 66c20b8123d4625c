// Package util - input discovery for batch runs.
package util

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-imgproc/codec"
)

// ImageFile represents an image file.
type ImageFile struct {
	// Path is the path to the image file.
	Path string `json:"path" yaml:"path"`
	// Size is the file size in bytes.
	Size int64 `json:"size" yaml:"size"`
	// Frame is the trailing number of the file name (frame-0012.png -> 12),
	// or -1 when the name has none.
	Frame int `json:"frame" yaml:"frame"`
}

// LoadDirectoryImageFiles lists the image files of a directory.
//
// Files whose names end in digits come first, ordered by frame number and
// then by name; the remaining files follow, ordered by name. Names for which skip returns true are left out; batch runs
// use it to ignore their own prefixed outputs.
//
// Arguments:
// - dir: Directory path containing image files.
// - skip: Optional filter on the base name.
//
// Returns:
// - []ImageFile: The image files.
// - error: Error if the directory cannot be read.
func LoadDirectoryImageFiles(dir string, skip func(name string) bool) ([]ImageFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read directory %s", dir)
	}

	var images []ImageFile
	for _, entry := range entries {
		if entry.IsDir() || !codec.Supported(entry.Name()) {
			continue
		}
		if skip != nil && skip(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, errors.Wrapf(err, "stat %s", entry.Name())
		}
		images = append(images, ImageFile{
			Path:  filepath.Join(dir, entry.Name()),
			Size:  info.Size(),
			Frame: frameNumber(entry.Name()),
		})
	}

	sort.SliceStable(images, func(i, j int) bool {
		a, b := images[i], images[j]
		if numbered := a.Frame >= 0; numbered != (b.Frame >= 0) {
			return numbered
		}
		if a.Frame != b.Frame {
			return a.Frame < b.Frame
		}
		return a.Path < b.Path
	})
	return images, nil
}

// ExpandInputs turns a mix of files and directories into image files.
// Directories are listed with LoadDirectoryImageFiles; files are kept in the
// given order.
func ExpandInputs(inputs []string, skip func(name string) bool) ([]ImageFile, error) {
	var out []ImageFile
	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			return nil, errors.Wrapf(err, "input %s", input)
		}
		if info.IsDir() {
			files, err := LoadDirectoryImageFiles(input, skip)
			if err != nil {
				return nil, err
			}
			out = append(out, files...)
			continue
		}
		out = append(out, ImageFile{Path: input, Size: info.Size(), Frame: frameNumber(filepath.Base(input))})
	}
	return out, nil
}

// frameNumber extracts the digits right before the extension.
func frameNumber(name string) int {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	i := len(stem)
	for i > 0 && unicode.IsDigit(rune(stem[i-1])) {
		i--
	}
	if i == len(stem) {
		return -1
	}
	frame, err := strconv.Atoi(stem[i:])
	if err != nil {
		return -1
	}
	return frame
}
