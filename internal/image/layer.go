// Package image provides image loading and display scaling for the
// annotation canvas.
package image

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"

	_ "github.com/chai2010/webp"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Layer holds a decoded image and its scaled display bitmap.
type Layer struct {
	Path  string      // Original file path
	Image image.Image // Decoded pixel data

	// Cached result of the last Display call.
	scaled     image.Image
	scaledZoom float64
}

// Load decodes the image at path into a Layer.
func Load(path string) (*Layer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	return &Layer{Path: path, Image: img}, nil
}

// Name returns the file name of the layer.
func (l *Layer) Name() string {
	return filepath.Base(l.Path)
}

// Width returns the image width in pixels.
func (l *Layer) Width() int {
	if l.Image == nil {
		return 0
	}
	return l.Image.Bounds().Dx()
}

// Height returns the image height in pixels.
func (l *Layer) Height() int {
	if l.Image == nil {
		return 0
	}
	return l.Image.Bounds().Dy()
}

// Display returns the image scaled by zoom with Lanczos resampling. The
// result for the most recent zoom is cached; zoom 1.0 returns the decoded
// image as is.
func (l *Layer) Display(zoom float64) image.Image {
	if l.Image == nil {
		return nil
	}
	if zoom == 1.0 {
		return l.Image
	}
	if l.scaled != nil && l.scaledZoom == zoom {
		return l.scaled
	}

	w := int(float64(l.Width()) * zoom)
	h := int(float64(l.Height()) * zoom)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	l.scaled = imaging.Resize(l.Image, w, h, imaging.Lanczos)
	l.scaledZoom = zoom
	return l.scaled
}

// DecodeInfo returns the dimensions and channel count of an image file
// without decoding the pixel data.
func DecodeInfo(path string) (width, height, depth int, err error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to read image header: %w", err)
	}
	return cfg.Width, cfg.Height, channelCount(cfg.ColorModel), nil
}

func channelCount(model color.Model) int {
	switch model {
	case color.GrayModel, color.Gray16Model:
		return 1
	case color.RGBAModel, color.RGBA64Model, color.NRGBAModel, color.NRGBA64Model, color.CMYKModel:
		return 4
	default:
		return 3
	}
}

// SupportedFormats returns the recognized image file extensions.
func SupportedFormats() []string {
	return []string{".jpg", ".jpeg", ".png", ".bmp", ".gif", ".tiff", ".tif", ".webp"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}

// FileFilter returns the extension list for use in file open dialogs.
func FileFilter() []string {
	return SupportedFormats()
}

// FindImageFiles returns the supported image files in dir, sorted by name.
// An unreadable directory yields an empty list.
func FindImageFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if IsSupportedFormat(entry.Name()) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files
}
