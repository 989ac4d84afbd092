// Package media handles image files pulled out of source documents: probing
// their pixel size, copying them under collision free names and converting
// cover images to JPEG.
package media

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/tsawler/docstory/model"
)

// Dimensions reads the pixel size of an image file without decoding the
// pixel data.
func Dimensions(path string) (model.Dimensions, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Dimensions{}, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return model.Dimensions{}, fmt.Errorf("decoding image header %s: %w", filepath.Base(path), err)
	}
	return model.Dimensions{Width: cfg.Width, Height: cfg.Height}, nil
}

// CopyUnique copies src into dir under a name prefixed with a random id so
// that several documents extracted in one process never collide. The
// directory is created if needed. Returns the path of the copy.
func CopyUnique(src, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating media directory: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	name := uuid.NewString()[:8] + "_" + filepath.Base(src)
	dst := filepath.Join(dir, name)
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return "", fmt.Errorf("copying %s: %w", filepath.Base(src), err)
	}
	return dst, out.Close()
}

// ToJPEG re-encodes any supported image as an opaque JPEG. Transparent
// areas are composited onto white. Returns the dimensions of the image.
func ToJPEG(src, dst string) (model.Dimensions, error) {
	in, err := os.Open(src)
	if err != nil {
		return model.Dimensions{}, err
	}
	defer in.Close()

	img, _, err := image.Decode(in)
	if err != nil {
		return model.Dimensions{}, fmt.Errorf("decoding %s: %w", filepath.Base(src), err)
	}

	b := img.Bounds()
	rgba := image.NewRGBA(b)
	draw.Draw(rgba, b, &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(rgba, b, img, b.Min, draw.Over)

	out, err := os.Create(dst)
	if err != nil {
		return model.Dimensions{}, err
	}
	if err := jpeg.Encode(out, rgba, &jpeg.Options{Quality: 95}); err != nil {
		out.Close()
		return model.Dimensions{}, fmt.Errorf("encoding jpeg: %w", err)
	}
	return model.Dimensions{Width: b.Dx(), Height: b.Dy()}, out.Close()
}

// ContentType guesses a MIME type from the file extension.
func ContentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".bmp":
		return "image/bmp"
	case ".tif", ".tiff":
		return "image/tiff"
	case ".webp":
		return "image/webp"
	case ".svg":
		return "image/svg+xml"
	default:
		return "application/octet-stream"
	}
}

// Image layout thresholds in pixels.
const (
	WideMinWidth    = 1200
	WideMinAspect   = 16.0 / 9.0
	FloatBelowWidth = 800
)

// Display picks the layout for an image: wide when it is large and at
// least 16:9, floated when it is small or the source wraps text around it,
// standard otherwise. Unknown sizes are passed as zero.
func Display(width, height int, wrapped bool) model.Display {
	aspect := 0.0
	if height > 0 {
		aspect = float64(width) / float64(height)
	}
	switch {
	case width > WideMinWidth && aspect >= WideMinAspect:
		return model.DisplayWide
	case width < FloatBelowWidth || wrapped:
		return model.DisplayFloat
	default:
		return model.DisplayStandard
	}
}
