package shaderrun

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/gogpu/shaderrun/shader"
)

// Format is an output image encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
)

// ParseFormat accepts a format name, case-insensitively. "tif" is an alias
// for "tiff".
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "png":
		return FormatPNG, nil
	case "bmp":
		return FormatBMP, nil
	case "tif", "tiff":
		return FormatTIFF, nil
	}
	return "", fmt.Errorf("%w: unknown image format %q", ErrInvalidOption, name)
}

// FormatOf infers the format from the file extension of path.
func FormatOf(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no extension", ErrInvalidOption, path)
	}
	return ParseFormat(ext)
}

// Image returns the pixels as an image sharing the Pixels slice, or nil
// when the run produced no image.
func (r *Result) Image() *image.NRGBA {
	if r == nil || r.Pixels == nil {
		return nil
	}
	w, h := int(r.Size.Width), int(r.Size.Height)
	return &image.NRGBA{
		Pix:    r.Pixels,
		Stride: 4 * w,
		Rect:   image.Rect(0, 0, w, h),
	}
}

// EncodeImage writes img to w in format f. PNG output is always 8-bit RGBA,
// even for opaque images.
func EncodeImage(w io.Writer, img image.Image, f Format) error {
	switch f {
	case FormatPNG:
		return encodePNG(w, img)
	case FormatBMP:
		return bmp.Encode(w, img)
	case FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}
	return fmt.Errorf("%w: unknown image format %q", ErrInvalidOption, f)
}

// WriteImage encodes img into a new file at path.
// On failure no partial file is left behind.
func WriteImage(path string, img image.Image, f Format) error {
	if img == nil {
		return fmt.Errorf("%w: %s: no image to write", ErrOutput, path)
	}
	return writeFile(path, func(w io.Writer) error {
		return EncodeImage(w, img, f)
	})
}

// WriteBinary writes a SPIR-V binary to path.
func WriteBinary(path string, bin shader.Binary) error {
	return writeFile(path, func(w io.Writer) error {
		_, err := w.Write(bin)
		return err
	})
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOutput, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("%w: %w", ErrOutput, cerr)
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	if err := write(f); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrOutput, path, err)
	}
	Logger().Info("shaderrun: wrote", "path", path)
	return nil
}
