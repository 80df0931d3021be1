package shaderrun

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/gogpu/shaderrun/shader"
)

func checkerResult() *Result {
	size := Size{Width: 3, Height: 2}
	pix := make([]byte, 4*3*2)
	for i := 0; i < len(pix); i += 4 {
		if (i/4)%2 == 0 {
			copy(pix[i:], []byte{255, 0, 0, 255})
		} else {
			copy(pix[i:], []byte{0, 0, 255, 255})
		}
	}
	return &Result{Size: size, Pixels: pix}
}

func TestResultImage(t *testing.T) {
	img := checkerResult().Image()
	if img.Bounds() != image.Rect(0, 0, 3, 2) {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	if got := img.NRGBAAt(0, 0); got != (color.NRGBA{255, 0, 0, 255}) {
		t.Errorf("(0,0) = %v", got)
	}
	if got := img.NRGBAAt(1, 0); got != (color.NRGBA{0, 0, 255, 255}) {
		t.Errorf("(1,0) = %v", got)
	}
	// Row 1 starts at pixel index 3, which is odd.
	if got := img.NRGBAAt(0, 1); got != (color.NRGBA{0, 0, 255, 255}) {
		t.Errorf("(0,1) = %v", got)
	}

	if (&Result{Size: Size{Width: 4, Height: 4}}).Image() != nil {
		t.Error("Image() of a bindingless result should be nil")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"png", FormatPNG, false},
		{"PNG", FormatPNG, false},
		{"bmp", FormatBMP, false},
		{"tif", FormatTIFF, false},
		{"tiff", FormatTIFF, false},
		{"jpeg", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestFormatOf(t *testing.T) {
	if f, err := FormatOf("out/result.TIFF"); err != nil || f != FormatTIFF {
		t.Errorf("FormatOf(.TIFF) = %q, %v", f, err)
	}
	if _, err := FormatOf("output"); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("FormatOf(no ext) = %v, want ErrInvalidOption", err)
	}
}

func TestEncodeImageRoundTrip(t *testing.T) {
	src := checkerResult().Image()
	decoders := map[Format]func(*bytes.Reader) (image.Image, error){
		FormatPNG:  func(r *bytes.Reader) (image.Image, error) { return png.Decode(r) },
		FormatBMP:  func(r *bytes.Reader) (image.Image, error) { return bmp.Decode(r) },
		FormatTIFF: func(r *bytes.Reader) (image.Image, error) { return tiff.Decode(r) },
	}
	for f, decode := range decoders {
		t.Run(string(f), func(t *testing.T) {
			var buf bytes.Buffer
			if err := EncodeImage(&buf, src, f); err != nil {
				t.Fatalf("EncodeImage() = %v", err)
			}
			got, err := decode(bytes.NewReader(buf.Bytes()))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.Bounds() != src.Bounds() {
				t.Fatalf("bounds = %v, want %v", got.Bounds(), src.Bounds())
			}
			for y := 0; y < 2; y++ {
				for x := 0; x < 3; x++ {
					r1, g1, b1, a1 := got.At(x, y).RGBA()
					r2, g2, b2, a2 := src.At(x, y).RGBA()
					if r1 != r2 || g1 != g2 || b1 != b2 || a1 != a2 {
						t.Errorf("pixel (%d,%d) = %v, want %v", x, y, got.At(x, y), src.At(x, y))
					}
				}
			}
		})
	}
}

func TestPNGHeaderIsRGBA8(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeImage(&buf, checkerResult().Image(), FormatPNG); err != nil {
		t.Fatal(err)
	}
	// IHDR: bit depth at byte 24, color type at byte 25.
	b := buf.Bytes()
	if b[24] != 8 || b[25] != 6 {
		t.Errorf("bit depth %d color type %d, want 8 and 6 (RGBA)", b[24], b[25])
	}
}

func TestPNGOpaqueImage(t *testing.T) {
	// A solid red 4x4 image is fully opaque; the header must still say RGBA.
	res := &Result{Size: Size{Width: 4, Height: 4}, Pixels: bytes.Repeat([]byte{255, 0, 0, 255}, 16)}
	var buf bytes.Buffer
	if err := EncodeImage(&buf, res.Image(), FormatPNG); err != nil {
		t.Fatal(err)
	}
	b := buf.Bytes()
	if string(b[12:16]) != "IHDR" {
		t.Fatalf("first chunk = %q, want IHDR", b[12:16])
	}
	if w, h := binary.BigEndian.Uint32(b[16:20]), binary.BigEndian.Uint32(b[20:24]); w != 4 || h != 4 {
		t.Errorf("IHDR size = %dx%d, want 4x4", w, h)
	}
	if b[24] != 8 || b[25] != 6 || b[26] != 0 || b[27] != 0 || b[28] != 0 {
		t.Errorf("IHDR depth/color/compression/filter/interlace = %v", b[24:29])
	}

	img, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("png.Decode() = %v", err)
	}
	got, ok := img.(*image.NRGBA)
	if !ok {
		t.Fatalf("decoded %T, want *image.NRGBA", img)
	}
	if !bytes.Equal(got.Pix, res.Pixels) {
		t.Errorf("decoded pixels = %v", got.Pix)
	}
}

func TestPNGConvertsOtherImages(t *testing.T) {
	src := image.NewRGBA(image.Rect(2, 3, 7, 5))
	src.Set(2, 3, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	src.Set(6, 4, color.NRGBA{R: 0, G: 255, B: 0, A: 128})

	var buf bytes.Buffer
	if err := EncodeImage(&buf, src, FormatPNG); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds() != image.Rect(0, 0, 5, 2) {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	nrgba := img.(*image.NRGBA)
	if c := nrgba.NRGBAAt(0, 0); c != (color.NRGBA{R: 200, G: 100, B: 50, A: 255}) {
		t.Errorf("top-left = %v", c)
	}
	if c := nrgba.NRGBAAt(4, 1); c.A != 128 || c.G < 250 {
		t.Errorf("bottom-right = %v, want half-transparent green", c)
	}
	if err := EncodeImage(&buf, image.NewNRGBA(image.Rect(0, 0, 0, 0)), FormatPNG); err == nil {
		t.Error("empty image encoded")
	}
}

func TestWriteImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.png")
	if err := WriteImage(path, checkerResult().Image(), FormatPNG); err != nil {
		t.Fatalf("WriteImage() = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatal(err)
	}

	err := WriteImage(filepath.Join(dir, "missing", "out.png"), checkerResult().Image(), FormatPNG)
	if Classify(err) != ClassOutput {
		t.Errorf("write into missing dir: %v classified %v", err, Classify(err))
	}

	bad := filepath.Join(dir, "bad.png")
	if err := WriteImage(bad, checkerResult().Image(), Format("gif")); err == nil {
		t.Error("unknown format accepted")
	}
	if _, err := os.Stat(bad); !os.IsNotExist(err) {
		t.Error("failed write left a partial file")
	}

	if err := WriteImage(path, nil, FormatPNG); !errors.Is(err, ErrOutput) {
		t.Errorf("nil image: %v", err)
	}
}

func TestWriteBinary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.spv")
	bin := shader.Binary{0x03, 0x02, 0x23, 0x07}
	if err := WriteBinary(path, bin); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, bin) {
		t.Errorf("file = %x, want %x", got, bin)
	}
}
