package shaderrun

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"io"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// IHDR constants: 8 bits per sample, truecolor with alpha.
const (
	pngBitDepth  = 8
	pngColorRGBA = 6
)

// encodePNG writes img as a non-interlaced PNG whose header always declares
// 8-bit RGBA. Pixels are stored unpremultiplied, with filter type None on
// every row. image/png would pick an RGB header for opaque images.
func encodePNG(w io.Writer, img image.Image) error {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width <= 0 || height <= 0 {
		return errors.New("png: empty image")
	}

	if _, err := w.Write(pngSignature); err != nil {
		return err
	}
	var ihdr [13]byte
	binary.BigEndian.PutUint32(ihdr[0:4], uint32(width))
	binary.BigEndian.PutUint32(ihdr[4:8], uint32(height))
	ihdr[8] = pngBitDepth
	ihdr[9] = pngColorRGBA
	if err := writePNGChunk(w, "IHDR", ihdr[:]); err != nil {
		return err
	}

	var idat bytes.Buffer
	zw := zlib.NewWriter(&idat)
	row := make([]byte, 1+4*width)
	nrgba, direct := img.(*image.NRGBA)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		// row[0] is the filter type, always None.
		if direct {
			off := nrgba.PixOffset(b.Min.X, y)
			copy(row[1:], nrgba.Pix[off:off+4*width])
		} else {
			for x := 0; x < width; x++ {
				c := color.NRGBAModel.Convert(img.At(b.Min.X+x, y)).(color.NRGBA)
				row[1+4*x], row[2+4*x], row[3+4*x], row[4+4*x] = c.R, c.G, c.B, c.A
			}
		}
		if _, err := zw.Write(row); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return err
	}
	if err := writePNGChunk(w, "IDAT", idat.Bytes()); err != nil {
		return err
	}
	return writePNGChunk(w, "IEND", nil)
}

func writePNGChunk(w io.Writer, typ string, data []byte) error {
	var head [8]byte
	binary.BigEndian.PutUint32(head[:4], uint32(len(data)))
	copy(head[4:], typ)
	crc := crc32.NewIEEE()
	crc.Write(head[4:])
	crc.Write(data)
	var tail [4]byte
	binary.BigEndian.PutUint32(tail[:], crc.Sum32())

	if _, err := w.Write(head[:]); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err := w.Write(tail[:])
	return err
}
