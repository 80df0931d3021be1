// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"context"
	"fmt"

	"github.com/gogpu/wgpu"
)

// copyPitchAlignment is the required BytesPerRow alignment for
// texture-to-buffer copies.
const copyPitchAlignment = 256

// alignedBytesPerRow returns the staging row pitch for a texture row of
// width RGBA8 pixels.
func alignedBytesPerRow(width uint32) uint32 {
	bytesPerRow := width * bytesPerPixel
	return (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
}

// Readback copies the output texture into host memory.
type Readback struct {
	gc *GraphicsContext
}

// NewReadback returns a Readback using gc's device and queue.
func NewReadback(gc *GraphicsContext) *Readback {
	return &Readback{gc: gc}
}

// Read copies tex into a staging buffer, waits for the mapping to complete
// and returns the pixels tightly packed as RGBA8, 4*width*height bytes.
// The wait is gated on the map completion and bounded by ctx.
func (r *Readback) Read(ctx context.Context, tex *OutputTexture) ([]byte, error) {
	if tex == nil {
		return nil, ErrNoOutput
	}
	w, h := tex.size.Width, tex.size.Height
	pitch := alignedBytesPerRow(w)
	stagingSize := uint64(pitch) * uint64(h)

	device := r.gc.device
	staging, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "shaderrun_staging",
		Size:  stagingSize,
		Usage: wgpu.BufferUsageCopyDst | wgpu.BufferUsageMapRead,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create staging buffer: %w", ErrReadback, err)
	}
	defer staging.Release()

	enc, err := device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "shaderrun_readback"})
	if err != nil {
		return nil, fmt.Errorf("%w: create command encoder: %w", ErrReadback, err)
	}
	prev := tex.transition(enc, wgpu.TextureUsageCopySrc)
	enc.CopyTextureToBuffer(tex.texture, staging, []wgpu.BufferTextureCopy{{
		BufferLayout: wgpu.ImageDataLayout{Offset: 0, BytesPerRow: pitch, RowsPerImage: h},
		TextureBase:  wgpu.ImageCopyTexture{Texture: tex.texture, MipLevel: 0},
		Size:         wgpu.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})
	cmdBuf, err := enc.Finish()
	if err != nil {
		abandon(enc, nil, tex, prev)
		return nil, fmt.Errorf("%w: finish encoding: %w", ErrReadback, err)
	}
	if _, err := r.gc.queue.Submit(cmdBuf); err != nil {
		abandon(enc, cmdBuf, tex, prev)
		return nil, fmt.Errorf("%w: submit: %w", ErrReadback, err)
	}

	// Map polls the device until the copy's submission completes.
	if err := staging.Map(ctx, wgpu.MapModeRead, 0, stagingSize); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrReadback, ctxErr(ctx.Err(), "staging buffer map"))
		}
		return nil, fmt.Errorf("%w: map staging buffer: %w", ErrReadback, err)
	}
	defer func() {
		if err := staging.Unmap(); err != nil {
			slogger().Warn("gpu: unmap staging buffer", "err", err)
		}
	}()

	rng, err := staging.MappedRange(0, stagingSize)
	if err != nil {
		return nil, fmt.Errorf("%w: mapped range: %w", ErrReadback, err)
	}
	defer rng.Release()

	pixels, err := unpadRows(rng.Bytes(), tex.size, pitch)
	if err != nil {
		return nil, err
	}
	if len(pixels) != tex.ByteLen() {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrReadbackLength, len(pixels), tex.ByteLen())
	}
	slogger().Debug("gpu: readback complete", "size", tex.size, "pitch", pitch)
	return pixels, nil
}

// unpadRows copies h rows of 4*w bytes out of data laid out with the
// given row pitch into a new tightly packed slice.
func unpadRows(data []byte, size Size, pitch uint32) ([]byte, error) {
	rowBytes := int(size.Width) * bytesPerPixel
	h := int(size.Height)
	if h == 0 || rowBytes == 0 {
		return []byte{}, nil
	}
	if need := int(pitch)*(h-1) + rowBytes; len(data) < need {
		return nil, fmt.Errorf("%w: mapped %d bytes, need %d", ErrReadbackLength, len(data), need)
	}
	out := make([]byte, rowBytes*h)
	for row := 0; row < h; row++ {
		src := row * int(pitch)
		copy(out[row*rowBytes:(row+1)*rowBytes], data[src:src+rowBytes])
	}
	return out, nil
}
