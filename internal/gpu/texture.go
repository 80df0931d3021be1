// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"
)

// OutputFormat is the pixel format of the output texture.
const OutputFormat = wgpu.TextureFormatRGBA8Unorm

// bytesPerPixel matches OutputFormat.
const bytesPerPixel = 4

// OutputTexture is the 2-D storage image written by the compute shader and
// copied back to the host. It remembers the usage of its most recent
// transition so each command buffer can insert the right layout barrier.
type OutputTexture struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
	size    Size
	usage   wgpu.TextureUsage
}

func newOutputTexture(device *wgpu.Device, size Size) (*OutputTexture, error) {
	if err := size.validate("output size"); err != nil {
		return nil, err
	}
	if limit := device.Limits().MaxTextureDimension2D; limit != 0 && (size.Width > limit || size.Height > limit) {
		return nil, fmt.Errorf("%w: output %s exceeds max texture dimension %d", ErrDevice, size, limit)
	}
	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "shaderrun_output",
		Size:          wgpu.Extent3D{Width: size.Width, Height: size.Height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        OutputFormat,
		Usage:         wgpu.TextureUsageStorageBinding | wgpu.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create output texture: %w", ErrDevice, err)
	}
	view, err := device.CreateTextureView(tex, &wgpu.TextureViewDescriptor{
		Label:         "shaderrun_output_view",
		Format:        OutputFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		MipLevelCount: 1,
	})
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("%w: create output view: %w", ErrDevice, err)
	}
	return &OutputTexture{texture: tex, view: view, size: size}, nil
}

// Size returns the texture extent.
func (t *OutputTexture) Size() Size { return t.size }

// ByteLen returns the length of one tightly packed copy of the pixels.
func (t *OutputTexture) ByteLen() int {
	return bytesPerPixel * int(t.size.Width) * int(t.size.Height)
}

// transition records a barrier from the last usage to next and returns the
// previous usage so a failed encoding can restore it.
func (t *OutputTexture) transition(enc *wgpu.CommandEncoder, next wgpu.TextureUsage) wgpu.TextureUsage {
	prev := t.usage
	if prev == next {
		return prev
	}
	enc.TransitionTextures([]wgpu.TextureBarrier{{
		Texture: t.texture,
		Usage:   wgpu.TextureUsageTransition{OldUsage: prev, NewUsage: next},
	}})
	t.usage = next
	return prev
}

// Release destroys the view and texture.
func (t *OutputTexture) Release() {
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
}
