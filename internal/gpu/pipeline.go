// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"

	"github.com/gogpu/shaderrun/shader"
)

// Binding selects the resources a compute pipeline exposes to its shader.
type Binding uint8

const (
	// BindingStorageImage binds the output texture as a write-only
	// storage image at group 0, binding 0.
	BindingStorageImage Binding = iota

	// BindingNone builds a pipeline layout without bind groups. The shader
	// can only be dispatched; there is nothing to read back.
	BindingNone
)

func (b Binding) String() string {
	switch b {
	case BindingStorageImage:
		return "storage-image"
	case BindingNone:
		return "none"
	default:
		return fmt.Sprintf("Binding(%d)", uint8(b))
	}
}

// ComputePipeline holds a compute pipeline built from a SPIR-V binary and
// the layout objects it needs. It borrows the device of the
// GraphicsContext it was built on.
type ComputePipeline struct {
	binding    Binding
	output     *OutputTexture
	module     *wgpu.ShaderModule
	bindLayout *wgpu.BindGroupLayout
	pipeLayout *wgpu.PipelineLayout
	pipeline   *wgpu.ComputePipeline
	bindGroup  *wgpu.BindGroup
}

// NewComputePipeline loads bin into a shader module without further
// translation and builds a compute pipeline with entry point cs_main.
// BindingStorageImage requires gc to own an output texture.
func NewComputePipeline(gc *GraphicsContext, bin shader.Binary, binding Binding) (p *ComputePipeline, err error) {
	if err := bin.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPipeline, err)
	}
	if binding == BindingStorageImage && gc.output == nil {
		return nil, fmt.Errorf("%w: %w", ErrPipeline, ErrNoOutput)
	}

	device := gc.device
	device.PushErrorScope(wgpu.ErrorFilterValidation)
	p = &ComputePipeline{binding: binding}
	defer func() {
		if gpuErr := device.PopErrorScope(); gpuErr != nil && err == nil {
			err = fmt.Errorf("%w: %w", ErrPipeline, gpuErr)
		}
		if err != nil {
			p.Release()
			p = nil
		}
	}()

	p.module, err = device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: "shaderrun_compute",
		SPIRV: bin.Words(),
	})
	if err != nil {
		return p, fmt.Errorf("%w: create shader module: %w", ErrPipeline, err)
	}

	var groups []*wgpu.BindGroupLayout
	if binding == BindingStorageImage {
		if err := p.createStorageImageBinding(device, gc.output); err != nil {
			return p, err
		}
		groups = []*wgpu.BindGroupLayout{p.bindLayout}
	}

	p.pipeLayout, err = device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "shaderrun_pipe_layout",
		BindGroupLayouts: groups,
	})
	if err != nil {
		return p, fmt.Errorf("%w: create pipeline layout: %w", ErrPipeline, err)
	}

	p.pipeline, err = device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:      "shaderrun_pipeline",
		Layout:     p.pipeLayout,
		Module:     p.module,
		EntryPoint: shader.StageCompute.EntryPoint(),
	})
	if err != nil {
		return p, fmt.Errorf("%w: create compute pipeline: %w", ErrPipeline, err)
	}

	slogger().Debug("gpu: compute pipeline created",
		"binding", binding, "spirv_words", len(bin)/4)
	return p, nil
}

func (p *ComputePipeline) createStorageImageBinding(device *wgpu.Device, out *OutputTexture) error {
	var err error
	p.bindLayout, err = device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "shaderrun_bind_layout",
		Entries: []wgpu.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: wgpu.ShaderStageCompute,
			StorageTexture: &gputypes.StorageTextureBindingLayout{
				Access:        gputypes.StorageTextureAccessWriteOnly,
				Format:        OutputFormat,
				ViewDimension: gputypes.TextureViewDimension2D,
			},
		}},
	})
	if err != nil {
		return fmt.Errorf("%w: create bind group layout: %w", ErrPipeline, err)
	}
	p.bindGroup, err = device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   "shaderrun_bind_group",
		Layout:  p.bindLayout,
		Entries: []wgpu.BindGroupEntry{{Binding: 0, TextureView: out.view}},
	})
	if err != nil {
		return fmt.Errorf("%w: create bind group: %w", ErrPipeline, err)
	}
	p.output = out
	return nil
}

// Binding returns the binding mode the pipeline was built with.
func (p *ComputePipeline) Binding() Binding { return p.binding }

// Release destroys the pipeline and its layout objects.
func (p *ComputePipeline) Release() {
	if p == nil {
		return
	}
	if p.pipeline != nil {
		p.pipeline.Release()
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		p.pipeLayout.Release()
		p.pipeLayout = nil
	}
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	if p.bindLayout != nil {
		p.bindLayout.Release()
		p.bindLayout = nil
	}
	if p.module != nil {
		p.module.Release()
		p.module = nil
	}
}
