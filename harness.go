// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package shaderrun

import (
	"context"
	"fmt"
	"time"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/shaderrun/internal/gpu"
	"github.com/gogpu/shaderrun/shader"
)

// Harness compiles a shader and runs it once on the GPU. A Harness holds
// only configuration; each Run opens and closes its own GPU context.
// Runs must not overlap.
type Harness struct {
	opts options
}

// Result is the outcome of a successful Run.
type Result struct {
	// Binary is the SPIR-V the pipeline was built from.
	Binary shader.Binary

	// Size is the output resolution.
	Size Size

	// Pixels holds Size.Width*Size.Height tightly packed RGBA8 pixels,
	// row-major from the top-left. It is nil for BindingNone runs.
	Pixels []byte

	// Adapter describes the GPU the shader ran on.
	Adapter gpucontext.AdapterInfo

	// Elapsed covers pipeline creation, dispatch and readback.
	Elapsed time.Duration
}

// New returns a Harness configured by opts.
func New(opts ...Option) (*Harness, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	return &Harness{opts: o}, nil
}

// Compile compiles the shader at path for the configured stage without
// touching the GPU.
func (h *Harness) Compile(ctx context.Context, path string) (shader.Binary, error) {
	c := h.opts.compiler
	if c == nil {
		var err error
		c, err = shader.NewCompiler(path, h.opts.compile...)
		if err != nil {
			return nil, err
		}
	}
	bin, err := c.Compile(ctx, path, h.opts.stage)
	if err != nil {
		return nil, err
	}
	Logger().Debug("shaderrun: compiled", "path", path, "stage", h.opts.stage, "bytes", len(bin))
	return bin, nil
}

// Dependencies returns the files path includes, directly or transitively.
func (h *Harness) Dependencies(path string) ([]string, error) {
	pre := shader.Preprocessor{Resolver: shader.FileResolver{Roots: h.opts.roots}}
	return pre.Dependencies(path)
}

// Run compiles the compute shader at path, dispatches it once over the
// output image and reads the image back. ctx bounds compilation; the GPU
// part is additionally bounded by the configured timeout.
func (h *Harness) Run(ctx context.Context, path string) (*Result, error) {
	if h.opts.stage != shader.StageCompute {
		return nil, fmt.Errorf("%w: cannot dispatch a %v shader", ErrInvalidOption, h.opts.stage)
	}
	bin, err := h.Compile(ctx, path)
	if err != nil {
		return nil, err
	}
	return h.Execute(ctx, bin)
}

// Execute runs an already compiled compute binary.
func (h *Harness) Execute(ctx context.Context, bin shader.Binary) (*Result, error) {
	start := time.Now()
	gc, err := h.openContext()
	if err != nil {
		return nil, err
	}
	defer gc.Close()

	p, err := gpu.NewComputePipeline(gc, bin, h.opts.binding)
	if err != nil {
		return nil, err
	}
	defer p.Release()

	d, err := gpu.NewDispatcher(gc, h.opts.workgroup)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOption, err)
	}

	ctx, cancel := context.WithTimeout(ctx, h.opts.timeout)
	defer cancel()

	if err := d.Dispatch(ctx, p, h.opts.size); err != nil {
		return nil, err
	}

	res := &Result{Binary: bin, Size: h.opts.size, Adapter: gc.AdapterInfo()}
	if h.opts.binding == BindingStorageImage {
		res.Pixels, err = gpu.NewReadback(gc).Read(ctx, gc.Output())
		if err != nil {
			return nil, err
		}
	}
	res.Elapsed = time.Since(start)
	Logger().Debug("shaderrun: run complete", "size", res.Size, "elapsed", res.Elapsed)
	return res, nil
}

func (h *Harness) openContext() (*gpu.GraphicsContext, error) {
	opts := gpu.ContextOptions{}
	if h.opts.binding == BindingStorageImage {
		opts.Output = h.opts.size
	}
	if h.opts.provider != nil {
		return gpu.FromDeviceProvider(h.opts.provider, opts)
	}
	return gpu.NewGraphicsContext(opts)
}
