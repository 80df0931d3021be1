// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogpu/wgpu"
)

// Dispatcher records and submits single compute dispatches.
type Dispatcher struct {
	gc        *GraphicsContext
	workgroup Size
}

// NewDispatcher returns a dispatcher for shaders declaring the given
// workgroup size.
func NewDispatcher(gc *GraphicsContext, workgroup Size) (*Dispatcher, error) {
	if err := workgroup.validate("workgroup size"); err != nil {
		return nil, err
	}
	return &Dispatcher{gc: gc, workgroup: workgroup}, nil
}

// Dispatch runs p once over domain and blocks until the device is idle or
// ctx is done. One command encoder is used per call and the submission
// holds only that command buffer.
func (d *Dispatcher) Dispatch(ctx context.Context, p *ComputePipeline, domain Size) error {
	if err := domain.validate("dispatch domain"); err != nil {
		return fmt.Errorf("%w: %w", ErrDispatch, err)
	}
	x, y := GroupCount(domain, d.workgroup)
	if limit := d.gc.device.Limits().MaxComputeWorkgroupsPerDimension; limit != 0 && (x > limit || y > limit) {
		return fmt.Errorf("%w: %dx%d workgroups exceed the device limit of %d",
			ErrDispatch, x, y, limit)
	}

	device := d.gc.device
	enc, err := device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "shaderrun_dispatch"})
	if err != nil {
		return fmt.Errorf("%w: create command encoder: %w", ErrDispatch, err)
	}

	out := p.output
	var prev wgpu.TextureUsage
	if out != nil {
		prev = out.transition(enc, wgpu.TextureUsageStorageBinding)
	}

	pass, err := enc.BeginComputePass(&wgpu.ComputePassDescriptor{Label: "shaderrun_compute_pass"})
	if err != nil {
		abandon(enc, nil, out, prev)
		return fmt.Errorf("%w: begin compute pass: %w", ErrDispatch, err)
	}
	pass.SetPipeline(p.pipeline)
	if p.bindGroup != nil {
		pass.SetBindGroup(0, p.bindGroup, nil)
	}
	pass.Dispatch(x, y, 1)
	if err := pass.End(); err != nil {
		abandon(enc, nil, out, prev)
		return fmt.Errorf("%w: end compute pass: %w", ErrDispatch, err)
	}

	cmdBuf, err := enc.Finish()
	if err != nil {
		abandon(enc, nil, out, prev)
		return fmt.Errorf("%w: finish encoding: %w", ErrDispatch, err)
	}
	if _, err := d.gc.queue.Submit(cmdBuf); err != nil {
		abandon(enc, cmdBuf, out, prev)
		return fmt.Errorf("%w: submit: %w", ErrDispatch, err)
	}
	slogger().Debug("gpu: dispatched", "domain", domain, "groups_x", x, "groups_y", y)

	return waitIdle(ctx, device)
}

// abandon drops work that will not reach the GPU and rolls the texture's
// tracked usage back to prev. A finished command buffer must be released;
// an unfinished encoder is discarded, which is a no-op after a failed Finish.
func abandon(enc *wgpu.CommandEncoder, cmdBuf *wgpu.CommandBuffer, tex *OutputTexture, prev wgpu.TextureUsage) {
	if cmdBuf != nil {
		cmdBuf.Release()
	} else {
		enc.DiscardEncoding()
	}
	if tex != nil {
		tex.usage = prev
	}
}

// waitIdle blocks until every submission on device has completed.
// WaitIdle itself cannot be interrupted; on ctx expiry the wait goroutine
// is abandoned and finishes whenever the driver returns.
func waitIdle(ctx context.Context, device *wgpu.Device) error {
	done := make(chan error, 1)
	go func() {
		done <- device.WaitIdle()
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: wait idle: %w", ErrDispatch, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrDispatch, ctxErr(ctx.Err(), "device idle"))
	}
}

// ctxErr maps a context error to ErrTimeout when the deadline passed.
func ctxErr(err error, waiting string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: waiting for %s: %w", ErrTimeout, waiting, err)
	}
	return err
}
