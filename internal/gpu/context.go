// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"fmt"
	"strings"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"

	// SPIR-V passthrough needs the Vulkan HAL.
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// ContextOptions configures NewGraphicsContext.
type ContextOptions struct {
	// Output sizes the output texture. A zero size creates no texture.
	Output Size
}

// GraphicsContext owns the Vulkan instance, adapter, device and queue for
// one run, plus the optional output texture. Every GPU resource created
// from it must be released before Close.
//
// GraphicsContext implements gpucontext.DeviceProvider.
type GraphicsContext struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	info     wgpu.AdapterInfo
	output   *OutputTexture

	// owned is false when the device was adopted from a DeviceProvider.
	owned  bool
	closed bool
}

var _ gpucontext.DeviceProvider = (*GraphicsContext)(nil)

// NewGraphicsContext creates a Vulkan-only instance, selects a
// high-performance adapter and opens a device on it. There is no fallback
// to other backends.
func NewGraphicsContext(opts ContextOptions) (*GraphicsContext, error) {
	instance, err := wgpu.CreateInstance(&wgpu.InstanceDescriptor{Backends: wgpu.BackendsVulkan})
	if err != nil {
		return nil, fmt.Errorf("%w: create instance: %w", ErrNoAdapter, err)
	}
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("%w: %w", ErrNoAdapter, err)
	}
	info := adapter.Info()
	if isPlaceholderAdapter(info) {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: only the wgpu placeholder adapter %q is available", ErrNoAdapter, info.Name)
	}
	if info.Backend != gputypes.BackendVulkan {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: %s on %v", ErrBackend, info.Name, info.Backend)
	}

	// SPIR-V modules reach the Vulkan HAL untranslated, so the default
	// feature set is sufficient. Zero limits request the adapter's own.
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{Label: "shaderrun"})
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: %w", ErrDevice, err)
	}

	if err := checkDevice(device); err != nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: %s: %w", ErrNoAdapter, info.Name, err)
	}

	gc := &GraphicsContext{
		instance: instance,
		adapter:  adapter,
		device:   device,
		queue:    device.Queue(),
		info:     info,
		owned:    true,
	}
	slogger().Info("gpu: adapter selected",
		"name", info.Name, "type", info.DeviceType, "backend", info.Backend)

	if err := gc.initOutput(opts.Output); err != nil {
		gc.Close()
		return nil, err
	}
	return gc, nil
}

// FromDeviceProvider wraps a device owned by someone else, such as a host
// application's window context. Close releases only the output texture.
// The provider's Device must be a *wgpu.Device.
func FromDeviceProvider(p gpucontext.DeviceProvider, opts ContextOptions) (*GraphicsContext, error) {
	device, ok := p.Device().(*wgpu.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: provider device is %T, want *wgpu.Device", ErrDevice, p.Device())
	}
	if err := checkDevice(device); err != nil {
		return nil, fmt.Errorf("%w: provider device: %w", ErrDevice, err)
	}
	gc := &GraphicsContext{device: device, queue: device.Queue()}
	if adapter, ok := p.Adapter().(*wgpu.Adapter); ok && adapter != nil {
		gc.adapter = adapter
		gc.info = adapter.Info()
		if gc.info.Backend != gputypes.BackendVulkan {
			return nil, fmt.Errorf("%w: %s on %v", ErrBackend, gc.info.Name, gc.info.Backend)
		}
	} else {
		gc.info.Name = p.AdapterInfo().Name
	}
	if err := gc.initOutput(opts.Output); err != nil {
		return nil, err
	}
	return gc, nil
}

// wgpu substitutes a placeholder adapter when no HAL finds hardware. It
// reports itself as a Vulkan discrete GPU but its device has no driver
// behind it.
const (
	placeholderVendorID = 0x1234
	placeholderDeviceID = 0x5678
)

func isPlaceholderAdapter(info wgpu.AdapterInfo) bool {
	if info.VendorID == placeholderVendorID && info.DeviceID == placeholderDeviceID {
		return true
	}
	return strings.Contains(info.DriverInfo, "no real GPU")
}

// checkDevice creates and releases a fence, which fails on a device that is
// not backed by a driver.
func checkDevice(device *wgpu.Device) error {
	fence, err := device.CreateFence()
	if err != nil {
		return err
	}
	fence.Release()
	return nil
}

func (gc *GraphicsContext) initOutput(size Size) error {
	if size == (Size{}) {
		return nil
	}
	out, err := newOutputTexture(gc.device, size)
	if err != nil {
		return err
	}
	gc.output = out
	return nil
}

// Output returns the output texture, or nil if none was requested.
func (gc *GraphicsContext) Output() *OutputTexture { return gc.output }

// Info returns metadata for the selected adapter.
func (gc *GraphicsContext) Info() wgpu.AdapterInfo { return gc.info }

// Limits returns the device limits.
func (gc *GraphicsContext) Limits() wgpu.Limits { return gc.device.Limits() }

// Device returns the *wgpu.Device.
func (gc *GraphicsContext) Device() gpucontext.Device { return gc.device }

// Queue returns the *wgpu.Queue.
func (gc *GraphicsContext) Queue() gpucontext.Queue { return gc.queue }

// Adapter returns the *wgpu.Adapter, which may be nil for adopted devices.
func (gc *GraphicsContext) Adapter() gpucontext.Adapter {
	if gc.adapter == nil {
		return nil
	}
	return gc.adapter
}

// SurfaceFormat reports TextureFormatUndefined: the context is headless.
func (gc *GraphicsContext) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

// AdapterInfo implements gpucontext.DeviceProvider.
func (gc *GraphicsContext) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: gc.info.Name, Type: adapterType(gc.info.DeviceType)}
}

func adapterType(t gputypes.DeviceType) gpucontext.AdapterType {
	switch t {
	case gputypes.DeviceTypeDiscreteGPU:
		return gpucontext.AdapterTypeDiscrete
	case gputypes.DeviceTypeIntegratedGPU:
		return gpucontext.AdapterTypeIntegrated
	case gputypes.DeviceTypeCPU:
		return gpucontext.AdapterTypeSoftware
	default:
		return gpucontext.AdapterTypeUnknown
	}
}

// Close releases the output texture and, for contexts created by
// NewGraphicsContext, the device, adapter and instance. Close is idempotent.
func (gc *GraphicsContext) Close() {
	if gc == nil || gc.closed {
		return
	}
	gc.closed = true
	if gc.output != nil {
		gc.output.Release()
		gc.output = nil
	}
	if !gc.owned {
		return
	}
	if gc.device != nil {
		gc.device.Release()
	}
	if gc.adapter != nil {
		gc.adapter.Release()
	}
	if gc.instance != nil {
		gc.instance.Release()
	}
}
