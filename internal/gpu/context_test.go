// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"
)

func TestAdapterType(t *testing.T) {
	tests := []struct {
		in   gputypes.DeviceType
		want gpucontext.AdapterType
	}{
		{gputypes.DeviceTypeDiscreteGPU, gpucontext.AdapterTypeDiscrete},
		{gputypes.DeviceTypeIntegratedGPU, gpucontext.AdapterTypeIntegrated},
		{gputypes.DeviceTypeCPU, gpucontext.AdapterTypeSoftware},
		{gputypes.DeviceTypeVirtualGPU, gpucontext.AdapterTypeUnknown},
		{gputypes.DeviceTypeOther, gpucontext.AdapterTypeUnknown},
	}
	for _, tt := range tests {
		if got := adapterType(tt.in); got != tt.want {
			t.Errorf("adapterType(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

type fakeProvider struct{}

func (fakeProvider) Device() gpucontext.Device             { return "not a device" }
func (fakeProvider) Queue() gpucontext.Queue               { return nil }
func (fakeProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatUndefined }
func (fakeProvider) Adapter() gpucontext.Adapter           { return nil }
func (fakeProvider) AdapterInfo() gpucontext.AdapterInfo   { return gpucontext.AdapterInfo{} }

func TestFromDeviceProviderRejectsForeignDevice(t *testing.T) {
	_, err := FromDeviceProvider(fakeProvider{}, ContextOptions{})
	if !errors.Is(err, ErrDevice) {
		t.Fatalf("FromDeviceProvider() = %v, want ErrDevice", err)
	}
}

func TestCloseNil(t *testing.T) {
	var gc *GraphicsContext
	gc.Close()
	(&GraphicsContext{}).Close()
}

func TestIsPlaceholderAdapter(t *testing.T) {
	tests := []struct {
		name string
		info wgpu.AdapterInfo
		want bool
	}{
		{"wgpu placeholder", wgpu.AdapterInfo{
			Name: "Mock Adapter", VendorID: 0x1234, DeviceID: 0x5678,
			DriverInfo: "Mock Driver (no real GPU)", Backend: gputypes.BackendVulkan,
		}, true},
		{"ids only", wgpu.AdapterInfo{VendorID: 0x1234, DeviceID: 0x5678}, true},
		{"driver info only", wgpu.AdapterInfo{DriverInfo: "Mock Driver (no real GPU)"}, true},
		{"nvidia", wgpu.AdapterInfo{
			Name: "NVIDIA GeForce RTX 4070", VendorID: 0x10de, DeviceID: 0x2786,
			DriverInfo: "550.54", Backend: gputypes.BackendVulkan,
		}, false},
		{"llvmpipe", wgpu.AdapterInfo{
			Name: "llvmpipe (LLVM 17.0.6, 256 bits)", VendorID: 0x10005,
			DeviceType: gputypes.DeviceTypeCPU, Backend: gputypes.BackendVulkan,
		}, false},
	}
	for _, tt := range tests {
		if got := isPlaceholderAdapter(tt.info); got != tt.want {
			t.Errorf("%s: isPlaceholderAdapter() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

// Without a usable Vulkan driver the context must fail as a missing
// adapter, never later with a released device.
func TestNewGraphicsContextWithoutDriver(t *testing.T) {
	for _, output := range []Size{{}, {Width: 16, Height: 16}} {
		gc, err := NewGraphicsContext(ContextOptions{Output: output})
		if err == nil {
			if isPlaceholderAdapter(gc.Info()) {
				t.Errorf("placeholder adapter %q accepted", gc.Info().Name)
			}
			if err := checkDevice(gc.device); err != nil {
				t.Errorf("accepted device is unusable: %v", err)
			}
			gc.Close()
			continue
		}
		if errors.Is(err, wgpu.ErrReleased) && !errors.Is(err, ErrNoAdapter) {
			t.Errorf("output %v: %v leaks a released device", output, err)
		}
		if !errors.Is(err, ErrNoAdapter) && !errors.Is(err, ErrBackend) && !errors.Is(err, ErrDevice) {
			t.Errorf("output %v: %v, want an adapter or device error", output, err)
		}
	}
}
