// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import "errors"

var (
	// ErrNoAdapter is returned when no Vulkan adapter is available.
	ErrNoAdapter = errors.New("gpu: no suitable adapter")

	// ErrBackend is returned when the adapter cannot consume SPIR-V modules
	// directly.
	ErrBackend = errors.New("gpu: adapter backend does not accept SPIR-V passthrough")

	// ErrDevice is returned when the logical device cannot be created.
	ErrDevice = errors.New("gpu: device creation failed")

	// ErrPipeline is returned when the shader module or pipeline cannot be built.
	ErrPipeline = errors.New("gpu: compute pipeline creation failed")

	// ErrDispatch is returned when recording or submitting a dispatch fails.
	ErrDispatch = errors.New("gpu: dispatch failed")

	// ErrReadback is returned when copying the output texture to the host fails.
	ErrReadback = errors.New("gpu: readback failed")

	// ErrReadbackLength is returned when the mapped data does not hold
	// exactly 4*width*height bytes of pixels.
	ErrReadbackLength = errors.New("gpu: readback length mismatch")

	// ErrTimeout is returned when the device does not finish before the
	// caller's deadline.
	ErrTimeout = errors.New("gpu: timed out waiting for device")

	// ErrNoOutput is returned when an operation needs the output texture
	// but the context was created without one.
	ErrNoOutput = errors.New("gpu: context has no output texture")
)
