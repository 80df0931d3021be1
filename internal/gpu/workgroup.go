// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import "fmt"

// Size is a 2-D extent in pixels or invocations.
type Size struct {
	Width, Height uint32
}

// Default output resolution and workgroup size.
var (
	DefaultOutputSize = Size{Width: 1280, Height: 720}
	DefaultWorkgroup  = Size{Width: 8, Height: 8}
)

// GroupCount returns the number of workgroups needed to cover domain with
// groups of size wg on each axis. Partial groups are rounded up; the shader
// is expected to discard invocations outside the domain.
func GroupCount(domain, wg Size) (x, y uint32) {
	return ceilDiv(domain.Width, wg.Width), ceilDiv(domain.Height, wg.Height)
}

func ceilDiv(n, d uint32) uint32 {
	if d == 0 {
		return 0
	}
	return uint32((uint64(n) + uint64(d) - 1) / uint64(d))
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// validate reports whether s describes a non-empty extent.
func (s Size) validate(what string) error {
	if s.Width == 0 || s.Height == 0 {
		return fmt.Errorf("gpu: %s %s must be non-zero", what, s)
	}
	return nil
}
