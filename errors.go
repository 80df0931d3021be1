// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package shaderrun

import (
	"errors"

	"github.com/gogpu/shaderrun/internal/gpu"
	"github.com/gogpu/shaderrun/shader"
)

// Errors returned by the GPU stages of a run.
var (
	ErrNoAdapter      = gpu.ErrNoAdapter
	ErrBackend        = gpu.ErrBackend
	ErrDevice         = gpu.ErrDevice
	ErrPipeline       = gpu.ErrPipeline
	ErrDispatch       = gpu.ErrDispatch
	ErrReadback       = gpu.ErrReadback
	ErrReadbackLength = gpu.ErrReadbackLength
	ErrTimeout        = gpu.ErrTimeout
)

var (
	// ErrOutput is returned when an image or binary cannot be written.
	ErrOutput = errors.New("shaderrun: writing output failed")

	// ErrInvalidOption is returned for option values that cannot describe
	// a run, such as a zero workgroup size.
	ErrInvalidOption = errors.New("shaderrun: invalid option")

	// ErrConfig is returned when a run file cannot be read or decoded.
	ErrConfig = errors.New("shaderrun: invalid run file")
)

// ErrorClass groups errors by the stage that produced them.
type ErrorClass uint8

const (
	ClassNone ErrorClass = iota
	ClassUnknown
	ClassUsage
	ClassIO
	ClassCompile
	ClassToolchain
	ClassDevice
	ClassPipeline
	ClassDispatch
	ClassReadback
	ClassOutput
)

var classNames = [...]string{
	ClassNone:      "none",
	ClassUnknown:   "unknown",
	ClassUsage:     "usage",
	ClassIO:        "io",
	ClassCompile:   "compile",
	ClassToolchain: "toolchain",
	ClassDevice:    "device",
	ClassPipeline:  "pipeline",
	ClassDispatch:  "dispatch",
	ClassReadback:  "readback",
	ClassOutput:    "output",
}

func (c ErrorClass) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return "unknown"
}

// ExitCode returns the process exit status for the class.
// Unclassified errors exit with 1.
func (c ErrorClass) ExitCode() int {
	switch c {
	case ClassNone:
		return 0
	case ClassUsage:
		return 2
	case ClassIO:
		return 3
	case ClassCompile:
		return 4
	case ClassToolchain:
		return 5
	case ClassDevice:
		return 6
	case ClassPipeline:
		return 7
	case ClassDispatch:
		return 8
	case ClassReadback:
		return 9
	case ClassOutput:
		return 10
	default:
		return 1
	}
}

// classRules is checked in order; the first sentinel found in the chain
// decides. Stage sentinels come before ErrTimeout, which both dispatch and
// readback wrap.
var classRules = []struct {
	target error
	class  ErrorClass
}{
	{ErrInvalidOption, ClassUsage},
	{ErrConfig, ClassUsage},
	{shader.ErrUnsupportedLanguage, ClassUsage},
	{shader.ErrSourceRead, ClassIO},
	{shader.ErrToolchain, ClassToolchain},
	{ErrNoAdapter, ClassDevice},
	{ErrBackend, ClassDevice},
	{ErrDevice, ClassDevice},
	{ErrPipeline, ClassPipeline},
	{shader.ErrMalformedBinary, ClassPipeline},
	{ErrDispatch, ClassDispatch},
	{ErrReadback, ClassReadback},
	{ErrReadbackLength, ClassReadback},
	{ErrTimeout, ClassReadback},
	{ErrOutput, ClassOutput},
}

// Classify reports the class of err. A nil error is ClassNone.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassNone
	}
	var diag *shader.Diagnostic
	if errors.As(err, &diag) {
		return ClassCompile
	}
	for _, r := range classRules {
		if errors.Is(err, r.target) {
			return r.class
		}
	}
	return ClassUnknown
}
