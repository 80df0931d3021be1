package shader

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceRead is returned when a shader source file cannot be read.
	ErrSourceRead = errors.New("shader: read source")

	// ErrToolchain is returned when an external compiler cannot be located
	// or started.
	ErrToolchain = errors.New("shader: compiler toolchain unavailable")

	// ErrMalformedBinary is returned by Binary.Validate.
	ErrMalformedBinary = errors.New("shader: malformed SPIR-V binary")

	// ErrUnsupportedLanguage is returned by NewCompiler for unknown extensions.
	ErrUnsupportedLanguage = errors.New("shader: unsupported source language")
)

// Diagnostic is a compile failure reported by a shader compiler.
// Message holds the compiler output. Positions inside included text are
// reported as file:line:column of the file that contains them.
type Diagnostic struct {
	Path    string
	Message string
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s", d.Path, d.Message)
}

func diagnosticf(path, format string, args ...any) *Diagnostic {
	return &Diagnostic{Path: path, Message: fmt.Sprintf(format, args...)}
}
