package shader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Compiler compiles a shader source file for one pipeline stage.
// Compile errors are returned as *Diagnostic; a source that cannot be read
// yields an error wrapping ErrSourceRead.
type Compiler interface {
	Compile(ctx context.Context, path string, stage Stage) (Binary, error)
}

// Language is a shading language accepted by NewCompiler.
type Language uint8

const (
	LanguageWGSL Language = iota
	LanguageHLSL
)

func (l Language) String() string {
	switch l {
	case LanguageWGSL:
		return "wgsl"
	case LanguageHLSL:
		return "hlsl"
	default:
		return fmt.Sprintf("Language(%d)", uint8(l))
	}
}

// LanguageOf infers the shading language from a file extension.
func LanguageOf(path string) (Language, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wgsl":
		return LanguageWGSL, nil
	case ".hlsl", ".hlsli", ".fx":
		return LanguageHLSL, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, filepath.Ext(path))
}

// CompilerOption configures a compiler.
type CompilerOption func(*compilerOptions)

type compilerOptions struct {
	includeRoots []string
	debugInfo    bool
	dxcCommand   string
	resolver     IncludeResolver
}

func newCompilerOptions(opts []CompilerOption) compilerOptions {
	var o compilerOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.resolver == nil {
		o.resolver = FileResolver{Roots: o.includeRoots}
	}
	return o
}

// WithIncludeRoots adds directories searched for #include files.
func WithIncludeRoots(roots ...string) CompilerOption {
	return func(o *compilerOptions) {
		o.includeRoots = append(o.includeRoots, roots...)
	}
}

// WithIncludeResolver replaces the filesystem include resolver.
func WithIncludeResolver(r IncludeResolver) CompilerOption {
	return func(o *compilerOptions) {
		o.resolver = r
	}
}

// WithDebugInfo requests debug names and line information in the output.
func WithDebugInfo(enabled bool) CompilerOption {
	return func(o *compilerOptions) {
		o.debugInfo = enabled
	}
}

// WithDXCCommand sets the command line used to launch dxc, for example
// "dxc" or "wine /opt/dxc/bin/dxc.exe". It is split with shell quoting
// rules. The default is $SHADERRUN_DXC, then "dxc".
func WithDXCCommand(cmd string) CompilerOption {
	return func(o *compilerOptions) {
		o.dxcCommand = cmd
	}
}

// NewCompiler returns a compiler for the language of path.
// HLSL sources need the dxc toolchain; its absence is reported as
// ErrToolchain.
func NewCompiler(path string, opts ...CompilerOption) (Compiler, error) {
	lang, err := LanguageOf(path)
	if err != nil {
		return nil, err
	}
	switch lang {
	case LanguageHLSL:
		return NewDXCCompiler(opts...)
	default:
		return NewNagaCompiler(opts...), nil
	}
}
