package shader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mattn/go-shellwords"
)

// dxcEnv names the environment variable holding the dxc launcher command.
const dxcEnv = "SHADERRUN_DXC"

// DXCCompiler compiles HLSL to SPIR-V with the DirectX Shader Compiler.
// The dxc executable is resolved once by NewDXCCompiler.
type DXCCompiler struct {
	argv        []string
	includeRoot string
	pre         Preprocessor
}

// NewDXCCompiler locates the dxc toolchain. It returns an error wrapping
// ErrToolchain when the executable cannot be found.
func NewDXCCompiler(opts ...CompilerOption) (*DXCCompiler, error) {
	o := newCompilerOptions(opts)
	cmdline := o.dxcCommand
	if cmdline == "" {
		cmdline = os.Getenv(dxcEnv)
	}
	if cmdline == "" {
		cmdline = "dxc"
	}
	argv, err := shellwords.Parse(cmdline)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %q: %w", ErrToolchain, cmdline, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: empty dxc command", ErrToolchain)
	}
	bin, err := exec.LookPath(argv[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrToolchain, err)
	}
	argv[0] = bin

	root := "/"
	if len(o.includeRoots) > 0 {
		root = o.includeRoots[0]
	}
	return &DXCCompiler{
		argv:        argv,
		includeRoot: root,
		pre:         Preprocessor{Resolver: o.resolver, LineMarkers: true},
	}, nil
}

// Args returns the dxc arguments used to compile in to out.
func (c *DXCCompiler) Args(stage Stage, in, out string) []string {
	args := append([]string(nil), c.argv[1:]...)
	return append(args,
		"-HV", "2021",
		"-I", c.includeRoot,
		"-spirv",
		"-T", stage.Profile(),
		"-E", stage.EntryPoint(),
		"-Fo", out,
		in,
	)
}

// Compile compiles the HLSL file at path. Includes are expanded before dxc
// runs; #line markers keep dxc messages pointing at the original files.
func (c *DXCCompiler) Compile(ctx context.Context, path string, stage Stage) (Binary, error) {
	src, err := ReadSource(path)
	if err != nil {
		return nil, err
	}
	text, _, err := c.pre.Expand(src)
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "shaderrun-dxc")
	if err != nil {
		return nil, fmt.Errorf("%w: dxc work dir: %w", ErrToolchain, err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "input.hlsl")
	out := filepath.Join(dir, "output.spv")
	if err := os.WriteFile(in, []byte(text), 0o600); err != nil {
		return nil, fmt.Errorf("%w: dxc work dir: %w", ErrToolchain, err)
	}

	var output bytes.Buffer
	cmd := exec.CommandContext(ctx, c.argv[0], c.Args(stage, in, out)...)
	cmd.Stdout = &output
	cmd.Stderr = &output
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			msg := strings.TrimSpace(output.String())
			if msg == "" {
				msg = exitErr.Error()
			}
			return nil, &Diagnostic{Path: path, Message: msg}
		}
		return nil, fmt.Errorf("%w: run %s: %w", ErrToolchain, c.argv[0], err)
	}

	spv, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("%w: read dxc output: %w", ErrToolchain, err)
	}
	return Binary(spv), nil
}
