package shader

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"runtime"
	"slices"
	"strings"
	"testing"
)

func TestDXCArgs(t *testing.T) {
	c := &DXCCompiler{argv: []string{"/opt/dxc", "-Vd"}, includeRoot: "/"}
	got := c.Args(StageCompute, "in.hlsl", "out.spv")
	want := []string{
		"-Vd",
		"-HV", "2021",
		"-I", "/",
		"-spirv",
		"-T", "cs_6_0",
		"-E", "cs_main",
		"-Fo", "out.spv",
		"in.hlsl",
	}
	if !slices.Equal(got, want) {
		t.Errorf("Args() = %v\nwant %v", got, want)
	}
	if len(c.argv) != 2 {
		t.Errorf("Args() mutated the launcher argv: %v", c.argv)
	}
}

func TestNewDXCCompilerErrors(t *testing.T) {
	tests := []struct {
		name string
		cmd  string
	}{
		{"missing", "shaderrun-test-missing-dxc"},
		{"unbalanced quote", `"dxc`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDXCCompiler(WithDXCCommand(tt.cmd))
			if !errors.Is(err, ErrToolchain) {
				t.Fatalf("NewDXCCompiler(%q) = %v, want ErrToolchain", tt.cmd, err)
			}
		})
	}
}

// fakeDXC writes a shell script standing in for dxc.
func fakeDXC(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake dxc needs a POSIX shell")
	}
	return writeFile(t, t.TempDir(), "dxc", []byte("#!/bin/sh\n"+body))
}

func chmodExec(t *testing.T, path string) {
	t.Helper()
	if err := os.Chmod(path, 0o755); err != nil {
		t.Fatal(err)
	}
}

func TestDXCCompileFake(t *testing.T) {
	script := fakeDXC(t, `out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "-Fo" ]; then out="$2"; shift; fi
  shift
done
printf '\003\002\043\007' > "$out"
`)
	chmodExec(t, script)

	dir := t.TempDir()
	writeFile(t, dir, "common.hlsli", []byte("float4 red() { return float4(1, 0, 0, 1); }\n"))
	src := writeFile(t, dir, "k.hlsl", []byte("#include \"common.hlsli\"\n[numthreads(1,1,1)] void cs_main() {}\n"))

	c, err := NewDXCCompiler(WithDXCCommand(script))
	if err != nil {
		t.Fatalf("NewDXCCompiler() = %v", err)
	}
	bin, err := c.Compile(context.Background(), src, StageCompute)
	if err != nil {
		t.Fatalf("Compile() = %v", err)
	}
	if err := bin.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestDXCCompileFakeDiagnostic(t *testing.T) {
	script := fakeDXC(t, "echo 'k.hlsl:2:1: error: unknown type name' >&2\nexit 1\n")
	chmodExec(t, script)

	src := writeFile(t, t.TempDir(), "k.hlsl", []byte("bogus x;\n"))
	c, err := NewDXCCompiler(WithDXCCommand(script))
	if err != nil {
		t.Fatalf("NewDXCCompiler() = %v", err)
	}
	_, err = c.Compile(context.Background(), src, StageCompute)
	var diag *Diagnostic
	if !errors.As(err, &diag) {
		t.Fatalf("Compile() = %v, want *Diagnostic", err)
	}
	if diag.Path != src || !strings.Contains(diag.Message, "unknown type name") {
		t.Errorf("diag = %+v", diag)
	}
}

func TestDXCCompileReal(t *testing.T) {
	if _, err := exec.LookPath("dxc"); err != nil {
		t.Skipf("dxc not installed: %v", err)
	}
	c, err := NewDXCCompiler(WithDXCCommand("dxc"))
	if err != nil {
		t.Fatalf("NewDXCCompiler() = %v", err)
	}
	bin, err := c.Compile(context.Background(), "../shaders/compute.hlsl", StageCompute)
	if err != nil {
		t.Fatalf("Compile(shaders/compute.hlsl) = %v", err)
	}
	if err := bin.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}
