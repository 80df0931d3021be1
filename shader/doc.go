// Package shader turns shader source files into SPIR-V binaries.
//
// Two compilers are provided. [NagaCompiler] compiles WGSL in-process using
// the pure Go naga compiler. [DXCCompiler] drives an external DirectX Shader
// Compiler (dxc) binary to compile HLSL with SPIR-V output. [NewCompiler]
// selects one from the source file extension.
//
// Both compilers resolve textual #include "file" directives through an
// [IncludeResolver] before compilation:
//
//	c, err := shader.NewCompiler("shaders/compute.wgsl")
//	if err != nil {
//	    return err
//	}
//	bin, err := c.Compile(ctx, "shaders/compute.wgsl", shader.StageCompute)
//	var diag *shader.Diagnostic
//	if errors.As(err, &diag) {
//	    fmt.Fprintln(os.Stderr, diag.Message)
//	}
//
// Compilers never write to stdout or stderr. Compile errors are returned as
// [*Diagnostic] values carrying the source path and the compiler output.
package shader
