// Package shaderrun compiles a shader to SPIR-V, runs it once as a Vulkan
// compute dispatch over a 2-D domain and reads the resulting RGBA8 image
// back to host memory.
//
// # Quick Start
//
//	h, err := shaderrun.New(shaderrun.WithSize(1280, 720))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := h.Run(ctx, "shaders/compute.wgsl")
//	if err != nil {
//	    os.Exit(shaderrun.Classify(err).ExitCode())
//	}
//	err = shaderrun.WriteImage("output.png", res.Image(), shaderrun.FormatPNG)
//
// # Shaders
//
// WGSL sources (.wgsl) are compiled in-process with naga. HLSL sources
// (.hlsl, .hlsli, .fx) are compiled by an external dxc executable. Both
// accept #include "file" directives, resolved against the including
// file's directory and the configured include roots.
//
// The compute entry point must be named cs_main. With the default binding
// the shader sees the output image as a write-only rgba8unorm storage
// texture at group 0, binding 0:
//
//	@group(0) @binding(0) var output: texture_storage_2d<rgba8unorm, write>;
//
//	@compute @workgroup_size(8, 8, 1)
//	fn cs_main(@builtin(global_invocation_id) id: vec3<u32>) { ... }
//
// The workgroup size declared by the shader must match WithWorkgroup so
// that the dispatch covers every pixel. Invocations past the image edge
// must return early.
//
// # Errors
//
// Every failure is returned as an error value. [Classify] sorts an error
// into one of the classes (I/O, compile, toolchain, device, pipeline,
// dispatch, readback, output), each with its own process exit code.
// Compile failures are *shader.Diagnostic values carrying the source path
// and the compiler's message.
//
// # Logging
//
// shaderrun is silent by default. See [SetLogger].
package shaderrun
