// Package gpu runs a single compute dispatch on a Vulkan device through
// wgpu and copies the resulting storage image back to the host.
//
// The flow is GraphicsContext -> ComputePipeline -> Dispatcher ->
// Readback. Every blocking wait takes a context.Context. Nothing here is
// safe for concurrent use; one goroutine drives a context at a time.
package gpu
