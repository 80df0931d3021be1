package shaderrun

import (
	"fmt"
	"time"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/shaderrun/internal/gpu"
	"github.com/gogpu/shaderrun/shader"
)

// Size is a 2-D extent in pixels or invocations.
type Size = gpu.Size

// Binding selects the resources the compute shader sees.
type Binding = gpu.Binding

const (
	// BindingStorageImage binds the output image at group 0, binding 0.
	BindingStorageImage = gpu.BindingStorageImage
	// BindingNone dispatches without bind groups and skips readback.
	BindingNone = gpu.BindingNone
)

// Context is the GPU context a Harness runs on.
type Context = gpu.GraphicsContext

// Default output resolution and workgroup size.
var (
	DefaultSize      = gpu.DefaultOutputSize
	DefaultWorkgroup = gpu.DefaultWorkgroup
)

// DefaultTimeout bounds the GPU part of a run: dispatch and readback.
const DefaultTimeout = 30 * time.Second

// Option configures a Harness during creation.
//
// Example:
//
//	h, err := shaderrun.New(
//	    shaderrun.WithSize(512, 512),
//	    shaderrun.WithWorkgroup(16, 16),
//	)
type Option func(*options)

type options struct {
	size      Size
	workgroup Size
	binding   Binding
	stage     shader.Stage
	timeout   time.Duration
	provider  gpucontext.DeviceProvider
	compiler  shader.Compiler
	compile   []shader.CompilerOption
	roots     []string
}

// defaultOptions returns the options of a plain 1280x720 run.
func defaultOptions() options {
	return options{
		size:      DefaultSize,
		workgroup: DefaultWorkgroup,
		binding:   BindingStorageImage,
		stage:     shader.StageCompute,
		timeout:   DefaultTimeout,
	}
}

func (o *options) validate() error {
	if o.size.Width == 0 || o.size.Height == 0 {
		return fmt.Errorf("%w: output size %s", ErrInvalidOption, o.size)
	}
	if o.workgroup.Width == 0 || o.workgroup.Height == 0 {
		return fmt.Errorf("%w: workgroup size %s", ErrInvalidOption, o.workgroup)
	}
	if o.binding != BindingStorageImage && o.binding != BindingNone {
		return fmt.Errorf("%w: %v", ErrInvalidOption, o.binding)
	}
	if o.timeout <= 0 {
		return fmt.Errorf("%w: timeout %v", ErrInvalidOption, o.timeout)
	}
	return nil
}

// WithSize sets the output image resolution and dispatch domain.
func WithSize(width, height uint32) Option {
	return func(o *options) {
		o.size = Size{Width: width, Height: height}
	}
}

// WithWorkgroup sets the workgroup size the shader declares. It only
// affects the group count; it does not change the shader.
func WithWorkgroup(x, y uint32) Option {
	return func(o *options) {
		o.workgroup = Size{Width: x, Height: y}
	}
}

// WithBinding selects the pipeline binding layout.
func WithBinding(b Binding) Option {
	return func(o *options) {
		o.binding = b
	}
}

// WithStage sets the stage used by Compile. Run always needs StageCompute.
func WithStage(s shader.Stage) Option {
	return func(o *options) {
		o.stage = s
	}
}

// WithTimeout bounds how long Run waits for the device.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithDeviceProvider runs on an existing device instead of creating one.
// The provider's device must be a *wgpu.Device on a Vulkan adapter and
// stays owned by the provider.
func WithDeviceProvider(p gpucontext.DeviceProvider) Option {
	return func(o *options) {
		o.provider = p
	}
}

// WithIncludeRoots adds directories searched for #include files.
func WithIncludeRoots(roots ...string) Option {
	return func(o *options) {
		o.roots = append(o.roots, roots...)
		o.compile = append(o.compile, shader.WithIncludeRoots(roots...))
	}
}

// WithDXCCommand sets the command line used to run dxc for HLSL sources.
func WithDXCCommand(cmd string) Option {
	return func(o *options) {
		o.compile = append(o.compile, shader.WithDXCCommand(cmd))
	}
}

// WithDebugInfo keeps debug names and line information in the binary.
func WithDebugInfo(enabled bool) Option {
	return func(o *options) {
		o.compile = append(o.compile, shader.WithDebugInfo(enabled))
	}
}

// WithCompiler replaces the extension-based compiler selection.
func WithCompiler(c shader.Compiler) Option {
	return func(o *options) {
		o.compiler = c
	}
}
