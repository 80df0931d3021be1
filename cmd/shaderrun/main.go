// Command shaderrun compiles a compute shader, dispatches it once on a
// Vulkan GPU and writes the resulting image.
//
// Usage:
//
//	shaderrun [flags] [shader]
//
// The shader defaults to shaders/compute.wgsl and the image to output.png.
// With -compile-only the SPIR-V binary is written instead and no GPU is
// needed. With -watch the shader is rerun whenever it or a file it
// includes changes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gogpu/shaderrun"
	"github.com/gogpu/shaderrun/internal/watch"
	"github.com/gogpu/shaderrun/shader"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

type cli struct {
	cfg         shaderrun.Config
	compileOnly bool
	watch       bool
	verbose     bool
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	c, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return report(stderr, err)
	}
	if c.verbose {
		shaderrun.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	opts, err := c.cfg.Options()
	if err != nil {
		return report(stderr, err)
	}
	h, err := shaderrun.New(opts...)
	if err != nil {
		return report(stderr, err)
	}

	if !c.watch {
		return report(stderr, c.once(ctx, h))
	}

	w, err := watch.New(watch.DefaultDebounce, shaderrun.Logger())
	if err != nil {
		return report(stderr, err)
	}
	defer w.Close()

	path := c.cfg.ShaderPath()
	files := func() []string {
		deps, err := h.Dependencies(path)
		if err != nil {
			return []string{path}
		}
		return append([]string{path}, deps...)
	}
	err = watch.Loop(ctx, w, files, func(ctx context.Context) {
		if err := c.once(ctx, h); err != nil {
			report(stderr, err)
			return
		}
		fmt.Fprintf(stderr, "shaderrun: %s updated\n", c.outputPath())
	})
	return report(stderr, err)
}

// once performs one compile, or one compile/dispatch/readback, and writes
// the artifact.
func (c *cli) once(ctx context.Context, h *shaderrun.Harness) error {
	path := c.cfg.ShaderPath()
	if c.compileOnly {
		bin, err := h.Compile(ctx, path)
		if err != nil {
			return err
		}
		return shaderrun.WriteBinary(c.outputPath(), bin)
	}

	format, err := c.cfg.OutputFormat()
	if err != nil {
		return err
	}
	res, err := h.Run(ctx, path)
	if err != nil {
		return err
	}
	shaderrun.Logger().Info("shaderrun: ran",
		"adapter", res.Adapter.Name, "type", res.Adapter.Type, "size", res.Size, "elapsed", res.Elapsed)
	if res.Pixels == nil {
		return nil
	}
	return shaderrun.WriteImage(c.outputPath(), res.Image(), format)
}

// outputPath defaults to the shader name with a .spv extension in
// compile-only mode.
func (c *cli) outputPath() string {
	if c.compileOnly && c.cfg.Output == "" {
		src := c.cfg.ShaderPath()
		return strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)) + ".spv"
	}
	return c.cfg.OutputPath()
}

// report prints err and returns its exit code. Compile diagnostics are
// printed as-is under a fixed heading.
func report(stderr io.Writer, err error) int {
	if err == nil {
		return 0
	}
	var diag *shader.Diagnostic
	if errors.As(err, &diag) {
		fmt.Fprintln(stderr, "couldn't compile shader:")
		fmt.Fprintln(stderr, diag.Error())
	} else {
		fmt.Fprintf(stderr, "shaderrun: %v\n", err)
	}
	return shaderrun.Classify(err).ExitCode()
}

func parseArgs(args []string, stderr io.Writer) (*cli, error) {
	fs := flag.NewFlagSet("shaderrun", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: shaderrun [flags] [shader]")
		fs.PrintDefaults()
	}

	var (
		config      = fs.String("config", "", "TOML run file; flags override its values")
		output      = fs.String("o", "", "output file (default output.png, or <shader>.spv with -compile-only)")
		format      = fs.String("format", "", "image format: png, bmp or tiff (default from -o extension)")
		stage       = fs.String("stage", "", "shader stage: compute, vertex or fragment (default compute)")
		binding     = fs.String("binding", "", "pipeline binding: storage-image or none")
		size        = fs.String("size", "", "output size WxH (default 1280x720)")
		workgroup   = fs.String("workgroup", "", "workgroup size declared by the shader, WxH (default 8x8)")
		timeout     = fs.Duration("timeout", 0, "GPU timeout (default 30s)")
		dxc         = fs.String("dxc", "", "dxc command line for HLSL sources (default $SHADERRUN_DXC or dxc)")
		debug       = fs.Bool("g", false, "keep debug information in the SPIR-V")
		compileOnly = fs.Bool("compile-only", false, "write the SPIR-V binary and skip the GPU")
		watchFlag   = fs.Bool("watch", false, "rerun when the shader or its includes change")
		verbose     = fs.Bool("v", false, "log progress to stderr")
		includes    []string
	)
	fs.Func("I", "add an include directory (repeatable)", func(dir string) error {
		includes = append(includes, dir)
		return nil
	})

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", shaderrun.ErrInvalidOption, err)
	}
	if fs.NArg() > 1 {
		return nil, fmt.Errorf("%w: expected at most one shader, got %d", shaderrun.ErrInvalidOption, fs.NArg())
	}

	c := &cli{compileOnly: *compileOnly, watch: *watchFlag, verbose: *verbose}
	if *config != "" {
		cfg, err := shaderrun.LoadConfig(*config)
		if err != nil {
			return nil, err
		}
		c.cfg = cfg
	}

	var err error
	set := func(name string) {
		if err != nil {
			return
		}
		switch name {
		case "o":
			c.cfg.Output, err = shaderrun.ExpandPath(*output)
		case "format":
			c.cfg.Format = *format
		case "stage":
			c.cfg.Stage = *stage
		case "binding":
			c.cfg.Binding = *binding
		case "size":
			c.cfg.Width, c.cfg.Height, err = parseSize(*size)
		case "workgroup":
			c.cfg.Workgroup[0], c.cfg.Workgroup[1], err = parseSize(*workgroup)
		case "timeout":
			c.cfg.Timeout = timeout.String()
		case "dxc":
			c.cfg.DXC = *dxc
		case "g":
			c.cfg.Debug = *debug
		}
	}
	fs.Visit(func(f *flag.Flag) { set(f.Name) })
	if err != nil {
		return nil, err
	}

	for _, dir := range includes {
		dir, err := shaderrun.ExpandPath(dir)
		if err != nil {
			return nil, err
		}
		c.cfg.IncludeRoots = append(c.cfg.IncludeRoots, dir)
	}
	if fs.NArg() == 1 {
		if c.cfg.Shader, err = shaderrun.ExpandPath(fs.Arg(0)); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// parseSize parses "WxH".
func parseSize(s string) (w, h uint32, err error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("%w: size %q is not WxH", shaderrun.ErrInvalidOption, s)
	}
	wv, err := strconv.ParseUint(ws, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: size %q: %w", shaderrun.ErrInvalidOption, s, err)
	}
	hv, err := strconv.ParseUint(hs, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: size %q: %w", shaderrun.ErrInvalidOption, s, err)
	}
	if wv == 0 || hv == 0 {
		return 0, 0, fmt.Errorf("%w: size %q must be non-zero", shaderrun.ErrInvalidOption, s)
	}
	return uint32(wv), uint32(hv), nil
}
