package shaderrun

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"

	"github.com/gogpu/shaderrun/shader"
)

// Config is a run file. Every field is optional; zero values keep the
// defaults. Command-line flags override values read from a file.
//
//	shader = "~/shaders/plasma.wgsl"
//	output = "plasma.png"
//	width = 1920
//	height = 1080
//	workgroup = [16, 16]
//	include_roots = ["~/shaders/lib"]
//	timeout = "5s"
type Config struct {
	Shader       string    `toml:"shader"`
	Output       string    `toml:"output"`
	Format       string    `toml:"format"`
	Stage        string    `toml:"stage"`
	Binding      string    `toml:"binding"`
	Width        uint32    `toml:"width"`
	Height       uint32    `toml:"height"`
	Workgroup    [2]uint32 `toml:"workgroup"`
	Timeout      string    `toml:"timeout"`
	IncludeRoots []string  `toml:"include_roots"`
	DXC          string    `toml:"dxc"`
	Debug        bool      `toml:"debug"`
}

// Default input and output paths.
const (
	DefaultShader = "shaders/compute.wgsl"
	DefaultOutput = "output.png"
)

// LoadConfig reads a TOML run file. Unknown keys are rejected. Leading ~
// in path-valued fields is expanded to the home directory.
func LoadConfig(path string) (Config, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	f, err := os.Open(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	defer f.Close()

	cfg, err := DecodeConfig(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// DecodeConfig decodes a run file from r.
func DecodeConfig(r io.Reader) (Config, error) {
	var cfg Config
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if err := cfg.expandPaths(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) expandPaths() error {
	var err error
	if c.Shader, err = ExpandPath(c.Shader); err != nil {
		return err
	}
	if c.Output, err = ExpandPath(c.Output); err != nil {
		return err
	}
	for i, root := range c.IncludeRoots {
		if c.IncludeRoots[i], err = ExpandPath(root); err != nil {
			return err
		}
	}
	return nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	p, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrConfig, path, err)
	}
	return p, nil
}

// ShaderPath returns the configured shader or DefaultShader.
func (c Config) ShaderPath() string {
	if c.Shader == "" {
		return DefaultShader
	}
	return c.Shader
}

// OutputPath returns the configured output or DefaultOutput.
func (c Config) OutputPath() string {
	if c.Output == "" {
		return DefaultOutput
	}
	return c.Output
}

// OutputFormat returns the configured format, falling back to the output
// file extension.
func (c Config) OutputFormat() (Format, error) {
	if c.Format != "" {
		return ParseFormat(c.Format)
	}
	return FormatOf(c.OutputPath())
}

// Options converts the file into harness options.
func (c Config) Options() ([]Option, error) {
	var opts []Option
	if c.Width != 0 || c.Height != 0 {
		w, h := c.Width, c.Height
		if w == 0 {
			w = DefaultSize.Width
		}
		if h == 0 {
			h = DefaultSize.Height
		}
		opts = append(opts, WithSize(w, h))
	}
	if c.Workgroup != [2]uint32{} {
		opts = append(opts, WithWorkgroup(c.Workgroup[0], c.Workgroup[1]))
	}
	if c.Stage != "" {
		s, err := shader.ParseStage(c.Stage)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidOption, err)
		}
		opts = append(opts, WithStage(s))
	}
	if c.Binding != "" {
		b, err := ParseBinding(c.Binding)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithBinding(b))
	}
	if c.Timeout != "" {
		d, err := time.ParseDuration(c.Timeout)
		if err != nil {
			return nil, fmt.Errorf("%w: timeout: %w", ErrInvalidOption, err)
		}
		opts = append(opts, WithTimeout(d))
	}
	if len(c.IncludeRoots) > 0 {
		opts = append(opts, WithIncludeRoots(c.IncludeRoots...))
	}
	if c.DXC != "" {
		opts = append(opts, WithDXCCommand(c.DXC))
	}
	if c.Debug {
		opts = append(opts, WithDebugInfo(true))
	}
	return opts, nil
}

// ParseBinding accepts "storage-image" (or "storage") and "none".
func ParseBinding(name string) (Binding, error) {
	switch name {
	case "storage-image", "storage":
		return BindingStorageImage, nil
	case "none":
		return BindingNone, nil
	}
	return 0, fmt.Errorf("%w: unknown binding %q", ErrInvalidOption, name)
}
