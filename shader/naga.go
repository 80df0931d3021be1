package shader

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/spirv"
)

// NagaCompiler compiles WGSL to SPIR-V in-process.
type NagaCompiler struct {
	pre   Preprocessor
	debug bool
}

// NewNagaCompiler returns a WGSL compiler.
func NewNagaCompiler(opts ...CompilerOption) *NagaCompiler {
	o := newCompilerOptions(opts)
	return &NagaCompiler{
		pre:   Preprocessor{Resolver: o.resolver},
		debug: o.debugInfo,
	}
}

// Compile compiles the WGSL file at path. The module must declare an entry
// point named stage.EntryPoint() for that stage.
func (c *NagaCompiler) Compile(ctx context.Context, path string, stage Stage) (Binary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, err := ReadSource(path)
	if err != nil {
		return nil, err
	}
	text, _, lines, err := c.pre.ExpandLines(src)
	if err != nil {
		return nil, err
	}
	diag := func(msg string) *Diagnostic {
		return &Diagnostic{Path: path, Message: relocate(msg, lines)}
	}

	ast, err := naga.Parse(text)
	if err != nil {
		return nil, diag(err.Error())
	}
	module, err := naga.LowerWithSource(ast, text)
	if err != nil {
		return nil, diag(err.Error())
	}
	verrs, err := naga.Validate(module)
	if err != nil {
		return nil, diag(err.Error())
	}
	if len(verrs) > 0 {
		msgs := make([]string, len(verrs))
		for i := range verrs {
			msgs[i] = verrs[i].Error()
		}
		return nil, diag(strings.Join(msgs, "\n"))
	}
	if err := checkEntryPoint(module, stage); err != nil {
		return nil, &Diagnostic{Path: path, Message: err.Error()}
	}

	spv, err := naga.GenerateSPIRV(module, spirv.Options{
		Version: spirv.Version1_3,
		Debug:   c.debug,
	})
	if err != nil {
		return nil, &Diagnostic{Path: path, Message: err.Error()}
	}
	return Binary(spv), nil
}

var (
	// Parser errors: "line 12, column 3: ...".
	parsePos = regexp.MustCompile(`line (\d+), column (\d+)`)
	// Lowering errors: "12:3: ...".
	spanPos = regexp.MustCompile(`(?m)(^|\s)(\d+):(\d+):`)
)

// relocate rewrites naga's positions in expanded text as file:line:column
// of the original source.
func relocate(msg string, lines LineMap) string {
	msg = parsePos.ReplaceAllStringFunc(msg, func(m string) string {
		sub := parsePos.FindStringSubmatch(m)
		if pos, ok := origin(lines, sub[1], sub[2]); ok {
			return pos
		}
		return m
	})
	return spanPos.ReplaceAllStringFunc(msg, func(m string) string {
		sub := spanPos.FindStringSubmatch(m)
		if pos, ok := origin(lines, sub[2], sub[3]); ok {
			return sub[1] + pos + ":"
		}
		return m
	})
}

func origin(lines LineMap, line, col string) (string, bool) {
	n, err := strconv.Atoi(line)
	if err != nil {
		return "", false
	}
	at, ok := lines.Lookup(n)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%s:%d:%s", at.Path, at.Line, col), true
}

func irStage(s Stage) ir.ShaderStage {
	switch s {
	case StageVertex:
		return ir.StageVertex
	case StageFragment:
		return ir.StageFragment
	default:
		return ir.StageCompute
	}
}

type entryPointError struct {
	name  string
	stage Stage
	found bool
}

func (e *entryPointError) Error() string {
	if e.found {
		return "entry point " + e.name + " is not a " + e.stage.String() + " shader"
	}
	return "missing " + e.stage.String() + " entry point " + e.name
}

func checkEntryPoint(m *ir.Module, stage Stage) error {
	name := stage.EntryPoint()
	for i := range m.EntryPoints {
		ep := &m.EntryPoints[i]
		if ep.Name != name {
			continue
		}
		if ep.Stage != irStage(stage) {
			return &entryPointError{name: name, stage: stage, found: true}
		}
		return nil
	}
	return &entryPointError{name: name, stage: stage}
}
