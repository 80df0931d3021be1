package shader

import (
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// IncludeResolver supplies the text of files named by #include directives.
type IncludeResolver interface {
	// Resolve returns the file named by an #include directive found in the
	// file at from. ok is false when no such file can be read; that is a
	// normal outcome, not an error.
	Resolve(name, from string) (src Source, ok bool)
}

// FileResolver resolves includes on the local filesystem. A name is tried
// as given, then relative to the including file, then under each root.
type FileResolver struct {
	Roots []string
}

func (r FileResolver) Resolve(name, from string) (Source, bool) {
	for _, p := range r.candidates(name, from) {
		if src, err := ReadSource(p); err == nil {
			return src, true
		}
	}
	return Source{}, false
}

func (r FileResolver) candidates(name, from string) []string {
	paths := []string{name}
	if filepath.IsAbs(name) {
		return paths
	}
	if from != "" {
		paths = append(paths, filepath.Join(filepath.Dir(from), name))
	}
	for _, root := range r.Roots {
		paths = append(paths, filepath.Join(root, name))
	}
	return paths
}

// maxIncludeDepth bounds nesting independently of cycle detection.
const maxIncludeDepth = 64

// Preprocessor expands #include "file" directives.
//
// Each directive line is kept as a comment and followed by the included
// text. Files containing #pragma once are expanded at most once. When
// LineMarkers is set, #line directives are emitted around included text so
// compiler messages refer to the original files.
type Preprocessor struct {
	Resolver    IncludeResolver
	LineMarkers bool
}

// Expand returns the text of src with all includes expanded, along with
// the paths of every included file in first-seen order.
// Unresolvable includes and include cycles are reported as *Diagnostic.
func (p *Preprocessor) Expand(src Source) (string, []string, error) {
	text, deps, _, err := p.ExpandLines(src)
	return text, deps, err
}

// ExpandLines is Expand that also reports where each expanded line came
// from.
func (p *Preprocessor) ExpandLines(src Source) (string, []string, LineMap, error) {
	e := &expansion{p: p, root: src.Path, once: make(map[string]bool)}
	e.at = SourceLine{Path: src.Path, Line: 1}
	if p.LineMarkers {
		e.line(1, src.Path)
	}
	if err := e.file(src, nil); err != nil {
		return "", nil, nil, err
	}
	if e.open {
		e.lines = append(e.lines, e.cur)
	}
	return e.b.String(), e.deps, e.lines, nil
}

// SourceLine is a line of an original, unexpanded file.
type SourceLine struct {
	Path string
	Line int
}

// LineMap maps 1-based lines of expanded text to their origin.
type LineMap []SourceLine

// Lookup returns the origin of expanded line n.
func (m LineMap) Lookup(n int) (SourceLine, bool) {
	if n < 1 || n > len(m) {
		return SourceLine{}, false
	}
	return m[n-1], true
}

// Dependencies reads path and returns every file it includes, directly or
// transitively.
func (p *Preprocessor) Dependencies(path string) ([]string, error) {
	src, err := ReadSource(path)
	if err != nil {
		return nil, err
	}
	_, deps, err := p.Expand(src)
	return deps, err
}

type expansion struct {
	p    *Preprocessor
	root string
	b    strings.Builder
	once map[string]bool
	deps []string

	lines LineMap
	cur   SourceLine
	open  bool
	at    SourceLine
}

// write appends s, attributing each output line to the position that
// started it.
func (e *expansion) write(s string) {
	for s != "" {
		if !e.open {
			e.cur, e.open = e.at, true
		}
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			e.b.WriteString(s)
			return
		}
		e.b.WriteString(s[:i+1])
		e.lines = append(e.lines, e.cur)
		e.open = false
		s = s[i+1:]
	}
}

func (e *expansion) line(n int, path string) {
	e.write(fmt.Sprintf("#line %d %s\n", n, strconv.Quote(filepath.ToSlash(path))))
}

func (e *expansion) file(src Source, stack []string) error {
	key := includeKey(src.Path)
	if len(stack) > maxIncludeDepth {
		return diagnosticf(e.root, "%s: #include nested too deeply", src.Path)
	}
	stack = append(stack, key)

	lines := strings.Split(src.Text, "\n")
	for i, ln := range lines {
		e.at = SourceLine{Path: src.Path, Line: i + 1}
		trimmed := strings.TrimSpace(ln)
		if isPragmaOnce(trimmed) {
			e.once[key] = true
			e.write("// " + trimmed + "\n")
			continue
		}
		if !strings.HasPrefix(trimmed, "#include") {
			e.write(strings.TrimSuffix(ln, "\r"))
			if i < len(lines)-1 {
				e.write("\n")
			}
			continue
		}

		name, ok := parseInclude(trimmed)
		if !ok {
			return diagnosticf(e.root, "%s:%d: malformed #include directive: %s", src.Path, i+1, trimmed)
		}
		inc, found := e.p.Resolver.Resolve(name, src.Path)
		if !found {
			return diagnosticf(e.root, "%s:%d: cannot resolve #include %q", src.Path, i+1, name)
		}
		incKey := includeKey(inc.Path)
		if slices.Contains(stack, incKey) {
			return diagnosticf(e.root, "%s:%d: #include cycle through %q", src.Path, i+1, name)
		}

		e.write("// " + trimmed + "\n")
		if e.once[incKey] {
			continue
		}
		if !slices.Contains(e.deps, inc.Path) {
			e.deps = append(e.deps, inc.Path)
		}
		if e.p.LineMarkers {
			e.line(1, inc.Path)
		}
		if err := e.file(inc, stack); err != nil {
			return err
		}
		e.at = SourceLine{Path: src.Path, Line: i + 1}
		e.write("\n")
		if e.p.LineMarkers {
			e.line(i+2, src.Path)
		}
	}
	return nil
}

// parseInclude extracts the file name from `#include "name"`.
func parseInclude(directive string) (string, bool) {
	rest := strings.TrimSpace(strings.TrimPrefix(directive, "#include"))
	if len(rest) < 2 || rest[0] != '"' {
		return "", false
	}
	end := strings.IndexByte(rest[1:], '"')
	if end <= 0 {
		return "", false
	}
	return rest[1 : end+1], true
}

func isPragmaOnce(trimmed string) bool {
	f := strings.Fields(trimmed)
	return len(f) == 2 && f[0] == "#pragma" && f[1] == "once"
}

func includeKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
