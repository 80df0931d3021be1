package shader

import "fmt"

// Stage is a programmable pipeline stage.
type Stage uint8

const (
	StageVertex Stage = iota
	StageFragment
	StageCompute
)

// Profile returns the shader model target profile for the stage.
func (s Stage) Profile() string {
	switch s {
	case StageVertex:
		return "vs_6_0"
	case StageFragment:
		return "ps_6_0"
	case StageCompute:
		return "cs_6_0"
	default:
		return ""
	}
}

// EntryPoint returns the fixed entry point symbol for the stage.
func (s Stage) EntryPoint() string {
	switch s {
	case StageVertex:
		return "vs_main"
	case StageFragment:
		return "ps_main"
	case StageCompute:
		return "cs_main"
	default:
		return ""
	}
}

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	case StageCompute:
		return "compute"
	default:
		return fmt.Sprintf("Stage(%d)", uint8(s))
	}
}

// ParseStage parses a stage name as printed by Stage.String.
func ParseStage(name string) (Stage, error) {
	switch name {
	case "vertex", "vs":
		return StageVertex, nil
	case "fragment", "ps":
		return StageFragment, nil
	case "compute", "cs":
		return StageCompute, nil
	}
	return 0, fmt.Errorf("shader: unknown stage %q", name)
}
