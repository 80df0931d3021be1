package shader

import "testing"

func TestStageConstants(t *testing.T) {
	tests := []struct {
		stage   Stage
		profile string
		entry   string
		name    string
	}{
		{StageVertex, "vs_6_0", "vs_main", "vertex"},
		{StageFragment, "ps_6_0", "ps_main", "fragment"},
		{StageCompute, "cs_6_0", "cs_main", "compute"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.stage.Profile(); got != tt.profile {
				t.Errorf("Profile() = %q, want %q", got, tt.profile)
			}
			if got := tt.stage.EntryPoint(); got != tt.entry {
				t.Errorf("EntryPoint() = %q, want %q", got, tt.entry)
			}
			if got := tt.stage.String(); got != tt.name {
				t.Errorf("String() = %q, want %q", got, tt.name)
			}
			parsed, err := ParseStage(tt.name)
			if err != nil || parsed != tt.stage {
				t.Errorf("ParseStage(%q) = %v, %v", tt.name, parsed, err)
			}
		})
	}
}

func TestStageUnknown(t *testing.T) {
	s := Stage(42)
	if s.Profile() != "" || s.EntryPoint() != "" {
		t.Errorf("unknown stage has profile %q entry %q", s.Profile(), s.EntryPoint())
	}
	if s.String() != "Stage(42)" {
		t.Errorf("String() = %q", s.String())
	}
	if _, err := ParseStage("geometry"); err == nil {
		t.Error("ParseStage(geometry) succeeded")
	}
}
