package catalog

import (
	"fmt"
	"strings"
)

const (
	Kind                   = "catalog"
	SupportedSchemaVersion = 1
)

// Mode is a solver or practice problem family.
type Mode string

const (
	ModeNone       Mode = "none"
	ModeIntegral   Mode = "integral"
	ModeParametric Mode = "parametric"
	ModePolar      Mode = "polar"
)

// ParseMode accepts the wire names plus the "regular" alias used on labels.
func ParseMode(raw string) Mode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "integral", "regular":
		return ModeIntegral
	case "parametric":
		return ModeParametric
	case "polar":
		return ModePolar
	default:
		return ModeNone
	}
}

type Catalog struct {
	Kind          string         `yaml:"kind"`
	SchemaVersion int            `yaml:"schema_version"`
	SolverModes   []SolverMode   `yaml:"solver_modes"`
	PracticeTypes []PracticeType `yaml:"practice_types"`
	Difficulties  []Difficulty   `yaml:"difficulties"`
}

type SolverMode struct {
	ID      Mode    `yaml:"id"`
	Label   string  `yaml:"label"`
	Example string  `yaml:"example"`
	Fields  []Field `yaml:"fields"`
}

type Field struct {
	ID          string `yaml:"id"`
	Label       string `yaml:"label"`
	Placeholder string `yaml:"placeholder"`
	Required    bool   `yaml:"required"`
}

type PracticeType struct {
	ID           Mode   `yaml:"id"`
	Label        string `yaml:"label"`
	Description  string `yaml:"description"`
	ProblemsPath string `yaml:"problems_path"`
	SubmitPath   string `yaml:"submit_path"`
}

type Difficulty struct {
	Level int    `yaml:"level"`
	Label string `yaml:"label"`
}

func (c Catalog) Validate() error {
	if c.Kind != Kind {
		return fmt.Errorf("kind must be %q", Kind)
	}
	if c.SchemaVersion == 0 {
		return fmt.Errorf("schema_version is required")
	}
	if c.SchemaVersion > SupportedSchemaVersion {
		return fmt.Errorf("unsupported catalog schema_version %d (max supported %d)", c.SchemaVersion, SupportedSchemaVersion)
	}
	seen := map[Mode]struct{}{}
	for _, m := range c.SolverModes {
		if ParseMode(string(m.ID)) == ModeNone {
			return fmt.Errorf("invalid solver mode %q", m.ID)
		}
		if _, ok := seen[m.ID]; ok {
			return fmt.Errorf("duplicate solver mode %q", m.ID)
		}
		seen[m.ID] = struct{}{}
		if len(m.Fields) == 0 {
			return fmt.Errorf("solver mode %q has no fields", m.ID)
		}
	}
	for _, p := range c.PracticeTypes {
		if ParseMode(string(p.ID)) == ModeNone {
			return fmt.Errorf("invalid practice type %q", p.ID)
		}
		if !strings.HasPrefix(p.ProblemsPath, "/") || !strings.HasPrefix(p.SubmitPath, "/") {
			return fmt.Errorf("practice type %q needs absolute problems_path and submit_path", p.ID)
		}
	}
	for i, d := range c.Difficulties {
		if d.Level != i+1 {
			return fmt.Errorf("difficulties must be listed 1..n in order, got %d at index %d", d.Level, i)
		}
	}
	return nil
}

func (c Catalog) SolverMode(id Mode) (SolverMode, bool) {
	for _, m := range c.SolverModes {
		if m.ID == id {
			return m, true
		}
	}
	return SolverMode{}, false
}

func (c Catalog) PracticeType(id Mode) (PracticeType, bool) {
	for _, p := range c.PracticeTypes {
		if p.ID == id {
			return p, true
		}
	}
	return PracticeType{}, false
}

func (c Catalog) Difficulty(level int) (Difficulty, bool) {
	for _, d := range c.Difficulties {
		if d.Level == level {
			return d, true
		}
	}
	return Difficulty{}, false
}
