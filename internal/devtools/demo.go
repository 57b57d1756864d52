package devtools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"integralcli/internal/catalog"
)

// Demo account created by Seed; the demo scenarios sign in with it.
const (
	DemoFirstName = "Ada"
	DemoLastName  = "Lovelace"
	DemoEmail     = "demo@example.com"
	DemoPassword  = "integrate123"
)

type Scenario struct {
	Name          string
	Screen        string
	Authenticated bool
	Mode          catalog.Mode
	Expression    []string
	Practice      bool
	Message       string
}

type Manager struct{}

func NewManager() *Manager { return &Manager{} }

func (m *Manager) Resolve(name string) Scenario {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "home":
		return Scenario{Name: "home", Screen: "home"}
	case "signup_required":
		return Scenario{Name: "signup_required", Screen: "home", Message: "solver_signup_required"}
	case "solver":
		return Scenario{Name: "solver", Screen: "solver", Authenticated: true, Mode: catalog.ModeIntegral, Expression: []string{"x^2"}}
	case "parametric":
		return Scenario{Name: "parametric", Screen: "solver", Authenticated: true, Mode: catalog.ModeParametric, Expression: []string{"t", "t^2"}}
	case "polar":
		return Scenario{Name: "polar", Screen: "solver", Authenticated: true, Mode: catalog.ModePolar, Expression: []string{"2 + sin(theta)", "5*cos(theta)"}}
	case "practice":
		return Scenario{Name: "practice", Screen: "solver", Authenticated: true, Practice: true}
	case "profile":
		return Scenario{Name: "profile", Screen: "profile", Authenticated: true}
	default:
		return Scenario{Name: "home", Screen: "home"}
	}
}

// Seed installs the demo account on a fake backend.
func (m *Manager) Seed(b *FakeBackend) {
	if b == nil {
		return
	}
	b.AddUser(DemoFirstName, DemoLastName, DemoEmail, DemoPassword)
}

func (m *Manager) SetState(ctx context.Context, cacheDir string, state string, rendered bool) error {
	_ = ctx
	if cacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		cacheDir = filepath.Join(home, ".cache", "integral")
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return err
	}
	payload := map[string]any{
		"state":    strings.TrimSpace(state),
		"rendered": rendered,
	}
	b, _ := json.Marshal(payload)
	return os.WriteFile(filepath.Join(cacheDir, "dev_state.json"), b, 0o644)
}
