package devtools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"integralcli/internal/catalog"
)

func TestResolveKnownScenarios(t *testing.T) {
	m := NewManager()
	s := m.Resolve("solver")
	if !s.Authenticated || s.Mode != catalog.ModeIntegral || len(s.Expression) != 1 {
		t.Fatalf("unexpected solver scenario: %+v", s)
	}
	if s := m.Resolve(" Practice "); !s.Practice || s.Screen != "solver" {
		t.Fatalf("unexpected practice scenario: %+v", s)
	}
	if s := m.Resolve("polar"); len(s.Expression) != 2 {
		t.Fatalf("polar scenario should seed inner and outer: %+v", s)
	}
}

func TestResolveFallsBackToHome(t *testing.T) {
	s := NewManager().Resolve("nope")
	if s.Name != "home" || s.Authenticated {
		t.Fatalf("expected guest home fallback, got %+v", s)
	}
}

func TestSetStateWritesFile(t *testing.T) {
	dir := t.TempDir()
	if err := NewManager().SetState(context.Background(), dir, " solver ", true); err != nil {
		t.Fatalf("set state: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "dev_state.json"))
	if err != nil {
		t.Fatalf("read state: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["state"] != "solver" || got["rendered"] != true {
		t.Fatalf("unexpected state payload: %v", got)
	}
}
