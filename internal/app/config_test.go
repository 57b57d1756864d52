package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigReadsPrefixedEnv(t *testing.T) {
	t.Setenv("INTEGRAL_API_URL", "https://solver.example.com/")
	t.Setenv("INTEGRAL_STYLE", "Chalkboard")
	t.Setenv("INTEGRAL_DEBUG", "true")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Debug {
		t.Fatalf("expected debug from env")
	}
	if cfg.DevHTTP != "127.0.0.1:17321" {
		t.Fatalf("unset variables must keep defaults, got %q", cfg.DevHTTP)
	}
	cfg.DataDir = t.TempDir()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.APIURL != "https://solver.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.APIURL)
	}
	if cfg.UI.StyleVariant != "chalkboard" {
		t.Fatalf("expected normalized style, got %q", cfg.UI.StyleVariant)
	}
}

func TestLoadConfigReadsDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("INTEGRAL_DEMO=polar\nINTEGRAL_MOTION=reduced\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Cleanup(func() {
		os.Unsetenv("INTEGRAL_DEMO")
		os.Unsetenv("INTEGRAL_MOTION")
	})
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DemoScenario != "polar" || cfg.UI.MotionLevel != "reduced" {
		t.Fatalf("unexpected config %#v", cfg)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "scheme", mutate: func(c *Config) { c.APIURL = "ftp://example.com" }, want: "invalid api url"},
		{name: "host", mutate: func(c *Config) { c.APIURL = "http://" }, want: "invalid api url"},
		{name: "style", mutate: func(c *Config) { c.UI.StyleVariant = "neon" }, want: "invalid ui style variant"},
		{name: "motion", mutate: func(c *Config) { c.UI.MotionLevel = "wild" }, want: "invalid ui motion level"},
		{name: "mouse", mutate: func(c *Config) { c.UI.MouseScope = "everywhere" }, want: "invalid ui mouse scope"},
		{name: "message", mutate: func(c *Config) { c.Message = "hello" }, want: "unknown start message"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.DataDir = t.TempDir()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q, got %v", tc.want, err)
			}
		})
	}
}

func TestValidateFillsDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UI = UIConfig{}
	cfg.Message = messageSolverSignupRequired
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.UI.StyleVariant != "midnight" || cfg.UI.MotionLevel != "full" || cfg.UI.MouseScope != "scoped" {
		t.Fatalf("unexpected ui defaults %#v", cfg.UI)
	}
	if !strings.HasSuffix(cfg.DataDir, filepath.Join(".local", "share", "integral")) {
		t.Fatalf("unexpected data dir %q", cfg.DataDir)
	}
}
