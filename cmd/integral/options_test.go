package main

import (
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

func TestFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("INTEGRAL_API_URL", "http://env.example.com")
	t.Setenv("INTEGRAL_STYLE", "terminal")

	dataDir := t.TempDir()
	cmd := &cobra.Command{Use: "integral"}
	opts := &rootOptions{}
	opts.bind(cmd)
	if err := cmd.ParseFlags([]string{
		"--env-file", filepath.Join(t.TempDir(), "none.env"),
		"--api-url", "http://flag.example.com/",
		"--data-dir", dataDir,
	}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := opts.load(cmd); err != nil {
		t.Fatalf("load: %v", err)
	}
	if opts.cfg.APIURL != "http://flag.example.com" {
		t.Fatalf("expected flag url, got %q", opts.cfg.APIURL)
	}
	if opts.cfg.UI.StyleVariant != "terminal" {
		t.Fatalf("expected env style, got %q", opts.cfg.UI.StyleVariant)
	}
	if opts.cfg.DataDir != dataDir {
		t.Fatalf("expected flag data dir, got %q", opts.cfg.DataDir)
	}
}

func TestRootRejectsUnknownStartMessage(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"--message", "hello", "--data-dir", t.TempDir(), "--env-file", filepath.Join(t.TempDir(), "none.env")})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected an error for an unknown start message")
	}
}
