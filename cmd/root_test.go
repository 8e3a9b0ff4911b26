package cmd

import (
	"path/filepath"
	"testing"

	"github.com/cushion-app/cushion-build/internal/config"
	"github.com/cushion-app/cushion-build/internal/variant"
)

func TestEnvSnapshot_CapturesModeFlags(t *testing.T) {
	t.Setenv(variant.EnvTestMode, "true")
	t.Setenv(variant.EnvDevMode, "")

	env := envSnapshot()
	if env[variant.EnvTestMode] != "true" {
		t.Errorf("TEST_MODE = %q", env[variant.EnvTestMode])
	}
	if variant.Resolve(env) != variant.Test {
		t.Errorf("snapshot does not resolve to Test")
	}
}

func TestInRoot(t *testing.T) {
	t.Parallel()
	cfg := config.Config{RepoRoot: "/repo"}

	if got := inRoot(cfg, "src-tauri/tauri.conf.json"); got != filepath.Join("/repo", "src-tauri", "tauri.conf.json") {
		t.Errorf("relative path = %q", got)
	}
	if got := inRoot(cfg, "/abs/conf.json"); got != "/abs/conf.json" {
		t.Errorf("absolute path rewritten: %q", got)
	}
}

func TestCommands_Registered(t *testing.T) {
	t.Parallel()

	want := map[string]bool{
		"build":   false,
		"release": false,
		"version": false,
		"restore": false,
		"dev":     false,
		"history": false,
	}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}
