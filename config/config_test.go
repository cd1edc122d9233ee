package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	cloji "github.com/yosbelms/cloji/core"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cloji.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
socket: /tmp/test.sock
swallow_errors: true
modules: [clock, " sqlite "]
globals:
  greeting: hello
  limits:
    max: 10
    tags: [a, b]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Socket != "/tmp/test.sock" || !cfg.SwallowErrors {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Modules, []string{"clock", "sqlite"}) {
		t.Fatalf("unexpected modules %v", cfg.Modules)
	}
	if cfg.Path != path {
		t.Fatalf("expected path %s, got %s", path, cfg.Path)
	}
}

func TestLoadEmpty(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Modules) != 0 || cfg.Globals != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown field", "sockett: x\n", "field sockett not found"},
		{"unknown module", "modules: [http]\n", `unknown module "http"`},
		{"duplicate module", "modules: [clock, clock]\n", "listed twice"},
		{"dotted global", "globals:\n  a.b: 1\n", "invalid global name"},
		{"bad yaml", "modules: [\n", "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for a missing file")
	}
}

func TestHistoryFileExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	cfg, err := Load(writeConfig(t, "history_file: ~/.cloji_history\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HistoryFile != filepath.Join(home, ".cloji_history") {
		t.Fatalf("unexpected history file %s", cfg.HistoryFile)
	}
}

func TestScriptGlobals(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
modules: [clock]
globals:
  greeting: hello
  limits: {max: 10, tags: [a, b]}
`))
	if err != nil {
		t.Fatal(err)
	}
	globals, release, err := cfg.ScriptGlobals()
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	res, err := cloji.Exec(`[greeting limits.max (limits.tags.join "-") (thread (new Date 0) (getFullYear))]`, globals, true)
	if err != nil {
		t.Fatal(err)
	}
	want := []any{"hello", 10.0, "a-b", 1970.0}
	if !reflect.DeepEqual(res.Value, want) {
		t.Fatalf("expected %s, got %s", cloji.Inspect(want), cloji.Inspect(res.Value))
	}

	if _, err := cloji.Exec("(def greeting 1)", globals, true); err == nil {
		t.Fatal("config globals must be read-only")
	}
}

func TestScriptGlobalsClash(t *testing.T) {
	cfg := &Config{Modules: []string{"clock"}, Globals: map[string]any{"time": 1}}
	if _, _, err := cfg.ScriptGlobals(); err == nil {
		t.Fatal("expected clash with module global")
	}
}

func TestNilConfigGlobals(t *testing.T) {
	var cfg *Config
	globals, release, err := cfg.ScriptGlobals()
	if err != nil || len(globals) != 0 {
		t.Fatalf("expected no globals, got %v, %v", globals, err)
	}
	release()
}
