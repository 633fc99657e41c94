package project

import (
	"os"
	"path/filepath"
	"testing"

	"marrow/internal/expand"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoad_Full(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
[package]
name = "demo"

[expansion]
max_depth = 32
max_diagnostics = 10
jobs = 4
features = ["fancy", "extra_checks"]

[macros]
deny = ["loop"]
identity = ["maybe_pub"]
`)
	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	cfg := m.Config
	if cfg.Package.Name != "demo" {
		t.Errorf("package name = %q", cfg.Package.Name)
	}
	if cfg.Expansion.MaxDepth != 32 || cfg.Expansion.MaxDiagnostics != 10 || cfg.Expansion.Jobs != 4 {
		t.Errorf("expansion = %+v", cfg.Expansion)
	}
	enabled := cfg.Expansion.Enabled()
	if !enabled("fancy") || enabled("off") {
		t.Error("feature predicate wrong")
	}
	if len(cfg.Macros.Deny) != 1 || cfg.Macros.Deny[0] != "loop" {
		t.Errorf("deny = %v", cfg.Macros.Deny)
	}
	if m.Root != filepath.Dir(path) {
		t.Errorf("root = %q", m.Root)
	}
}

func TestLoad_DefaultsFillIn(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
[package]
name = "demo"
`)
	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if m.Config.Expansion.MaxDepth != expand.DefaultMaxDepth {
		t.Errorf("max_depth = %d, want default %d", m.Config.Expansion.MaxDepth, expand.DefaultMaxDepth)
	}
	if m.Config.Expansion.MaxDiagnostics != DefaultMaxDiagnostics {
		t.Errorf("max_diagnostics = %d, want default %d", m.Config.Expansion.MaxDiagnostics, DefaultMaxDiagnostics)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"package without name", "[package]\n"},
		{"negative depth", "[expansion]\nmax_depth = -1\n"},
		{"negative jobs", "[expansion]\njobs = -2\n"},
		{"bad feature", "[expansion]\nfeatures = [\"1bad\"]\n"},
		{"empty deny entry", "[macros]\ndeny = [\"\"]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, t.TempDir(), tt.content)
			if _, err := Load(path); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestFind_WalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[package]\nname = \"demo\"\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	path, ok, err := Find(nested)
	if err != nil || !ok {
		t.Fatalf("Find() = %v, %v", ok, err)
	}
	if filepath.Dir(path) != root {
		t.Errorf("found %q, want under %q", path, root)
	}
}

func TestLoadFromDir_NoManifest(t *testing.T) {
	m, ok, err := LoadFromDir(t.TempDir())
	if err != nil {
		t.Fatalf("LoadFromDir() error: %v", err)
	}
	if ok {
		t.Error("ok = true without a manifest")
	}
	if m.Config.Expansion.MaxDepth != expand.DefaultMaxDepth {
		t.Errorf("defaults not applied: %+v", m.Config.Expansion)
	}
}
