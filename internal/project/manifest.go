// Package project locates and parses marrow.toml, the per-project manifest
// controlling expansion limits, cfg features and macro bindings.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"marrow/internal/expand"
)

// ManifestName is the file looked up from the working directory upward.
const ManifestName = "marrow.toml"

// DefaultMaxDiagnostics caps diagnostics per run unless the manifest or a
// flag overrides it.
const DefaultMaxDiagnostics = 64

// Config is the decoded manifest content.
type Config struct {
	Package   PackageConfig   `toml:"package"`
	Expansion ExpansionConfig `toml:"expansion"`
	Macros    MacrosConfig    `toml:"macros"`
}

// PackageConfig names the project.
type PackageConfig struct {
	Name string `toml:"name"`
}

// ExpansionConfig tunes the expansion engine.
type ExpansionConfig struct {
	// MaxDepth bounds macro invocations per top-level declaration.
	MaxDepth int `toml:"max_depth"`
	// MaxDiagnostics caps collected diagnostics per run.
	MaxDiagnostics int `toml:"max_diagnostics"`
	// Jobs limits concurrent file expansion; 0 means one per CPU.
	Jobs int `toml:"jobs"`
	// Features enables cfg conditions by name.
	Features []string `toml:"features"`
}

// MacrosConfig adjusts macro bindings without touching annotation sites.
type MacrosConfig struct {
	// Deny unbinds macros: invoking one fails as unknown.
	Deny []string `toml:"deny"`
	// Identity rebinds macros to re-emit the annotated item unchanged.
	Identity []string `toml:"identity"`
}

// Manifest is a loaded marrow.toml together with its location.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Default returns the configuration used when no manifest exists.
func Default() Config {
	return Config{
		Expansion: ExpansionConfig{
			MaxDepth:       expand.DefaultMaxDepth,
			MaxDiagnostics: DefaultMaxDiagnostics,
		},
	}
}

// Find walks up from startDir to locate marrow.toml.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load parses the manifest at path.
func Load(path string) (*Manifest, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if err := validate(path, meta, &cfg); err != nil {
		return nil, err
	}
	return &Manifest{
		Path:   path,
		Root:   filepath.Dir(path),
		Config: cfg,
	}, nil
}

// LoadFromDir finds and loads the manifest governing startDir. When none
// exists it returns defaults with ok == false.
func LoadFromDir(startDir string) (*Manifest, bool, error) {
	path, ok, err := Find(startDir)
	if err != nil || !ok {
		return &Manifest{Config: Default()}, false, err
	}
	m, err := Load(path)
	if err != nil {
		return nil, true, err
	}
	return m, true, nil
}

func validate(path string, meta toml.MetaData, cfg *Config) error {
	if meta.IsDefined("package") {
		if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
			return fmt.Errorf("%s: missing [package].name", path)
		}
	}
	if cfg.Expansion.MaxDepth < 0 {
		return fmt.Errorf("%s: [expansion].max_depth must be non-negative", path)
	}
	if cfg.Expansion.MaxDepth == 0 {
		cfg.Expansion.MaxDepth = expand.DefaultMaxDepth
	}
	if cfg.Expansion.MaxDiagnostics < 0 {
		return fmt.Errorf("%s: [expansion].max_diagnostics must be non-negative", path)
	}
	if cfg.Expansion.MaxDiagnostics == 0 {
		cfg.Expansion.MaxDiagnostics = DefaultMaxDiagnostics
	}
	if cfg.Expansion.Jobs < 0 {
		return fmt.Errorf("%s: [expansion].jobs must be non-negative", path)
	}
	for _, f := range cfg.Expansion.Features {
		if !isValidFeatureName(f) {
			return fmt.Errorf("%s: invalid feature name %q", path, f)
		}
	}
	for _, section := range []struct {
		key   string
		names []string
	}{
		{"deny", cfg.Macros.Deny},
		{"identity", cfg.Macros.Identity},
	} {
		for _, n := range section.names {
			if strings.TrimSpace(n) == "" {
				return fmt.Errorf("%s: [macros].%s contains an empty name", path, section.key)
			}
		}
	}
	return nil
}

// Enabled returns the cfg condition predicate for the configured features.
func (c ExpansionConfig) Enabled() func(string) bool {
	set := make(map[string]bool, len(c.Features))
	for _, f := range c.Features {
		set[f] = true
	}
	return func(name string) bool { return set[name] }
}

func isValidFeatureName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
