package diagfmt

import (
	"path/filepath"
	"strings"

	"marrow/internal/source"
)

// formatPath renders a file path according to mode, relative to baseDir.
func formatPath(f *source.File, mode PathMode, baseDir string) string {
	switch mode {
	case PathModeBasename:
		return filepath.Base(f.Path)
	case PathModeAbsolute:
		if abs, err := filepath.Abs(f.Path); err == nil {
			return abs
		}
		return f.Path
	case PathModeRelative:
		if rel, err := filepath.Rel(baseDir, f.Path); err == nil {
			return filepath.ToSlash(rel)
		}
		return f.Path
	default:
		if baseDir != "" {
			if rel, err := filepath.Rel(baseDir, f.Path); err == nil && !strings.HasPrefix(rel, "..") {
				return filepath.ToSlash(rel)
			}
		}
		return f.Path
	}
}
