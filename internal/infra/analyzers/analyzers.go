// Package analyzers contains the adapters that shell out to external
// analysis tools and normalize their output into findings. Each adapter
// implements the analysis.Analyzer port; failures are returned as errors for
// the orchestrator to log, never panics.
package analyzers

import (
	"path/filepath"
	"strings"
)

// normalizePath makes tool-reported paths relative to the project root so
// findings are comparable across tools.
func normalizePath(path, projectRoot string) string {
	if !filepath.IsAbs(path) {
		return path
	}
	rel, err := filepath.Rel(projectRoot, path)
	if err != nil {
		return path
	}
	return rel
}

func hasExt(path string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
