package analysis

import "context"

// Analyzer port (interface untuk analyzer adapters). One implementation per
// external tool; the orchestrator dispatches through a fixed, ordered list.
type Analyzer interface {
	// Name identifies the tool, e.g. "ESLint".
	Name() string
	// Matches reports whether the file belongs to this analyzer's bucket.
	Matches(path string) bool
	// RequiredCategory returns the category that must be selected for this
	// analyzer to apply; ok is false when it applies regardless.
	RequiredCategory() (Category, bool)
	// Analyze runs the tool over the given files and returns normalized
	// findings. Failures are adapter errors: callers log them, they never
	// abort the surrounding run.
	Analyze(ctx context.Context, projectPath string, files []string) ([]Finding, error)
}
