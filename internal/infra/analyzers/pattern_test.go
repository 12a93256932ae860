package analyzers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/codelens-ai/codelens/internal/domain/analysis"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestPatternDetectsBuiltinRules(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.js", "console.log('hi');\nconst password = \"hunter42\";\ndebugger\n")

	p := NewPattern()
	findings, err := p.Analyze(context.Background(), dir, []string{"app.js"})
	require.NoError(t, err)
	require.Len(t, findings, 3)

	byRule := map[string]domain.Finding{}
	for _, f := range findings {
		byRule[f.Rule] = f
	}

	log, ok := byRule["custom/console-log"]
	require.True(t, ok)
	assert.Equal(t, 1, log.Line)
	assert.Equal(t, 1, log.Column)
	assert.Equal(t, domain.SeverityLow, log.Severity)
	assert.Equal(t, domain.CategoryQuality, log.Category)
	assert.Equal(t, "console.log('hi');", log.CodeSnippet)
	assert.Equal(t, "CustomPattern", log.Tool)

	pw, ok := byRule["custom/hardcoded-password"]
	require.True(t, ok)
	assert.Equal(t, 2, pw.Line)
	assert.Equal(t, domain.SeverityCritical, pw.Severity)
	assert.Equal(t, domain.CategorySecurity, pw.Category)

	dbg, ok := byRule["custom/debugger-statement"]
	require.True(t, ok)
	assert.Equal(t, domain.SeverityMedium, dbg.Severity)
}

func TestPatternSkipsNonMatchingExtensions(t *testing.T) {
	dir := t.TempDir()
	// console.log rules only apply to JS/TS files.
	writeFile(t, dir, "script.py", "console.log('hi')\n")

	findings, err := NewPattern().Analyze(context.Background(), dir, []string{"script.py"})
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestPatternTodoAcrossLanguages(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main\n// TODO: remove this\n")

	findings, err := NewPattern().Analyze(context.Background(), dir, []string{"main.go"})
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "custom/todo-comment", findings[0].Rule)
	assert.Equal(t, 2, findings[0].Line)
}

func TestPatternMissingFileYieldsNothing(t *testing.T) {
	findings, err := NewPattern().Analyze(context.Background(), t.TempDir(), []string{"gone.js"})
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestPatternMatchesEverything(t *testing.T) {
	p := NewPattern()
	assert.True(t, p.Matches("anything.xyz"))
	_, required := p.RequiredCategory()
	assert.False(t, required)
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "a/b.js", normalizePath("a/b.js", "/proj"))
	assert.Equal(t, "a/b.js", normalizePath("/proj/a/b.js", "/proj"))
}

func TestHasExt(t *testing.T) {
	assert.True(t, hasExt("a/b.TSX", ".js", ".tsx"))
	assert.False(t, hasExt("a/b.py", ".js"))
}
