package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codelens-ai/codelens/internal/domain/analysis"
)

func TestCodeContextWindow(t *testing.T) {
	content := "l1\nl2\nl3\nl4\nl5\nl6\nl7\nl8\nl9\nl10"

	ctx := CodeContext(content, 5, 2)
	lines := strings.Split(ctx, "\n")
	assert.Len(t, lines, 5, "2 before + issue line + 2 after")
	assert.Contains(t, ctx, ">>>    5 | l5")
	assert.Contains(t, ctx, "       3 | l3")
	assert.NotContains(t, ctx, "l2")
	assert.NotContains(t, ctx, "l8")
}

func TestCodeContextClampsAtFileEdges(t *testing.T) {
	content := "l1\nl2\nl3"

	ctx := CodeContext(content, 1, 5)
	assert.Equal(t, 3, len(strings.Split(ctx, "\n")))
	assert.True(t, strings.HasPrefix(ctx, ">>>    1 | l1"))

	ctx = CodeContext(content, 3, 5)
	assert.Contains(t, ctx, ">>>    3 | l3")
}

func TestBuildAnalysisPrompt(t *testing.T) {
	f := analysis.Finding{
		File:     "src/app.js",
		Line:     2,
		Column:   7,
		Severity: analysis.SeverityCritical,
		Category: analysis.CategorySecurity,
		Rule:     "no-eval",
		Message:  "eval can be harmful",
		Tool:     "ESLint",
	}

	p := BuildAnalysisPrompt(f, "const a = 1;\neval(input);\nconsole.log(a);")

	assert.Contains(t, p, "- File: src/app.js")
	assert.Contains(t, p, "- Line: 2, Column: 7")
	assert.Contains(t, p, "- Severity: critical")
	assert.Contains(t, p, "- Rule: no-eval")
	assert.Contains(t, p, ">>>    2 | eval(input);")
	assert.Contains(t, p, "**File Path:** src/app.js")
}

func TestSystemPromptPinsSectionLayout(t *testing.T) {
	for _, section := range []string{"Summary", "Root Cause", "Impact", "Recommendations", "Code Example"} {
		assert.Contains(t, SystemPrompt, section)
	}
}
