package prompt

import (
	"fmt"
	"strings"

	"github.com/codelens-ai/codelens/internal/domain/analysis"
)

// SystemPrompt frames the model as a code reviewer and pins the section
// layout ParseResponse expects.
const SystemPrompt = `You are an expert code reviewer and security analyst.
Your task is to analyze code issues and provide detailed, actionable insights.

Format your response as follows:
1. Summary: Brief overview of the issue (2-3 sentences)
2. Root Cause: Technical explanation of why this is a problem
3. Impact: Potential consequences if left unfixed
4. Recommendations: Specific steps to fix the issue
5. Code Example: If applicable, show before/after code snippets

Be specific, technical, and actionable. Focus on practical solutions.`

// contextSize is the window of surrounding source lines shown to the model.
const contextSize = 5

// BuildAnalysisPrompt renders one finding plus a bounded window of the file
// around it into the analysis prompt.
func BuildAnalysisPrompt(f analysis.Finding, fileContent string) string {
	return fmt.Sprintf(`Analyze this code issue:

**Issue Details:**
- File: %s
- Line: %d, Column: %d
- Severity: %s
- Category: %s
- Rule: %s
- Tool: %s
- Message: %s

**Code Context:**
`+"```"+`
%s
`+"```"+`

**File Path:** %s

Please provide:
1. **Summary**: What is the core issue? (2-3 sentences)
2. **Root Cause**: Why is this a problem? (technical explanation)
3. **Impact**: What could happen if this isn't fixed?
4. **Recommendations**: How to fix this? (step-by-step if complex)
5. **Code Example** (if applicable): Show before/after code

Focus on practical, actionable advice. Be specific about the fix.`,
		f.File, f.Line, f.Column, f.Severity, f.Category, f.Rule, f.Tool, f.Message,
		CodeContext(fileContent, f.Line, contextSize), f.File)
}

// CodeContext extracts numbered lines around the issue line (1-indexed),
// marking the issue line with ">>>".
func CodeContext(content string, line, size int) string {
	lines := strings.Split(content, "\n")

	start := line - 1 - size
	if start < 0 {
		start = 0
	}
	end := line + size
	if end > len(lines) {
		end = len(lines)
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		num := i + 1
		prefix := "    "
		if num == line {
			prefix = ">>> "
		}
		fmt.Fprintf(&b, "%s%4d | %s", prefix, num, lines[i])
		if i < end-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
