package analyzers

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	domain "github.com/codelens-ai/codelens/internal/domain/analysis"
)

type patternRule struct {
	id       string
	re       *regexp.Regexp
	category domain.Category
	severity domain.Severity
	message  string
	exts     map[string]bool
}

func exts(list ...string) map[string]bool {
	m := make(map[string]bool, len(list))
	for _, e := range list {
		m[e] = true
	}
	return m
}

var patternRules = []patternRule{
	{
		id:       "console-log",
		re:       regexp.MustCompile(`(?i)console\.(log|debug|info|warn|error)`),
		category: domain.CategoryQuality,
		severity: domain.SeverityLow,
		message:  "Remove console.log statements before production",
		exts:     exts(".js", ".ts", ".jsx", ".tsx"),
	},
	{
		id:       "todo-comment",
		re:       regexp.MustCompile(`(?i)(TODO|FIXME|XXX|HACK)[\s:]+`),
		category: domain.CategoryQuality,
		severity: domain.SeverityLow,
		message:  "TODO/FIXME comment found - resolve before production",
		exts:     exts(".js", ".ts", ".jsx", ".tsx", ".py", ".java", ".go"),
	},
	{
		id:       "hardcoded-password",
		re:       regexp.MustCompile(`(?i)(password|passwd|pwd)\s*=\s*["'][^"']{3,}["']`),
		category: domain.CategorySecurity,
		severity: domain.SeverityCritical,
		message:  "Possible hardcoded password detected",
		exts:     exts(".js", ".ts", ".py", ".java", ".go", ".php"),
	},
	{
		id:       "hardcoded-api-key",
		re:       regexp.MustCompile(`(?i)(api[_-]?key|apikey|access[_-]?key)\s*=\s*["'][^"']{10,}["']`),
		category: domain.CategorySecurity,
		severity: domain.SeverityCritical,
		message:  "Possible hardcoded API key detected",
		exts:     exts(".js", ".ts", ".py", ".java", ".go", ".php"),
	},
	{
		id:       "hardcoded-secret",
		re:       regexp.MustCompile(`(?i)(secret|token)\s*=\s*["'][^"']{10,}["']`),
		category: domain.CategorySecurity,
		severity: domain.SeverityCritical,
		message:  "Possible hardcoded secret/token detected",
		exts:     exts(".js", ".ts", ".py", ".java", ".go", ".php"),
	},
	{
		id:       "debugger-statement",
		re:       regexp.MustCompile(`\bdebugger\b`),
		category: domain.CategoryQuality,
		severity: domain.SeverityMedium,
		message:  "Debugger statement found - remove before production",
		exts:     exts(".js", ".ts", ".jsx", ".tsx"),
	},
}

// Pattern scans every file with built-in regex rules; no external tool
// involved. It applies to the whole file set, files without a matching rule
// simply yield nothing.
type Pattern struct{}

func NewPattern() *Pattern { return &Pattern{} }

func (p *Pattern) Name() string { return "CustomPattern" }

func (p *Pattern) Matches(string) bool { return true }

func (p *Pattern) RequiredCategory() (domain.Category, bool) {
	return "", false
}

func (p *Pattern) Analyze(_ context.Context, projectPath string, files []string) ([]domain.Finding, error) {
	var findings []domain.Finding
	for _, file := range files {
		findings = append(findings, p.scanFile(projectPath, file)...)
	}
	return findings, nil
}

func (p *Pattern) scanFile(projectPath, file string) []domain.Finding {
	ext := strings.ToLower(filepath.Ext(file))

	var applicable []patternRule
	for _, r := range patternRules {
		if r.exts[ext] {
			applicable = append(applicable, r)
		}
	}
	if len(applicable) == 0 {
		return nil
	}

	full := file
	if !filepath.IsAbs(file) {
		full = filepath.Join(projectPath, file)
	}
	content, err := os.ReadFile(full)
	if err != nil {
		return nil
	}

	var findings []domain.Finding
	for lineNum, line := range strings.Split(string(content), "\n") {
		for _, r := range applicable {
			for _, loc := range r.re.FindAllStringIndex(line, -1) {
				findings = append(findings, domain.Finding{
					File:        file,
					Line:        lineNum + 1,
					Column:      loc[0] + 1,
					Severity:    r.severity,
					Category:    r.category,
					Rule:        "custom/" + r.id,
					Message:     r.message,
					CodeSnippet: strings.TrimSpace(line),
					Tool:        "CustomPattern",
				})
			}
		}
	}
	return findings
}
