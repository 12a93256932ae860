package analyzers

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	domain "github.com/codelens-ai/codelens/internal/domain/analysis"
)

// Security-related ESLint rules.
var eslintSecurityRules = map[string]bool{
	"no-eval":         true,
	"no-implied-eval": true,
	"no-new-func":     true,
	"security/detect-sql-injection":                  true,
	"security/detect-unsafe-regex":                   true,
	"security/detect-buffer-noassert":                true,
	"security/detect-child-process":                  true,
	"security/detect-disable-mustache-escape":        true,
	"security/detect-eval-with-expression":           true,
	"security/detect-no-csrf-before-method-override": true,
	"security/detect-non-literal-fs-filename":        true,
	"security/detect-non-literal-regexp":             true,
	"security/detect-non-literal-require":            true,
	"security/detect-object-injection":               true,
	"security/detect-possible-timing-attacks":        true,
	"security/detect-pseudoRandomBytes":              true,
}

// Performance-related ESLint rules.
var eslintPerformanceRules = map[string]bool{
	"no-loop-func":     true,
	"no-await-in-loop": true,
}

// ESLint analyzes JavaScript/TypeScript files.
type ESLint struct {
	// ConfigPath points at the bundled eslintrc; the project's own config
	// is ignored so results are reproducible.
	ConfigPath string
}

func NewESLint(configPath string) *ESLint {
	return &ESLint{ConfigPath: configPath}
}

func (e *ESLint) Name() string { return "ESLint" }

func (e *ESLint) Matches(path string) bool {
	return hasExt(path, ".js", ".jsx", ".ts", ".tsx")
}

func (e *ESLint) RequiredCategory() (domain.Category, bool) {
	return "", false
}

func (e *ESLint) Analyze(ctx context.Context, projectPath string, files []string) ([]domain.Finding, error) {
	if len(files) == 0 {
		return nil, nil
	}

	args := []string{"eslint", "--format", "json"}
	if e.ConfigPath != "" {
		args = append(args, "--config", e.ConfigPath, "--no-eslintrc")
	}
	args = append(args, files...)

	cmd := exec.CommandContext(ctx, "npx", args...)
	cmd.Dir = projectPath

	// ESLint exits non-zero whenever it finds problems; the JSON on stdout
	// is still the report.
	out, err := cmd.Output()
	if len(out) == 0 {
		if err != nil {
			return nil, fmt.Errorf("eslint: %w", err)
		}
		return nil, nil
	}

	var report []struct {
		FilePath string `json:"filePath"`
		Messages []struct {
			Line     int    `json:"line"`
			Column   int    `json:"column"`
			Severity int    `json:"severity"`
			RuleID   string `json:"ruleId"`
			Message  string `json:"message"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(out, &report); err != nil {
		return nil, fmt.Errorf("eslint: parse output: %w", err)
	}

	var findings []domain.Finding
	for _, fileResult := range report {
		path := normalizePath(fileResult.FilePath, projectPath)
		for _, m := range fileResult.Messages {
			rule := m.RuleID
			if rule == "" {
				rule = "unknown"
			}
			findings = append(findings, domain.Finding{
				File:     path,
				Line:     m.Line,
				Column:   m.Column,
				Severity: eslintSeverity(m.Severity),
				Category: eslintCategory(m.RuleID),
				Rule:     rule,
				Message:  m.Message,
				Tool:     "ESLint",
			})
		}
	}
	return findings, nil
}

// eslintSeverity maps ESLint severity (1=warning, 2=error).
func eslintSeverity(sev int) domain.Severity {
	if sev == 2 {
		return domain.SeverityHigh
	}
	return domain.SeverityMedium
}

func eslintCategory(ruleID string) domain.Category {
	switch {
	case eslintSecurityRules[ruleID]:
		return domain.CategorySecurity
	case eslintPerformanceRules[ruleID]:
		return domain.CategoryPerformance
	default:
		return domain.CategoryQuality
	}
}
