package analyzers

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	domain "github.com/codelens-ai/codelens/internal/domain/analysis"
)

// Bandit analyzes Python files for security issues. Only applicable when the
// security category is selected.
type Bandit struct{}

func NewBandit() *Bandit { return &Bandit{} }

func (b *Bandit) Name() string { return "Bandit" }

func (b *Bandit) Matches(path string) bool {
	return hasExt(path, ".py")
}

func (b *Bandit) RequiredCategory() (domain.Category, bool) {
	return domain.CategorySecurity, true
}

func (b *Bandit) Analyze(ctx context.Context, projectPath string, files []string) ([]domain.Finding, error) {
	var findings []domain.Finding
	for _, file := range files {
		fs, err := b.runOne(ctx, projectPath, file)
		if err != nil {
			return findings, err
		}
		findings = append(findings, fs...)
	}
	return findings, nil
}

func (b *Bandit) runOne(ctx context.Context, projectPath, file string) ([]domain.Finding, error) {
	// -ll reports low severity and above.
	cmd := exec.CommandContext(ctx, "bandit", "-f", "json", "-ll", file)
	cmd.Dir = projectPath

	// Bandit exits 1 when it finds issues; the JSON report is on stdout.
	out, err := cmd.Output()
	if len(out) == 0 {
		if err != nil {
			return nil, fmt.Errorf("bandit: %w", err)
		}
		return nil, nil
	}

	var report struct {
		Results []struct {
			LineNumber    int    `json:"line_number"`
			ColOffset     int    `json:"col_offset"`
			IssueSeverity string `json:"issue_severity"`
			TestID        string `json:"test_id"`
			IssueText     string `json:"issue_text"`
			Code          string `json:"code"`
		} `json:"results"`
	}
	if err := json.Unmarshal(out, &report); err != nil {
		return nil, fmt.Errorf("bandit: parse output: %w", err)
	}

	path := normalizePath(file, projectPath)
	var findings []domain.Finding
	for _, r := range report.Results {
		rule := r.TestID
		if rule == "" {
			rule = "unknown"
		}
		findings = append(findings, domain.Finding{
			File:        path,
			Line:        r.LineNumber,
			Column:      r.ColOffset,
			Severity:    banditSeverity(r.IssueSeverity),
			Category:    domain.CategorySecurity,
			Rule:        rule,
			Message:     r.IssueText,
			CodeSnippet: r.Code,
			Tool:        "Bandit",
		})
	}
	return findings, nil
}

// banditSeverity shifts Bandit's scale up one notch: its HIGH is critical
// for us because Bandit only flags genuine security problems.
func banditSeverity(sev string) domain.Severity {
	switch strings.ToUpper(sev) {
	case "HIGH":
		return domain.SeverityCritical
	case "MEDIUM":
		return domain.SeverityHigh
	case "LOW":
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}
