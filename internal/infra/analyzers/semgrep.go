package analyzers

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	domain "github.com/codelens-ai/codelens/internal/domain/analysis"
)

var semgrepSecurityKeywords = []string{
	"security", "crypto", "injection", "xss", "csrf",
	"auth", "password", "secret", "token", "key",
	"sql", "command", "xxe", "deserialization",
}

var semgrepPerformanceKeywords = []string{
	"performance", "inefficient", "slow", "optimization",
	"memory", "leak", "blocking", "synchronous",
}

// Semgrep runs semgrep with a local rule set over the whole file set.
type Semgrep struct {
	// RulePaths are --config arguments; empty means semgrep's own default.
	RulePaths []string
}

func NewSemgrep(rulePaths ...string) *Semgrep {
	return &Semgrep{RulePaths: rulePaths}
}

func (s *Semgrep) Name() string { return "Semgrep" }

func (s *Semgrep) Matches(string) bool { return true }

func (s *Semgrep) RequiredCategory() (domain.Category, bool) {
	return "", false
}

func (s *Semgrep) Analyze(ctx context.Context, projectPath string, files []string) ([]domain.Finding, error) {
	if len(files) == 0 {
		return nil, nil
	}

	// Files are already filtered upstream, so git ignores are skipped;
	// telemetry and the version check would add network calls per pass.
	args := []string{
		"--json",
		"--no-git-ignore",
		"--metrics=off",
		"--disable-version-check",
		"--no-force-color",
	}
	for _, rp := range s.RulePaths {
		args = append(args, "--config", rp)
	}
	args = append(args, files...)

	cmd := exec.CommandContext(ctx, "semgrep", args...)
	cmd.Dir = projectPath

	out, err := cmd.Output()
	// Exit codes: 0 no findings, 1 findings, 2/7 fatal-with-partial-results.
	// The JSON report is usable for all of them.
	if err != nil {
		ee, ok := err.(*exec.ExitError)
		if !ok {
			return nil, fmt.Errorf("semgrep: %w", err)
		}
		switch ee.ExitCode() {
		case 1, 2, 7:
		default:
			return nil, fmt.Errorf("semgrep: exit code %d: %s", ee.ExitCode(), strings.TrimSpace(string(ee.Stderr)))
		}
	}

	return s.parseOutput(out, projectPath)
}

func (s *Semgrep) parseOutput(out []byte, projectPath string) ([]domain.Finding, error) {
	// A progress bar may precede the report; cut down to the JSON object.
	text := string(out)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, nil
	}

	var report struct {
		Results []struct {
			CheckID string `json:"check_id"`
			Path    string `json:"path"`
			Start   struct {
				Line int `json:"line"`
				Col  int `json:"col"`
			} `json:"start"`
			Extra struct {
				Severity string `json:"severity"`
				Message  string `json:"message"`
				Lines    string `json:"lines"`
			} `json:"extra"`
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &report); err != nil {
		return nil, fmt.Errorf("semgrep: parse output: %w", err)
	}

	var findings []domain.Finding
	for _, r := range report.Results {
		rule := r.CheckID
		if rule == "" {
			rule = "unknown"
		}
		message := r.Extra.Message
		if message == "" {
			message = "Security/Quality issue detected"
		}
		findings = append(findings, domain.Finding{
			File:        normalizePath(r.Path, projectPath),
			Line:        r.Start.Line,
			Column:      r.Start.Col,
			Severity:    semgrepSeverity(r.Extra.Severity),
			Category:    semgrepCategory(r.CheckID),
			Rule:        rule,
			Message:     message,
			CodeSnippet: r.Extra.Lines,
			Tool:        "Semgrep",
		})
	}
	return findings, nil
}

func semgrepSeverity(sev string) domain.Severity {
	switch strings.ToUpper(sev) {
	case "ERROR":
		return domain.SeverityCritical
	case "WARNING":
		return domain.SeverityHigh
	case "INFO":
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

func semgrepCategory(checkID string) domain.Category {
	lower := strings.ToLower(checkID)
	for _, kw := range semgrepSecurityKeywords {
		if strings.Contains(lower, kw) {
			return domain.CategorySecurity
		}
	}
	for _, kw := range semgrepPerformanceKeywords {
		if strings.Contains(lower, kw) {
			return domain.CategoryPerformance
		}
	}
	return domain.CategoryQuality
}
