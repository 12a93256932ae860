package filescan

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// FilterRule is one glob pattern in gitignore syntax. Exclude=false
// re-includes paths a previous rule excluded.
type FilterRule struct {
	Pattern     string `json:"pattern"`
	Exclude     bool   `json:"exclude"`
	Description string `json:"description,omitempty"`
}

// FilterPreset bundles the default exclusions for a language ecosystem.
type FilterPreset struct {
	Language Language     `json:"language"`
	Rules    []FilterRule `json:"rules"`
}

// FilterConfig is the full filter state a client applies, exports, or
// imports. Rule precedence is presets, then gitignore rules, then custom
// rules; the last matching rule wins.
type FilterConfig struct {
	ProjectPath    string         `json:"project_path"`
	Presets        []FilterPreset `json:"presets"`
	GitignoreRules []FilterRule   `json:"gitignore_rules"`
	CustomRules    []FilterRule   `json:"custom_rules"`
	UsePresets     bool           `json:"use_presets"`
	UseGitignore   bool           `json:"use_gitignore"`
}

// UnmarshalJSON defaults use_presets and use_gitignore to true when the
// fields are absent.
func (c *FilterConfig) UnmarshalJSON(data []byte) error {
	type plain FilterConfig
	tmp := plain{UsePresets: true, UseGitignore: true}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*c = FilterConfig(tmp)
	return nil
}

// FilterStats summarizes a filtered tree.
type FilterStats struct {
	TotalFiles    int `json:"total_files"`
	SelectedFiles int `json:"selected_files"`
	FilteredFiles int `json:"filtered_files"`
}

var presets = map[Language]FilterPreset{
	LangJavaScript: {
		Language: LangJavaScript,
		Rules: []FilterRule{
			{Pattern: "node_modules/**", Exclude: true, Description: "Dependencies"},
			{Pattern: "dist/**", Exclude: true, Description: "Build output"},
			{Pattern: "build/**", Exclude: true, Description: "Build output"},
			{Pattern: "coverage/**", Exclude: true, Description: "Test coverage"},
			{Pattern: "*.min.js", Exclude: true, Description: "Minified files"},
			{Pattern: "*.log", Exclude: true, Description: "Log files"},
		},
	},
	LangTypeScript: {
		Language: LangTypeScript,
		Rules: []FilterRule{
			{Pattern: "node_modules/**", Exclude: true, Description: "Dependencies"},
			{Pattern: "dist/**", Exclude: true, Description: "Build output"},
			{Pattern: "build/**", Exclude: true, Description: "Build output"},
			{Pattern: "coverage/**", Exclude: true, Description: "Test coverage"},
			{Pattern: "*.min.js", Exclude: true, Description: "Minified files"},
			{Pattern: "*.d.ts", Exclude: true, Description: "Type declarations"},
			{Pattern: "*.log", Exclude: true, Description: "Log files"},
		},
	},
	LangPython: {
		Language: LangPython,
		Rules: []FilterRule{
			{Pattern: "__pycache__/**", Exclude: true, Description: "Bytecode cache"},
			{Pattern: "*.pyc", Exclude: true, Description: "Compiled files"},
			{Pattern: "venv/**", Exclude: true, Description: "Virtual environment"},
			{Pattern: ".venv/**", Exclude: true, Description: "Virtual environment"},
			{Pattern: "env/**", Exclude: true, Description: "Virtual environment"},
			{Pattern: ".pytest_cache/**", Exclude: true, Description: "Test cache"},
			{Pattern: "*.egg-info/**", Exclude: true, Description: "Package metadata"},
			{Pattern: "*.log", Exclude: true, Description: "Log files"},
		},
	},
}

// LanguagePreset returns the default exclusion rules for a detected
// language, if one exists.
func LanguagePreset(lang Language) (FilterPreset, bool) {
	p, ok := presets[lang]
	return p, ok
}

// ApplyFilters returns a copy of the tree with Filtered set on every node
// matched by the active rules (children of a filtered directory inherit the
// mark), together with the remaining selected file paths.
func ApplyFilters(tree *FileNode, cfg FilterConfig) (*FileNode, []string) {
	var rules []FilterRule
	if cfg.UsePresets {
		for _, p := range cfg.Presets {
			rules = append(rules, p.Rules...)
		}
	}
	if cfg.UseGitignore {
		rules = append(rules, cfg.GitignoreRules...)
	}
	rules = append(rules, cfg.CustomRules...)

	matcher := newRuleMatcher(rules)
	filtered := filterNode(tree, matcher, tree.Path, false)
	return filtered, filtered.SelectedPaths()
}

func newRuleMatcher(rules []FilterRule) gitignore.Matcher {
	patterns := make([]gitignore.Pattern, 0, len(rules))
	for _, rule := range rules {
		p := rule.Pattern
		if !rule.Exclude {
			p = "!" + p
		}
		patterns = append(patterns, gitignore.ParsePattern(p, nil))
	}
	return gitignore.NewMatcher(patterns)
}

func filterNode(n *FileNode, matcher gitignore.Matcher, root string, parentFiltered bool) *FileNode {
	out := &FileNode{
		Name:     n.Name,
		Path:     n.Path,
		Type:     n.Type,
		Size:     n.Size,
		Filtered: parentFiltered,
	}
	if !out.Filtered {
		rel, err := filepath.Rel(root, n.Path)
		if err == nil && rel != "." {
			parts := strings.Split(filepath.ToSlash(rel), "/")
			out.Filtered = matcher.Match(parts, n.Type == NodeDirectory)
		}
	}
	for _, c := range n.Children {
		out.Children = append(out.Children, filterNode(c, matcher, root, out.Filtered))
	}
	return out
}

// CalculateStats counts totals over a filtered tree.
func CalculateStats(tree *FileNode) FilterStats {
	total := tree.CountFiles()
	filtered := tree.CountFilteredFiles()
	return FilterStats{
		TotalFiles:    total,
		SelectedFiles: total - filtered,
		FilteredFiles: filtered,
	}
}
