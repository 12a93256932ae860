package filescan

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Directory nesting below this depth is not descended into.
const maxTreeDepth = 10

var (
	ErrPathNotFound     = errors.New("project path does not exist")
	ErrPermissionDenied = errors.New("permission denied reading project path")
)

// languageMarkers are checked in order; the first language with a matching
// marker file or source extension wins.
var languageMarkers = []struct {
	lang  Language
	files []string
	exts  []string
}{
	{LangJavaScript, []string{"package.json"}, []string{".js", ".jsx"}},
	{LangTypeScript, []string{"tsconfig.json"}, []string{".ts", ".tsx"}},
	{LangPython, []string{"requirements.txt", "setup.py", "pyproject.toml"}, []string{".py"}},
}

// Scanner walks project directories into FileNode trees and inspects them
// for language markers and .gitignore rules.
type Scanner struct{}

func NewScanner() *Scanner {
	return &Scanner{}
}

// ScanProject builds the file tree rooted at path. Entries that cannot be
// read are skipped rather than failing the whole scan.
func (s *Scanner) ScanProject(path string) (*FileNode, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrPathNotFound, path)
	}
	return s.buildTree(abs, info.Name(), 0), nil
}

func (s *Scanner) buildTree(path, name string, depth int) *FileNode {
	node := &FileNode{Name: name, Path: path, Type: NodeDirectory}
	if depth >= maxTreeDepth {
		return node
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return node
	}
	sortEntries(entries)

	for _, entry := range entries {
		childPath := filepath.Join(path, entry.Name())
		if entry.IsDir() {
			node.Children = append(node.Children, s.buildTree(childPath, entry.Name(), depth+1))
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		node.Children = append(node.Children, &FileNode{
			Name: entry.Name(),
			Path: childPath,
			Type: NodeFile,
			Size: info.Size(),
		})
	}
	return node
}

// sortEntries orders directories before files, each group case-insensitively
// by name.
func sortEntries(entries []fs.DirEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return strings.ToLower(entries[i].Name()) < strings.ToLower(entries[j].Name())
	})
}

// DetectLanguage inspects the project root for marker files, then falls back
// to searching for source files by extension.
func (s *Scanner) DetectLanguage(projectPath string) Language {
	for _, marker := range languageMarkers {
		for _, f := range marker.files {
			if _, err := os.Stat(filepath.Join(projectPath, f)); err == nil {
				return marker.lang
			}
		}
	}
	for _, marker := range languageMarkers {
		if containsExtension(projectPath, marker.exts) {
			return marker.lang
		}
	}
	return LangUnknown
}

func containsExtension(root string, exts []string) bool {
	found := false
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		for _, e := range exts {
			if ext == e {
				found = true
				return filepath.SkipAll
			}
		}
		return nil
	})
	return found
}

// ParseGitignore reads the project's top-level .gitignore into filter rules.
// A leading "!" marks a re-include rule. Returns nil when no .gitignore
// exists.
func (s *Scanner) ParseGitignore(projectPath string) []FilterRule {
	f, err := os.Open(filepath.Join(projectPath, ".gitignore"))
	if err != nil {
		return nil
	}
	defer f.Close()

	var rules []FilterRule
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rule := FilterRule{Pattern: line, Exclude: true, Description: "From .gitignore"}
		if strings.HasPrefix(line, "!") {
			rule.Pattern = line[1:]
			rule.Exclude = false
		}
		rules = append(rules, rule)
	}
	return rules
}
