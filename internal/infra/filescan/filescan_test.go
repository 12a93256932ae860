package filescan

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// jsProject lays out a small npm-style project under a temp dir.
func jsProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "package.json"), "{}")
	writeFile(t, filepath.Join(root, "src", "index.js"), "console.log(1)\n")
	writeFile(t, filepath.Join(root, "src", "util.js"), "module.exports = {}\n")
	writeFile(t, filepath.Join(root, "node_modules", "lodash", "lodash.js"), "x")
	writeFile(t, filepath.Join(root, "app.min.js"), "x")
	return root
}

func TestScanProjectBuildsTree(t *testing.T) {
	root := jsProject(t)
	tree, err := NewScanner().ScanProject(root)
	require.NoError(t, err)

	assert.Equal(t, NodeDirectory, tree.Type)
	assert.Equal(t, 5, tree.CountFiles())

	// Directories sort before files.
	require.NotEmpty(t, tree.Children)
	assert.Equal(t, NodeDirectory, tree.Children[0].Type)

	var names []string
	for _, c := range tree.Children {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"node_modules", "src", "app.min.js", "package.json"}, names)
}

func TestScanProjectMissingPath(t *testing.T) {
	_, err := NewScanner().ScanProject(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, ErrPathNotFound)
}

func TestScanProjectFileIsNotADirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "f.txt"), "x")
	_, err := NewScanner().ScanProject(filepath.Join(root, "f.txt"))
	assert.ErrorIs(t, err, ErrPathNotFound)
}

func TestScanProjectDepthCap(t *testing.T) {
	root := t.TempDir()
	deep := root
	for i := 0; i < maxTreeDepth+3; i++ {
		deep = filepath.Join(deep, "d")
	}
	writeFile(t, filepath.Join(deep, "too-deep.js"), "x")

	tree, err := NewScanner().ScanProject(root)
	require.NoError(t, err)
	assert.Equal(t, 0, tree.CountFiles(), "entries below the depth cap are not scanned")
}

func TestDetectLanguage(t *testing.T) {
	s := NewScanner()

	assert.Equal(t, LangJavaScript, s.DetectLanguage(jsProject(t)))

	py := t.TempDir()
	writeFile(t, filepath.Join(py, "requirements.txt"), "flask\n")
	assert.Equal(t, LangPython, s.DetectLanguage(py))

	ts := t.TempDir()
	writeFile(t, filepath.Join(ts, "src", "main.ts"), "export {}\n")
	assert.Equal(t, LangTypeScript, s.DetectLanguage(ts))

	assert.Equal(t, LangUnknown, s.DetectLanguage(t.TempDir()))
}

func TestParseGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), `
# comment
*.log

dist/
!keep.log
`)

	rules := NewScanner().ParseGitignore(root)
	require.Len(t, rules, 3)
	assert.Equal(t, FilterRule{Pattern: "*.log", Exclude: true, Description: "From .gitignore"}, rules[0])
	assert.Equal(t, FilterRule{Pattern: "dist/", Exclude: true, Description: "From .gitignore"}, rules[1])
	assert.Equal(t, FilterRule{Pattern: "keep.log", Exclude: false, Description: "From .gitignore"}, rules[2])
}

func TestParseGitignoreAbsent(t *testing.T) {
	assert.Nil(t, NewScanner().ParseGitignore(t.TempDir()))
}

func TestApplyFiltersWithPreset(t *testing.T) {
	root := jsProject(t)
	s := NewScanner()
	tree, err := s.ScanProject(root)
	require.NoError(t, err)

	preset, ok := LanguagePreset(LangJavaScript)
	require.True(t, ok)

	filtered, selected := ApplyFilters(tree, FilterConfig{
		ProjectPath: root,
		Presets:     []FilterPreset{preset},
		UsePresets:  true,
	})

	stats := CalculateStats(filtered)
	assert.Equal(t, 5, stats.TotalFiles)
	assert.Equal(t, 3, stats.SelectedFiles)
	assert.Equal(t, 2, stats.FilteredFiles)

	assert.ElementsMatch(t, []string{
		filepath.Join(tree.Path, "package.json"),
		filepath.Join(tree.Path, "src", "index.js"),
		filepath.Join(tree.Path, "src", "util.js"),
	}, selected)
}

func TestApplyFiltersLastRuleWins(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.log"), "x")
	writeFile(t, filepath.Join(root, "keep.log"), "x")

	tree, err := NewScanner().ScanProject(root)
	require.NoError(t, err)

	_, selected := ApplyFilters(tree, FilterConfig{
		ProjectPath:  root,
		UseGitignore: true,
		GitignoreRules: []FilterRule{
			{Pattern: "*.log", Exclude: true},
			{Pattern: "keep.log", Exclude: false},
		},
	})
	assert.Equal(t, []string{filepath.Join(tree.Path, "keep.log")}, selected)
}

func TestApplyFiltersParentMarkPropagates(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "vendor", "pkg", "lib.py"), "x")
	writeFile(t, filepath.Join(root, "main.py"), "x")

	tree, err := NewScanner().ScanProject(root)
	require.NoError(t, err)

	filtered, selected := ApplyFilters(tree, FilterConfig{
		ProjectPath: root,
		CustomRules: []FilterRule{{Pattern: "vendor/", Exclude: true}},
	})

	assert.Equal(t, []string{filepath.Join(tree.Path, "main.py")}, selected)

	vendor := filtered.Children[0]
	require.Equal(t, "vendor", vendor.Name)
	assert.True(t, vendor.Filtered)
	assert.True(t, vendor.Children[0].Filtered, "children inherit the parent mark")
}

func TestApplyFiltersDisabledGroupsIgnored(t *testing.T) {
	root := jsProject(t)
	tree, err := NewScanner().ScanProject(root)
	require.NoError(t, err)

	preset, _ := LanguagePreset(LangJavaScript)
	_, selected := ApplyFilters(tree, FilterConfig{
		ProjectPath: root,
		Presets:     []FilterPreset{preset},
		UsePresets:  false,
	})
	assert.Len(t, selected, 5, "disabled presets filter nothing")
}

func TestFilterConfigJSONDefaults(t *testing.T) {
	var cfg FilterConfig
	require.NoError(t, json.Unmarshal([]byte(`{"project_path":"/p"}`), &cfg))
	assert.True(t, cfg.UsePresets)
	assert.True(t, cfg.UseGitignore)

	require.NoError(t, json.Unmarshal([]byte(`{"use_presets":false,"use_gitignore":false}`), &cfg))
	assert.False(t, cfg.UsePresets)
	assert.False(t, cfg.UseGitignore)
}
