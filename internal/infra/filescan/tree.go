// Package filescan builds project file trees and applies exclusion filters
// (language presets, .gitignore rules, custom globs) to produce the file
// selections an analysis run starts from.
package filescan

type NodeType string

const (
	NodeFile      NodeType = "file"
	NodeDirectory NodeType = "directory"
)

type Language string

const (
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangPython     Language = "python"
	LangUnknown    Language = "unknown"
)

// FileNode is one entry of the scanned tree. Filtered marks entries excluded
// by the active filter rules; the tree shape itself is never pruned so the
// client can render exclusions.
type FileNode struct {
	Name     string      `json:"name"`
	Path     string      `json:"path"`
	Type     NodeType    `json:"type"`
	Children []*FileNode `json:"children,omitempty"`
	Size     int64       `json:"size,omitempty"`
	Filtered bool        `json:"filtered"`
}

// CountFiles counts every file in the tree, filtered or not.
func (n *FileNode) CountFiles() int {
	if n.Type == NodeFile {
		return 1
	}
	count := 0
	for _, c := range n.Children {
		count += c.CountFiles()
	}
	return count
}

// CountFilteredFiles counts files marked as excluded.
func (n *FileNode) CountFilteredFiles() int {
	if n.Type == NodeFile {
		if n.Filtered {
			return 1
		}
		return 0
	}
	count := 0
	for _, c := range n.Children {
		count += c.CountFilteredFiles()
	}
	return count
}

// SelectedPaths collects the paths of all non-filtered files.
func (n *FileNode) SelectedPaths() []string {
	var paths []string
	if n.Type == NodeFile && !n.Filtered {
		paths = append(paths, n.Path)
	}
	for _, c := range n.Children {
		paths = append(paths, c.SelectedPaths()...)
	}
	return paths
}
