package fsreader

import (
	"fmt"
	"os"
	"path/filepath"
)

// Reader implements enrichment.ContentReader over the local filesystem.
type Reader struct{}

func New() Reader { return Reader{} }

// ReadFile resolves path against projectRoot (absolute paths pass through)
// and returns the file text. A missing file is a distinct error so callers
// can surface it on the specific finding.
func (Reader) ReadFile(path, projectRoot string) (string, error) {
	full := path
	if !filepath.IsAbs(path) {
		full = filepath.Join(projectRoot, path)
	}

	b, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %s", path)
		}
		return "", fmt.Errorf("error reading file %s: %w", path, err)
	}
	return string(b), nil
}
