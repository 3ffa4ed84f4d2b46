package gen

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/dario/keymapgen/errors"
)

// Writer persists one board's generated file set. The directory is relative
// to the configured output root.
type Writer interface {
	WriteFiles(dir string, files map[string]string) error
}

// FSWriter writes generated files under a root directory on disk.
type FSWriter struct {
	Root string
}

func (w *FSWriter) WriteFiles(dir string, files map[string]string) error {
	target := filepath.Join(w.Root, dir)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create output directory %s", target)
	}
	for name, content := range files {
		path := filepath.Join(target, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return errors.Wrapf(err, "failed to write %s", path)
		}
	}
	return nil
}

// MemWriter collects generated files in memory, keyed by dir-joined path.
type MemWriter struct {
	Files map[string]string
}

func NewMemWriter() *MemWriter {
	return &MemWriter{Files: make(map[string]string)}
}

func (w *MemWriter) WriteFiles(dir string, files map[string]string) error {
	for name, content := range files {
		w.Files[filepath.Join(dir, name)] = content
	}
	return nil
}

// Paths returns the written paths in sorted order.
func (w *MemWriter) Paths() []string {
	out := make([]string, 0, len(w.Files))
	for p := range w.Files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
