// Package dirsource provides a directory-backed module source: each
// resource name resolves to a file path under a root directory.
package dirsource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gantry-io/gantry/source"
)

// Source serves module resources from a directory tree.
type Source struct {
	root string
}

// New returns a Source rooted at dir.
func New(dir string) *Source {
	return &Source{root: dir}
}

// Root returns the root directory resources are served from.
func (s *Source) Root() string {
	return s.root
}

// Find maps name to a file under the root directory. A missing file is
// source.ErrNotFound; any other failure to locate or read the file is an
// I/O error.
func (s *Source) Find(ctx context.Context, name string) (source.ByteSource, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, source.ErrNotFound
		}
		return nil, fmt.Errorf("dirsource: stat %s: %w", name, err)
	}
	if info.IsDir() {
		return nil, source.ErrNotFound
	}
	return source.New(name, func(context.Context) ([]byte, error) {
		return os.ReadFile(path)
	}), nil
}

// resolve joins name onto the root, rejecting names that escape it.
func (s *Source) resolve(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == ".." ||
		strings.HasPrefix(clean, ".."+string(filepath.Separator)) ||
		filepath.IsAbs(clean) {
		return "", fmt.Errorf("dirsource: invalid resource name %q", name)
	}
	return filepath.Join(s.root, clean), nil
}
