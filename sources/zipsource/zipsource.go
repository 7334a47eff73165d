// Package zipsource provides a zip-archive-backed module source, the
// bundle format module resources ship in.
package zipsource

import (
	"archive/zip"
	"context"
	"fmt"
	"io"

	"github.com/gantry-io/gantry/source"
)

// Source serves module resources from a zip archive.
type Source struct {
	index  map[string]*zip.File
	closer io.Closer
}

// Open opens the zip archive at path. The caller must Close the source
// when done with it.
func Open(path string) (*Source, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("zipsource: open %s: %w", path, err)
	}
	s := fromReader(&rc.Reader)
	s.closer = rc
	return s, nil
}

// NewReader reads a zip archive of the given size from r.
func NewReader(r io.ReaderAt, size int64) (*Source, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("zipsource: read archive: %w", err)
	}
	return fromReader(zr), nil
}

func fromReader(zr *zip.Reader) *Source {
	index := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		index[f.Name] = f
	}
	return &Source{index: index}
}

// Find returns the archive entry named name. Directory entries are not
// resources.
func (s *Source) Find(ctx context.Context, name string) (source.ByteSource, error) {
	f, ok := s.index[name]
	if !ok || f.FileInfo().IsDir() {
		return nil, source.ErrNotFound
	}
	return source.New(name, func(context.Context) ([]byte, error) {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("zipsource: open entry %s: %w", name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}), nil
}

// Names returns the resource names present in the archive.
func (s *Source) Names() []string {
	names := make([]string, 0, len(s.index))
	for name, f := range s.index {
		if f.FileInfo().IsDir() {
			continue
		}
		names = append(names, name)
	}
	return names
}

// Close closes the underlying archive file, if this source owns one.
func (s *Source) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
