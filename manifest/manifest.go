// Package manifest defines the YAML description of a loadable module:
// its identity, the modules it depends on, and where its resources live.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/gantry-io/gantry/graph"
)

// Source kinds understood by the runtime.
const (
	KindDir      = "dir"
	KindZip      = "zip"
	KindS3       = "s3"
	KindDynamoDB = "dynamodb"
	KindPostgres = "postgres"
)

// SourceSpec describes where a module's resources are stored. Kind
// selects the backend; the remaining fields apply per kind.
type SourceSpec struct {
	Kind   string `yaml:"kind" json:"kind"`
	Path   string `yaml:"path,omitempty" json:"path,omitempty"`
	Bucket string `yaml:"bucket,omitempty" json:"bucket,omitempty"`
	Prefix string `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	Region string `yaml:"region,omitempty" json:"region,omitempty"`
	Table  string `yaml:"table,omitempty" json:"table,omitempty"`
	DSN    string `yaml:"dsn,omitempty" json:"dsn,omitempty"`
}

// Manifest describes one module.
type Manifest struct {
	ID           string     `yaml:"id" json:"id"`
	Name         string     `yaml:"name,omitempty" json:"name,omitempty"`
	Version      string     `yaml:"version,omitempty" json:"version,omitempty"`
	Dependencies []string   `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
	Source       SourceSpec `yaml:"source" json:"source"`
}

// File pairs a parsed manifest with its on-disk path.
type File struct {
	Manifest Manifest
	Path     string
}

// Parse decodes and validates a single manifest payload.
func Parse(data []byte) (Manifest, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Manifest{}, fmt.Errorf("manifest: payload is empty")
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("manifest: decode: %w", err)
	}
	m = m.normalized()
	if err := m.Validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// ParseFile reads and parses the manifest at path.
func ParseFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return File{}, fmt.Errorf("manifest: %s: %w", path, err)
	}
	return File{Manifest: m, Path: filepath.Clean(path)}, nil
}

// LoadDir scans dir for *.yaml manifests, sorted by path. A missing
// directory yields no manifests.
func LoadDir(dir string) ([]File, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(trimmed)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("manifest: read %s: %w", trimmed, err)
	}
	var files []File
	for _, entry := range entries {
		if entry.IsDir() || !isYAMLFile(entry.Name()) {
			continue
		}
		f, err := ParseFile(filepath.Join(trimmed, entry.Name()))
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Validate reports every problem with the manifest, not just the first.
func (m Manifest) Validate() error {
	var result *multierror.Error
	if m.ID == "" {
		result = multierror.Append(result, fmt.Errorf("manifest: id is required"))
	}
	seen := make(map[string]struct{}, len(m.Dependencies))
	for _, dep := range m.Dependencies {
		if dep == "" {
			result = multierror.Append(result, fmt.Errorf("manifest: empty dependency id"))
			continue
		}
		if dep == m.ID {
			result = multierror.Append(result,
				fmt.Errorf("manifest: module %q depends on itself", m.ID))
		}
		if _, dup := seen[dep]; dup {
			result = multierror.Append(result,
				fmt.Errorf("manifest: duplicate dependency %q", dep))
		}
		seen[dep] = struct{}{}
	}
	result = multierror.Append(result, m.Source.validate())
	return result.ErrorOrNil()
}

func (s SourceSpec) validate() error {
	var result *multierror.Error
	missing := func(field string) error {
		return fmt.Errorf("manifest: source kind %q requires %s", s.Kind, field)
	}
	switch s.Kind {
	case KindDir, KindZip:
		if s.Path == "" {
			result = multierror.Append(result, missing("path"))
		}
	case KindS3:
		if s.Bucket == "" {
			result = multierror.Append(result, missing("bucket"))
		}
	case KindDynamoDB:
		if s.Table == "" {
			result = multierror.Append(result, missing("table"))
		}
	case KindPostgres:
		if s.DSN == "" {
			result = multierror.Append(result, missing("dsn"))
		}
	case "":
		result = multierror.Append(result, fmt.Errorf("manifest: source kind is required"))
	default:
		result = multierror.Append(result,
			fmt.Errorf("manifest: unknown source kind %q", s.Kind))
	}
	return result.ErrorOrNil()
}

func (m Manifest) normalized() Manifest {
	clone := m
	clone.ID = strings.TrimSpace(m.ID)
	clone.Name = strings.TrimSpace(m.Name)
	clone.Version = strings.TrimSpace(m.Version)
	clone.Source.Kind = strings.TrimSpace(strings.ToLower(m.Source.Kind))
	if len(m.Dependencies) > 0 {
		clone.Dependencies = make([]string, len(m.Dependencies))
		for i, dep := range m.Dependencies {
			clone.Dependencies[i] = strings.TrimSpace(dep)
		}
	}
	return clone
}

// Graph declares every manifest, in order, into a new dependency graph.
func Graph(manifests []Manifest) (*graph.Graph, error) {
	g := graph.New()
	for _, m := range manifests {
		if err := g.Declare(m.ID, m.Dependencies...); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func isYAMLFile(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}
