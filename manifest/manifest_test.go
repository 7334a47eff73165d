package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	m, err := Parse([]byte(`
id: app
name: Application
version: 1.2.0
dependencies:
  - util
  - net
source:
  kind: dir
  path: ./units/app
`))
	require.Nil(t, err)
	require.Equal(t, "app", m.ID)
	require.Equal(t, "Application", m.Name)
	require.Equal(t, "1.2.0", m.Version)
	require.Equal(t, []string{"util", "net"}, m.Dependencies)
	require.Equal(t, KindDir, m.Source.Kind)
	require.Equal(t, "./units/app", m.Source.Path)
}

func TestParseNormalizesKind(t *testing.T) {
	m, err := Parse([]byte("id: app\nsource:\n  kind: S3\n  bucket: units\n"))
	require.Nil(t, err)
	require.Equal(t, KindS3, m.Source.Kind)
}

func TestParseEmpty(t *testing.T) {
	_, err := Parse([]byte("  \n\t"))
	require.NotNil(t, err)
}

func TestParseBadYAML(t *testing.T) {
	_, err := Parse([]byte("id: [unclosed"))
	require.NotNil(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		manifest Manifest
		want     string
	}{
		{
			name:     "missing id",
			manifest: Manifest{Source: SourceSpec{Kind: KindDir, Path: "x"}},
			want:     "id is required",
		},
		{
			name:     "missing kind",
			manifest: Manifest{ID: "app"},
			want:     "source kind is required",
		},
		{
			name:     "unknown kind",
			manifest: Manifest{ID: "app", Source: SourceSpec{Kind: "ftp"}},
			want:     `unknown source kind "ftp"`,
		},
		{
			name:     "dir without path",
			manifest: Manifest{ID: "app", Source: SourceSpec{Kind: KindDir}},
			want:     `source kind "dir" requires path`,
		},
		{
			name:     "zip without path",
			manifest: Manifest{ID: "app", Source: SourceSpec{Kind: KindZip}},
			want:     `source kind "zip" requires path`,
		},
		{
			name:     "s3 without bucket",
			manifest: Manifest{ID: "app", Source: SourceSpec{Kind: KindS3}},
			want:     `source kind "s3" requires bucket`,
		},
		{
			name:     "dynamodb without table",
			manifest: Manifest{ID: "app", Source: SourceSpec{Kind: KindDynamoDB}},
			want:     `source kind "dynamodb" requires table`,
		},
		{
			name:     "postgres without dsn",
			manifest: Manifest{ID: "app", Source: SourceSpec{Kind: KindPostgres}},
			want:     `source kind "postgres" requires dsn`,
		},
		{
			name: "self dependency",
			manifest: Manifest{
				ID:           "app",
				Dependencies: []string{"app"},
				Source:       SourceSpec{Kind: KindDir, Path: "x"},
			},
			want: `module "app" depends on itself`,
		},
		{
			name: "duplicate dependency",
			manifest: Manifest{
				ID:           "app",
				Dependencies: []string{"util", "util"},
				Source:       SourceSpec{Kind: KindDir, Path: "x"},
			},
			want: `duplicate dependency "util"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.manifest.Validate()
			require.NotNil(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	err := Manifest{Dependencies: []string{""}}.Validate()
	require.NotNil(t, err)
	require.Contains(t, err.Error(), "id is required")
	require.Contains(t, err.Error(), "empty dependency id")
	require.Contains(t, err.Error(), "source kind is required")
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	require.Nil(t, os.WriteFile(path,
		[]byte("id: app\nsource:\n  kind: dir\n  path: ./units\n"), 0o644))

	f, err := ParseFile(path)
	require.Nil(t, err)
	require.Equal(t, "app", f.Manifest.ID)
	require.Equal(t, filepath.Clean(path), f.Path)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.Nil(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write("b.yaml", "id: b\nsource:\n  kind: dir\n  path: ./b\n")
	write("a.yml", "id: a\nsource:\n  kind: dir\n  path: ./a\n")
	write("notes.txt", "not a manifest")

	files, err := LoadDir(dir)
	require.Nil(t, err)
	require.Len(t, files, 2)
	require.Equal(t, "a", files[0].Manifest.ID)
	require.Equal(t, "b", files[1].Manifest.ID)
}

func TestLoadDirMissing(t *testing.T) {
	files, err := LoadDir(filepath.Join(t.TempDir(), "absent"))
	require.Nil(t, err)
	require.Nil(t, files)
}

func TestGraph(t *testing.T) {
	g, err := Graph([]Manifest{
		{ID: "base", Source: SourceSpec{Kind: KindDir, Path: "x"}},
		{ID: "app", Dependencies: []string{"base"}, Source: SourceSpec{Kind: KindDir, Path: "y"}},
	})
	require.Nil(t, err)
	require.Equal(t, []string{"base"}, g.DependenciesOf("app"))

	order, err := g.LoadOrder()
	require.Nil(t, err)
	require.Equal(t, []string{"base", "app"}, order)
}

func TestGraphDuplicateModule(t *testing.T) {
	_, err := Graph([]Manifest{
		{ID: "app", Source: SourceSpec{Kind: KindDir, Path: "x"}},
		{ID: "app", Source: SourceSpec{Kind: KindDir, Path: "y"}},
	})
	require.NotNil(t, err)
}
