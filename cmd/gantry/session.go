package main

import (
	"context"
	"fmt"

	"github.com/gantry-io/gantry"
	"github.com/gantry-io/gantry/manifest"
	"github.com/gantry-io/gantry/source"
	"github.com/gantry-io/gantry/sources/ddbsource"
	"github.com/gantry-io/gantry/sources/dirsource"
	"github.com/gantry-io/gantry/sources/pgsource"
	"github.com/gantry-io/gantry/sources/s3source"
	"github.com/gantry-io/gantry/sources/zipsource"
)

// session is a runtime with every manifest module activated, plus the
// cleanup hooks the backing sources need.
type session struct {
	rt        *gantry.Runtime
	manifests map[string]manifest.Manifest
	order     []string
	closers   []func() error
}

// loadManifests collects manifests from --manifest flags, --manifest-dir,
// and the configured manifest directory, in that order of preference.
func (a *app) loadManifests() ([]manifest.Manifest, error) {
	var manifests []manifest.Manifest
	for _, path := range a.manifestPaths {
		f, err := manifest.ParseFile(path)
		if err != nil {
			return nil, err
		}
		manifests = append(manifests, f.Manifest)
	}
	dir := a.manifestDir
	if dir == "" && len(manifests) == 0 {
		dir = a.cfg.Manifests.Dir
	}
	if dir != "" {
		files, err := manifest.LoadDir(dir)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			manifests = append(manifests, f.Manifest)
		}
	}
	if len(manifests) == 0 {
		return nil, fmt.Errorf("no module manifests given (use --manifest or --manifest-dir)")
	}
	return manifests, nil
}

// openSession builds the dependency graph from the selected manifests and
// activates every module in load order.
func (a *app) openSession(ctx context.Context) (*session, error) {
	manifests, err := a.loadManifests()
	if err != nil {
		return nil, err
	}
	g, err := manifest.Graph(manifests)
	if err != nil {
		return nil, err
	}
	order, err := g.LoadOrder()
	if err != nil {
		return nil, err
	}

	s := &session{
		rt:        gantry.New(gantry.WithGraph(g), gantry.WithLogger(a.log)),
		manifests: make(map[string]manifest.Manifest, len(manifests)),
		order:     order,
	}
	for _, m := range manifests {
		s.manifests[m.ID] = m
	}
	// Dependencies without a manifest of their own stay inactive; lookups
	// that reach them are skipped with a warning by the loader.
	for _, id := range order {
		if _, ok := s.manifests[id]; !ok {
			continue
		}
		if err := s.activate(ctx, id); err != nil {
			s.Close(ctx)
			return nil, err
		}
	}
	return s, nil
}

// activate builds the module's source from its manifest and registers a
// loader for it.
func (s *session) activate(ctx context.Context, id string) error {
	m, ok := s.manifests[id]
	if !ok {
		return fmt.Errorf("no manifest for module %q", id)
	}
	src, closer, err := buildSource(ctx, m)
	if err != nil {
		return fmt.Errorf("module %s: %w", id, err)
	}
	if closer != nil {
		s.closers = append(s.closers, closer)
	}
	if _, err := s.rt.Activate(ctx, id, src); err != nil {
		return err
	}
	return nil
}

// Close deactivates every module and releases the backing sources.
func (s *session) Close(ctx context.Context) {
	_ = s.rt.Close(ctx)
	for _, closer := range s.closers {
		_ = closer()
	}
}

// buildSource constructs the module source a manifest describes. The
// second return value, when non-nil, releases the source's handle.
func buildSource(ctx context.Context, m manifest.Manifest) (source.ModuleSource, func() error, error) {
	spec := m.Source
	switch spec.Kind {
	case manifest.KindDir:
		return dirsource.New(spec.Path), nil, nil
	case manifest.KindZip:
		src, err := zipsource.Open(spec.Path)
		if err != nil {
			return nil, nil, err
		}
		return src, src.Close, nil
	case manifest.KindS3:
		src, err := s3source.Connect(ctx, spec.Bucket, spec.Prefix, s3source.Options{
			Region: spec.Region,
		})
		if err != nil {
			return nil, nil, err
		}
		return src, nil, nil
	case manifest.KindDynamoDB:
		src, err := ddbsource.Connect(ctx, spec.Table, m.ID, spec.Region)
		if err != nil {
			return nil, nil, err
		}
		return src, nil, nil
	case manifest.KindPostgres:
		src, closeFn, err := pgsource.Connect(ctx, spec.DSN, m.ID)
		if err != nil {
			return nil, nil, err
		}
		return src, func() error { return closeFn(context.Background()) }, nil
	default:
		return nil, nil, fmt.Errorf("unknown source kind %q", spec.Kind)
	}
}
