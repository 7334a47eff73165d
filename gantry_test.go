package gantry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gantry-io/gantry/env"
	"github.com/gantry-io/gantry/errz"
	"github.com/gantry-io/gantry/graph"
	"github.com/gantry-io/gantry/source"
	"github.com/gantry-io/gantry/unit"
)

func unitBytes(t *testing.T, name string, constants ...any) []byte {
	t.Helper()
	data, err := unit.Marshal(unit.New(unit.Params{
		Name:         name,
		Constants:    constants,
		Instructions: []uint32{1},
	}))
	require.Nil(t, err)
	return data
}

func TestActivateAndLookup(t *testing.T) {
	ctx := context.Background()
	g := graph.New()
	require.Nil(t, g.Declare("app", "lib"))
	rt := New(WithGraph(g))

	_, err := rt.Activate(ctx, "app", source.Map{
		"assets/banner.txt": []byte("hello"),
	})
	require.Nil(t, err)
	_, err = rt.Activate(ctx, "lib", source.Map{
		"text/upper.unit": unitBytes(t, "text.upper"),
	})
	require.Nil(t, err)

	require.Equal(t, []string{"app", "lib"}, rt.ActiveModules())

	u, err := rt.LookupSymbol(ctx, "app", "text.upper")
	require.Nil(t, err)
	require.Equal(t, "text.upper", u.Name())

	bs, err := rt.LookupOwnResource(ctx, "app", "assets/banner.txt")
	require.Nil(t, err)
	data, err := bs.ReadAll(ctx)
	require.Nil(t, err)
	require.Equal(t, []byte("hello"), data)

	// Resources never delegate.
	_, err = rt.LookupOwnResource(ctx, "app", "text/upper.unit")
	require.ErrorIs(t, err, source.ErrNotFound)
}

func TestActivateTwice(t *testing.T) {
	ctx := context.Background()
	rt := New()

	_, err := rt.Activate(ctx, "app", source.Map{})
	require.Nil(t, err)
	_, err = rt.Activate(ctx, "app", source.Map{})
	require.Equal(t, errz.KindModuleAlreadyActive, errz.KindOf(err))
}

func TestDeactivate(t *testing.T) {
	ctx := context.Background()
	environ := env.NewMem()
	rt := New(WithEnvironment(environ))

	_, err := rt.Activate(ctx, "app", source.Map{
		"text/upper.unit": unitBytes(t, "text.upper"),
	})
	require.Nil(t, err)

	_, err = rt.LookupSymbol(ctx, "app", "text.upper")
	require.Nil(t, err)
	_, ok := environ.Lookup("app", "text.upper")
	require.True(t, ok)

	require.Nil(t, rt.Deactivate(ctx, "app"))

	// The namespace is gone along with the loader.
	_, ok = environ.Lookup("app", "text.upper")
	require.False(t, ok)

	_, err = rt.LookupSymbol(ctx, "app", "text.upper")
	require.True(t, errz.IsNotActive(err))
	_, err = rt.LookupOwnResource(ctx, "app", "anything")
	require.True(t, errz.IsNotActive(err))
	require.True(t, errz.IsNotActive(rt.Deactivate(ctx, "app")))
}

func TestDeactivateDuringDefine(t *testing.T) {
	ctx := context.Background()
	environ := env.NewMem()
	rt := New(WithEnvironment(environ))

	payload := unitBytes(t, "core.hash")
	entered := make(chan struct{})
	release := make(chan struct{})
	blocking := source.Func(func(ctx context.Context, name string) (source.ByteSource, error) {
		close(entered)
		<-release
		return source.FromBytes(name, payload), nil
	})

	_, err := rt.Activate(ctx, "app", blocking)
	require.Nil(t, err)

	lookupErr := make(chan error, 1)
	go func() {
		_, err := rt.LookupSymbol(ctx, "app", "core.hash")
		lookupErr <- err
	}()

	<-entered
	require.Nil(t, rt.Deactivate(ctx, "app"))
	close(release)

	// The definition that was in flight loses the race and must not
	// resurrect the dropped namespace.
	require.True(t, errz.IsNotActive(<-lookupErr))
	_, ok := environ.Lookup("app", "core.hash")
	require.False(t, ok)

	// Reactivation starts from a clean namespace.
	_, err = rt.Activate(ctx, "app", source.Map{
		"core/hash.unit": payload,
	})
	require.Nil(t, err)
	u, err := rt.LookupSymbol(ctx, "app", "core.hash")
	require.Nil(t, err)
	require.Equal(t, "core.hash", u.Name())
}

func TestLookupUnknownModule(t *testing.T) {
	ctx := context.Background()
	rt := New()

	_, err := rt.LookupSymbol(ctx, "ghost", "any.symbol")
	var notActive *errz.NotActiveError
	require.ErrorAs(t, err, &notActive)
	require.Equal(t, "ghost", notActive.Module)
}

func TestReactivationGetsFreshLoader(t *testing.T) {
	ctx := context.Background()
	g := graph.New()
	require.Nil(t, g.Declare("app", "lib"))
	rt := New(WithGraph(g))

	_, err := rt.Activate(ctx, "app", source.Map{})
	require.Nil(t, err)
	first, err := rt.Activate(ctx, "lib", source.Map{
		"text/upper.unit": unitBytes(t, "text.upper"),
	})
	require.Nil(t, err)

	// While lib is down, delegation skips it and the symbol is unreachable.
	require.Nil(t, rt.Deactivate(ctx, "lib"))
	_, err = rt.LookupSymbol(ctx, "app", "text.upper")
	require.True(t, errz.IsNotFound(err))

	second, err := rt.Activate(ctx, "lib", source.Map{
		"text/upper.unit": unitBytes(t, "text.upper"),
	})
	require.Nil(t, err)
	require.NotEqual(t, first.Activation(), second.Activation())

	u, err := rt.LookupSymbol(ctx, "app", "text.upper")
	require.Nil(t, err)
	require.Equal(t, "text.upper", u.Name())
}

func TestDelegationThroughRuntime(t *testing.T) {
	ctx := context.Background()
	g := graph.New()
	require.Nil(t, g.Declare("app", "first", "second"))
	rt := New(WithGraph(g))

	for id, marker := range map[string]string{"first": "one", "second": "two"} {
		_, err := rt.Activate(ctx, id, source.Map{
			"pick/me.unit": unitBytes(t, "pick.me", marker),
		})
		require.Nil(t, err)
	}
	_, err := rt.Activate(ctx, "app", source.Map{})
	require.Nil(t, err)

	u, err := rt.LookupSymbol(ctx, "app", "pick.me")
	require.Nil(t, err)
	require.Equal(t, "one", u.ConstantAt(0))
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	rt := New()

	_, err := rt.Activate(ctx, "a", source.Map{})
	require.Nil(t, err)
	_, err = rt.Activate(ctx, "b", source.Map{})
	require.Nil(t, err)

	require.Nil(t, rt.Close(ctx))
	require.Empty(t, rt.ActiveModules())

	_, err = rt.LookupSymbol(ctx, "a", "x")
	require.True(t, errz.IsNotActive(err))
}
