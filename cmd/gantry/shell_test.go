package main

import (
	"bytes"
	"context"
	"os"
	"testing"

	"atomicgo.dev/keyboard/keys"
	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/gantry-io/gantry/internal/config"
	"github.com/gantry-io/gantry/unit"
)

// newTestShell activates app -> util from temp manifests and returns a
// shell over the session.
func newTestShell(t *testing.T) *shell {
	t.Helper()
	ctx := context.Background()

	units := t.TempDir()
	writeUnitFile(t, units, "util/strings.unit", unit.Params{
		Name:         "util.strings",
		Symbols:      []string{"upper"},
		Instructions: []uint32{1},
	})
	appUnits := t.TempDir()
	require.Nil(t, os.MkdirAll(appUnits+"/assets", 0o755))
	require.Nil(t, os.WriteFile(appUnits+"/assets/schema.json", []byte(`{}`), 0o644))

	manifests := t.TempDir()
	writeManifest(t, manifests, "util.yaml",
		"id: util\nsource:\n  kind: dir\n  path: "+units+"\n")
	writeManifest(t, manifests, "app.yaml",
		"id: app\ndependencies: [util]\nsource:\n  kind: dir\n  path: "+appUnits+"\n")

	a := &app{
		cfg:         &config.Config{},
		log:         zerolog.Nop(),
		manifestDir: manifests,
	}
	sess, err := a.openSession(ctx)
	require.Nil(t, err)
	t.Cleanup(func() { sess.Close(ctx) })

	return &shell{ctx: ctx, sess: sess}
}

// captureStdout runs fn and returns what it printed.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	oldNoColor := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = oldNoColor }()

	old := os.Stdout
	r, w, err := os.Pipe()
	require.Nil(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	return buf.String()
}

func TestShellList(t *testing.T) {
	sh := newTestShell(t)
	out := captureStdout(t, func() { sh.execute("list") })
	require.Contains(t, out, "app -> util")
	require.Contains(t, out, "util")
}

func TestShellOrder(t *testing.T) {
	sh := newTestShell(t)
	out := captureStdout(t, func() { sh.execute("order") })
	require.Contains(t, out, "util -> app")
}

func TestShellLookup(t *testing.T) {
	sh := newTestShell(t)
	out := captureStdout(t, func() { sh.execute("lookup app util.strings") })
	require.Contains(t, out, "unit util.strings")
}

func TestShellResource(t *testing.T) {
	sh := newTestShell(t)
	out := captureStdout(t, func() { sh.execute("resource app assets/schema.json") })
	require.Contains(t, out, "2 bytes")
}

func TestShellDeactivateAndReactivate(t *testing.T) {
	sh := newTestShell(t)

	out := captureStdout(t, func() { sh.execute("deactivate util") })
	require.Contains(t, out, "deactivated util")

	out = captureStdout(t, func() { sh.execute("lookup app util.strings") })
	require.Contains(t, out, "not found")

	out = captureStdout(t, func() { sh.execute("activate util") })
	require.Contains(t, out, "activated util")

	out = captureStdout(t, func() { sh.execute("lookup app util.strings") })
	require.Contains(t, out, "unit util.strings")
}

func TestShellUnknownCommand(t *testing.T) {
	sh := newTestShell(t)
	out := captureStdout(t, func() { sh.execute("bogus") })
	require.Contains(t, out, "unknown command")
}

func TestShellUsageErrors(t *testing.T) {
	sh := newTestShell(t)
	out := captureStdout(t, func() { sh.execute("lookup app") })
	require.Contains(t, out, "usage: lookup MODULE SYMBOL")
}

func TestShellQuit(t *testing.T) {
	sh := newTestShell(t)
	require.True(t, sh.execute("quit"))
	require.True(t, sh.execute("exit"))
	require.False(t, sh.execute("help"))
}

func TestShellKeyEditing(t *testing.T) {
	sh := newTestShell(t)

	out := captureStdout(t, func() {
		stop, err := sh.handleKey(keys.Key{Code: keys.RuneKey, Runes: []rune("listX")})
		require.False(t, stop)
		require.Nil(t, err)
		stop, err = sh.handleKey(keys.Key{Code: keys.Backspace})
		require.False(t, stop)
		require.Nil(t, err)
		stop, err = sh.handleKey(keys.Key{Code: keys.Enter})
		require.False(t, stop)
		require.Nil(t, err)
	})
	require.Contains(t, out, "app -> util")
	require.Equal(t, []string{"list"}, sh.history)
}

func TestShellHistoryRecall(t *testing.T) {
	sh := newTestShell(t)
	captureStdout(t, func() {
		sh.handleKey(keys.Key{Code: keys.RuneKey, Runes: []rune("help")})
		sh.handleKey(keys.Key{Code: keys.Enter})
		sh.handleKey(keys.Key{Code: keys.Up})
	})
	require.Equal(t, "help", string(sh.buf))
}

func TestShellCtrlCStops(t *testing.T) {
	sh := newTestShell(t)
	captureStdout(t, func() {
		stop, err := sh.handleKey(keys.Key{Code: keys.CtrlC})
		require.True(t, stop)
		require.Nil(t, err)
	})
}

func TestShellQuitViaEnter(t *testing.T) {
	sh := newTestShell(t)
	captureStdout(t, func() {
		sh.handleKey(keys.Key{Code: keys.RuneKey, Runes: []rune("quit")})
		stop, err := sh.handleKey(keys.Key{Code: keys.Enter})
		require.True(t, stop)
		require.Nil(t, err)
	})
}
