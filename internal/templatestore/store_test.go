package templatestore

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileIsEmptyStore(t *testing.T) {
	templates, err := Load(filepath.Join(t.TempDir(), "templates.json"))
	require.NoError(t, err)
	assert.Empty(t, templates)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.json")

	in := map[uint16]string{
		150: "Your order {0} has shipped.",
		224: "Thanks for contacting {0} support.",
	}
	require.NoError(t, Save(path, in))

	out, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoad_MalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedStore)
}

func TestLoad_BadTemplateID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.json")
	content := `{"templates": {"not-a-number": {"pattern": "x"}}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrMalformedStore)

	// IDs beyond uint16 are out of range too.
	content = `{"templates": {"70000": {"pattern": "x"}}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err = Load(path)
	assert.ErrorIs(t, err, ErrMalformedStore)
}

func TestLoad_SkipsBuiltinIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.json")
	content := `{"templates": {"1": {"pattern": "shadowed"}, "100": {"pattern": "kept {0}"}}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	templates, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, map[uint16]string{100: "kept {0}"}, templates)
}

func TestSave_DropsBuiltinIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.json")

	require.NoError(t, Save(path, map[uint16]string{
		1:   "I cannot {0}.",
		100: "custom {0}",
	}))

	templates, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, map[uint16]string{100: "custom {0}"}, templates)
}

func TestSave_PreservesCreatedAt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.json")
	content := `{"templates": {"100": {"pattern": "old {0}", "created_at": 1700000000}}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	require.NoError(t, Save(path, map[uint16]string{
		100: "updated {0}",
		150: "brand new {0}",
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"created_at": 1700000000`)
	assert.Contains(t, string(data), "updated {0}")
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "templates.json")

	var (
		mu     sync.Mutex
		loaded map[uint16]string
	)
	w, err := NewWatcher(path, func(templates map[uint16]string) {
		mu.Lock()
		loaded = templates
		mu.Unlock()
	}, nil)
	require.NoError(t, err)
	t.Cleanup(w.Stop)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, w.Start(ctx))

	require.NoError(t, Save(path, map[uint16]string{150: "shipped {0}"}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return loaded != nil && loaded[150] == "shipped {0}"
	}, 5*time.Second, 50*time.Millisecond)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "templates.json")

	reloads := make(chan struct{}, 8)
	w, err := NewWatcher(path, func(map[uint16]string) {
		reloads <- struct{}{}
	}, nil)
	require.NoError(t, err)
	t.Cleanup(w.Stop)

	require.NoError(t, w.Start(context.Background()))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0o600))

	select {
	case <-reloads:
		t.Fatal("unrelated file triggered a reload")
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "templates.json"), func(map[uint16]string) {}, nil)
	require.NoError(t, err)

	w.Stop()
	w.Stop()
}
