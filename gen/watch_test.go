package gen

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherTriggersOnYAMLChange(t *testing.T) {
	dir := t.TempDir()
	triggered := make(chan struct{}, 1)

	w, err := NewWatcher(dir, 20*time.Millisecond, func() {
		select {
		case triggered <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)
	w.Start()
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "keymap.yaml"), []byte("layers:\n"), 0o644))

	select {
	case <-triggered:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not trigger on yaml write")
	}
}

func TestWatcherIgnoresEditorArtifacts(t *testing.T) {
	dir := t.TempDir()
	triggered := make(chan struct{}, 1)

	w, err := NewWatcher(dir, 20*time.Millisecond, func() {
		select {
		case triggered <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)
	w.Start()
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".keymap.yaml.swp"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keymap.yaml~"), []byte("x"), 0o644))

	select {
	case <-triggered:
		t.Fatal("watcher triggered on editor artifact")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestIsConfigFile(t *testing.T) {
	assert.True(t, isConfigFile("config/keymap.yaml"))
	assert.True(t, isConfigFile("boards.yml"))
	assert.False(t, isConfigFile("keymap.yaml~"))
	assert.False(t, isConfigFile(".keymap.yaml.swp"))
	assert.False(t, isConfigFile("notes.txt"))
}
