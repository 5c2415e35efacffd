package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainconfig "calibrate-backend/domain/config"
)

func writeTuningFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewTuningWatcher_LoadsOverlay(t *testing.T) {
	path := writeTuningFile(t, t.TempDir(), "stable_min: 80\nstable_day_threshold: 21\n")

	w, err := NewTuningWatcher(path, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	tuning := w.Current()
	assert.Equal(t, 80.0, tuning.StableMin)
	assert.Equal(t, 21, tuning.StableDayThreshold)
	// Fields the overlay does not name keep their defaults.
	assert.Equal(t, domainconfig.DefaultTuning().WindowSize, tuning.WindowSize)
}

func TestNewTuningWatcher_MissingFile(t *testing.T) {
	_, err := NewTuningWatcher(filepath.Join(t.TempDir(), "absent.yaml"), zap.NewNop())
	assert.Error(t, err)
}

func TestTuningWatcher_ReloadOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writeTuningFile(t, dir, "stable_min: 75\n")

	w, err := NewTuningWatcher(path, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	changed := make(chan *domainconfig.Tuning, 1)
	w.OnChange(func(next *domainconfig.Tuning) {
		changed <- next
	})

	writeTuningFile(t, dir, "stable_min: 85\n")
	w.handleChange()

	next := <-changed
	assert.Equal(t, 85.0, next.StableMin)
	assert.Equal(t, 85.0, w.Current().StableMin)
}

func TestTuningWatcher_BadReloadKeepsCurrent(t *testing.T) {
	dir := t.TempDir()
	path := writeTuningFile(t, dir, "stable_min: 75\n")

	w, err := NewTuningWatcher(path, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	// A reload that fails validation must not replace the active tuning.
	writeTuningFile(t, dir, "stable_min: 20\nred_flag_max: 30\n")
	w.handleChange()

	assert.Equal(t, 75.0, w.Current().StableMin)
}
