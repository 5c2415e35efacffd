package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	domainconfig "calibrate-backend/domain/config"
)

// TuningWatcher watches the tuning overlay file and reloads it on change.
// A reload that fails to parse or validate keeps the current tuning, so a
// bad deploy of the overlay can never take scoring down.
type TuningWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	current  *domainconfig.Tuning
	mu       sync.RWMutex
	onChange []func(*domainconfig.Tuning)
	logger   *zap.Logger
	stopCh   chan struct{}
}

// NewTuningWatcher loads the tuning file and begins tracking it.
func NewTuningWatcher(path string, logger *zap.Logger) (*TuningWatcher, error) {
	tuning, err := loadTuningFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial tuning: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch tuning file: %w", err)
	}

	// Also watch the directory for atomic saves (rename operations)
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		logger.Warn("Failed to watch tuning directory", zap.Error(err))
	}

	return &TuningWatcher{
		path:    path,
		watcher: watcher,
		current: tuning,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}, nil
}

// Start begins watching for tuning changes
func (w *TuningWatcher) Start() {
	go w.watchLoop()
	w.logger.Info("Tuning watcher started", zap.String("path", w.path))
}

// Stop stops watching for tuning changes
func (w *TuningWatcher) Stop() {
	close(w.stopCh)
	w.watcher.Close()
	w.logger.Info("Tuning watcher stopped")
}

func (w *TuningWatcher) watchLoop() {
	// Debounce timer to avoid multiple reloads on editor save patterns
	var debounceTimer *time.Timer
	debounceDuration := 100 * time.Millisecond

	for {
		select {
		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDuration, func() {
					w.handleChange()
				})
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))
		}
	}
}

func (w *TuningWatcher) handleChange() {
	w.logger.Info("Tuning file changed, reloading", zap.String("path", w.path))

	tuning, err := loadTuningFromFile(w.path)
	if err != nil {
		w.logger.Error("Failed to reload tuning, keeping current", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.current = tuning
	handlers := w.onChange
	w.mu.Unlock()

	for _, handler := range handlers {
		go handler(tuning)
	}

	w.logger.Info("Tuning reloaded successfully",
		zap.Float64("stableMin", tuning.StableMin),
		zap.Int("stableDayThreshold", tuning.StableDayThreshold),
	)
}

// OnChange registers a callback for tuning changes
func (w *TuningWatcher) OnChange(handler func(*domainconfig.Tuning)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, handler)
}

// Current returns the active tuning
func (w *TuningWatcher) Current() *domainconfig.Tuning {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// loadTuningFromFile reads and validates a YAML tuning overlay
func loadTuningFromFile(path string) (*domainconfig.Tuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tuning file: %w", err)
	}
	return domainconfig.LoadTuning(data)
}
