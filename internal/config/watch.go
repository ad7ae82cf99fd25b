package config

import (
	"fmt"
	"path/filepath"
	"sync"

	"snatcher/internal/logger"
	"snatcher/internal/safety"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ChangeListener fires with the new safety thresholds after a reload.
type ChangeListener func(safety.Settings)

// Watcher re-reads the config file on change and pushes the safety
// section to its listeners. Only the safety block is hot; everything else
// needs a restart.
type Watcher struct {
	path string
	v    *viper.Viper

	mu        sync.Mutex
	current   safety.Settings
	listeners []ChangeListener
}

// NewWatcher loads the file once and starts watching it.
func NewWatcher(path string) (*Watcher, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
	}
	w := &Watcher{path: path, v: v}
	if err := w.reload(); err != nil {
		return nil, err
	}
	v.OnConfigChange(func(fsnotify.Event) {
		if err := w.reload(); err != nil {
			// A broken edit keeps the previous thresholds in force.
			logger.Errorf("config reload failed, keeping previous safety settings: %v", err)
			return
		}
		w.notifyListeners()
	})
	v.WatchConfig()
	return w, nil
}

// OnChange registers a listener for future reloads.
func (w *Watcher) OnChange(fn ChangeListener) {
	if fn == nil {
		return
	}
	w.mu.Lock()
	w.listeners = append(w.listeners, fn)
	w.mu.Unlock()
}

// Settings returns the safety thresholds from the last good load.
func (w *Watcher) Settings() safety.Settings {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

func (w *Watcher) reload() error {
	tmp := viper.New()
	tmp.SetConfigFile(w.path)
	if err := tmp.ReadInConfig(); err != nil {
		return err
	}
	cfg, err := decode(tmp)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.current = cfg.Safety.Settings()
	w.mu.Unlock()
	logger.Infof("safety settings loaded from %s (minLiquidity=%.0f)",
		filepath.Base(w.path), cfg.Safety.MinLiquidity)
	return nil
}

func (w *Watcher) notifyListeners() {
	w.mu.Lock()
	settings := w.current
	listeners := append([]ChangeListener(nil), w.listeners...)
	w.mu.Unlock()
	for _, fn := range listeners {
		go func(cb ChangeListener) {
			defer func() {
				if r := recover(); r != nil {
					logger.Errorf("settings listener panic: %v", r)
				}
			}()
			cb(settings)
		}(fn)
	}
}
