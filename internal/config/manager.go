package config

import (
	"context"
	"path/filepath"
	"reflect"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// Manager keeps the last good pipeline config in memory, writes mutations
// through the Store and reloads when the file changes on disk.
type Manager struct {
	mu      sync.RWMutex
	store   *Store
	config  *Config
	watcher *fsnotify.Watcher
	wg      sync.WaitGroup
	changes chan struct{}
	log     *log.Logger
}

func NewManager(store *Store, logger *log.Logger) (*Manager, error) {
	logger = logger.WithPrefix("config")

	config, err := store.Load()
	if err != nil {
		logger.Error("failed to load initial configuration", "err", err)
		return nil, err
	}

	m := &Manager{
		store:   store,
		config:  config,
		changes: make(chan struct{}, 1),
		log:     logger,
	}

	logger.Debug("configuration loaded", "path", store.Path())
	return m, nil
}

func (m *Manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Return a copy to prevent external modification
	configCopy := *m.config
	return &configCopy
}

func (m *Manager) Store() *Store {
	return m.store
}

// Changes fires after a reload that altered the document.
func (m *Manager) Changes() <-chan struct{} {
	return m.changes
}

func (m *Manager) SetCurrentDate(date string) error {
	return m.apply(func() (*Config, error) { return m.store.SetCurrentDate(date) })
}

func (m *Manager) SetRunsPerDay(n int) error {
	return m.apply(func() (*Config, error) { return m.store.SetRunsPerDay(n) })
}

func (m *Manager) apply(write func() (*Config, error)) error {
	updated, err := write()
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.config = updated
	m.mu.Unlock()
	return nil
}

func (m *Manager) StartWatching(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	m.watcher = watcher

	configDir := filepath.Dir(m.store.Path())
	if err := watcher.Add(configDir); err != nil {
		watcher.Close()
		return err
	}

	m.wg.Add(1)
	go m.watchLoop(ctx)

	m.log.Info("watching for changes", "path", m.store.Path())
	return nil
}

func (m *Manager) Stop() {
	if m.watcher != nil {
		m.watcher.Close()
	}
	m.wg.Wait()
}

func (m *Manager) watchLoop(ctx context.Context) {
	defer m.wg.Done()
	configFileName := filepath.Base(m.store.Path())

	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != configFileName {
				continue
			}

			// Save renames a temp file over the document, which shows up as Create.
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				m.log.Debug("file change detected", "event", event.Op.String())
				m.reloadConfig()
			}

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.log.Warn("watcher error", "err", err)

		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) reloadConfig() {
	newConfig, err := m.store.Load()
	if err != nil {
		m.log.Warn("failed to reload config, keeping previous", "err", err)
		return
	}

	m.mu.Lock()
	changed := !reflect.DeepEqual(m.config, newConfig)
	m.config = newConfig
	m.mu.Unlock()

	if !changed {
		return
	}

	m.log.Info("configuration reloaded", "runsPerDay", newConfig.Scheduler.RunsPerDay)
	select {
	case m.changes <- struct{}{}:
	default:
	}
}
