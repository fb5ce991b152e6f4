package am

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/teranos/declgen/errors"
	"github.com/teranos/declgen/logger"
)

// DefaultDebounce collapses bursts of editor writes into one reload
const DefaultDebounce = 500 * time.Millisecond

// ConfigWatcher watches config and input files and triggers reload callbacks.
//
// Parent directories are watched rather than the files themselves, so files
// replaced by rename (as most editors save) keep being observed.
type ConfigWatcher struct {
	watcher *fsnotify.Watcher
	load    LoadFunc
	logger  *zap.SugaredLogger

	mu             sync.RWMutex
	files          map[string]bool // absolute paths that trigger a reload
	dirs           map[string]bool
	callbacks      []ReloadCallback
	debounceTimer  *time.Timer
	debouncePeriod time.Duration
	lastChange     string

	isOwnWrite      bool // Flag to prevent reload loops
	isOwnWriteMutex sync.Mutex
}

// LoadFunc produces the configuration after a change
type LoadFunc func() (*Config, error)

// ReloadCallback is called after a change with the freshly loaded config
type ReloadCallback func(*Config) error

// globalWatcher holds the active watcher so WriteConfig can mark own writes
var (
	globalWatcher   *ConfigWatcher
	globalWatcherMu sync.Mutex
)

// NewConfigWatcher creates a watcher that calls load after every debounced
// change. A nil load re-reads the layered configuration.
func NewConfigWatcher(load LoadFunc, l *zap.SugaredLogger) (*ConfigWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	if load == nil {
		load = func() (*Config, error) {
			Reset()
			return Load()
		}
	}

	return &ConfigWatcher{
		watcher:        watcher,
		load:           load,
		logger:         logger.OrNop(l),
		files:          make(map[string]bool),
		dirs:           make(map[string]bool),
		debouncePeriod: DefaultDebounce,
	}, nil
}

// SetDebounce changes the debounce period; it must be set before Start
func (cw *ConfigWatcher) SetDebounce(d time.Duration) {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.debouncePeriod = d
}

// Watch adds files to the watched set. Files need not exist yet, but their
// directory must.
func (cw *ConfigWatcher) Watch(paths ...string) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return errors.Wrapf(err, "failed to resolve %s", p)
		}
		dir := filepath.Dir(abs)
		if !cw.dirs[dir] {
			if err := cw.watcher.Add(dir); err != nil {
				return errors.Wrapf(err, "failed to watch directory %s", dir)
			}
			cw.dirs[dir] = true
		}
		if !cw.files[abs] {
			cw.logger.Debugw("Watching file", logger.FieldPath, abs)
		}
		cw.files[abs] = true
	}
	return nil
}

// Files returns the watched files, unordered
func (cw *ConfigWatcher) Files() []string {
	cw.mu.RLock()
	defer cw.mu.RUnlock()
	files := make([]string, 0, len(cw.files))
	for f := range cw.files {
		files = append(files, f)
	}
	return files
}

// OnReload registers a callback to be called when config is reloaded
func (cw *ConfigWatcher) OnReload(callback ReloadCallback) {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.callbacks = append(cw.callbacks, callback)
}

// MarkOwnWrite marks the next write as coming from us (prevents reload loops)
func (cw *ConfigWatcher) MarkOwnWrite() {
	cw.isOwnWriteMutex.Lock()
	defer cw.isOwnWriteMutex.Unlock()
	cw.isOwnWrite = true
}

// checkOwnWrite checks and clears the own-write flag
func (cw *ConfigWatcher) checkOwnWrite() bool {
	cw.isOwnWriteMutex.Lock()
	defer cw.isOwnWriteMutex.Unlock()

	if cw.isOwnWrite {
		cw.isOwnWrite = false
		return true
	}
	return false
}

// Start begins watching for file changes
func (cw *ConfigWatcher) Start() {
	go cw.watchLoop()
}

// watchLoop monitors file system events
func (cw *ConfigWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if isBackupFile(event.Name) || !cw.isWatched(event.Name) {
				continue
			}
			if cw.checkOwnWrite() {
				cw.logger.Debugw("Watcher ignoring own write", logger.FieldFile, event.Name)
				continue
			}

			cw.logger.Infow("Watcher detected change",
				logger.FieldFile, event.Name,
				"op", event.Op.String())
			cw.scheduleReload(event.Name)

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.logger.Warnw("Watcher error", logger.FieldError, err)
		}
	}
}

func (cw *ConfigWatcher) isWatched(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	cw.mu.RLock()
	defer cw.mu.RUnlock()
	return cw.files[abs]
}

// scheduleReload debounces rapid file changes and triggers reload
func (cw *ConfigWatcher) scheduleReload(changed string) {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cw.lastChange = changed
	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}
	cw.debounceTimer = time.AfterFunc(cw.debouncePeriod, func() {
		if err := cw.reload(); err != nil {
			cw.logger.Errorw("Reload failed", logger.FieldError, err)
		}
	})
}

// reload loads the configuration, watches any newly named input files, and
// calls all callbacks
func (cw *ConfigWatcher) reload() error {
	newConfig, err := cw.load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	// A config edit may point discovery or the fixture at new files
	if err := cw.Watch(newConfig.InputFiles()...); err != nil {
		cw.logger.Warnw("Failed to watch input files", logger.FieldError, err)
	}

	cw.mu.RLock()
	changed := cw.lastChange
	callbacks := make([]ReloadCallback, len(cw.callbacks))
	copy(callbacks, cw.callbacks)
	cw.mu.RUnlock()

	cw.logger.Infow("Config reloaded", logger.FieldPath, changed)

	for _, callback := range callbacks {
		if err := callback(newConfig); err != nil {
			// Continue calling other callbacks even if one fails
			cw.logger.Warnw("Reload callback error", logger.FieldError, err)
		}
	}

	return nil
}

// Stop stops watching for changes
func (cw *ConfigWatcher) Stop() error {
	cw.mu.Lock()
	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}
	cw.mu.Unlock()
	return cw.watcher.Close()
}

// isBackupFile checks if the file is a rotated config backup (.back1 .. .back3)
func isBackupFile(path string) bool {
	ext := filepath.Ext(path)
	return strings.HasPrefix(ext, ".back") && len(ext) == len(".back")+1
}

// SetGlobalWatcher sets the global watcher instance (used to prevent reload loops)
func SetGlobalWatcher(watcher *ConfigWatcher) {
	globalWatcherMu.Lock()
	defer globalWatcherMu.Unlock()
	globalWatcher = watcher
}

// GetGlobalWatcher returns the global watcher instance
func GetGlobalWatcher() *ConfigWatcher {
	globalWatcherMu.Lock()
	defer globalWatcherMu.Unlock()
	return globalWatcher
}
