package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vexedit/vex/internal/log"
)

// reloadDebounce collapses the burst of events editors emit on save.
const reloadDebounce = 100 * time.Millisecond

// ReloadFunc receives the freshly loaded configuration.
type ReloadFunc func(Config)

// Watcher reloads the config file whenever it changes on disk. It
// watches the containing directory so atomic-rename saves are seen too.
type Watcher struct {
	path    string
	fsw     *fsnotify.Watcher
	logger  *log.Logger
	onLoad  ReloadFunc
	closeFn sync.Once
	done    chan struct{}
}

// Watch starts watching path and invokes fn with each successfully
// reloaded config. A file that fails to parse is logged and skipped; the
// previously delivered config stays in effect.
func Watch(path string, logger *log.Logger, fn ReloadFunc) (*Watcher, error) {
	if logger == nil {
		logger = log.Discard()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		path:   abs,
		fsw:    fsw,
		logger: logger,
		onLoad: fn,
		done:   make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer close(w.done)

	var debounce *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(reloadDebounce)
				fire = debounce.C
			} else {
				debounce.Reset(reloadDebounce)
			}
		case <-fire:
			debounce = nil
			fire = nil
			w.reload()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warnf("config watcher: %v", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Warnf("config reload skipped: %v", err)
		return
	}
	w.logger.Infof("config reloaded from %s", w.path)
	w.onLoad(cfg)
}

// Close stops the watcher. Safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.closeFn.Do(func() {
		err = w.fsw.Close()
		<-w.done
	})
	return err
}
