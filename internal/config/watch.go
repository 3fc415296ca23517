package config

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Watcher reloads the config file whenever it changes on disk.
type Watcher struct {
	path     string
	onReload func(*UserConfig)
	watcher  *fsnotify.Watcher
	done     chan struct{} // Signal to stop file watcher
	wg       sync.WaitGroup
	once     sync.Once
}

// Watch starts watching path. onReload runs on the watcher goroutine with
// every config that parses and validates; broken edits are logged and skipped.
func Watch(path string, onReload func(*UserConfig)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "can't create file watcher")
	}
	// Watch the directory (more reliable than watching the file directly)
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, errors.Wrap(err, "can't watch config directory")
	}

	w := &Watcher{
		path:     path,
		onReload: onReload,
		watcher:  fw,
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	log.Infof("Watching for changes to %s", path)
	return w, nil
}

// Stop stops the watcher goroutine. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.once.Do(func() {
		close(w.done)
		w.wg.Wait()
		w.watcher.Close()
	})
}

func (w *Watcher) run() {
	defer w.wg.Done()

	filename := filepath.Base(w.path)
	for {
		select {
		case <-w.done:
			log.Debug("Config watcher stopped")
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			// Include Rename for editors that use atomic save (write temp -> rename)
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				log.Warnf("Ignoring config change: %v", err)
				continue
			}
			log.Infof("%s changed, reloaded", filename)
			if w.onReload != nil {
				w.onReload(cfg)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warnf("File watcher error: %v", err)
		}
	}
}
