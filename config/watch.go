package config

import (
	"context"
	"log"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the configuration at path whenever the file is written and
// passes it to onChange. A reload that fails keeps the previous config and
// onChange is not called. Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}
	log.Printf("Watching %s for configuration changes", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Editors that save atomically show up as Create.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			cfg, err := Load(path)
			if err != nil {
				log.Printf("Config reload from %s failed, keeping previous config: %v", path, err)
				continue
			}
			log.Printf("Configuration reloaded from %s", path)
			onChange(cfg)

			rewatch(watcher, path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("Config watcher error: %v", err)
		}
	}
}

// rewatch re-adds path after an atomic save replaced the watched inode.
func rewatch(w *fsnotify.Watcher, path string) bool {
	if err := w.Add(path); err != nil {
		log.Printf("Config watcher could not re-watch %s, hot reload stopped: %v", path, err)
		return false
	}
	return true
}
