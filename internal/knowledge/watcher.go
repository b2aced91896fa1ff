package knowledge

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watched is the minimal surface the watcher needs from the base.
type Watched interface {
	Reload(ctx context.Context) error
}

// WatchCorpora monitors the directories containing the corpus files and
// triggers a reload on write/create events. Events are debounced so one
// editor save does not trigger several rebuilds.
func WatchCorpora(ctx context.Context, base Watched, paths CorpusPaths) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	watched := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			continue
		}
		watched[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, err
		}
	}

	go func() {
		var pending <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				w.Close()
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				abs, _ := filepath.Abs(event.Name)
				if !watched[abs] {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				slog.Info("corpus file changed", "path", event.Name)
				pending = time.After(500 * time.Millisecond)
			case <-pending:
				pending = nil
				if err := base.Reload(ctx); err != nil {
					slog.Error("corpus reload failed, keeping previous snapshot", "error", err)
				} else {
					slog.Info("knowledge base reloaded")
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("corpus watcher error", "error", err)
			}
		}
	}()

	return w, nil
}
