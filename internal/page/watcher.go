package page

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher re-reads the placeholder whenever the host page changes on disk.
type Watcher struct {
	Debounce time.Duration

	watcher  *fsnotify.Watcher
	path     string
	id       string
	onChange func(text string)
	logger   *slog.Logger
}

func NewWatcher(path, id string, onChange func(string), logger *slog.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %q: %w", path, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		Debounce: defaultDebounce,
		watcher:  w,
		path:     path,
		id:       id,
		onChange: onChange,
		logger:   logger,
	}, nil
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(w.Debounce, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("host page watcher error", "path", w.path, "err", err)
		}
	}
}

func (w *Watcher) reload() {
	text, err := LoadPlaceholder(w.path, w.id)
	if err != nil {
		w.logger.Warn("host page reload failed", "path", w.path, "err", err)
		return
	}
	w.logger.Info("host page reloaded", "path", w.path)
	w.onChange(text)
}
