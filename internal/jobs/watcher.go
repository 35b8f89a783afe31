package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DataWatcher calls onChange once the CSV files of a directory stop changing
// for the debounce period.
type DataWatcher struct {
	logger   *slog.Logger
	dir      string
	debounce time.Duration
	onChange func()

	watcher *fsnotify.Watcher
	wg      sync.WaitGroup

	mu    sync.Mutex
	timer *time.Timer
}

// NewDataWatcher starts watching dir. Call Run to process events.
func NewDataWatcher(logger *slog.Logger, dir string, debounce time.Duration, onChange func()) (*DataWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	return &DataWatcher{
		logger:   logger,
		dir:      dir,
		debounce: debounce,
		onChange: onChange,
		watcher:  watcher,
	}, nil
}

// Run processes events in the background until ctx is cancelled or the
// watcher is closed.
func (w *DataWatcher) Run(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.logger.Info("Watching data directory", slog.String("dir", w.dir))
		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !relevant(event) {
					continue
				}
				w.logger.Debug("Data file changed",
					slog.String("file", event.Name),
					slog.String("op", event.Op.String()))
				w.schedule()
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("Watcher error", slog.Any("error", err))
			case <-ctx.Done():
				w.stopTimer()
				return
			}
		}
	}()
}

// Close stops watching and waits for the event loop to exit.
func (w *DataWatcher) Close() error {
	err := w.watcher.Close()
	w.wg.Wait()
	w.stopTimer()
	return err
}

func (w *DataWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.onChange)
}

func (w *DataWatcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

func relevant(event fsnotify.Event) bool {
	if !strings.EqualFold(filepath.Ext(event.Name), ".csv") {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0
}
