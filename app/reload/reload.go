// Package reload watches a file and reloads it on change. Used to hot-swap model artifacts
// without restarting the server.
package reload

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/umputun/rss-sniffer/lib/linear"
	"github.com/umputun/rss-sniffer/lib/textcheck"
)

//go:generate moq --out mocks/model_updater.go --pkg mocks --skip-ensure --with-resets . ModelUpdater

// ModelUpdater swaps the active model and returns recomputed entries, satisfied by sniffer.Engine
type ModelUpdater interface {
	UpdateModel(m linear.Model) []textcheck.Entry
}

// DefaultDebounce is a delay collapsing a burst of file events into a single reload
const DefaultDebounce = 200 * time.Millisecond

// Watch watches the file and calls onChange with its content after each change. The parent directory is watched,
// so atomic replacement with rename is detected as well. A burst of events within debounce interval
// results in a single call. Failed reads and callback errors are logged, the watch goes on.
// Blocks until ctx is done.
func Watch(ctx context.Context, path string, debounce time.Duration, onChange func(data []byte) error) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path of %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err = watcher.Add(filepath.Dir(absPath)); err != nil {
		return fmt.Errorf("failed to add %s to watcher: %w", filepath.Dir(absPath), err)
	}
	log.Printf("[INFO] watching %s for changes", absPath)

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[INFO] stopping watcher for %s, %v", absPath, ctx.Err())
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != absPath || !event.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			timer.Reset(debounce)
		case <-timer.C:
			data, e := os.ReadFile(absPath) //nolint:gosec // path is controlled by the app
			if e != nil {
				log.Printf("[WARN] failed to read updated file %s: %v", absPath, e)
				continue
			}
			if e = onChange(data); e != nil {
				log.Printf("[WARN] failed to load updated file %s: %v", absPath, e)
				continue
			}
		case e, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("[WARN] watcher error: %v", e)
		}
	}
}

// ModelReloader returns onChange callback parsing model artifact and swapping the model of the updater.
// Invalid artifacts are rejected and the active model is kept. onUpdate, if set, gets recomputed entries.
func ModelReloader(u ModelUpdater, onUpdate func([]textcheck.Entry)) func(data []byte) error {
	return func(data []byte) error {
		a, err := linear.ParseArtifact(data)
		if err != nil {
			return fmt.Errorf("model rejected: %w", err)
		}
		entries := u.UpdateModel(a.Model)
		log.Printf("[INFO] model reloaded, trained at %s on %d samples, %d entries recomputed",
			a.TrainedAt.Format(time.RFC3339), a.N, len(entries))
		if onUpdate != nil {
			onUpdate(entries)
		}
		return nil
	}
}
