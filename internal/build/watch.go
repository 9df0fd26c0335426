package build

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DebounceDelay is how long Watch waits after the last input change before
// rebuilding.
const DebounceDelay = 250 * time.Millisecond

// Watch rebuilds whenever one of the input files in dir is written or
// replaced, until ctx is done. onBuild, if not nil, receives the result of
// every rebuild. Rebuilds never overlap.
func (r *Runner) Watch(ctx context.Context, dir string, onBuild func(*Report, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	r.logger.Info("watching for changes", slog.String("dir", dir))

	var (
		mu            sync.Mutex
		stopped       bool
		debounceTimer *time.Timer
	)
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		// Blocks until a rebuild in progress has finished.
		mu.Lock()
		stopped = true
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 || !isInput(event.Name) {
				continue
			}

			// Debounce
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			name := event.Name
			debounceTimer = time.AfterFunc(DebounceDelay, func() {
				mu.Lock()
				defer mu.Unlock()
				if stopped || ctx.Err() != nil {
					return
				}

				r.logger.Debug("input changed, rebuilding", slog.String("file", name))
				report, err := r.Run(ctx)
				if err != nil {
					r.logger.Error("rebuild failed", slog.Any("error", err))
				}
				if onBuild != nil {
					onBuild(report, err)
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Error("watcher error", slog.Any("error", err))
		}
	}
}

// isInput reports whether path names one of the build inputs.
func isInput(path string) bool {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, ".txt") {
		return false
	}
	return slices.Contains(Inputs, strings.TrimSuffix(base, ".txt"))
}
