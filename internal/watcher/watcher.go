// Package watcher surfaces out-of-band edits to the local data directory.
// The agent process sometimes writes records straight to disk instead of
// going through the REST API; watching the directory keeps the live query
// views honest without polling.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/himbot/mission-control/internal/eventbus"
)

// DebounceInterval is the delay after an fsnotify event before publishing,
// collapsing the bursts editors and atomic-rename writers produce.
const DebounceInterval = 100 * time.Millisecond

// Watcher publishes "<entity>.external_change" bus events when files under
// the data directory change. Entity is the first path segment (tasks,
// agents, cronjobs, memories, activities).
type Watcher struct {
	baseDir string
	bus     *eventbus.Bus
}

func New(baseDir string, bus *eventbus.Bus) *Watcher {
	return &Watcher{baseDir: baseDir, bus: bus}
}

// Run blocks until ctx is cancelled. The base directory and its entity
// subdirectories are watched; subdirectories created later are added as
// they appear.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.baseDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.baseDir, err)
	}
	entries, err := os.ReadDir(w.baseDir)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", w.baseDir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			if err := fw.Add(filepath.Join(w.baseDir, entry.Name())); err != nil {
				slog.WarnContext(ctx, "failed to watch data subdirectory", "dir", entry.Name(), "error", err)
			}
		}
	}

	// Debounce per entity: a flurry of writes to tasks/ becomes one event.
	pending := make(map[string]string)
	var timer *time.Timer
	var timerCh <-chan time.Time

	flush := func() {
		for entity, name := range pending {
			w.bus.PublishNew(entity+".external_change", name, map[string]string{"source": "filesystem"})
		}
		pending = make(map[string]string)
		timerCh = nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timerCh:
			flush()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := fw.Add(event.Name); err != nil {
						slog.WarnContext(ctx, "failed to watch new data subdirectory", "dir", event.Name, "error", err)
					}
					continue
				}
			}
			entity, name, ok := w.classify(event.Name)
			if !ok {
				continue
			}
			pending[entity] = name
			if timer == nil {
				timer = time.NewTimer(DebounceInterval)
			} else {
				timer.Reset(DebounceInterval)
			}
			timerCh = timer.C
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "fsnotify error", "error", err)
		}
	}
}

// Storage prefixes are plural; bus event types use the singular entity.
var entityByPrefix = map[string]string{
	"tasks":      "task",
	"agents":     "agent",
	"cronjobs":   "cronjob",
	"memories":   "memory",
	"activities": "activity",
}

// classify maps an absolute changed path to (entity, record name). Temp
// files from atomic writes and paths outside the known prefixes are ignored.
func (w *Watcher) classify(fullPath string) (entity, name string, ok bool) {
	rel, err := filepath.Rel(w.baseDir, fullPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", "", false
	}
	if strings.HasSuffix(rel, ".tmp") {
		return "", "", false
	}
	parts := strings.SplitN(filepath.ToSlash(rel), "/", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	entity, ok = entityByPrefix[parts[0]]
	if !ok {
		return "", "", false
	}
	return entity, strings.TrimSuffix(parts[1], ".yaml"), true
}
