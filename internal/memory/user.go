package memory

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// UserPrefs returns the cached content of system/USER.md.
func (j *Journal) UserPrefs() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.prefs
}

func (j *Journal) reloadPrefs() {
	data, err := os.ReadFile(filepath.Join(j.dir, systemSubdir, userFile))
	if err != nil {
		return
	}
	j.mu.Lock()
	j.prefs = strings.TrimSpace(string(data))
	j.mu.Unlock()
}

// WatchUserPrefs hot-reloads system/USER.md when it changes on disk, so
// preference edits take effect without a restart. Blocks until ctx is done.
func (j *Journal) WatchUserPrefs(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Join(j.dir, systemSubdir)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != userFile {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				j.reloadPrefs()
				slog.Debug("user preferences reloaded", "file", ev.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("user prefs watcher error", "error", err)
		}
	}
}
