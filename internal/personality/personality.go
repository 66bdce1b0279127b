// Package personality loads the agent's personality file and keeps it
// current across the process lifetime: an operator can edit the file
// while the agent is running and have the next turn pick up the change,
// without a restart.
package personality

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces bursts of write events (an editor's
// save-as-temp-then-rename dance fires several in a row) into one reload.
const watchDebounce = 250 * time.Millisecond

// Source holds the current personality text and reloads it on change.
// The zero value is not usable; construct with Load.
type Source struct {
	path   string
	logger *slog.Logger

	mu   sync.RWMutex
	text string

	watcher     *fsnotify.Watcher
	watchCancel context.CancelFunc
	watchWg     sync.WaitGroup
}

// Load reads path once and returns a Source carrying its contents. A
// missing file is not an error: the agent simply runs with no personality
// text, and a file later created at path is picked up once Watch starts.
func Load(path string, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Source{path: path, logger: logger}
	s.reload()
	return s
}

// Get returns the current personality text, trimmed of surrounding
// whitespace. Empty means no personality file, or one that reads empty.
func (s *Source) Get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.text
}

func (s *Source) reload() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		s.mu.Lock()
		s.text = ""
		s.mu.Unlock()
		return
	}
	s.mu.Lock()
	s.text = strings.TrimSpace(string(data))
	s.mu.Unlock()
}

// Watch starts watching the personality file's directory for changes,
// reloading Get's value on every write/create/rename. Call Close to stop.
// Watching the directory rather than the file survives an editor
// replacing the file via rename instead of an in-place write.
func (s *Source) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dir := parentDir(s.path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	s.watcher = watcher
	s.watchCancel = cancel

	s.watchWg.Add(1)
	go s.watchLoop(watchCtx)
	return nil
}

// Close stops the watcher, if one was started.
func (s *Source) Close() error {
	if s.watchCancel != nil {
		s.watchCancel()
	}
	var err error
	if s.watcher != nil {
		err = s.watcher.Close()
	}
	s.watchWg.Wait()
	return err
}

func (s *Source) watchLoop(ctx context.Context) {
	defer s.watchWg.Done()

	var mu sync.Mutex
	var timer *time.Timer
	scheduleReload := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(watchDebounce, s.reload)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if event.Name != s.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				scheduleReload()
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("personality: watch error", "error", err)
		}
	}
}

func parentDir(path string) string {
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return "."
	}
	if idx == 0 {
		return "/"
	}
	return path[:idx]
}
