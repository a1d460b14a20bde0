package viewer

import (
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/exon-report/internal/logger"
)

const watchDebounce = 200 * time.Millisecond

// historyChangedMsg is sent when another process writes the history database.
type historyChangedMsg struct{}

// historyWatcher reports writes to a SQLite file and its WAL. The shared
// memory file is ignored because readers touch it too.
type historyWatcher struct {
	watcher *fsnotify.Watcher
	base    string
}

func newHistoryWatcher(dbPath string) (*historyWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory so the WAL file is seen when it is created.
	if err := w.Add(filepath.Dir(dbPath)); err != nil {
		if closeErr := w.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return nil, err
	}

	return &historyWatcher{watcher: w, base: filepath.Base(dbPath)}, nil
}

func (h *historyWatcher) relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return false
	}
	name := filepath.Base(ev.Name)
	return name == h.base || name == h.base+"-wal"
}

// wait blocks until a relevant change has settled for watchDebounce.
// It returns nil once the watcher is closed.
func (h *historyWatcher) wait() tea.Cmd {
	return func() tea.Msg {
		var settle <-chan time.Time
		for {
			select {
			case ev, ok := <-h.watcher.Events:
				if !ok {
					return nil
				}
				if h.relevant(ev) {
					settle = time.After(watchDebounce)
				}

			case err, ok := <-h.watcher.Errors:
				if !ok {
					return nil
				}
				logger.Warn("history watcher error", "error", err)

			case <-settle:
				return historyChangedMsg{}
			}
		}
	}
}

func (h *historyWatcher) close() error {
	return h.watcher.Close()
}
