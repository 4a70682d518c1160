// Package watcher polls log files for modification so new contacts appear without a restart.
package watcher

import (
	"log/slog"
	"os"
	"sync"
	"time"
)

// Service tracks the modification time of a set of files.
type Service struct {
	mu    sync.Mutex
	paths []string
	seen  map[string]time.Time
}

// NewService creates a watcher for paths. Empty paths are ignored.
// Files present now are treated as already seen.
func NewService(paths ...string) *Service {
	s := &Service{seen: make(map[string]time.Time)}
	for _, p := range paths {
		if p == "" {
			continue
		}
		s.paths = append(s.paths, p)
		if info, err := os.Stat(p); err == nil {
			s.seen[p] = info.ModTime()
		} else if os.IsNotExist(err) {
			slog.Warn("Watcher: file does not exist yet", "path", p)
		}
	}
	return s
}

// Paths returns the watched files.
func (s *Service) Paths() []string {
	return s.paths
}

// CheckModified returns the files whose mtime changed since the previous check,
// including files that appeared since then. Deleted files are not reported.
func (s *Service) CheckModified() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var changed []string
	for _, p := range s.paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		mt := info.ModTime()
		if last, ok := s.seen[p]; ok && last.Equal(mt) {
			continue
		}
		s.seen[p] = mt
		changed = append(changed, p)
		slog.Debug("Watcher: file modified", "path", p, "mtime", mt)
	}
	return changed
}
