package pipeline

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dropsort/internal/logging"
)

// discardSource removes a duplicate source file and prunes any directories it
// leaves empty.
func (p *Pipeline) discardSource(path string, log *slog.Logger) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn("could not remove duplicate source", logging.Error(err))
		return
	}
	p.cleanupAfterMove(path)
}

// cleanupAfterMove prunes empty directories between the moved file and the
// watch root. The root itself is never removed.
func (p *Pipeline) cleanupAfterMove(src string) {
	if !p.opts.CleanEmptyDirs || p.opts.WatchRoot == "" {
		return
	}
	pruneEmptyDirs(filepath.Dir(src), p.opts.WatchRoot)
}

func pruneEmptyDirs(dir, root string) {
	root = filepath.Clean(root)
	for dir = filepath.Clean(dir); dir != root; dir = filepath.Dir(dir) {
		if !isWithin(dir, root) {
			return
		}
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
	}
}

func isWithin(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
