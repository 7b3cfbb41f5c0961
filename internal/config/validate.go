package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Validate reports configuration problems that must be fatal at startup.
// Per-file failures are handled by the pipeline at runtime; only a broken
// watch directory or library root prevents the daemon from launching.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.WatchDir) == "" {
		problems = append(problems, "paths.watch_dir is required")
	} else {
		info, err := os.Stat(c.Paths.WatchDir)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			problems = append(problems, fmt.Sprintf("paths.watch_dir %q does not exist", c.Paths.WatchDir))
		case err != nil:
			problems = append(problems, fmt.Sprintf("paths.watch_dir %q: %v", c.Paths.WatchDir, err))
		case !info.IsDir():
			problems = append(problems, fmt.Sprintf("paths.watch_dir %q is not a directory", c.Paths.WatchDir))
		}
	}

	if strings.TrimSpace(c.Paths.PhotosRoot) == "" {
		problems = append(problems, "paths.photos_root is required")
	} else if c.Paths.WatchDir != "" && isWithin(c.Paths.PhotosRoot, c.Paths.WatchDir) {
		// The destination must not live under the watch tree or every
		// organized file would be re-ingested.
		problems = append(problems, fmt.Sprintf("paths.photos_root %q must not be inside paths.watch_dir %q", c.Paths.PhotosRoot, c.Paths.WatchDir))
	}

	if c.Paths.WatchDir != "" && c.Paths.WatchDir == c.Paths.PhotosRoot {
		problems = append(problems, "paths.watch_dir and paths.photos_root must differ")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func isWithin(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
