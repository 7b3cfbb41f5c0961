package organizer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"dropsort/internal/identity"
	"dropsort/internal/media"
)

// maxDisambiguation bounds the collision suffix search. Hitting it means the
// directory contains thousands of same-named, distinct files; give up loudly.
const maxDisambiguation = 10000

// Destination is a resolved library target for one media record.
type Destination struct {
	Dir      string
	Filename string
	// AlreadyPresent is true when a file with identical content already
	// sits at the target; the transfer becomes an idempotent no-op.
	AlreadyPresent bool
}

// Path returns the full destination path.
func (d Destination) Path() string {
	return filepath.Join(d.Dir, d.Filename)
}

// Resolver computes destination paths beneath a library root.
type Resolver struct {
	root string
}

// NewResolver returns a Resolver rooted at the photo library directory.
func NewResolver(root string) *Resolver {
	return &Resolver{root: root}
}

// Resolve computes the canonical destination for record, resolving filename
// collisions against the incoming file's content identity.
func (r *Resolver) Resolve(record media.Record, incoming identity.Identity) (Destination, error) {
	capture := record.CaptureTime
	dir := filepath.Join(r.root,
		fmt.Sprintf("%04d", capture.Year()),
		fmt.Sprintf("%02d", int(capture.Month())),
		fmt.Sprintf("%02d", capture.Day()),
	)

	name := filepath.Base(record.SourcePath)
	candidate := name
	for attempt := 0; attempt <= maxDisambiguation; attempt++ {
		if attempt > 0 {
			candidate = disambiguate(name, attempt)
		}
		target := filepath.Join(dir, candidate)

		_, err := os.Stat(target)
		if errors.Is(err, fs.ErrNotExist) {
			return Destination{Dir: dir, Filename: candidate}, nil
		}
		if err != nil {
			return Destination{}, fmt.Errorf("stat destination %s: %w", target, err)
		}

		existing, err := identity.FromFile(target)
		if err != nil {
			return Destination{}, fmt.Errorf("fingerprint existing %s: %w", target, err)
		}
		if existing.Equal(incoming) {
			return Destination{Dir: dir, Filename: candidate, AlreadyPresent: true}, nil
		}
	}

	return Destination{}, fmt.Errorf("no free name for %s in %s after %d attempts", name, dir, maxDisambiguation)
}

// disambiguate appends a numeric suffix before the extension:
// "IMG_0001.jpg" -> "IMG_0001 (1).jpg".
func disambiguate(name string, n int) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s (%d)%s", stem, n, ext)
}
