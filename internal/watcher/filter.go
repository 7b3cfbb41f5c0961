package watcher

import (
	"path/filepath"
	"strings"

	"dropsort/internal/media"
)

// ignoredExtensions marks in-progress download and editor artifacts.
var ignoredExtensions = map[string]struct{}{
	".tmp":        {},
	".temp":       {},
	".crdownload": {},
	".part":       {},
	".lnk":        {},
}

// ignoredDirNames are directories whose contents are never media drops.
var ignoredDirNames = map[string]struct{}{
	".hist":     {},
	"tmp":       {},
	"temp":      {},
	"cache":     {},
	"thumbnail": {},
	"thumb":     {},
}

// ignoreFile reports whether a filename should never be queued, regardless of
// extension allow-listing.
func ignoreFile(name string) bool {
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~") {
		return true
	}
	if strings.EqualFold(name, "Thumbs.db") {
		return true
	}
	_, ignored := ignoredExtensions[strings.ToLower(filepath.Ext(name))]
	return ignored
}

// ignoreDir reports whether a directory (by base name) should be skipped
// entirely, including its subtree.
func ignoreDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	_, ignored := ignoredDirNames[strings.ToLower(name)]
	return ignored
}

// Eligible reports whether path, relative to root, is a candidate media file.
// One-shot scans use it to apply the same filtering as the live watcher.
func Eligible(root, path string) bool {
	return eligible(root, path)
}

// eligible reports whether path, relative to root, is a candidate media file.
// Every directory component between root and the file is checked so drops
// inside cache or thumbnail trees stay untouched.
func eligible(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}

	parts := strings.Split(rel, string(filepath.Separator))
	for _, part := range parts[:len(parts)-1] {
		if ignoreDir(part) {
			return false
		}
	}

	name := parts[len(parts)-1]
	if ignoreFile(name) {
		return false
	}
	return media.IsAllowedExtension(filepath.Ext(name))
}
