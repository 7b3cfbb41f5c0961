package watcher

import (
	"path/filepath"
	"testing"
	"time"
)

func TestEligible(t *testing.T) {
	root := string(filepath.Separator) + "drop"
	tests := []struct {
		name string
		path string
		want bool
	}{
		{"photo at root", "IMG_0001.jpg", true},
		{"video in subdir", "camera/clip.mp4", true},
		{"raw photo", "shoot/DSC0001.ARW", true},
		{"hidden file", ".IMG_0001.jpg", false},
		{"editor backup", "~IMG_0001.jpg", false},
		{"windows thumbnail db", "Thumbs.db", false},
		{"partial download", "clip.mp4.part", false},
		{"temp file", "upload.tmp", false},
		{"shortcut", "photos.lnk", false},
		{"disallowed extension", "notes.txt", false},
		{"no extension", "README", false},
		{"inside cache dir", "cache/IMG_0001.jpg", false},
		{"inside thumbnail dir", "thumbnail/IMG_0001.jpg", false},
		{"inside hidden dir", ".hist/IMG_0001.jpg", false},
		{"deep inside ignored dir", "a/tmp/b/IMG_0001.jpg", false},
		{"uppercase extension", "IMG_0001.JPG", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(root, filepath.FromSlash(tc.path))
			if got := eligible(root, path); got != tc.want {
				t.Fatalf("eligible(%q) = %v, want %v", tc.path, got, tc.want)
			}
		})
	}
}

func TestEligibleRejectsPathsOutsideRoot(t *testing.T) {
	if eligible("/drop", "/elsewhere/IMG_0001.jpg") {
		t.Fatal("paths outside the root must not be eligible")
	}
	if eligible("/drop", "/drop") {
		t.Fatal("the root itself must not be eligible")
	}
}

func TestDebouncerCoalescesRapidEvents(t *testing.T) {
	fired := make(chan string, 8)
	d := newDebouncer(30*time.Millisecond, func(path string) { fired <- path })

	for i := 0; i < 5; i++ {
		d.add("/drop/IMG_0001.jpg")
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced callback never fired")
	}
	select {
	case path := <-fired:
		t.Fatalf("expected one callback, got another for %s", path)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDebouncerCancelPreventsCallback(t *testing.T) {
	fired := make(chan string, 1)
	d := newDebouncer(50*time.Millisecond, func(path string) { fired <- path })

	d.add("/drop/IMG_0001.jpg")
	d.cancel("/drop/IMG_0001.jpg")

	select {
	case <-fired:
		t.Fatal("canceled path should not fire")
	case <-time.After(200 * time.Millisecond):
	}
	if d.pendingCount() != 0 {
		t.Fatal("pending map should be empty after cancel")
	}
}
