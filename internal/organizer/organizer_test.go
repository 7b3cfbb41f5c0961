package organizer_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"dropsort/internal/identity"
	"dropsort/internal/media"
	"dropsort/internal/organizer"
	"dropsort/internal/testsupport"
)

func record(source string, ts time.Time) media.Record {
	return media.Record{SourcePath: source, Kind: media.KindPhoto, CaptureTime: ts}
}

func mustIdentity(t *testing.T, path string) identity.Identity {
	t.Helper()
	id, err := identity.FromFile(path)
	if err != nil {
		t.Fatalf("identity of %s: %v", path, err)
	}
	return id
}

func TestResolveBuildsZeroPaddedDatePath(t *testing.T) {
	base := t.TempDir()
	source := filepath.Join(base, "IMG_0001.jpg")
	testsupport.WriteFile(t, source, []byte("photo"))

	ts := time.Date(2023, time.July, 4, 10, 0, 0, 0, time.UTC)
	dest, err := organizer.NewResolver(filepath.Join(base, "photos")).Resolve(record(source, ts), mustIdentity(t, source))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	want := filepath.Join(base, "photos", "2023", "07", "04", "IMG_0001.jpg")
	if dest.Path() != want {
		t.Fatalf("unexpected destination %s, want %s", dest.Path(), want)
	}
	if dest.AlreadyPresent {
		t.Fatal("fresh destination must not be marked present")
	}
}

func TestResolveCollisionGetsDisambiguator(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "photos")
	dayDir := filepath.Join(root, "2023", "07", "04")
	if err := os.MkdirAll(dayDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	testsupport.WriteFile(t, filepath.Join(dayDir, "IMG_0001.jpg"), []byte("existing shot"))

	source := filepath.Join(base, "IMG_0001.jpg")
	testsupport.WriteFile(t, source, []byte("different shot"))

	ts := time.Date(2023, time.July, 4, 0, 0, 0, 0, time.UTC)
	dest, err := organizer.NewResolver(root).Resolve(record(source, ts), mustIdentity(t, source))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if dest.Filename != "IMG_0001 (1).jpg" {
		t.Fatalf("unexpected disambiguated name %q", dest.Filename)
	}
	if dest.AlreadyPresent {
		t.Fatal("different content must not be treated as present")
	}
}

func TestResolveSecondCollisionIncrementsSuffix(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "photos")
	dayDir := filepath.Join(root, "2023", "07", "04")
	if err := os.MkdirAll(dayDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	testsupport.WriteFile(t, filepath.Join(dayDir, "IMG_0001.jpg"), []byte("first"))
	testsupport.WriteFile(t, filepath.Join(dayDir, "IMG_0001 (1).jpg"), []byte("second"))

	source := filepath.Join(base, "IMG_0001.jpg")
	testsupport.WriteFile(t, source, []byte("third"))

	ts := time.Date(2023, time.July, 4, 0, 0, 0, 0, time.UTC)
	dest, err := organizer.NewResolver(root).Resolve(record(source, ts), mustIdentity(t, source))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if dest.Filename != "IMG_0001 (2).jpg" {
		t.Fatalf("unexpected name %q", dest.Filename)
	}
}

func TestResolveIdenticalContentIsAlreadyPresent(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "photos")
	dayDir := filepath.Join(root, "2023", "07", "04")
	if err := os.MkdirAll(dayDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	payload := []byte("same content both sides")
	testsupport.WriteFile(t, filepath.Join(dayDir, "IMG_0001.jpg"), payload)

	source := filepath.Join(base, "IMG_0001.jpg")
	testsupport.WriteFile(t, source, payload)

	ts := time.Date(2023, time.July, 4, 0, 0, 0, 0, time.UTC)
	dest, err := organizer.NewResolver(root).Resolve(record(source, ts), mustIdentity(t, source))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !dest.AlreadyPresent {
		t.Fatal("identical content should be reported as already present")
	}
	if dest.Filename != "IMG_0001.jpg" {
		t.Fatalf("unexpected filename %q", dest.Filename)
	}
}

func TestResolveIdenticalSuffixedCopyIsPresent(t *testing.T) {
	// The incoming file matches an earlier disambiguated copy, not the
	// original name holder.
	base := t.TempDir()
	root := filepath.Join(base, "photos")
	dayDir := filepath.Join(root, "2024", "01", "15")
	if err := os.MkdirAll(dayDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	payload := []byte("the duplicate payload")
	testsupport.WriteFile(t, filepath.Join(dayDir, "clip.mp4"), []byte("unrelated"))
	testsupport.WriteFile(t, filepath.Join(dayDir, "clip (1).mp4"), payload)

	source := filepath.Join(base, "clip.mp4")
	testsupport.WriteFile(t, source, payload)

	ts := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	dest, err := organizer.NewResolver(root).Resolve(record(source, ts), mustIdentity(t, source))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !dest.AlreadyPresent {
		t.Fatal("suffixed identical copy should short-circuit the transfer")
	}
	if dest.Filename != "clip (1).mp4" {
		t.Fatalf("unexpected filename %q", dest.Filename)
	}
}
