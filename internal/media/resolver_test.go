package media_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dropsort/internal/media"
	"dropsort/internal/testsupport"
)

func TestResolveJPEGWithEXIFDate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "IMG_0001.jpg")
	captured := time.Date(2023, time.July, 4, 10, 0, 0, 0, time.Local)
	testsupport.JPEGWithEXIF(t, path, captured)

	record, err := media.NewResolver().Resolve(path)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if record.Kind != media.KindPhoto {
		t.Fatalf("expected photo, got %s", record.Kind)
	}
	if !record.FromMetadata {
		t.Fatal("expected capture time from metadata")
	}
	if got := record.CaptureTime.Format("2006-01-02"); got != "2023-07-04" {
		t.Fatalf("unexpected capture date %s", got)
	}
}

func TestResolveMP4CreationTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	captured := time.Date(2024, time.March, 9, 18, 30, 0, 0, time.UTC)
	testsupport.MP4WithCreationTime(t, path, captured)

	record, err := media.NewResolver().Resolve(path)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if record.Kind != media.KindVideo {
		t.Fatalf("expected video, got %s", record.Kind)
	}
	if !record.FromMetadata {
		t.Fatal("expected capture time from container metadata")
	}
	if got := record.CaptureTime.UTC().Format("2006-01-02"); got != "2024-03-09" {
		t.Fatalf("unexpected capture date %s", got)
	}
}

func TestResolveVideoWithoutMetadataFallsBackToModTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	testsupport.MP4WithoutCreationTime(t, path)

	modTime := time.Date(2024, time.January, 15, 12, 0, 0, 0, time.Local)
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	record, err := media.NewResolver().Resolve(path)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if record.FromMetadata {
		t.Fatal("expected filesystem fallback, not metadata")
	}
	if got := record.CaptureTime.Format("2006-01-02"); got != "2024-01-15" {
		t.Fatalf("unexpected fallback date %s", got)
	}
}

func TestResolveFilenameDateBeatsModTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "IMG_20250619_123456.jpg")
	testsupport.PlainJPEG(t, path)

	record, err := media.NewResolver().Resolve(path)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if record.FromMetadata {
		t.Fatal("filename dates do not count as metadata")
	}
	if got := record.CaptureTime.Format("2006-01-02"); got != "2025-06-19" {
		t.Fatalf("unexpected filename-derived date %s", got)
	}
}

func TestResolveUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	testsupport.WriteFile(t, path, []byte("not media"))

	_, err := media.NewResolver().Resolve(path)
	if !errors.Is(err, media.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestKindForPathSniffCorrectsExtension(t *testing.T) {
	// A video container renamed to .jpg must still be treated as video.
	path := filepath.Join(t.TempDir(), "mislabeled.jpg")
	testsupport.MP4WithCreationTime(t, path, time.Now())

	if kind := media.KindForPath(path); kind != media.KindVideo {
		t.Fatalf("sniff should reveal video, got %s", kind)
	}
}

func TestKindForExtension(t *testing.T) {
	cases := []struct {
		ext  string
		want media.Kind
	}{
		{".jpg", media.KindPhoto},
		{".CR3", media.KindPhoto},
		{".heic", media.KindPhoto},
		{".mp4", media.KindVideo},
		{".M2TS", media.KindVideo},
		{".txt", media.KindUnknown},
		{"", media.KindUnknown},
	}
	for _, tc := range cases {
		if got := media.KindForExtension(tc.ext); got != tc.want {
			t.Errorf("KindForExtension(%q) = %s, want %s", tc.ext, got, tc.want)
		}
	}
}
