package media

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// ErrUnsupportedFormat marks files whose extension is outside the allow-list.
// Such tasks are dropped, not retried.
var ErrUnsupportedFormat = errors.New("unsupported media format")

// Record describes a file the pipeline is about to organize.
type Record struct {
	SourcePath  string
	Kind        Kind
	CaptureTime time.Time
	// FromMetadata is true when CaptureTime came from embedded metadata
	// rather than a filename pattern or filesystem timestamp.
	FromMetadata bool
}

// datePatterns extract capture dates from camera filename conventions.
// Tried in order; first parseable match wins.
var datePatterns = []struct {
	re     *regexp.Regexp
	layout string
}{
	{regexp.MustCompile(`DJI_(\d{8})`), "20060102"},             // DJI_20250619224111_0001_D.MP4
	{regexp.MustCompile(`(\d{8})_\d{6}`), "20060102"},           // IMG_20250619_123456.jpg
	{regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`), "2006-01-02"},   // 2025-06-19_photo.jpg
	{regexp.MustCompile(`^[A-Za-z]*[_-]?(\d{8})\D`), "20060102"}, // 20250616_C0416.MP4
}

// Resolver extracts capture dates from media files.
type Resolver struct{}

// NewResolver returns a metadata resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve classifies path and determines its capture time. It fails only for
// unsupported formats; metadata problems degrade to filesystem timestamps.
func (r *Resolver) Resolve(path string) (Record, error) {
	ext := filepath.Ext(path)
	if !IsAllowedExtension(ext) {
		return Record{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	kind := KindForPath(path)
	record := Record{SourcePath: path, Kind: kind}

	switch kind {
	case KindPhoto:
		if ts, err := exifCaptureTime(path); err == nil {
			record.CaptureTime = ts
			record.FromMetadata = true
			return record, nil
		}
	case KindVideo:
		if ts, err := quicktimeCreationTime(path); err == nil {
			record.CaptureTime = ts
			record.FromMetadata = true
			return record, nil
		}
	}

	if ts, ok := captureTimeFromFilename(filepath.Base(path)); ok {
		record.CaptureTime = ts
		return record, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return Record{}, err
	}
	record.CaptureTime = info.ModTime()
	return record, nil
}

func captureTimeFromFilename(name string) (time.Time, bool) {
	for _, pattern := range datePatterns {
		match := pattern.re.FindStringSubmatch(name)
		if len(match) < 2 {
			continue
		}
		if ts, err := time.Parse(pattern.layout, match[1]); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
