package media

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// exifCaptureTime reads DateTimeOriginal (with the usual fallbacks applied by
// the decoder) from JPEG and TIFF-based photo formats. PNG, WebP, HEIC and
// friends carry no decodable EXIF here and report an error so the caller
// falls back to other sources.
func exifCaptureTime(path string) (time.Time, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := exifExts[ext]; !ok {
		return time.Time{}, errors.New("no exif support for extension")
	}

	file, err := os.Open(path)
	if err != nil {
		return time.Time{}, err
	}
	defer file.Close()

	decoded, err := exif.Decode(file)
	if err != nil {
		return time.Time{}, err
	}

	ts, err := decoded.DateTime()
	if err != nil {
		return time.Time{}, err
	}
	if ts.IsZero() {
		return time.Time{}, errors.New("exif timestamp empty")
	}
	return ts, nil
}
