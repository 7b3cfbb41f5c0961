package media

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
)

// Kind is the media class of a dropped file.
type Kind string

const (
	KindPhoto   Kind = "photo"
	KindVideo   Kind = "video"
	KindUnknown Kind = "unknown"
)

// photoExts are extensions handled as still images, including RAW formats.
var photoExts = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".webp": {}, ".heic": {}, ".heif": {},
	".gif": {}, ".bmp": {}, ".tiff": {}, ".tif": {},
	".cr2": {}, ".cr3": {}, ".nef": {}, ".arw": {}, ".raf": {}, ".orf": {},
	".rw2": {}, ".dng": {}, ".sr2": {},
}

// videoExts are extensions handled as video containers.
var videoExts = map[string]struct{}{
	".mp4": {}, ".mov": {}, ".avi": {}, ".mkv": {}, ".mts": {}, ".m2ts": {},
}

// exifExts are photo formats goexif can decode (JPEG and TIFF-based RAW).
var exifExts = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".tiff": {}, ".tif": {},
	".cr2": {}, ".nef": {}, ".arw": {}, ".raf": {}, ".orf": {},
	".rw2": {}, ".dng": {}, ".sr2": {},
}

// KindForExtension classifies purely by extension.
func KindForExtension(ext string) Kind {
	ext = strings.ToLower(ext)
	if _, ok := photoExts[ext]; ok {
		return KindPhoto
	}
	if _, ok := videoExts[ext]; ok {
		return KindVideo
	}
	return KindUnknown
}

// KindForPath classifies by extension, corrected by a magic-byte sniff when
// the leading bytes clearly identify a different container family.
func KindForPath(path string) Kind {
	kind := KindForExtension(filepath.Ext(path))
	if kind == KindUnknown {
		return kind
	}
	sniffed := sniffKind(path)
	if sniffed != KindUnknown && sniffed != kind {
		return sniffed
	}
	return kind
}

// IsAllowedExtension reports whether the dispatcher should admit the path.
func IsAllowedExtension(ext string) bool {
	return KindForExtension(ext) != KindUnknown
}

// sniffKind inspects leading magic bytes. It only reports a kind for
// signatures it is sure about; anything else returns KindUnknown so the
// extension classification stands.
func sniffKind(path string) Kind {
	file, err := os.Open(path)
	if err != nil {
		return KindUnknown
	}
	defer file.Close()

	head := make([]byte, 16)
	n, err := file.Read(head)
	if err != nil || n < 12 {
		return KindUnknown
	}
	head = head[:n]

	switch {
	case bytes.HasPrefix(head, []byte{0xFF, 0xD8, 0xFF}):
		return KindPhoto // JPEG
	case bytes.HasPrefix(head, []byte{0x89, 'P', 'N', 'G'}):
		return KindPhoto
	case bytes.HasPrefix(head, []byte("GIF8")):
		return KindPhoto
	case bytes.HasPrefix(head, []byte("II*\x00")), bytes.HasPrefix(head, []byte("MM\x00*")):
		return KindPhoto // TIFF and TIFF-based RAW
	case bytes.HasPrefix(head, []byte("RIFF")) && bytes.Equal(head[8:12], []byte("WEBP")):
		return KindPhoto
	case bytes.HasPrefix(head, []byte("RIFF")) && bytes.Equal(head[8:12], []byte("AVI ")):
		return KindVideo
	case bytes.Equal(head[4:8], []byte("ftyp")):
		// MP4, MOV, and HEIC all use ftyp; the major brand decides.
		switch string(head[8:12]) {
		case "heic", "heix", "hevc", "mif1", "msf1":
			return KindPhoto
		default:
			return KindVideo
		}
	case bytes.HasPrefix(head, []byte{0x1A, 0x45, 0xDF, 0xA3}):
		return KindVideo // Matroska/WebM
	default:
		return KindUnknown
	}
}
