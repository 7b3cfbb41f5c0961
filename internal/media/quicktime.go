package media

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// QuickTime epochs start at 1904-01-01 rather than Unix time.
var quicktimeEpoch = time.Date(1904, time.January, 1, 0, 0, 0, 0, time.UTC)

var errNoMovieHeader = errors.New("no movie header atom")

// maxAtomScan bounds how far the parser descends looking for moov/mvhd.
const maxAtomScan = 64

// quicktimeCreationTime extracts the creation time from the mvhd atom of an
// MP4/MOV container. AVI, Matroska, and AVCHD streams are not parsed; they
// report an error and the caller falls back to filesystem timestamps, which
// matches how cameras produce those files anyway.
func quicktimeCreationTime(path string) (time.Time, error) {
	file, err := os.Open(path)
	if err != nil {
		return time.Time{}, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return time.Time{}, err
	}

	moov, moovSize, err := findAtom(file, 0, info.Size(), "moov")
	if err != nil {
		return time.Time{}, err
	}
	mvhd, _, err := findAtom(file, moov, moov+moovSize, "mvhd")
	if err != nil {
		return time.Time{}, err
	}
	return readMovieHeaderTime(file, mvhd)
}

// findAtom scans sibling atoms in [start, end) and returns the payload offset
// and payload size of the first atom with the requested type.
func findAtom(r io.ReaderAt, start, end int64, atomType string) (int64, int64, error) {
	header := make([]byte, 16)
	offset := start
	for scanned := 0; offset+8 <= end && scanned < maxAtomScan; scanned++ {
		if _, err := r.ReadAt(header[:8], offset); err != nil {
			return 0, 0, err
		}
		size := int64(binary.BigEndian.Uint32(header[:4]))
		name := string(header[4:8])
		headerLen := int64(8)

		switch size {
		case 0:
			// Atom extends to end of file.
			size = end - offset
		case 1:
			// 64-bit extended size follows the type field.
			if _, err := r.ReadAt(header[8:16], offset+8); err != nil {
				return 0, 0, err
			}
			size = int64(binary.BigEndian.Uint64(header[8:16]))
			headerLen = 16
		}
		if size < headerLen {
			return 0, 0, fmt.Errorf("malformed atom %q at offset %d", name, offset)
		}

		if name == atomType {
			return offset + headerLen, size - headerLen, nil
		}
		offset += size
	}
	return 0, 0, errNoMovieHeader
}

func readMovieHeaderTime(r io.ReaderAt, offset int64) (time.Time, error) {
	version := make([]byte, 1)
	if _, err := r.ReadAt(version, offset); err != nil {
		return time.Time{}, err
	}

	var seconds uint64
	switch version[0] {
	case 0:
		buf := make([]byte, 4)
		if _, err := r.ReadAt(buf, offset+4); err != nil {
			return time.Time{}, err
		}
		seconds = uint64(binary.BigEndian.Uint32(buf))
	case 1:
		buf := make([]byte, 8)
		if _, err := r.ReadAt(buf, offset+4); err != nil {
			return time.Time{}, err
		}
		seconds = binary.BigEndian.Uint64(buf)
	default:
		return time.Time{}, fmt.Errorf("unsupported mvhd version %d", version[0])
	}

	if seconds == 0 {
		return time.Time{}, errors.New("mvhd creation time unset")
	}
	ts := quicktimeEpoch.Add(time.Duration(seconds) * time.Second)
	if ts.After(time.Now().Add(24 * time.Hour)) {
		// Garbage values land far in the future; treat them as unset.
		return time.Time{}, errors.New("mvhd creation time implausible")
	}
	return ts, nil
}
