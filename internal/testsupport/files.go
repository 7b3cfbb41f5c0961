package testsupport

import (
	"bytes"
	"encoding/binary"
	"os"
	"testing"
	"time"
)

// WriteFile creates path with the given content, failing the test on error.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// JPEGWithEXIF writes a minimal JPEG whose APP1 segment carries an EXIF
// DateTimeOriginal matching ts.
func JPEGWithEXIF(t testing.TB, path string, ts time.Time) {
	t.Helper()
	WriteFile(t, path, jpegWithEXIFBytes(ts))
}

// PlainJPEG writes a JPEG without any EXIF segment; resolvers must fall back
// to other date sources.
func PlainJPEG(t testing.TB, path string) {
	t.Helper()
	payload := []byte{0xFF, 0xD8, 0xFF, 0xDB, 0x00, 0x04, 0x00, 0x00, 0xFF, 0xD9}
	WriteFile(t, path, payload)
}

// MP4WithCreationTime writes a minimal MP4 container whose mvhd atom carries
// the given creation time.
func MP4WithCreationTime(t testing.TB, path string, ts time.Time) {
	t.Helper()
	WriteFile(t, path, mp4Bytes(ts, true))
}

// MP4WithoutCreationTime writes an MP4 whose mvhd creation field is zero.
func MP4WithoutCreationTime(t testing.TB, path string) {
	t.Helper()
	WriteFile(t, path, mp4Bytes(time.Time{}, false))
}

func jpegWithEXIFBytes(ts time.Time) []byte {
	stamp := ts.Format("2006:01:02 15:04:05")
	dateBytes := append([]byte(stamp), 0x00) // 20 bytes, NUL terminated

	// Little-endian TIFF: IFD0 with an ExifIFD pointer, ExifIFD with
	// DateTimeOriginal, then the date string payload.
	tiff := &bytes.Buffer{}
	tiff.Write([]byte{'I', 'I', 0x2A, 0x00})
	binary.Write(tiff, binary.LittleEndian, uint32(8)) // IFD0 offset

	// IFD0: one entry pointing at the Exif sub-IFD (offset 26).
	binary.Write(tiff, binary.LittleEndian, uint16(1))
	binary.Write(tiff, binary.LittleEndian, uint16(0x8769)) // ExifIFDPointer
	binary.Write(tiff, binary.LittleEndian, uint16(4))      // LONG
	binary.Write(tiff, binary.LittleEndian, uint32(1))
	binary.Write(tiff, binary.LittleEndian, uint32(26))
	binary.Write(tiff, binary.LittleEndian, uint32(0)) // next IFD

	// Exif IFD: DateTimeOriginal, value stored at offset 44.
	binary.Write(tiff, binary.LittleEndian, uint16(1))
	binary.Write(tiff, binary.LittleEndian, uint16(0x9003)) // DateTimeOriginal
	binary.Write(tiff, binary.LittleEndian, uint16(2))      // ASCII
	binary.Write(tiff, binary.LittleEndian, uint32(len(dateBytes)))
	binary.Write(tiff, binary.LittleEndian, uint32(44))
	binary.Write(tiff, binary.LittleEndian, uint32(0)) // next IFD

	tiff.Write(dateBytes)

	exifPayload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)

	out := &bytes.Buffer{}
	out.Write([]byte{0xFF, 0xD8}) // SOI
	out.Write([]byte{0xFF, 0xE1}) // APP1
	binary.Write(out, binary.BigEndian, uint16(len(exifPayload)+2))
	out.Write(exifPayload)
	out.Write([]byte{0xFF, 0xD9}) // EOI
	return out.Bytes()
}

func mp4Bytes(ts time.Time, withCreation bool) []byte {
	quicktimeEpoch := time.Date(1904, time.January, 1, 0, 0, 0, 0, time.UTC)
	var creation uint32
	if withCreation {
		creation = uint32(ts.UTC().Sub(quicktimeEpoch) / time.Second)
	}

	// mvhd version 0 has a fixed 100-byte payload.
	mvhd := &bytes.Buffer{}
	binary.Write(mvhd, binary.BigEndian, uint32(108))
	mvhd.WriteString("mvhd")
	mvhd.WriteByte(0)                   // version
	mvhd.Write([]byte{0, 0, 0})         // flags
	binary.Write(mvhd, binary.BigEndian, creation)
	binary.Write(mvhd, binary.BigEndian, creation)   // modification
	binary.Write(mvhd, binary.BigEndian, uint32(1000)) // timescale
	binary.Write(mvhd, binary.BigEndian, uint32(0))  // duration
	mvhd.Write(make([]byte, 80))                     // rate, volume, matrix, next track

	moov := &bytes.Buffer{}
	binary.Write(moov, binary.BigEndian, uint32(8+mvhd.Len()))
	moov.WriteString("moov")
	moov.Write(mvhd.Bytes())

	ftyp := &bytes.Buffer{}
	binary.Write(ftyp, binary.BigEndian, uint32(16))
	ftyp.WriteString("ftyp")
	ftyp.WriteString("isom")
	binary.Write(ftyp, binary.BigEndian, uint32(0x200))

	return append(ftyp.Bytes(), moov.Bytes()...)
}
