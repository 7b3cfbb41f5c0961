// Package identity derives stable content fingerprints for media files.
//
// An identity combines file size with a SHA-256 digest of the leading 64 KiB.
// Hashing only the head keeps dedup checks cheap for multi-gigabyte videos
// while still distinguishing same-named files with different content; the
// transfer engine separately verifies the full content hash during copies.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
)

// headLen is the number of leading bytes hashed into a fingerprint.
const headLen = 64 * 1024

// Identity is the dedup key for a media file.
type Identity struct {
	Size     int64
	HeadHash string
}

// String renders the canonical ledger key form ("<headhash>:<size>").
func (id Identity) String() string {
	return fmt.Sprintf("%s:%d", id.HeadHash, id.Size)
}

// Equal reports whether two identities describe the same content.
func (id Identity) Equal(other Identity) bool {
	return id.Size == other.Size && id.HeadHash == other.HeadHash
}

// FromFile computes the identity of the file at path.
func FromFile(path string) (Identity, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Identity{}, err
	}
	if info.IsDir() {
		return Identity{}, errors.New("identity: path is a directory")
	}

	file, err := os.Open(path)
	if err != nil {
		return Identity{}, err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.CopyN(hasher, file, headLen); err != nil && !errors.Is(err, io.EOF) {
		return Identity{}, fmt.Errorf("hash head of %s: %w", path, err)
	}

	return Identity{
		Size:     info.Size(),
		HeadHash: hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}
