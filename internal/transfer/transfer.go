// Package transfer moves verified copies of media files into the library.
//
// The ordering is copy, verify, rename, delete: the source is only removed
// once a fully verified copy sits at its final name. A failed verification
// discards the temporary file and leaves the source untouched.
package transfer

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Engine performs buffered, durable copy-then-verify-then-remove transfers.
type Engine struct {
	bufferSize int
}

// NewEngine returns an Engine copying in chunks of bufferSize bytes.
func NewEngine(bufferSize int) *Engine {
	if bufferSize <= 0 {
		bufferSize = 1 << 20
	}
	return &Engine{bufferSize: bufferSize}
}

// Transfer copies src to dst and removes src after verification. The
// destination directory is created as needed. On any failure the source file
// is left in place and no partial file remains at dst.
func (e *Engine) Transfer(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}

	// Temp file lives in the destination directory so the final rename
	// stays on one filesystem and is atomic.
	tmpPath := filepath.Join(dir, ".dropsort-"+uuid.NewString()+".tmp")
	if err := e.copyVerified(src, tmpPath, srcInfo.Size()); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename into place: %w", err)
	}

	if err := os.Remove(src); err != nil {
		// The verified copy is in place; a stuck source is worth
		// reporting but must not undo the transfer.
		return fmt.Errorf("remove source after transfer: %w", err)
	}
	return nil
}

func (e *Engine) copyVerified(src, tmpPath string, expectedSize int64) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = out.Close()
	}()

	srcHasher := sha256.New()
	dstHasher := sha256.New()
	tee := io.TeeReader(in, srcHasher)
	multi := io.MultiWriter(out, dstHasher)

	written, err := io.CopyBuffer(multi, tee, make([]byte, e.bufferSize))
	if err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	if err := out.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if written != expectedSize {
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", expectedSize, written)
	}
	if !bytes.Equal(srcHasher.Sum(nil), dstHasher.Sum(nil)) {
		return fmt.Errorf("copy hash mismatch: file corrupted during copy")
	}
	return nil
}
