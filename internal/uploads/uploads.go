// Package uploads spools multipart files to a per-request temp directory.
//
// A Batch owns its directory. Callers defer Release as soon as Spool
// succeeds; Spool removes its own partial output when it fails.
package uploads

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"labelcheck/internal/domain"
	"labelcheck/internal/ports"
)

// Allowed lists the accepted media types, checked against sniffed content.
var Allowed = []string{"image/jpeg", "image/png", "image/webp", "image/gif", "application/pdf"}

type Limits struct {
	MaxFileBytes int64
	MaxFiles     int
}

type Batch struct {
	Artifacts []ports.Artifact

	dir  string
	log  *zap.Logger
	once sync.Once
}

// Spool copies files into a fresh temp directory and sniffs their types.
func Spool(files []*multipart.FileHeader, limits Limits, log *zap.Logger) (*Batch, error) {
	b := &Batch{log: log}
	if len(files) == 0 {
		return b, nil
	}
	if limits.MaxFiles > 0 && len(files) > limits.MaxFiles {
		return nil, fmt.Errorf("%w: at most %d files per request", domain.ErrInvalidInput, limits.MaxFiles)
	}

	dir, err := os.MkdirTemp("", "labelcheck-upload-*")
	if err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	b.dir = dir

	for i, fh := range files {
		a, err := b.spoolOne(i, fh, limits)
		if err != nil {
			b.Release()
			return nil, err
		}
		b.Artifacts = append(b.Artifacts, a)
	}
	return b, nil
}

func (b *Batch) spoolOne(i int, fh *multipart.FileHeader, limits Limits) (ports.Artifact, error) {
	if limits.MaxFileBytes > 0 && fh.Size > limits.MaxFileBytes {
		return ports.Artifact{}, fmt.Errorf("%w: %s exceeds %d MB", domain.ErrInvalidInput, fh.Filename, limits.MaxFileBytes>>20)
	}
	src, err := fh.Open()
	if err != nil {
		return ports.Artifact{}, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer src.Close()

	path := filepath.Join(b.dir, fmt.Sprintf("%02d", i))
	dst, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return ports.Artifact{}, fmt.Errorf("create spool file: %w", err)
	}
	// Copy one byte past the limit so a lying Size header is still caught.
	var r io.Reader = src
	if limits.MaxFileBytes > 0 {
		r = io.LimitReader(src, limits.MaxFileBytes+1)
	}
	n, err := io.Copy(dst, r)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return ports.Artifact{}, fmt.Errorf("spool %s: %w", fh.Filename, err)
	}
	if limits.MaxFileBytes > 0 && n > limits.MaxFileBytes {
		return ports.Artifact{}, fmt.Errorf("%w: %s exceeds %d MB", domain.ErrInvalidInput, fh.Filename, limits.MaxFileBytes>>20)
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return ports.Artifact{}, fmt.Errorf("detect type of %s: %w", fh.Filename, err)
	}
	accepted := ""
	for _, allowed := range Allowed {
		if mt.Is(allowed) {
			accepted = allowed
			break
		}
	}
	if accepted == "" {
		return ports.Artifact{}, fmt.Errorf("%w: %s is %s", domain.ErrUnsupportedArtifact, fh.Filename, mt.String())
	}
	return ports.Artifact{Name: fh.Filename, Path: path, MIMEType: accepted, Size: n}, nil
}

// Dir is the spool directory, empty when nothing was uploaded.
func (b *Batch) Dir() string { return b.dir }

// Release deletes the spool directory. It is safe to call more than once.
func (b *Batch) Release() {
	b.once.Do(func() {
		if b.dir == "" {
			return
		}
		if err := os.RemoveAll(b.dir); err != nil {
			b.log.Warn("upload cleanup failed", zap.String("dir", b.dir), zap.Error(err))
			return
		}
		b.log.Debug("upload cleanup", zap.String("dir", b.dir), zap.Int("files", len(b.Artifacts)))
	})
}
