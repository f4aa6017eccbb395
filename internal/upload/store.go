// Package upload stores user supplied files on local disk and serves them
// back under a public URL prefix.
package upload

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"serviceconnect/internal/api"
)

// URLPrefix is the route the stored files are served from.
const URLPrefix = "/uploads"

var imageTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

type File struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type LocalStore struct {
	dir      string
	baseURL  string
	maxBytes int64
}

func NewLocalStore(dir, baseURL string, maxBytes int64) (*LocalStore, error) {
	if maxBytes <= 0 {
		return nil, fmt.Errorf("upload: max bytes must be positive")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("upload: create %s: %w", dir, err)
	}
	return &LocalStore{
		dir:      dir,
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxBytes: maxBytes,
	}, nil
}

func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) MaxBytes() int64 {
	return s.maxBytes
}

// SaveImage reads r up to the size ceiling, checks the content is an image
// and writes it under a fresh name derived from filename.
func (s *LocalStore) SaveImage(r io.Reader, filename string) (*File, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("upload: read: %w", err)
	}
	if len(data) == 0 {
		return nil, api.Errorf(api.ErrValidation, "file is empty")
	}
	if int64(len(data)) > s.maxBytes {
		return nil, api.Errorf(api.ErrValidation, "file exceeds %d bytes", s.maxBytes)
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), imageTypes...) {
		return nil, api.Errorf(api.ErrValidation, "unsupported file type %s", mtype.String())
	}

	name := storedName(filename, mtype.Extension())
	if err := writeFile(filepath.Join(s.dir, name), data); err != nil {
		return nil, err
	}

	return &File{
		Name:        name,
		URL:         s.baseURL + path.Join(URLPrefix, name),
		ContentType: mtype.String(),
		Size:        int64(len(data)),
	}, nil
}

// Remove deletes a stored file. Missing files are not an error.
func (s *LocalStore) Remove(name string) error {
	if name == "" || name != filepath.Base(name) {
		return fmt.Errorf("upload: invalid name %q", name)
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func storedName(original, ext string) string {
	base := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	base = slug.Make(base)
	if len(base) > 40 {
		base = strings.Trim(base[:40], "-")
	}

	id := uuid.NewString()
	if base == "" {
		return id + ext
	}
	return id + "-" + base + ext
}

func writeFile(dst string, data []byte) error {
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("upload: create: %w", err)
	}
	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		f.Close()
		os.Remove(dst)
		return fmt.Errorf("upload: write: %w", err)
	}
	return f.Close()
}
