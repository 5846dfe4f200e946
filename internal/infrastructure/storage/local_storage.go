package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"supportchat/pkg/errors"
)

// StoredFile describes a persisted attachment. Path is
// server-relative; callers resolve it against their base URL.
type StoredFile struct {
	Path string
	Name string
}

// LocalStorage writes uploaded attachments to a directory served under
// /uploads. Attachment handling is deliberately minimal: the chat
// engine only needs an addressable descriptor back.
type LocalStorage struct {
	dir     string
	maxSize int64
}

func NewLocalStorage(dir string, maxSize int64) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStorage{dir: dir, maxSize: maxSize}, nil
}

func (s *LocalStorage) Dir() string {
	return s.dir
}

// Save streams the upload to disk under a fresh name, rejecting files
// over the size ceiling before writing past it.
func (s *LocalStorage) Save(ctx context.Context, originalName string, r io.Reader, declaredSize int64) (*StoredFile, error) {
	if s.maxSize > 0 && declaredSize > s.maxSize {
		return nil, errors.BadRequest(fmt.Sprintf("File exceeds maximum size of %d bytes", s.maxSize), nil)
	}

	name := sanitizeFileName(originalName)
	stored := uuid.New().String() + strings.ToLower(filepath.Ext(name))
	dst, err := os.Create(filepath.Join(s.dir, stored))
	if err != nil {
		return nil, errors.Internal("Failed to store file", err)
	}
	defer dst.Close()

	limit := s.maxSize
	if limit <= 0 {
		limit = declaredSize
	}
	written, err := io.Copy(dst, io.LimitReader(r, limit+1))
	if err != nil {
		os.Remove(dst.Name())
		return nil, errors.Internal("Failed to store file", err)
	}
	if s.maxSize > 0 && written > s.maxSize {
		os.Remove(dst.Name())
		return nil, errors.BadRequest(fmt.Sprintf("File exceeds maximum size of %d bytes", s.maxSize), nil)
	}

	return &StoredFile{
		Path: path.Join("/uploads", stored),
		Name: name,
	}, nil
}

func sanitizeFileName(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	if name == "" || name == "." {
		name = "upload"
	}
	return name
}
