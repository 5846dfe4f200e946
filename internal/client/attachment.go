package client

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"supportchat/pkg/errors"
)

// DefaultMaxAttachmentSize matches the backend's upload ceiling, so an
// oversize file is rejected before any bytes go on the wire.
const DefaultMaxAttachmentSize = 5 * 1024 * 1024

// Attachment is an opened upload candidate. The caller owns the Reader
// and must close it after the send completes.
type Attachment struct {
	FileName string
	Size     int64
	Reader   io.ReadCloser
}

func (a *Attachment) Close() error {
	if a == nil || a.Reader == nil {
		return nil
	}
	return a.Reader.Close()
}

// AttachmentResolver turns a user-supplied path into an upload-ready
// attachment, enforcing the size ceiling locally.
type AttachmentResolver interface {
	Resolve(path string) (*Attachment, error)
}

type fileAttachmentResolver struct {
	maxSize int64
}

func NewFileAttachmentResolver(maxSize int64) AttachmentResolver {
	if maxSize <= 0 {
		maxSize = DefaultMaxAttachmentSize
	}
	return &fileAttachmentResolver{maxSize: maxSize}
}

func (r *fileAttachmentResolver) Resolve(path string) (*Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.BadRequest("Attachment file not found", err)
	}
	if info.IsDir() {
		return nil, errors.BadRequest("Attachment path is a directory", nil)
	}
	if info.Size() > r.maxSize {
		return nil, errors.BadRequest(
			fmt.Sprintf("File too large, maximum size is %dMB", r.maxSize/(1024*1024)), nil)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.BadRequest("Failed to open attachment", err)
	}
	return &Attachment{
		FileName: filepath.Base(path),
		Size:     info.Size(),
		Reader:   f,
	}, nil
}

// ResolveFileURL joins a stored attachment path with the backend base
// URL. Message records carry server-relative paths only.
func ResolveFileURL(baseURL, filePath string) string {
	if filePath == "" {
		return ""
	}
	if strings.HasPrefix(filePath, "http://") || strings.HasPrefix(filePath, "https://") {
		return filePath
	}
	return strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(filePath, "/")
}
