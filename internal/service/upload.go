package service

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

// FileUpload is a file received from a multipart form.
type FileUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

type fileSaver interface {
	SaveStream(filename string, r io.Reader) (string, error)
}

// UploadPolicy restricts accepted images.
type UploadPolicy struct {
	MaxBytes     int64
	AllowedMIMEs []string
}

func (p UploadPolicy) check(upload *FileUpload) error {
	if upload == nil || upload.Reader == nil {
		return appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if p.MaxBytes > 0 && upload.Size > p.MaxBytes {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d bytes", p.MaxBytes))
	}
	if len(p.AllowedMIMEs) == 0 {
		return nil
	}
	mime := strings.ToLower(strings.TrimSpace(strings.SplitN(upload.ContentType, ";", 2)[0]))
	for _, allowed := range p.AllowedMIMEs {
		if strings.EqualFold(mime, allowed) {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported file type %q", upload.ContentType))
}

// uploadExt keeps a short lowercase extension from the client filename.
func uploadExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) > 6 || ext == "." {
		return ""
	}
	return ext
}
