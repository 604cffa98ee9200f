package storage

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"GreenOrigin-Backend/internal/utils"

	"github.com/gabriel-vasile/mimetype"
)

const MaxUploadSize = 5 << 20

var (
	AllowImage = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

	ErrInvalidFileType = errors.New("file type not allowed")
	ErrFileTooLarge    = errors.New("file exceeds 5MB")
)

type Storage interface {
	// UploadFile stores file under dir and returns its object key.
	UploadFile(ctx context.Context, name string, file *multipart.FileHeader, dir string, allowed ...string) (string, error)
	DeleteFile(ctx context.Context, key string) error
	GetPublicLinkKey(key string) string
	GetObjectKeyFromLink(link string) string
}

// NewStorage picks the backend named by STORAGE_DRIVER.
func NewStorage() (Storage, error) {
	switch utils.GetConfig("STORAGE_DRIVER") {
	case "s3":
		s3, err := NewAwsS3()
		if err != nil {
			return nil, err
		}
		return s3, nil
	case "local", "":
		return NewLocalStorage(utils.GetConfig("UPLOAD_DIR")), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", utils.GetConfig("STORAGE_DRIVER"))
	}
}

// detectContentType sniffs the file body. The client's Content-Type header
// and filename are never trusted.
func detectContentType(file *multipart.FileHeader) (*mimetype.MIME, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return mimetype.DetectReader(f)
}

func isAllowed(mtype *mimetype.MIME, allowed []string) bool {
	for _, a := range allowed {
		if mtype.Is(a) {
			return true
		}
	}
	return false
}

// checkFile validates size and sniffed type and returns the key the file is
// stored under, dir/name-<unix>.<ext>, with the extension of the sniffed type.
func checkFile(name string, file *multipart.FileHeader, dir string, allowed []string) (string, string, error) {
	if file.Size > MaxUploadSize {
		return "", "", ErrFileTooLarge
	}

	mtype, err := detectContentType(file)
	if err != nil {
		return "", "", err
	}
	if len(allowed) > 0 && !isAllowed(mtype, allowed) {
		return "", "", ErrInvalidFileType
	}

	if name == "" {
		name = "file"
	}
	key := fmt.Sprintf("%s/%s-%d%s", strings.Trim(dir, "/"), sanitize(name), time.Now().UnixNano(), mtype.Extension())
	return key, mtype.String(), nil
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, name)
}
