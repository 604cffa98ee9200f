package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
)

// PublicPrefix is the URL path the upload directory is served under.
const PublicPrefix = "/uploads/"

type LocalStorage struct {
	root string
}

func NewLocalStorage(root string) *LocalStorage {
	if root == "" {
		root = "./uploads"
	}
	return &LocalStorage{root: root}
}

func (l *LocalStorage) Root() string {
	return l.root
}

func (l *LocalStorage) UploadFile(ctx context.Context, name string, file *multipart.FileHeader, dir string, allowed ...string) (string, error) {
	key, _, err := checkFile(name, file, dir, allowed)
	if err != nil {
		return "", err
	}

	dst := filepath.Join(l.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), os.ModePerm); err != nil {
		return "", err
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return "", err
	}
	return key, nil
}

func (l *LocalStorage) DeleteFile(ctx context.Context, key string) error {
	if key == "" || strings.Contains(key, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(l.root, filepath.FromSlash(key)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (l *LocalStorage) GetPublicLinkKey(key string) string {
	return PublicPrefix + key
}

func (l *LocalStorage) GetObjectKeyFromLink(link string) string {
	if !strings.HasPrefix(link, PublicPrefix) {
		return ""
	}
	return strings.TrimPrefix(link, PublicPrefix)
}
