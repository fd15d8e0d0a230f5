// Package storage persists uploaded files (supporting documents, profile
// images) under a local upload directory.
package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidImageType = errors.New("profile image must be an image file")

// DocStore writes uploads below root and hands back forward-slash relative
// paths, which is what land records persist.
type DocStore struct {
	root string
}

func NewDocStore(root string) (*DocStore, error) {
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, err
	}
	return &DocStore{root: root}, nil
}

// SaveDocument stores one supporting document and returns its stored path.
func (d *DocStore) SaveDocument(fh *multipart.FileHeader) (string, error) {
	return d.save(fh, "documents")
}

// SaveProfileImage stores a profile image after sniffing that the payload
// actually is one.
func (d *DocStore) SaveProfileImage(fh *multipart.FileHeader) (string, error) {
	file, err := fh.Open()
	if err != nil {
		return "", err
	}
	buf := make([]byte, 512)
	n, err := file.Read(buf)
	_ = file.Close()
	if err != nil && err != io.EOF {
		return "", err
	}
	if !strings.HasPrefix(http.DetectContentType(buf[:n]), "image/") {
		return "", ErrInvalidImageType
	}
	return d.save(fh, "profile")
}

func (d *DocStore) save(fh *multipart.FileHeader, kind string) (string, error) {
	file, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	name := fmt.Sprintf("%s_%s%s", time.Now().Format("20060102-150405"), uuid.NewString(), ext)

	dir := filepath.Join(d.root, kind)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}

	dst, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", err
	}

	// Stored paths are always forward-slash, regardless of host OS.
	return filepath.ToSlash(filepath.Join(filepath.Base(d.root), kind, name)), nil
}
