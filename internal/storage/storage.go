package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Object is a file handed to an Uploader
type Object struct {
	Folder      string
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Uploaded is where an Uploader stored an object
type Uploaded struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

// Uploader stores media and returns its public location
type Uploader interface {
	Upload(ctx context.Context, obj Object) (Uploaded, error)
	Delete(ctx context.Context, publicID string) error
}

// ObjectKey builds a unique key under folder that keeps the original name
// readable, e.g. "cms/uploads/3f2c...-banner.png".
func ObjectKey(folder, name string) string {
	base := strings.ReplaceAll(filepath.Base(name), " ", "_")
	return path.Join(strings.Trim(folder, "/"), uuid.NewString()+"-"+base)
}

// LocalStorage implements Uploader on the local filesystem, for development
type LocalStorage struct {
	baseDir string
	baseURL string
}

// NewLocalStorage creates a new local filesystem storage backend
func NewLocalStorage(baseDir, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &LocalStorage{
		baseDir: baseDir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

func (s *LocalStorage) Upload(ctx context.Context, obj Object) (Uploaded, error) {
	key := ObjectKey(obj.Folder, obj.Name)
	fullPath := filepath.Join(s.baseDir, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return Uploaded{}, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return Uploaded{}, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, obj.Body); err != nil {
		return Uploaded{}, fmt.Errorf("failed to write file: %w", err)
	}

	return Uploaded{URL: s.baseURL + "/files/" + key, PublicID: key}, nil
}

// Open returns a stored object by its public id
func (s *LocalStorage) Open(publicID string) (io.ReadCloser, error) {
	file, err := os.Open(filepath.Join(s.baseDir, filepath.FromSlash(publicID)))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

func (s *LocalStorage) Delete(ctx context.Context, publicID string) error {
	if err := os.Remove(filepath.Join(s.baseDir, filepath.FromSlash(publicID))); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// CalculateSHA256 calculates SHA256 hash of file content
func CalculateSHA256(reader io.Reader) (string, error) {
	hash := sha256.New()
	if _, err := io.Copy(hash, reader); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
