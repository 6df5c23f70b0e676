package blob

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	// MaxFileSize is the upload ceiling, 2 MiB.
	MaxFileSize = 2 << 20

	documentsDir = "assets/documents"
)

// AllowedExtensions lists the accepted upload types.
var AllowedExtensions = []string{".jpg", ".jpeg", ".png", ".pdf", ".docx"}

var (
	ErrFileTooLarge        = errors.New("file exceeds the maximum allowed size")
	ErrExtensionNotAllowed = errors.New("file extension is not allowed")
)

// Store writes uploaded documents under a base directory and hands back
// paths relative to it. URL prefixing is the caller's concern.
type Store struct {
	BasePath string
}

func NewStore(basePath string) *Store {
	return &Store{BasePath: basePath}
}

// Upload streams the file to disk under a collision-free name. When
// replaceExisting names a previous file it is removed only after the new
// one is fully written.
func (s *Store) Upload(name string, r io.Reader, replaceExisting string) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if !extensionAllowed(ext) {
		return "", ErrExtensionNotAllowed
	}
	dir := filepath.Join(s.BasePath, documentsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	relative := filepath.ToSlash(filepath.Join(documentsDir, uuid.NewString()+"_"+sanitize(name)))
	target := filepath.Join(s.BasePath, filepath.FromSlash(relative))

	f, err := os.Create(target)
	if err != nil {
		return "", err
	}
	// One byte past the limit distinguishes too-large from exactly-at-limit.
	n, err := io.Copy(f, io.LimitReader(r, MaxFileSize+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(target)
		return "", fmt.Errorf("write upload: %w", err)
	}
	if n > MaxFileSize {
		os.Remove(target)
		return "", ErrFileTooLarge
	}
	if replaceExisting != "" && replaceExisting != relative {
		_ = s.Remove(replaceExisting)
	}
	return relative, nil
}

// Remove deletes a previously uploaded file. A missing file is not an
// error.
func (s *Store) Remove(relative string) error {
	if relative == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.BasePath, filepath.FromSlash(relative)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func extensionAllowed(ext string) bool {
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func sanitize(name string) string {
	name = filepath.Base(name)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, name)
}
