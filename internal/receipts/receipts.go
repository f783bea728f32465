// Package receipts writes uploaded receipt files to the upload directory.
package receipts

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"travel-expenses/internal/models"
)

// AllowedExtensions lists the accepted receipt file types.
var AllowedExtensions = []string{".jpg", ".jpeg", ".png", ".pdf"}

const timestampLayout = "20060102150405"

// Store saves receipts under a single directory.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore creates a Store rooted at dir. The directory is created on first save.
func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// Dir returns the upload directory.
func (s *Store) Dir() string {
	return s.dir
}

// PathFor returns where a receipt named originalName uploaded at t is stored.
func (s *Store) PathFor(originalName string, t time.Time) string {
	name := fmt.Sprintf("receipt_%s_%s", t.UTC().Format(timestampLayout), filepath.Base(originalName))
	return filepath.Join(s.dir, name)
}

// Save copies r to a new receipt file and returns its path, the value to
// store as an expense's receipt path.
func (s *Store) Save(originalName string, r io.Reader) (string, error) {
	originalName = strings.TrimSpace(originalName)
	base := filepath.Base(originalName)
	if originalName == "" || base == "." || base == string(filepath.Separator) {
		return "", models.Invalid("receipt", "file name is required")
	}
	ext := strings.ToLower(filepath.Ext(base))
	if !slices.Contains(AllowedExtensions, ext) {
		return "", models.Invalid("receipt", fmt.Sprintf("unsupported file type %q", ext))
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}

	path := s.PathFor(base, s.now())
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create receipt file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write receipt file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close receipt file: %w", err)
	}
	return path, nil
}
