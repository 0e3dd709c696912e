// Package upload stores student photos on the local filesystem.
//
// A photo is accepted only if it has a filename, an allowed extension and
// fits within the configured size limit. Files are written to a temp file
// first and renamed into place, so a reader never sees a half-written photo.
package upload

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/aanand-mishra/siswa-api/internal/config"
)

var (
	// ErrMissingFile indicates the request carried no file or an empty filename.
	ErrMissingFile = errors.New("file is required")
	// ErrExtensionNotAllowed indicates the filename extension is not permitted.
	ErrExtensionNotAllowed = errors.New("file extension not allowed")
	// ErrTooLarge indicates the file exceeded the configured limit.
	ErrTooLarge = errors.New("file exceeds maximum allowed size")
)

// maxNameLen caps the sanitised original name kept in the stored filename.
const maxNameLen = 100

// PhotoStore manages photo files under a single directory.
type PhotoStore struct {
	dir     string
	maxSize int64
	allowed map[string]struct{}
}

// New creates the upload directory if needed and returns a PhotoStore.
func New(cfg config.Upload) (*PhotoStore, error) {
	if cfg.MaxSize <= 0 {
		return nil, fmt.Errorf("upload.New: max size must be positive")
	}
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("upload.New: create dir %s: %w", cfg.Dir, err)
	}

	allowed := make(map[string]struct{}, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}

	return &PhotoStore{dir: cfg.Dir, maxSize: cfg.MaxSize, allowed: allowed}, nil
}

// Dir returns the upload directory.
func (p *PhotoStore) Dir() string {
	return p.dir
}

// MaxSize returns the per-file byte limit.
func (p *PhotoStore) MaxSize() int64 {
	return p.maxSize
}

// Path returns the on-disk location of a stored photo.
func (p *PhotoStore) Path(name string) string {
	return filepath.Join(p.dir, name)
}

// Validate checks a photo's filename and declared size without touching disk.
// The checks run in order: presence, extension, size.
func (p *PhotoStore) Validate(filename string, size int64) error {
	base := baseName(filename)
	if base == "" {
		return ErrMissingFile
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(base), "."))
	if _, ok := p.allowed[ext]; !ok {
		return ErrExtensionNotAllowed
	}

	if size > p.maxSize {
		return ErrTooLarge
	}

	return nil
}

// FileName derives the stored name siswa_{id}_{original} with the original
// name reduced to a safe single path element.
func (p *PhotoStore) FileName(id int64, original string) string {
	return fmt.Sprintf("siswa_%d_%s", id, sanitize(baseName(original)))
}

// Save writes r to name inside the upload directory.
//
// Pattern: temp file → copy (bounded by maxSize) → fsync → atomic rename.
// On any error the temp file is removed and an existing photo with the
// same name is left as it was.
func (p *PhotoStore) Save(name string, r io.Reader) (int64, error) {
	if name != filepath.Base(name) || name == "." || name == ".." {
		return 0, fmt.Errorf("Save: invalid file name %q", name)
	}

	fullPath := p.Path(name)
	tmpPath := filepath.Join(p.dir, "."+uuid.NewString()+".tmp")

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return 0, fmt.Errorf("Save: create temp file: %w", err)
	}

	// Read one byte past the limit so an oversized stream is detectable.
	size, err := io.Copy(f, io.LimitReader(r, p.maxSize+1))
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return 0, fmt.Errorf("Save: write: %w", err)
	}
	if size > p.maxSize {
		f.Close()
		os.Remove(tmpPath)
		return 0, ErrTooLarge
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return 0, fmt.Errorf("Save: fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("Save: close: %w", err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("Save: rename: %w", err)
	}

	return size, nil
}

// Remove deletes a stored photo. A file that is already gone is not an error.
func (p *PhotoStore) Remove(name string) error {
	if name == "" || name != filepath.Base(name) {
		return fmt.Errorf("Remove: invalid file name %q", name)
	}

	err := os.Remove(p.Path(name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("Remove: %w", err)
	}
	return nil
}

// Exists reports whether a stored photo is present on disk.
func (p *PhotoStore) Exists(name string) bool {
	_, err := os.Stat(p.Path(name))
	return err == nil
}

// baseName strips any client-side directory, whichever separator it uses.
func baseName(filename string) string {
	name := strings.TrimSpace(strings.ReplaceAll(filename, "\\", "/"))
	if name == "" {
		return ""
	}
	name = path.Base(name)
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}

// sanitize keeps ASCII letters, digits, '.', '-' and '_'; everything else
// becomes '_'. Leading dots are dropped so the result is never hidden.
func sanitize(name string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	clean = strings.TrimLeft(clean, ".")

	if len(clean) > maxNameLen {
		ext := filepath.Ext(clean)
		if len(ext) >= maxNameLen {
			ext = ""
		}
		clean = clean[:maxNameLen-len(ext)] + ext
	}

	if clean == "" {
		return "foto"
	}
	return clean
}
