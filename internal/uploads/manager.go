// Package uploads persists user-supplied files under collision-free, sanitized
// names and resolves them to public URLs.
package uploads

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrUnsupportedMediaType = errors.New("file type not allowed")
	ErrFileTooLarge         = errors.New("file too large")
	ErrEmptyFile            = errors.New("file is empty")
	ErrInvalidRef           = errors.New("invalid stored reference")
	ErrNotFound             = errors.New("stored file not found")
)

// DefaultAllowedExtensions is the image allow-list used when none is configured.
var DefaultAllowedExtensions = []string{"png", "jpg", "jpeg", "gif"}

const (
	DefaultURLPrefix = "/static/uploads"
	DefaultMaxBytes  = 5 << 20
)

// expectedMIME maps extensions to the content type their bytes must sniff as.
// Extensions not listed here are accepted on name alone.
var expectedMIME = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"pdf":  "application/pdf",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// Config configures a Manager.
type Config struct {
	Root              string
	AllowedExtensions []string
	URLPrefix         string
	PublicBaseURL     string
	MaxBytes          int64
	// MaxImageDimension downscales PNG/JPEG uploads whose width or height
	// exceeds it. Zero disables resizing.
	MaxImageDimension int
}

// Manager stores files on the local filesystem.
type Manager struct {
	root         string
	allowed      map[string]bool
	urlPrefix    string
	publicBase   string
	maxBytes     int64
	maxDimension int
	now          func() time.Time
}

// NewManager creates the storage root if needed and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Root == "" {
		return nil, errors.New("uploads: storage root is required")
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving storage root: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage root: %w", err)
	}

	exts := cfg.AllowedExtensions
	if len(exts) == 0 {
		exts = DefaultAllowedExtensions
	}
	allowed := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			allowed[ext] = true
		}
	}

	prefix := cfg.URLPrefix
	if prefix == "" {
		prefix = DefaultURLPrefix
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	return &Manager{
		root:         root,
		allowed:      allowed,
		urlPrefix:    "/" + strings.Trim(prefix, "/"),
		publicBase:   strings.TrimRight(cfg.PublicBaseURL, "/"),
		maxBytes:     maxBytes,
		maxDimension: cfg.MaxImageDimension,
		now:          time.Now,
	}, nil
}

// Root returns the absolute directory files are written to.
func (m *Manager) Root() string { return m.root }

// URLPrefix returns the path stored files are served under.
func (m *Manager) URLPrefix() string { return m.urlPrefix }

// Allowed reports whether filename has an allowed extension.
func (m *Manager) Allowed(filename string) bool {
	return m.allowed[extension(filename)]
}

// Store validates r and writes it under a fresh name derived from filename.
// The returned reference is the stored file name.
func (m *Manager) Store(r io.Reader, filename string) (string, error) {
	name := SanitizeFilename(filename)
	ext := extension(name)
	if !m.allowed[ext] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMediaType, filename)
	}

	data, err := io.ReadAll(io.LimitReader(r, m.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > m.maxBytes {
		return "", fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, m.maxBytes)
	}
	if len(data) == 0 {
		return "", ErrEmptyFile
	}

	if want, ok := expectedMIME[ext]; ok {
		if detected := mimetype.Detect(data); !detected.Is(want) {
			return "", fmt.Errorf("%w: content is %s, expected %s", ErrUnsupportedMediaType, detected.String(), want)
		}
	}

	if m.maxDimension > 0 {
		data, err = downscale(data, ext, m.maxDimension)
		if err != nil {
			return "", err
		}
	}

	ref := m.uniqueName(name)
	f, err := os.OpenFile(filepath.Join(m.root, ref), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("creating stored file: %w", err)
	}
	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("writing stored file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("closing stored file: %w", err)
	}

	return ref, nil
}

// Remove deletes a stored file. Removing a missing file is not an error.
func (m *Manager) Remove(ref string) error {
	p, err := m.path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing stored file: %w", err)
	}
	return nil
}

// Locate returns the filesystem path of a stored file, or ErrNotFound.
func (m *Manager) Locate(ref string) (string, error) {
	p, err := m.path(ref)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("stat stored file: %w", err)
	}
	return p, nil
}

// Resolve builds the absolute URL for a stored reference. A nil or empty
// reference resolves to nil. The configured public base URL wins over
// requestBase, which is normally the scheme and host of the current request.
func (m *Manager) Resolve(ref *string, requestBase string) *string {
	if ref == nil || *ref == "" {
		return nil
	}
	base := m.publicBase
	if base == "" {
		base = strings.TrimRight(requestBase, "/")
	}
	url := base + path.Join(m.urlPrefix, *ref)
	return &url
}

func (m *Manager) path(ref string) (string, error) {
	if ref == "" || ref != filepath.Base(ref) || ref == "." || ref == ".." || strings.ContainsAny(ref, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return filepath.Join(m.root, ref), nil
}

func (m *Manager) uniqueName(name string) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%s_%s_%s", m.now().UTC().Format("20060102150405"), token, name)
}

func extension(filename string) string {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 || i == len(filename)-1 {
		return ""
	}
	return strings.ToLower(filename[i+1:])
}

// SanitizeFilename reduces filename to a safe base name: directory parts are
// dropped, whitespace becomes underscores, anything outside [A-Za-z0-9._-]
// is removed and leading dots, dashes and underscores are stripped.
func SanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, `\`, "/")
	if i := strings.LastIndexByte(filename, '/'); i >= 0 {
		filename = filename[i+1:]
	}

	var b strings.Builder
	for _, r := range strings.Join(strings.Fields(filename), "_") {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}

	name := strings.TrimLeft(b.String(), "._-")
	if name == "" {
		return "upload"
	}
	if len(name) > 120 {
		ext := extension(name)
		if ext != "" && len(ext) < 20 {
			name = name[:120-len(ext)-1] + "." + ext
		} else {
			name = name[:120]
		}
	}
	return name
}
