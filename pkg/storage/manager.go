package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ConflictMode controls what happens when a target filename already exists.
type ConflictMode int

const (
	// Uniquify appends " (1)", " (2)", ... before the extension until the
	// name is free.
	Uniquify ConflictMode = iota
	// Overwrite replaces the existing file.
	Overwrite
)

// SavedFile describes a completed write.
type SavedFile struct {
	ID   string // opaque download id
	Path string // absolute path of the written file
}

// redirectPage is written next to downloaded videos so the gallery can link
// back to the pin the video came from.
const redirectPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="0; url=%[1]s">
<title>Pinterest video</title>
</head>
<body>
<p>Opening <a href="%[1]s">%[1]s</a>...</p>
</body>
</html>
`

// Manager writes downloaded media into per-sender directories under a base
// directory and keeps gallery support files beside them.
type Manager struct {
	baseDir string
	mode    ConflictMode
	// overwriteGalleries allows regenerating an existing monthly gallery
	// document; when false, existing galleries are left untouched.
	overwriteGalleries bool
	mu                 sync.Mutex
}

// NewManager creates a storage manager rooted at baseDir. mode governs
// media filename conflicts; overwriteGalleries governs whether existing
// monthly gallery documents are regenerated.
func NewManager(baseDir string, mode ConflictMode, overwriteGalleries bool) (*Manager, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Manager{baseDir: baseDir, mode: mode, overwriteGalleries: overwriteGalleries}, nil
}

// BaseDir returns the root output directory.
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// SenderDir returns the directory media from the given sender is saved to.
func (m *Manager) SenderDir(senderID string) string {
	return filepath.Join(m.baseDir, "Pinterest-messages-from-"+senderID)
}

// SaveMedia writes one media file into the sender's directory. The write is
// atomic and the returned id is unique per download.
func (m *Manager) SaveMedia(r io.Reader, senderID, filename string) (*SavedFile, error) {
	dir := m.SenderDir(senderID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sender directory: %w", err)
	}

	m.mu.Lock()
	target, err := m.resolveConflict(filepath.Join(dir, filename))
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	err = writeAtomic(target, r)
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	return &SavedFile{ID: uuid.New().String(), Path: target}, nil
}

// SaveRedirect writes an HTML page next to a saved video that forwards to
// its pin URL. It shares the media file's basename with an .html extension.
func (m *Manager) SaveRedirect(mediaPath, pinURL string) (string, error) {
	ext := filepath.Ext(mediaPath)
	target := strings.TrimSuffix(mediaPath, ext) + ".html"

	page := fmt.Sprintf(redirectPage, pinURL)
	if err := writeAtomic(target, strings.NewReader(page)); err != nil {
		return "", err
	}
	return target, nil
}

// WriteGalleryFile writes a gallery document at the output root. A previous
// version is replaced unless gallery overwriting is disabled, in which case
// the existing document wins.
func (m *Manager) WriteGalleryFile(name string, data []byte) (string, error) {
	target := filepath.Join(m.baseDir, name)
	if !m.overwriteGalleries {
		if _, err := os.Stat(target); err == nil {
			return target, nil
		}
	}
	if err := writeAtomic(target, strings.NewReader(string(data))); err != nil {
		return "", err
	}
	return target, nil
}

// HasAsset reports whether a gallery support asset is already cached.
func (m *Manager) HasAsset(name string) bool {
	_, err := os.Stat(filepath.Join(m.baseDir, name))
	return err == nil
}

// SaveAsset caches a gallery support asset (script or stylesheet) at the
// output root. Existing assets are left alone.
func (m *Manager) SaveAsset(name string, r io.Reader) (string, error) {
	target := filepath.Join(m.baseDir, name)
	if _, err := os.Stat(target); err == nil {
		return target, nil
	}
	if err := writeAtomic(target, r); err != nil {
		return "", err
	}
	return target, nil
}

// resolveConflict applies the manager's conflict mode to a target path.
// Callers must hold m.mu.
func (m *Manager) resolveConflict(target string) (string, error) {
	if m.mode == Overwrite {
		return target, nil
	}

	if _, err := os.Stat(target); os.IsNotExist(err) {
		return target, nil
	}

	ext := filepath.Ext(target)
	stem := strings.TrimSuffix(target, ext)
	for n := 1; n < 1000; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, n, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("unable to find a free filename for %s", target)
}

func writeAtomic(target string, r io.Reader) error {
	tempFile := target + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write file data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, target); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}
