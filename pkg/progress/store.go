// Package progress persists the set of already-downloaded attachments so
// repeated scans of the same conversation skip work they have done before.
package progress

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"pindm/pkg/logger"
)

// State is the on-disk shape of the progress file.
type State struct {
	DownloadedImages       []string  `json:"downloaded_images"`
	LastProcessedMessageID string    `json:"last_processed_message_id"`
	TotalDownloaded        int       `json:"total_downloaded"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
	Version                int       `json:"version"`
}

// Store tracks downloaded attachments and survives restarts. All methods
// are safe for concurrent use.
type Store struct {
	mu   sync.Mutex
	path string

	downloaded    map[string]struct{}
	lastMessageID string
	createdAt     time.Time

	logger logger.Logger
}

// NewStore creates a store backed by the given file path. The file is
// loaded immediately if it exists; a missing file is an empty store.
func NewStore(path string, log logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	s := &Store{
		path:       path,
		downloaded: make(map[string]struct{}),
		createdAt:  time.Now(),
		logger:     log,
	}

	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewDefaultStore places the progress file in the platform data directory.
func NewDefaultStore(log logger.Logger) (*Store, error) {
	dataDir, err := getDataDirectory()
	if err != nil {
		return nil, fmt.Errorf("failed to get data directory: %w", err)
	}
	return NewStore(filepath.Join(dataDir, "progress.json"), log)
}

func (s *Store) load() error {
	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // Fresh store
		}
		return fmt.Errorf("failed to open progress file: %w", err)
	}
	defer file.Close()

	var state State
	if err := json.NewDecoder(file).Decode(&state); err != nil {
		return fmt.Errorf("failed to decode progress file: %w", err)
	}

	for _, key := range state.DownloadedImages {
		s.downloaded[key] = struct{}{}
	}
	s.lastMessageID = state.LastProcessedMessageID
	if !state.CreatedAt.IsZero() {
		s.createdAt = state.CreatedAt
	}

	s.logger.InfoWithFields("Progress loaded", map[string]interface{}{
		"downloaded": len(s.downloaded),
		"path":       s.path,
	})
	return nil
}

// Has reports whether the attachment identified by key was already
// downloaded in this or a previous run.
func (s *Store) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.downloaded[key]
	return ok
}

// Record marks an attachment as downloaded and persists the store.
// Recording an already-known key updates only the last processed message.
func (s *Store) Record(key, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.downloaded[key] = struct{}{}
	if messageID != "" {
		s.lastMessageID = messageID
	}
	return s.save()
}

// Count returns the number of recorded attachments.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.downloaded)
}

// LastProcessedMessageID returns the id of the most recently recorded message.
func (s *Store) LastProcessedMessageID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastMessageID
}

// Keys returns the recorded keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.downloaded))
	for key := range s.downloaded {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Clear forgets all recorded downloads and removes the progress file.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.downloaded = make(map[string]struct{})
	s.lastMessageID = ""

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete progress file: %w", err)
	}

	s.logger.Info("Progress cleared")
	return nil
}

// Path returns the location of the progress file.
func (s *Store) Path() string {
	return s.path
}

// save writes the state atomically. Callers must hold s.mu.
func (s *Store) save() error {
	state := State{
		DownloadedImages:       make([]string, 0, len(s.downloaded)),
		LastProcessedMessageID: s.lastMessageID,
		TotalDownloaded:        len(s.downloaded),
		CreatedAt:              s.createdAt,
		UpdatedAt:              time.Now(),
		Version:                1,
	}
	for key := range s.downloaded {
		state.DownloadedImages = append(state.DownloadedImages, key)
	}
	sort.Strings(state.DownloadedImages)

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create progress directory: %w", err)
	}

	tempPath := s.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary progress file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(&state); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode progress: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync progress file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close progress file: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace progress file: %w", err)
	}

	s.logger.DebugWithFields("Progress saved", map[string]interface{}{
		"downloaded": state.TotalDownloaded,
	})
	return nil
}

// getDataDirectory returns the appropriate data directory for the current OS.
func getDataDirectory() (string, error) {
	var dataDir string

	switch runtime.GOOS {
	case "linux":
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			dataDir = filepath.Join(xdgDataHome, "pindm")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dataDir = filepath.Join(home, ".local", "share", "pindm")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, "Library", "Application Support", "pindm")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		dataDir = filepath.Join(appData, "pindm")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	return dataDir, nil
}
