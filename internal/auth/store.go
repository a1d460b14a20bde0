package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/j-veylop/exon-report/internal/models"
)

// Sentinel errors for credential stores.
var (
	ErrNoToken      = errors.New("no stored token")
	ErrStoreCorrupt = errors.New("token store is corrupt")
)

// Store keeps a single token record.
type Store interface {
	// Load returns the record, ErrNoToken when there is none, or an error
	// wrapping ErrStoreCorrupt when it cannot be read back.
	Load() (models.TokenRecord, error)
	// Save replaces the stored record.
	Save(rec models.TokenRecord) error
	// Delete removes the record. Deleting an empty store is not an error.
	Delete() error
}

// tokenFile is the on-disk layout of FileStore.
type tokenFile struct {
	AccessToken    string  `json:"access_token"`
	RefreshToken   string  `json:"refresh_token"`
	ExpirationTime float64 `json:"expiration_time"`
}

// FileStore persists the token record as a JSON file.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the token file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads and validates the token file.
func (s *FileStore) Load() (models.TokenRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.TokenRecord{}, ErrNoToken
		}
		return models.TokenRecord{}, fmt.Errorf("%w: %v", ErrStoreCorrupt, err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return models.TokenRecord{}, fmt.Errorf("%w: %v", ErrStoreCorrupt, err)
	}
	for _, key := range []string{"access_token", "refresh_token", "expiration_time"} {
		if _, ok := fields[key]; !ok {
			return models.TokenRecord{}, fmt.Errorf("%w: missing %s", ErrStoreCorrupt, key)
		}
	}

	var tf tokenFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return models.TokenRecord{}, fmt.Errorf("%w: %v", ErrStoreCorrupt, err)
	}

	return models.TokenRecord{
		AccessToken:  tf.AccessToken,
		RefreshToken: tf.RefreshToken,
		ExpiresAt:    fromUnixSeconds(tf.ExpirationTime),
	}, nil
}

// Save writes the record to a temp file and renames it over the old one.
func (s *FileStore) Save(rec models.TokenRecord) error {
	data, err := json.MarshalIndent(tokenFile{
		AccessToken:    rec.AccessToken,
		RefreshToken:   rec.RefreshToken,
		ExpirationTime: toUnixSeconds(rec.ExpiresAt),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode tokens: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tokens-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp token file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write tokens: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set token file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close token file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to replace token file: %w", err)
	}
	return nil
}

// Delete removes the token file.
func (s *FileStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	return nil
}

func toUnixSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/float64(time.Second)
}

func fromUnixSeconds(secs float64) time.Time {
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(frac*float64(time.Second)))
}

// MemoryStore keeps the record in process memory.
type MemoryStore struct {
	rec *models.TokenRecord
	mu  sync.Mutex
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the stored record or ErrNoToken.
func (s *MemoryStore) Load() (models.TokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec == nil {
		return models.TokenRecord{}, ErrNoToken
	}
	return *s.rec, nil
}

// Save replaces the stored record.
func (s *MemoryStore) Save(rec models.TokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = &rec
	return nil
}

// Delete clears the stored record.
func (s *MemoryStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = nil
	return nil
}
