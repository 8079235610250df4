// Package dedup persists which alerts have already been sent, so a condition
// is reported at most once per site, alert type, and date.
package dedup

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/siteops/metrics-sentinel/internal/domain"
)

// Store is the alert dedup log. Entries never expire; pruning is left to the
// operator.
type Store interface {
	// AlreadyAlerted reports whether an alert was previously sent for the
	// site/type/date key. A missing key or missing backing file means false.
	AlreadyAlerted(site string, alertType domain.AlertType, date string) (bool, error)

	// MarkAlerted records that an alert was sent for the key. Marking an
	// already-marked key is a no-op.
	MarkAlerted(site string, alertType domain.AlertType, date string) error
}

// Key builds the composite dedup key for one alert-eligibility decision.
func Key(site string, alertType domain.AlertType, date string) string {
	return fmt.Sprintf("%s:%s:%s", site, alertType, date)
}

// FileStore keeps the dedup log as a single JSON document holding the full
// key→sent mapping. The document is read fully before every check and
// rewritten fully after every mark. That read-modify-write discipline is only
// safe under the single-run-at-a-time batch model; there is no file locking.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the document at path. The file is
// created on first mark.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) AlreadyAlerted(site string, alertType domain.AlertType, date string) (bool, error) {
	entries, err := s.load()
	if err != nil {
		return false, err
	}
	return entries[Key(site, alertType, date)], nil
}

func (s *FileStore) MarkAlerted(site string, alertType domain.AlertType, date string) error {
	entries, err := s.load()
	if err != nil {
		return err
	}
	entries[Key(site, alertType, date)] = true
	return s.save(entries)
}

func (s *FileStore) load() (map[string]bool, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return make(map[string]bool), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read dedup log: %w", err)
	}

	entries := make(map[string]bool)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode dedup log: %w", err)
	}
	return entries, nil
}

func (s *FileStore) save(entries map[string]bool) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode dedup log: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write dedup log: %w", err)
	}
	return nil
}
