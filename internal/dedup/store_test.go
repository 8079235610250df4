package dedup

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/siteops/metrics-sentinel/internal/domain"
)

func tempStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "alert-log.json"))
}

func TestFileStore_UnseenKeyIsFalse(t *testing.T) {
	s := tempStore(t)
	sent, err := s.AlreadyAlerted("acme", domain.AlertTrafficSpike, "2025-06-02")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent {
		t.Error("unseen key should report false")
	}
}

func TestFileStore_MarkThenCheck(t *testing.T) {
	s := tempStore(t)
	if err := s.MarkAlerted("acme", domain.AlertTrafficSpike, "2025-06-02"); err != nil {
		t.Fatalf("mark: %v", err)
	}

	sent, err := s.AlreadyAlerted("acme", domain.AlertTrafficSpike, "2025-06-02")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !sent {
		t.Error("marked key should report true")
	}
}

func TestFileStore_MarkIsIdempotent(t *testing.T) {
	s := tempStore(t)
	for i := 0; i < 2; i++ {
		if err := s.MarkAlerted("acme", domain.AlertCacheEfficiency, "2025-06-02"); err != nil {
			t.Fatalf("mark %d: %v", i, err)
		}
	}
	sent, err := s.AlreadyAlerted("acme", domain.AlertCacheEfficiency, "2025-06-02")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !sent {
		t.Error("double-marked key should report true")
	}
}

func TestFileStore_KeysAreIndependent(t *testing.T) {
	s := tempStore(t)
	if err := s.MarkAlerted("acme", domain.AlertTrafficSpike, "2025-06-02"); err != nil {
		t.Fatalf("mark: %v", err)
	}

	cases := []struct {
		site string
		typ  domain.AlertType
		date string
	}{
		{"other-site", domain.AlertTrafficSpike, "2025-06-02"},
		{"acme", domain.AlertCacheEfficiency, "2025-06-02"},
		{"acme", domain.AlertTrafficSpike, "2025-06-09"},
	}
	for _, c := range cases {
		sent, err := s.AlreadyAlerted(c.site, c.typ, c.date)
		if err != nil {
			t.Fatalf("check %s:%s:%s: %v", c.site, c.typ, c.date, err)
		}
		if sent {
			t.Errorf("key %s:%s:%s should be independent of the marked one", c.site, c.typ, c.date)
		}
	}
}

func TestFileStore_PersistsAsFlatDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alert-log.json")
	s := NewFileStore(path)
	if err := s.MarkAlerted("acme", domain.AlertTrafficSpike, "2025-06-02"); err != nil {
		t.Fatalf("mark: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read document: %v", err)
	}
	entries := make(map[string]bool)
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("document is not a flat key→bool mapping: %v", err)
	}
	if !entries["acme:traffic_spike:2025-06-02"] {
		t.Errorf("expected composite key in document, got %v", entries)
	}
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alert-log.json")
	if err := NewFileStore(path).MarkAlerted("acme", domain.AlertErrorRate, "2025-06-02"); err != nil {
		t.Fatalf("mark: %v", err)
	}

	// A fresh store reads the same document
	sent, err := NewFileStore(path).AlreadyAlerted("acme", domain.AlertErrorRate, "2025-06-02")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !sent {
		t.Error("entry should survive across store instances")
	}
}

func TestFileStore_CorruptDocumentErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alert-log.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewFileStore(path)
	if _, err := s.AlreadyAlerted("acme", domain.AlertTrafficSpike, "2025-06-02"); err == nil {
		t.Error("corrupt document should surface an error")
	}
}

func TestKey(t *testing.T) {
	got := Key("acme", domain.AlertTrafficSpike, "2025-06-02")
	if got != "acme:traffic_spike:2025-06-02" {
		t.Errorf("unexpected key format: %s", got)
	}
}
