package common

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AuditEntry records one redacted field. Only digests of the field bytes
// are stored so the log itself never carries identifying data.
type AuditEntry struct {
	RunID        string    `json:"runId"`
	Source       string    `json:"source"`
	Field        string    `json:"field"`
	Tag          string    `json:"tag"`
	Width        int       `json:"width"`
	BeforeSHA256 string    `json:"beforeSha256"`
	AfterSHA256  string    `json:"afterSha256"`
	Changed      bool      `json:"changed"`
	Ts           time.Time `json:"ts"`
}

// AuditLog provides append-only access to a JSONL audit log.
type AuditLog struct {
	path  string
	runID string
	mu    sync.Mutex
}

// NewAuditLog returns an AuditLog that writes to path. Entries appended
// through it share one run ID.
func NewAuditLog(path string) *AuditLog {
	return &AuditLog{path: path, runID: uuid.NewString()}
}

// Path returns the backing file path for the log.
func (a *AuditLog) Path() string {
	if a == nil {
		return ""
	}
	return a.path
}

// RunID identifies the process run that wrote the entries.
func (a *AuditLog) RunID() string {
	if a == nil {
		return ""
	}
	return a.runID
}

// Record hashes before and after and appends the resulting entry.
func (a *AuditLog) Record(source, field, tag string, before, after []byte) error {
	return a.Append(AuditEntry{
		Source:       source,
		Field:        field,
		Tag:          tag,
		Width:        len(after),
		BeforeSHA256: Sha256OfBytes(before),
		AfterSHA256:  Sha256OfBytes(after),
		Changed:      string(before) != string(after),
	})
}

// Append writes a new entry to the audit log, one JSON object per line.
func (a *AuditLog) Append(entry AuditEntry) error {
	if a == nil {
		return errors.New("nil audit log")
	}
	if entry.Field == "" {
		return errors.New("audit entry missing field")
	}
	if entry.RunID == "" {
		entry.RunID = a.runID
	}
	if entry.Ts.IsZero() {
		entry.Ts = time.Now().UTC()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	dir := filepath.Dir(a.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	f, err := os.OpenFile(a.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return err
	}
	return f.Sync()
}

// ReadAuditLog loads every entry from the supplied JSONL file.
func ReadAuditLog(path string) ([]AuditEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	var entries []AuditEntry
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry AuditEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, fmt.Errorf("decode audit entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
