package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

// ErrNotFound is returned when a named backup does not exist.
var ErrNotFound = errors.New("backup not found")

// nameLayout sorts lexically in chronological order.
const nameLayout = "20060102-150405.000000000"

// BackupData is the envelope written for every backup. Payload is the
// caller's own JSON document.
type BackupData struct {
	Version   string            `json:"version"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   json.RawMessage   `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Storage defines interface for backup storage
type Storage interface {
	Save(ctx context.Context, name string, data io.Reader) error
	Load(ctx context.Context, name string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, name string) error
}

// BackupService writes versioned, timestamped backups under a name prefix.
type BackupService struct {
	storage Storage
	version string
	prefix  string
	now     func() time.Time
}

// NewBackupService creates a new backup service. Backups are named
// "<prefix>-<timestamp>.json".
func NewBackupService(storage Storage, version, prefix string) *BackupService {
	return &BackupService{
		storage: storage,
		version: version,
		prefix:  prefix + "-",
		now:     time.Now,
	}
}

// CreateBackup marshals payload and stores it, returning the backup name.
func (bs *BackupService) CreateBackup(ctx context.Context, payload any, metadata map[string]string) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal backup payload: %w", err)
	}

	data := BackupData{
		Version:   bs.version,
		Timestamp: bs.now().UTC(),
		Payload:   raw,
		Metadata:  metadata,
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal backup data: %w", err)
	}

	name := bs.prefix + data.Timestamp.Format(nameLayout) + ".json"
	if err := bs.storage.Save(ctx, name, bytes.NewReader(jsonData)); err != nil {
		return "", fmt.Errorf("failed to save backup: %w", err)
	}
	return name, nil
}

// RestoreBackup loads a backup and decodes its payload into dst.
func (bs *BackupService) RestoreBackup(ctx context.Context, name string, dst any) (*BackupData, error) {
	if !strings.HasPrefix(name, bs.prefix) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	reader, err := bs.storage.Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load backup: %w", err)
	}
	defer reader.Close()

	var data BackupData
	if err := json.NewDecoder(reader).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal backup data: %w", err)
	}
	if dst != nil {
		if err := json.Unmarshal(data.Payload, dst); err != nil {
			return nil, fmt.Errorf("failed to unmarshal backup payload: %w", err)
		}
	}
	return &data, nil
}

// ListBackups returns the backup names, newest first.
func (bs *BackupService) ListBackups(ctx context.Context) ([]string, error) {
	names, err := bs.storage.List(ctx, bs.prefix)
	if err != nil {
		return nil, err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// DeleteBackup deletes a backup
func (bs *BackupService) DeleteBackup(ctx context.Context, name string) error {
	return bs.storage.Delete(ctx, name)
}

// Prune deletes all but the keep newest backups and returns how many were
// removed. keep <= 0 disables pruning.
func (bs *BackupService) Prune(ctx context.Context, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	names, err := bs.ListBackups(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, name := range names[min(keep, len(names)):] {
		if err := bs.DeleteBackup(ctx, name); err != nil {
			return removed, fmt.Errorf("failed to delete backup %s: %w", name, err)
		}
		removed++
	}
	return removed, nil
}
