package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type board struct {
	Strokes []string `json:"strokes"`
}

func newService(t *testing.T) (*BackupService, string) {
	t.Helper()
	dir := t.TempDir()
	storage, err := NewFileStorage(dir)
	require.NoError(t, err)

	svc := NewBackupService(storage, "1.0.0", "snapshot")
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	svc.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	return svc, dir
}

func TestBackupService_CreateAndRestore(t *testing.T) {
	svc, dir := newService(t)
	ctx := context.Background()

	name, err := svc.CreateBackup(ctx, board{Strokes: []string{"a", "b"}}, map[string]string{"reason": "manual"})
	require.NoError(t, err)
	assert.Equal(t, "snapshot-20240501-120001.000000000.json", name)

	_, err = os.Stat(filepath.Join(dir, name))
	require.NoError(t, err)

	var restored board
	data, err := svc.RestoreBackup(ctx, name, &restored)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", data.Version)
	assert.Equal(t, "manual", data.Metadata["reason"])
	assert.Equal(t, []string{"a", "b"}, restored.Strokes)
}

func TestBackupService_RestoreMissing(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.RestoreBackup(ctx, "snapshot-nope.json", nil)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.RestoreBackup(ctx, "../etc/passwd", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBackupService_ListNewestFirstAndPrune(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	var names []string
	for i := 0; i < 4; i++ {
		name, err := svc.CreateBackup(ctx, board{}, nil)
		require.NoError(t, err)
		names = append(names, name)
	}

	listed, err := svc.ListBackups(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{names[3], names[2], names[1], names[0]}, listed)

	removed, err := svc.Prune(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	listed, err = svc.ListBackups(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{names[3], names[2]}, listed)

	removed, err = svc.Prune(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestFileStorage_DeleteAndInvalidNames(t *testing.T) {
	storage, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	assert.ErrorIs(t, storage.Delete(ctx, "snapshot-missing.json"), ErrNotFound)
	assert.Error(t, storage.Delete(ctx, "../x"))
	assert.Error(t, storage.Save(ctx, "a/b.json", nil))

	list, err := storage.List(ctx, "snapshot-")
	require.NoError(t, err)
	assert.Empty(t, list)
}
