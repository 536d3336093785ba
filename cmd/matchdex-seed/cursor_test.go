package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCursor_ContiguousPrefix(t *testing.T) {
	ct, err := newCursorTracker(t.TempDir(), 100, zap.NewNop())
	require.NoError(t, err)

	ct.Complete(1, false)
	ct.Complete(2, true)
	assert.Equal(t, 0, ct.Get().RowOffset, "row 0 still in flight")

	ct.Complete(0, false)
	got := ct.Get()
	assert.Equal(t, 3, got.RowOffset)
	assert.Equal(t, 2, got.TotalProcessed)
	assert.Equal(t, 1, got.TotalFailed)

	ct.Skip(4)
	assert.Equal(t, 3, ct.Get().RowOffset)
	ct.Skip(3)
	assert.Equal(t, 5, ct.Get().RowOffset)
}

func TestCursor_SavesAndResumes(t *testing.T) {
	dir := t.TempDir()
	ct, err := newCursorTracker(dir, 2, zap.NewNop())
	require.NoError(t, err)

	ct.SetStage(stageProfiles)
	ct.Complete(0, false)
	ct.Complete(1, false) // second completion triggers a save

	resumed, err := newCursorTracker(dir, 2, zap.NewNop())
	require.NoError(t, err)
	got := resumed.Get()
	assert.Equal(t, stageProfiles, got.Stage)
	assert.Equal(t, 2, got.RowOffset)
	assert.Equal(t, 2, got.TotalProcessed)

	_, err = os.Stat(filepath.Join(dir, "seed-cursor.json.tmp"))
	assert.True(t, os.IsNotExist(err), "temp file must be renamed away")
}

func TestCursor_Reset(t *testing.T) {
	dir := t.TempDir()
	ct, err := newCursorTracker(dir, 1, zap.NewNop())
	require.NoError(t, err)
	ct.Complete(0, false)
	ct.Done()

	ct.Reset()
	assert.Equal(t, Cursor{}.RowOffset, ct.Get().RowOffset)
	assert.Empty(t, ct.Get().Stage)

	resumed, err := newCursorTracker(dir, 1, zap.NewNop())
	require.NoError(t, err)
	assert.Zero(t, resumed.Get().TotalProcessed)
}

func TestCursor_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seed-cursor.json"), []byte("{"), 0o600))

	_, err := newCursorTracker(dir, 1, zap.NewNop())
	require.Error(t, err)
}
