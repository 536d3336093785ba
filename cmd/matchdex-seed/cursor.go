package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	stageProfiles = "profiles"
	stageDone     = "done"
)

// Cursor is the resume position, stored as JSON next to the input.
type Cursor struct {
	Stage          string    `json:"stage"`
	RowOffset      int       `json:"row_offset"`
	TotalProcessed int       `json:"total_processed"`
	TotalFailed    int       `json:"total_failed"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// cursorTracker is a concurrency-safe progress tracker with periodic saves.
// RowOffset only moves over a contiguous prefix of completed rows, so rows
// still in flight on other workers are re-sent after a restart.
type cursorTracker struct {
	mu        sync.Mutex
	cursor    Cursor
	done      map[int]struct{}
	path      string
	saveEvery int
	sinceSave int
	dirty     bool
	logger    *zap.Logger
	now       func() time.Time
}

func newCursorTracker(dataDir string, saveEvery int, logger *zap.Logger) (*cursorTracker, error) {
	if saveEvery <= 0 {
		saveEvery = 1
	}
	path := filepath.Join(filepath.Clean(dataDir), "seed-cursor.json")
	ct := &cursorTracker{
		path:      path,
		saveEvery: saveEvery,
		done:      make(map[int]struct{}),
		logger:    logger,
		now:       time.Now,
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, &ct.cursor); err != nil {
			return nil, fmt.Errorf("parse cursor %s: %w", path, err)
		}
		logger.Info("Resume from cursor",
			zap.String("stage", ct.cursor.Stage),
			zap.Int("offset", ct.cursor.RowOffset),
			zap.Int("processed", ct.cursor.TotalProcessed),
		)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read cursor %s: %w", path, err)
	}

	return ct, nil
}

// Get returns a copy of the current cursor.
func (ct *cursorTracker) Get() Cursor {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	return ct.cursor
}

// SetStage records the stage and saves immediately.
func (ct *cursorTracker) SetStage(stage string) {
	ct.mu.Lock()
	ct.cursor.Stage = stage
	ct.touch()
	ct.mu.Unlock()
	ct.Save()
}

// Complete marks row as handled. Failed rows still advance the offset:
// they are counted and logged, never retried on resume.
func (ct *cursorTracker) Complete(row int, failed bool) {
	ct.mu.Lock()
	if failed {
		ct.cursor.TotalFailed++
	} else {
		ct.cursor.TotalProcessed++
	}
	ct.mark(row)
	ct.sinceSave++
	shouldSave := ct.sinceSave >= ct.saveEvery
	ct.mu.Unlock()

	if shouldSave {
		ct.Save()
	}
}

// Skip moves the offset over rows the reader consumed without sending.
func (ct *cursorTracker) Skip(row int) {
	ct.mu.Lock()
	ct.mark(row)
	ct.mu.Unlock()
}

// must hold mu
func (ct *cursorTracker) mark(row int) {
	ct.done[row] = struct{}{}
	for {
		if _, ok := ct.done[ct.cursor.RowOffset]; !ok {
			break
		}
		delete(ct.done, ct.cursor.RowOffset)
		ct.cursor.RowOffset++
	}
	ct.touch()
}

// must hold mu
func (ct *cursorTracker) touch() {
	ct.cursor.UpdatedAt = ct.now()
	ct.dirty = true
}

// Save writes the cursor to disk via a temp file and rename.
func (ct *cursorTracker) Save() {
	ct.mu.Lock()
	if !ct.dirty {
		ct.mu.Unlock()
		return
	}
	data, err := json.MarshalIndent(ct.cursor, "", "  ")
	if err != nil {
		ct.mu.Unlock()
		ct.logger.Error("Cursor marshal failed", zap.Error(err))
		return
	}
	ct.dirty = false
	ct.sinceSave = 0
	ct.mu.Unlock()

	tmp := ct.path + ".tmp"
	err = os.WriteFile(tmp, data, 0o600)
	if err == nil {
		err = os.Rename(tmp, ct.path)
	}
	if err != nil {
		ct.logger.Error("Cursor save failed", zap.String("path", ct.path), zap.Error(err))
		ct.mu.Lock()
		ct.dirty = true
		ct.mu.Unlock()
	}
}

// Done marks the load finished.
func (ct *cursorTracker) Done() {
	ct.SetStage(stageDone)
}

// Reset clears progress so the next run starts from the first row.
func (ct *cursorTracker) Reset() {
	ct.mu.Lock()
	ct.cursor = Cursor{}
	ct.done = make(map[int]struct{})
	ct.touch()
	ct.mu.Unlock()
	ct.Save()
}
