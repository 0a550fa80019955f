package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/emiliopalmerini/usagetrack/internal/domain"
)

const dayLayout = "2006-01-02"

// BackupLog appends every hook payload to one JSONL file per calendar day.
type BackupLog struct {
	baseDir string
}

func NewBackupLog(baseDir string) *BackupLog {
	return &BackupLog{baseDir: baseDir}
}

// Append writes record as a single line to the file for the record's
// local calendar day. Each line goes out in one write on an O_APPEND
// descriptor so concurrent hook processes do not interleave.
func (l *BackupLog) Append(ctx context.Context, record domain.BackupRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(l.baseDir, 0755); err != nil {
		return fmt.Errorf("failed to create backup log directory: %w", err)
	}

	var line bytes.Buffer
	enc := json.NewEncoder(&line)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(record); err != nil {
		return fmt.Errorf("failed to encode backup record: %w", err)
	}

	f, err := os.OpenFile(l.PathFor(record.Timestamp), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open backup log: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(line.Bytes()); err != nil {
		return fmt.Errorf("failed to append backup record: %w", err)
	}
	return nil
}

// PathFor returns the log file that holds records written at t.
func (l *BackupLog) PathFor(t time.Time) string {
	return filepath.Join(l.baseDir, t.Local().Format(dayLayout)+".jsonl")
}
