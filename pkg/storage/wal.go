package storage

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/uhyunpark/ome/pkg/audit"
)

type NopWAL struct{}

func NewNopWAL() *NopWAL                   { return &NopWAL{} }
func (*NopWAL) Write(_ audit.Record) error { return nil }
func (*NopWAL) Close() error               { return nil }

// FileWAL is the human-readable audit file: one line per record.
type FileWAL struct {
	f *os.File
	w *bufio.Writer
}

// NewFileWAL opens path for appending. With truncate set the file is emptied
// first, so each process run starts a fresh audit file.
func NewFileWAL(path string, truncate bool) (*FileWAL, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	if truncate {
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			return nil, fmt.Errorf("truncate audit file: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileWAL{f: f, w: bufio.NewWriter(f)}, nil
}

// Write appends one line and flushes it.
func (w *FileWAL) Write(r audit.Record) error {
	if _, err := w.w.WriteString(r.String()); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *FileWAL) Close() error {
	if err := w.w.Flush(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}

var _ audit.Sink = (*NopWAL)(nil)
var _ audit.Sink = (*FileWAL)(nil)
