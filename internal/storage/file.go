// Package storage provides the buffered, offset-addressed file handle the
// engine builds its log on. It handles buffered appends and offset-stable
// reads, leaving all framing and indexing to higher layers.
package storage

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Log wraps a single os.File with a buffered append path and a
// mutex-guarded, offset-addressed ReadAt. Two independent *Log values are
// normally opened on the same path: one dedicated to appends, one to
// point reads, so that reads never disturb the append cursor (spec's
// "shared writer/reader" design note).
type Log struct {
	mu     sync.Mutex
	file   *os.File
	buffer *bufio.Writer
	path   string
}

// NewLog opens (creating if necessary) the file at path for both reading
// and writing, without O_APPEND: callers track their own append offset
// (the engine's write_pos) rather than relying on the kernel's append
// cursor, so the offset Append is told to write at always matches the
// byte position the caller expects.
func NewLog(path string) (*Log, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("storage: open log %s: %w", path, err)
	}

	if stat, err := file.Stat(); err != nil {
		slog.Warn("storage: failed to stat log file", "path", path, "error", err)
	} else {
		slog.Debug("storage: log file opened", "path", path, "size", stat.Size())
	}

	return &Log{
		file:   file,
		buffer: bufio.NewWriter(file),
		path:   path,
	}, nil
}

// Append writes data at the given absolute offset and flushes immediately,
// so the write is durable against an in-process crash before Append
// returns (spec §4.2: every mutating operation flushes before returning).
func (l *Log) Append(offset int64, data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.file.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("storage: seek to append offset %d: %w", offset, err)
	}

	l.buffer.Reset(l.file)
	if _, err := l.buffer.Write(data); err != nil {
		return fmt.Errorf("storage: write %d bytes at offset %d: %w", len(data), offset, err)
	}
	if err := l.buffer.Flush(); err != nil {
		return fmt.Errorf("storage: flush after append at offset %d: %w", offset, err)
	}

	return nil
}

// ReadAt reads exactly len(p) bytes starting at off.
func (l *Log) ReadAt(p []byte, off int64) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n, err := l.file.ReadAt(p, off)
	if err != nil {
		return n, fmt.Errorf("storage: read %d bytes at offset %d: %w", len(p), off, err)
	}
	return n, nil
}

// AppendSequential buffers data for later Flush without an explicit seek,
// assuming the caller (the compactor) is writing a brand-new file
// sequentially from position 0 and wants to defer durability to a single
// Flush at the end rather than one flush per record.
func (l *Log) AppendSequential(data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.buffer.Write(data); err != nil {
		return fmt.Errorf("storage: sequential write of %d bytes: %w", len(data), err)
	}
	return nil
}

// Flush flushes any buffered writer state without syncing to disk.
func (l *Log) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.buffer.Flush(); err != nil {
		return fmt.Errorf("storage: flush: %w", err)
	}
	return nil
}

// Sync fsyncs the underlying file. Not required by the durability
// contract (buffered flush is sufficient, per spec §4.2) but exposed for
// callers that want a stronger guarantee.
func (l *Log) Sync() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("storage: sync: %w", err)
	}
	return nil
}

// Size returns the current on-disk length of the file.
func (l *Log) Size() (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	stat, err := l.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("storage: stat: %w", err)
	}
	return stat.Size(), nil
}

// File exposes the underlying os.File for recovery scans that want to
// drive their own bufio.Reader over it from the start.
func (l *Log) File() *os.File {
	return l.file
}

// Path returns the filesystem path this Log was opened from.
func (l *Log) Path() string {
	return l.path
}

// Close flushes any buffered data and closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.buffer.Flush(); err != nil {
		slog.Warn("storage: flush on close failed", "path", l.path, "error", err)
	}

	if err := l.file.Close(); err != nil {
		return fmt.Errorf("storage: close %s: %w", l.path, err)
	}
	return nil
}
