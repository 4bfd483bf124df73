// Package engine provides the core key-value storage engine: an
// append-only log file paired with an in-memory key directory (index) and
// online compaction. It also defines the Engine contract shared with the
// alternate bbolt-backed implementation in engine/boltengine.
package engine

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/jassi-singh/kvs/internal/format"
	"github.com/jassi-singh/kvs/internal/kvserr"
	"github.com/jassi-singh/kvs/internal/storage"
)

// LogName is the marker file identifying a directory as owned by this
// engine (§6 External Interfaces).
const LogName = "kvs.log"

// newLogName is the transient compaction target; present at Open time, it
// is safe to discard.
const newLogName = LogName + ".new"

// Threshold is the accumulated uncompacted-byte count that triggers
// compaction at the end of the mutation that crosses it.
const Threshold = 1 << 20 // 1 MiB

// Engine is the capability set both the log-structured engine and the
// alternate bbolt-backed engine satisfy, so the server can own either one
// interchangeably.
type Engine interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Remove(key string) error
	Close() error
}

// KVEngine is the log-structured, append-only engine described in
// spec.md §4.4.
type KVEngine struct {
	mu sync.Mutex

	index       map[string]IndexEntry
	writePos    int64
	uncompacted int64
	logDir      string

	writer *storage.Log
	reader *storage.Log
}

// IsPresent reports whether dir is already owned by the log-structured
// engine, i.e. whether <dir>/kvs.log exists.
func IsPresent(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, LogName))
	return err == nil
}

// Open creates or reuses <dir>/kvs.log, discards any stale compaction
// leftover, rebuilds the index by scanning the log, and leaves write_pos
// at EOF.
func Open(dir string) (*KVEngine, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, kvserr.IO(fmt.Errorf("engine: create data dir %s: %w", dir, err))
	}

	if stale := filepath.Join(dir, newLogName); fileExists(stale) {
		slog.Warn("engine: discarding stale compaction file", "path", stale)
		if err := os.Remove(stale); err != nil {
			return nil, kvserr.IO(fmt.Errorf("engine: remove stale %s: %w", stale, err))
		}
	}

	logPath := filepath.Join(dir, LogName)
	writer, err := storage.NewLog(logPath)
	if err != nil {
		return nil, kvserr.IO(err)
	}

	reader, err := storage.NewLog(logPath)
	if err != nil {
		writer.Close()
		return nil, kvserr.IO(err)
	}

	e := &KVEngine{
		index:  make(map[string]IndexEntry),
		logDir: dir,
		writer: writer,
		reader: reader,
	}

	if err := e.loadLog(); err != nil {
		writer.Close()
		reader.Close()
		return nil, err
	}

	slog.Info("engine: opened", "dir", dir, "keys", len(e.index), "write_pos", e.writePos)
	return e, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// loadLog scans the log from offset 0, applying Set/Remove commands to
// rebuild the index. A short read or residual trailing bytes is treated
// as corruption and fails Open (no truncate-and-continue fallback).
func (e *KVEngine) loadLog() error {
	size, err := e.reader.Size()
	if err != nil {
		return kvserr.IO(err)
	}
	if size == 0 {
		e.writePos = 0
		return nil
	}

	file := e.writer.File()
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return kvserr.IO(fmt.Errorf("engine: seek to start for scan: %w", err))
	}
	br := bufio.NewReader(file)

	var pos int64
	for pos < size {
		cmd, framed, err := format.ReadCommand(br)
		if err != nil {
			return kvserr.Deserialize(fmt.Errorf("engine: corrupt log at offset %d: %w", pos, err))
		}

		switch cmd.Kind {
		case format.CommandSet:
			e.index[cmd.Key] = IndexEntry{Offset: pos, FramedSize: framed}
		case format.CommandRemove:
			delete(e.index, cmd.Key)
		default:
			return kvserr.Deserialize(fmt.Errorf("engine: unexpected %s command persisted at offset %d", cmd.Kind, pos))
		}

		pos += framed
	}

	if pos != size {
		return kvserr.Deserialize(fmt.Errorf("engine: torn tail in log: scanned %d bytes, file is %d bytes", pos, size))
	}

	e.writePos = size
	return nil
}

// Set inserts or overwrites key with value.
func (e *KVEngine) Set(key, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	payload, err := format.EncodeCommand(format.Command{Kind: format.CommandSet, Key: key, Value: value})
	if err != nil {
		return kvserr.Serialize(err)
	}
	frame, framedSize := format.Frame(payload)

	if err := e.writer.Append(e.writePos, frame); err != nil {
		return kvserr.IO(err)
	}

	if old, existed := e.index[key]; existed {
		e.uncompacted += old.FramedSize
	}
	e.index[key] = IndexEntry{Offset: e.writePos, FramedSize: framedSize}
	e.writePos += framedSize

	slog.Debug("engine: set", "key", key, "offset", e.index[key].Offset, "size", framedSize)

	if e.uncompacted > Threshold {
		return e.compact()
	}
	return nil
}

// Get returns the current value for key, or ErrKeyNotFound if it is not
// in the live set.
func (e *KVEngine) Get(key string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.index[key]
	if !ok {
		return "", kvserr.ErrKeyNotFound
	}

	cmd, _, err := format.ReadCommandAt(e.reader, entry.Offset)
	if err != nil {
		return "", kvserr.Deserialize(fmt.Errorf("engine: read key %q at offset %d: %w", key, entry.Offset, err))
	}
	if cmd.Kind != format.CommandSet || cmd.Key != key {
		return "", kvserr.Deserialize(fmt.Errorf(
			"engine: index/log mismatch for key %q at offset %d: got %s %q", key, entry.Offset, cmd.Kind, cmd.Key))
	}

	return cmd.Value, nil
}

// Remove tombstones key. It is an error to remove a key that is not
// currently live; no tombstone is written in that case.
func (e *KVEngine) Remove(key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	old, ok := e.index[key]
	if !ok {
		return kvserr.ErrKeyNotFound
	}

	payload, err := format.EncodeCommand(format.Command{Kind: format.CommandRemove, Key: key})
	if err != nil {
		return kvserr.Serialize(err)
	}
	frame, framedSize := format.Frame(payload)

	if err := e.writer.Append(e.writePos, frame); err != nil {
		return kvserr.IO(err)
	}

	e.uncompacted += old.FramedSize + framedSize
	delete(e.index, key)
	e.writePos += framedSize

	slog.Debug("engine: remove", "key", key)

	if e.uncompacted > Threshold {
		return e.compact()
	}
	return nil
}

// Close releases the engine's file handles. The log itself persists.
func (e *KVEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var errs []error
	if err := e.writer.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := e.reader.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
