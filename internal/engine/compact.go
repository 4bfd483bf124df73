package engine

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jassi-singh/kvs/internal/format"
	"github.com/jassi-singh/kvs/internal/kvserr"
	"github.com/jassi-singh/kvs/internal/storage"
)

// compact rewrites the live key set, in ascending offset order, into a
// fresh kvs.log.new, then renames it over the current log and swaps the
// engine's handles onto it. Callers must already hold e.mu.
func (e *KVEngine) compact() error {
	newPath := filepath.Join(e.logDir, newLogName)
	newLog, err := storage.NewLog(newPath)
	if err != nil {
		return kvserr.IO(fmt.Errorf("engine: compact: create %s: %w", newPath, err))
	}

	entries := sortedByOffset(e.index)
	rebuilt := make(map[string]IndexEntry, len(entries))
	var pos int64

	for _, ik := range entries {
		cmd, _, err := format.ReadCommandAt(e.reader, ik.entry.Offset)
		if err != nil {
			newLog.Close()
			os.Remove(newPath)
			return kvserr.Deserialize(fmt.Errorf("engine: compact: read offset %d: %w", ik.entry.Offset, err))
		}

		payload, err := format.EncodeCommand(cmd)
		if err != nil {
			newLog.Close()
			os.Remove(newPath)
			return kvserr.Serialize(fmt.Errorf("engine: compact: re-encode key %q: %w", ik.key, err))
		}
		frame, framedSize := format.Frame(payload)

		if err := newLog.AppendSequential(frame); err != nil {
			newLog.Close()
			os.Remove(newPath)
			return kvserr.IO(fmt.Errorf("engine: compact: write key %q: %w", ik.key, err))
		}

		rebuilt[ik.key] = IndexEntry{Offset: pos, FramedSize: framedSize}
		pos += framedSize
	}

	if err := newLog.Flush(); err != nil {
		newLog.Close()
		os.Remove(newPath)
		return kvserr.IO(fmt.Errorf("engine: compact: flush: %w", err))
	}
	if err := newLog.Close(); err != nil {
		os.Remove(newPath)
		return kvserr.IO(fmt.Errorf("engine: compact: close: %w", err))
	}

	logPath := filepath.Join(e.logDir, LogName)
	if err := os.Rename(newPath, logPath); err != nil {
		return kvserr.IO(fmt.Errorf("engine: compact: rename %s to %s: %w", newPath, logPath, err))
	}

	writer, err := storage.NewLog(logPath)
	if err != nil {
		return kvserr.IO(fmt.Errorf("engine: compact: reopen writer: %w", err))
	}
	reader, err := storage.NewLog(logPath)
	if err != nil {
		writer.Close()
		return kvserr.IO(fmt.Errorf("engine: compact: reopen reader: %w", err))
	}

	e.writer.Close()
	e.reader.Close()
	e.writer = writer
	e.reader = reader
	e.index = rebuilt
	e.writePos = pos
	e.uncompacted = 0

	slog.Info("engine: compacted", "dir", e.logDir, "keys", len(rebuilt), "new_size", pos)
	return nil
}

// verifyScan is a diagnostic helper that replays the log strictly
// sequentially via a bufio.Reader, independent of the index. It exists so
// tests can cross-check the index against a from-scratch scan.
func verifyScan(path string) (map[string]IndexEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, kvserr.IO(err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, kvserr.IO(err)
	}

	br := bufio.NewReader(f)
	index := make(map[string]IndexEntry)
	var pos int64

	for pos < info.Size() {
		cmd, framed, err := format.ReadCommand(br)
		if err != nil {
			return nil, kvserr.Deserialize(err)
		}
		switch cmd.Kind {
		case format.CommandSet:
			index[cmd.Key] = IndexEntry{Offset: pos, FramedSize: framed}
		case format.CommandRemove:
			delete(index, cmd.Key)
		}
		pos += framed
	}

	return index, nil
}
