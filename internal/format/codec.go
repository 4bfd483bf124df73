// Package format implements the on-disk record framing and the
// tagged-command wire encoding shared by the log file and the network
// protocol.
package format

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// CommandKind tags the variant carried by a Command.
type CommandKind uint8

const (
	CommandSet CommandKind = iota
	CommandGet
	CommandRemove
)

func (k CommandKind) String() string {
	switch k {
	case CommandSet:
		return "Set"
	case CommandGet:
		return "Get"
	case CommandRemove:
		return "Remove"
	default:
		return fmt.Sprintf("CommandKind(%d)", uint8(k))
	}
}

// Command is the tagged variant persisted to the log (Set, Remove) or
// carried over the wire (Set, Get, Remove). Get must never be written to
// the log.
type Command struct {
	Kind  CommandKind
	Key   string
	Value string
}

// SizeHeaderLen is the width, in bytes, of the little-endian length prefix
// that precedes every framed record.
const SizeHeaderLen = 8

// EncodeCommand serializes a Command into its self-describing payload
// form. Callers add the size prefix separately via Frame or WriteRecord.
func EncodeCommand(c Command) ([]byte, error) {
	buf, err := msgpack.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("format: encode command: %w", err)
	}
	return buf, nil
}

// DecodeCommand deserializes a payload produced by EncodeCommand.
func DecodeCommand(payload []byte) (Command, error) {
	var c Command
	if err := msgpack.Unmarshal(payload, &c); err != nil {
		return Command{}, fmt.Errorf("format: decode command: %w", err)
	}
	if c.Kind > CommandRemove {
		return Command{}, fmt.Errorf("format: decode command: bad tag %d", c.Kind)
	}
	return c, nil
}

// Frame prepends the 8-byte little-endian size header to payload,
// returning the complete framed record and its length (8 + len(payload)).
func Frame(payload []byte) ([]byte, int64) {
	frame := make([]byte, SizeHeaderLen+len(payload))
	binary.LittleEndian.PutUint64(frame[:SizeHeaderLen], uint64(len(payload)))
	copy(frame[SizeHeaderLen:], payload)
	return frame, int64(len(frame))
}

// WriteRecord writes the 8-byte little-endian size prefix followed by
// payload to w. It returns the total number of framed bytes written
// (8 + len(payload)).
func WriteRecord(w io.Writer, payload []byte) (int64, error) {
	var header [SizeHeaderLen]byte
	binary.LittleEndian.PutUint64(header[:], uint64(len(payload)))

	if _, err := w.Write(header[:]); err != nil {
		return 0, fmt.Errorf("format: write size header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return 0, fmt.Errorf("format: write payload: %w", err)
	}
	return int64(SizeHeaderLen + len(payload)), nil
}

// ReadSize reads exactly 8 bytes from r and interprets them as a
// little-endian record size.
func ReadSize(r io.Reader) (uint64, error) {
	var header [SizeHeaderLen]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, fmt.Errorf("format: read size header: %w", err)
	}
	return binary.LittleEndian.Uint64(header[:]), nil
}

// ReadCommand reads a size-prefixed payload from r and decodes it into a
// Command. It returns the decoded command and the total framed size
// (8 + payload length) consumed.
func ReadCommand(r io.Reader) (Command, int64, error) {
	size, err := ReadSize(r)
	if err != nil {
		return Command{}, 0, err
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Command{}, 0, fmt.Errorf("format: read payload: %w", err)
	}

	cmd, err := DecodeCommand(payload)
	if err != nil {
		return Command{}, 0, err
	}

	return cmd, int64(SizeHeaderLen) + int64(size), nil
}

// ReadCommandAt reads and decodes one framed command at an absolute
// offset via r.ReadAt, without disturbing any sequential read cursor.
// This is the access pattern Get uses: an index lookup already knows the
// exact offset, so there is no need to seek a shared cursor.
func ReadCommandAt(r io.ReaderAt, offset int64) (Command, int64, error) {
	var header [SizeHeaderLen]byte
	if _, err := r.ReadAt(header[:], offset); err != nil {
		return Command{}, 0, fmt.Errorf("format: read size header at offset %d: %w", offset, err)
	}
	size := binary.LittleEndian.Uint64(header[:])

	payload := make([]byte, size)
	if size > 0 {
		if _, err := r.ReadAt(payload, offset+SizeHeaderLen); err != nil {
			return Command{}, 0, fmt.Errorf("format: read payload at offset %d: %w", offset+SizeHeaderLen, err)
		}
	}

	cmd, err := DecodeCommand(payload)
	if err != nil {
		return Command{}, 0, err
	}

	return cmd, int64(SizeHeaderLen) + int64(size), nil
}
