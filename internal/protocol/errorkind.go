package protocol

import (
	"errors"

	"github.com/jassi-singh/kvs/internal/kvserr"
)

// kindOf classifies err against the kvserr taxonomy for wire transport.
// Order matters: the wrapped categories are checked with errors.As before
// falling back to ErrKindGeneric.
func kindOf(err error) ErrorKind {
	if err == nil {
		return ErrKindNone
	}
	if errors.Is(err, kvserr.ErrKeyNotFound) {
		return ErrKindKeyNotFound
	}

	var ioErr *kvserr.IOError
	if errors.As(err, &ioErr) {
		return ErrKindIO
	}
	var serializeErr *kvserr.SerializeError
	if errors.As(err, &serializeErr) {
		return ErrKindSerialize
	}
	var deserializeErr *kvserr.DeserializeError
	if errors.As(err, &deserializeErr) {
		return ErrKindDeserialize
	}
	var backingStoreErr *kvserr.BackingStoreError
	if errors.As(err, &backingStoreErr) {
		return ErrKindBackingStore
	}

	return ErrKindGeneric
}

// ErrFromKind reconstructs a representative error for a received
// ErrorKind, so the client can reuse the same errors.Is-based rendering
// logic the server-side CLI uses.
func ErrFromKind(kind ErrorKind, message string) error {
	switch kind {
	case ErrKindNone:
		return nil
	case ErrKindKeyNotFound:
		return kvserr.ErrKeyNotFound
	case ErrKindIO:
		return &kvserr.IOError{Err: errors.New(message)}
	case ErrKindSerialize:
		return &kvserr.SerializeError{Err: errors.New(message)}
	case ErrKindDeserialize:
		return &kvserr.DeserializeError{Err: errors.New(message)}
	case ErrKindBackingStore:
		return &kvserr.BackingStoreError{Err: errors.New(message)}
	default:
		return &kvserr.GenericError{Msg: message}
	}
}
