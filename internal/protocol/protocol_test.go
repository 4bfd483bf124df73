package protocol

import (
	"bytes"
	"errors"
	"testing"

	"github.com/jassi-singh/kvs/internal/format"
	"github.com/jassi-singh/kvs/internal/kvserr"
)

func TestRequestRoundTrip(t *testing.T) {
	cases := []Request{
		{Kind: format.CommandSet, Key: "a", Value: "1"},
		{Kind: format.CommandGet, Key: "a"},
		{Kind: format.CommandRemove, Key: "a"},
	}

	for _, want := range cases {
		var buf bytes.Buffer
		if err := WriteRequest(&buf, want); err != nil {
			t.Fatalf("WriteRequest() error = %v", err)
		}

		got, err := ReadRequest(&buf)
		if err != nil {
			t.Fatalf("ReadRequest() error = %v", err)
		}
		if got != want {
			t.Errorf("ReadRequest() = %+v, want %+v", got, want)
		}
	}
}

func TestResponseRoundTrip(t *testing.T) {
	cases := []Response{
		{Kind: ResponseOk},
		{Kind: ResponseValue, Value: "hello"},
		{Kind: ResponseError, ErrKind: ErrKindKeyNotFound, Message: "key not found"},
	}

	for _, want := range cases {
		var buf bytes.Buffer
		if err := WriteResponse(&buf, want); err != nil {
			t.Fatalf("WriteResponse() error = %v", err)
		}

		got, err := ReadResponse(&buf)
		if err != nil {
			t.Fatalf("ReadResponse() error = %v", err)
		}
		if got != want {
			t.Errorf("ReadResponse() = %+v, want %+v", got, want)
		}
	}
}

func TestKindOfMapsTaxonomy(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, ErrKindNone},
		{"key not found", kvserr.ErrKeyNotFound, ErrKindKeyNotFound},
		{"io", kvserr.IO(errors.New("disk full")), ErrKindIO},
		{"serialize", kvserr.Serialize(errors.New("bad value")), ErrKindSerialize},
		{"deserialize", kvserr.Deserialize(errors.New("corrupt")), ErrKindDeserialize},
		{"backing store", kvserr.BackingStore(errors.New("bolt failure")), ErrKindBackingStore},
		{"generic", &kvserr.GenericError{Msg: "other"}, ErrKindGeneric},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := kindOf(tc.err); got != tc.want {
				t.Errorf("kindOf(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestErrFromKindRoundTripsKeyNotFound(t *testing.T) {
	err := ErrFromKind(ErrKindKeyNotFound, "key not found")
	if !errors.Is(err, kvserr.ErrKeyNotFound) {
		t.Errorf("ErrFromKind() = %v, want ErrKeyNotFound", err)
	}
}
