package cli

import (
	"bytes"
	"testing"

	"github.com/jassi-singh/kvs/internal/kvserr"
)

type memStore struct {
	data map[string]string
}

func newMemStore() *memStore { return &memStore{data: make(map[string]string)} }

func (s *memStore) Set(key, value string) error {
	s.data[key] = value
	return nil
}

func (s *memStore) Get(key string) (string, error) {
	v, ok := s.data[key]
	if !ok {
		return "", kvserr.ErrKeyNotFound
	}
	return v, nil
}

func (s *memStore) Remove(key string) error {
	if _, ok := s.data[key]; !ok {
		return kvserr.ErrKeyNotFound
	}
	delete(s.data, key)
	return nil
}

func TestRunSetThenGet(t *testing.T) {
	store := newMemStore()
	var stdout, stderr bytes.Buffer

	if code := Run(store, []string{"set", "a", "1"}, &stdout, &stderr); code != 0 {
		t.Fatalf("set exit code = %d, want 0 (stderr=%q)", code, stderr.String())
	}

	stdout.Reset()
	if code := Run(store, []string{"get", "a"}, &stdout, &stderr); code != 0 {
		t.Fatalf("get exit code = %d, want 0", code)
	}
	if got := stdout.String(); got != "1\n" {
		t.Errorf("get stdout = %q, want %q", got, "1\n")
	}
}

func TestRunGetMissingKeyPrintsToStdoutExitZero(t *testing.T) {
	store := newMemStore()
	var stdout, stderr bytes.Buffer

	code := Run(store, []string{"get", "missing"}, &stdout, &stderr)
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if got := stdout.String(); got != "Key not found\n" {
		t.Errorf("stdout = %q, want %q", got, "Key not found\n")
	}
	if stderr.Len() != 0 {
		t.Errorf("stderr = %q, want empty", stderr.String())
	}
}

func TestRunRemoveMissingKeyPrintsToStderrExitOne(t *testing.T) {
	store := newMemStore()
	var stdout, stderr bytes.Buffer

	code := Run(store, []string{"rm", "missing"}, &stdout, &stderr)
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if got := stderr.String(); got != "Key not found\n" {
		t.Errorf("stderr = %q, want %q", got, "Key not found\n")
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout = %q, want empty", stdout.String())
	}
}

func TestRunUnknownCommand(t *testing.T) {
	store := newMemStore()
	var stdout, stderr bytes.Buffer

	if code := Run(store, []string{"frobnicate"}, &stdout, &stderr); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}

func TestRunSetWrongArgCount(t *testing.T) {
	store := newMemStore()
	var stdout, stderr bytes.Buffer

	if code := Run(store, []string{"set", "onlykey"}, &stdout, &stderr); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}
