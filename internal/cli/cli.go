// Package cli implements the one-shot set/get/rm command dispatch shared
// by the embedded kvs binary and the kvs-client binary: both talk to a
// Store (an engine.Engine or a client.Client — anything with
// Set/Get/Remove) and render results the same way.
package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/jassi-singh/kvs/internal/kvserr"
)

// Store is the capability cli.Run needs: satisfied directly by
// engine.Engine (the kvs binary talks to its engine in-process) and by
// client.Client (kvs-client talks to a remote engine over the wire).
type Store interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Remove(key string) error
}

// Run dispatches one subcommand (set/get/rm) against store, writing
// results to stdout/stderr, and returns the process exit code.
func Run(store Store, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "usage: set <key> <value> | get <key> | rm <key>")
		return 1
	}

	switch args[0] {
	case "set":
		return runSet(store, args[1:], stderr)
	case "get":
		return runGet(store, args[1:], stdout, stderr)
	case "rm":
		return runRemove(store, args[1:], stderr)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", args[0])
		return 1
	}
}

func runSet(store Store, args []string, stderr io.Writer) int {
	if len(args) != 2 {
		fmt.Fprintln(stderr, "usage: set <key> <value>")
		return 1
	}
	if err := store.Set(args[0], args[1]); err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	return 0
}

func runGet(store Store, args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "usage: get <key>")
		return 1
	}
	value, err := store.Get(args[0])
	switch {
	case err == nil:
		fmt.Fprintln(stdout, value)
		return 0
	case errors.Is(err, kvserr.ErrKeyNotFound):
		fmt.Fprintln(stdout, "Key not found")
		return 0
	default:
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
}

func runRemove(store Store, args []string, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "usage: rm <key>")
		return 1
	}
	err := store.Remove(args[0])
	switch {
	case err == nil:
		return 0
	case errors.Is(err, kvserr.ErrKeyNotFound):
		fmt.Fprintln(stderr, "Key not found")
		return 1
	default:
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
}
