// Command kvs is the embedded, single-process key-value store: it opens
// a data directory directly and runs exactly one set/get/rm command
// against it before exiting.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/jassi-singh/kvs/internal/cli"
	"github.com/jassi-singh/kvs/internal/config"
	"github.com/jassi-singh/kvs/internal/engine"
	"github.com/jassi-singh/kvs/internal/engine/boltengine"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("kvs: failed to load config: %v", err)
	}

	dataDir := flag.String("dir", cfg.DATA_DIR, "data directory")
	flag.Parse()

	store, closeStore, err := open(*dataDir)
	if err != nil {
		log.Fatalf("kvs: %v", err)
	}
	defer closeStore()

	os.Exit(cli.Run(store, flag.Args(), os.Stdout, os.Stderr))
}

// open picks the engine already present in dir: the bbolt engine if its
// sled marker exists, otherwise the log-structured engine (so an empty
// directory gets the log-structured engine).
func open(dir string) (cli.Store, func() error, error) {
	switch {
	case boltengine.IsPresent(dir):
		e, err := boltengine.Open(dir)
		if err != nil {
			return nil, nil, err
		}
		return e, e.Close, nil
	default:
		e, err := engine.Open(dir)
		if err != nil {
			return nil, nil, err
		}
		return e, e.Close, nil
	}
}
