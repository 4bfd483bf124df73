// Command kvs-server opens one engine over one data directory and serves
// it over TCP until the process is killed.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/jassi-singh/kvs/internal/config"
	"github.com/jassi-singh/kvs/internal/engine"
	"github.com/jassi-singh/kvs/internal/engine/boltengine"
	"github.com/jassi-singh/kvs/internal/server"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("kvs-server: failed to load config: %v", err)
	}

	addr := flag.String("addr", cfg.ADDR, "listen address (IP:PORT)")
	dataDir := flag.String("dir", cfg.DATA_DIR, "data directory")
	engineName := flag.String("engine", cfg.ENGINE, "engine to run: kvs or sled")
	flag.Parse()

	if onDisk := detectEngine(*dataDir); onDisk != "" && onDisk != *engineName {
		log.Fatalf("kvs-server: requested engine %q does not match on-disk engine %q in %s",
			*engineName, onDisk, *dataDir)
	}

	eng, err := openEngine(*dataDir, *engineName)
	if err != nil {
		log.Fatalf("kvs-server: %v", err)
	}
	defer func() {
		if err := eng.Close(); err != nil {
			slog.Error("kvs-server: error closing engine", "error", err)
		}
	}()

	slog.Info("kvs-server: started", "engine", *engineName, "data_dir", *dataDir, "addr", *addr)

	srv := server.New(eng)
	if err := srv.Serve(*addr); err != nil {
		log.Fatalf("kvs-server: %v", err)
	}
}

// detectEngine reports which engine already owns dir, by marker, or ""
// if dir is fresh. Checked before opening anything, so a mismatched
// request never touches disk.
func detectEngine(dir string) string {
	switch {
	case engine.IsPresent(dir):
		return "kvs"
	case boltengine.IsPresent(dir):
		return "sled"
	default:
		return ""
	}
}

// openEngine opens the requested engine implementation over dir.
func openEngine(dir, requested string) (engine.Engine, error) {
	switch requested {
	case "kvs":
		return engine.Open(dir)
	case "sled":
		return boltengine.Open(dir)
	default:
		return nil, fmt.Errorf("unknown engine %q (want kvs or sled)", requested)
	}
}
