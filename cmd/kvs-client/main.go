// Command kvs-client sends exactly one set/get/rm command to a
// kvs-server over TCP and exits.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/jassi-singh/kvs/internal/cli"
	"github.com/jassi-singh/kvs/internal/client"
	"github.com/jassi-singh/kvs/internal/config"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("kvs-client: failed to load config: %v", err)
	}

	addr := flag.String("addr", cfg.ADDR, "server address (IP:PORT)")
	flag.Parse()

	c := client.New(*addr)
	os.Exit(cli.Run(c, flag.Args(), os.Stdout, os.Stderr))
}
