package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"

	"github.com/GregMSThompson/finance-dashboard/internal/config"
	"github.com/GregMSThompson/finance-dashboard/pkg/logger"
)

var (
	storageBackend = flag.String("backend", "", "Storage backend override (file or sqlite)")
	storagePath    = flag.String("store", "", "Storage path override")
	logLevel       = flag.String("log-level", "warn", "Log level for diagnostics on stderr")
)

func main() {
	_ = godotenv.Load()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	a := &app{out: os.Stdout}
	register(commander, a)

	flag.Parse()

	cfg, err := config.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(int(subcommands.ExitFailure))
	}
	if *storageBackend != "" && *storageBackend != cfg.StorageBackend {
		cfg.StorageBackend = *storageBackend
		cfg.StoragePath = config.DefaultStoragePath(*storageBackend)
		if cfg.StoragePath == "" {
			fmt.Fprintf(os.Stderr, "unknown storage backend %q\n", *storageBackend)
			os.Exit(int(subcommands.ExitUsageError))
		}
	}
	if *storagePath != "" {
		cfg.StoragePath = *storagePath
	}
	a.cfg = cfg

	log := logger.New(*logLevel, func(level slog.Level) slog.Handler {
		return logger.NewCloudRunHandlerTo(os.Stderr, level)
	})
	ctx := logger.ToContext(context.Background(), log)
	os.Exit(int(commander.Execute(ctx)))
}

func register(c *subcommands.Commander, a *app) {
	c.Register(&listCmd{app: a}, "widgets")
	c.Register(&showCmd{app: a}, "widgets")
	c.Register(&addCmd{app: a}, "widgets")
	c.Register(&updateCmd{app: a}, "widgets")
	c.Register(&removeCmd{app: a}, "widgets")
	c.Register(&moveCmd{app: a}, "widgets")

	c.Register(&exportCmd{app: a}, "documents")
	c.Register(&importCmd{app: a}, "documents")

	c.Register(&fetchCmd{app: a}, "data")
	c.Register(&setTokenCmd{app: a}, "data")
}
