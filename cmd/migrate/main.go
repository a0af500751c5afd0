package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/adan-ayaz-stan/albion-marketplace/internal/config"
	"github.com/adan-ayaz-stan/albion-marketplace/internal/db"
	"github.com/adan-ayaz-stan/albion-marketplace/internal/logging"
)

func main() {
	cmd := flag.String("cmd", "up", "migration command: up|down|status|version")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(logging.Options{
		Service: "albion-migrate",
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})

	if err := db.Migrate(context.Background(), cfg.DSN(), *cmd); err != nil {
		log.Error().Err(err).Str("cmd", *cmd).Msg("migration failed")
		os.Exit(1)
	}
	log.Info().Str("cmd", *cmd).Msg("migration complete")
}
