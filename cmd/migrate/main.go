// Command migrate applies the embedded SQL migrations; run with
// go run ./cmd/migrate before the first server start against a fresh
// database.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"conforma/internal/platform/config"
	"conforma/internal/platform/postgres/migrate"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up or down")
	flag.Parse()

	cfg := config.FromEnv()
	if cfg.Database.URL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is not set")
		os.Exit(1)
	}

	if err := migrate.Run(cfg.Database.URL, *direction); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return
		}
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}
