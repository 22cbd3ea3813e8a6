// migrate applies or rolls back the embedded schema migrations.
// Usage: go run ./cmd/migrate [-direction up|down]
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"cribtrack/backend/internal/config"
	"cribtrack/backend/internal/db/migrate"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	if err := run(*direction); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}

func run(direction string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	err = migrate.Run(cfg.DatabaseURL, direction)
	if errors.Is(err, migrate.ErrNoChange) {
		// Already at target version; success.
		return nil
	}
	return err
}
