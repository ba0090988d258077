// migrate applies the embedded SQL migrations to the Postgres lead store: go run ./cmd/migrate -direction up.
// SQLite stores are migrated by the server on startup.
package main

import (
	"flag"
	"fmt"
	"os"

	"lead-capture/internal/config"
	"lead-capture/internal/db/migrate"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if err := migrate.Run(cfg.DatabaseURL, *direction); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
	fmt.Printf("migrate: %s complete\n", *direction)
}
