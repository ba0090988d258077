// seed inserts sample leads for local testing and can print a bcrypt hash for ADMIN_PASSWORD_HASH.
//
//	go run ./cmd/seed                        # insert sample leads into DATABASE_URL
//	go run ./cmd/seed -hash-password secret  # print a hash and exit
//
// Idempotent: skips inserts when the store already holds leads.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"lead-capture/internal/config"
	"lead-capture/internal/db"
	"lead-capture/internal/lead/domain"
	"lead-capture/internal/lead/repository"
	"lead-capture/internal/logging"
	"lead-capture/internal/security"
)

var sampleLeads = []domain.NewLead{
	{Name: "Ana Silva", Email: "ana.silva@example.com", Phone: "+351 912 345 678", Property: "apartment", Message: "Two-bedroom flat, would like a valuation."},
	{Name: "Rui Costa", Email: "rui.costa@example.com", Phone: "(21) 98765-4321", Property: "house"},
	{Name: "Marta Sousa", Email: "marta@example.com", Phone: "912-000-111", Property: "none", Message: "Looking to rent near the city centre."},
}

func main() {
	password := flag.String("hash-password", "", "print the bcrypt hash of this password and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logging:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if *password != "" {
		hash, err := security.NewHasher(cfg.BcryptCost).Hash([]byte(*password))
		if err != nil {
			logger.Fatal("hash password", zap.Error(err))
		}
		fmt.Println(hash)
		return
	}

	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}
	conn, err := db.OpenX(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer conn.Close()

	ctx := context.Background()
	if db.IsSQLite(cfg.DatabaseURL) {
		if err := db.EnsureSchema(ctx, conn); err != nil {
			logger.Fatal("ensure sqlite schema", zap.Error(err))
		}
	}
	repo := repository.NewSQLRepository(conn)

	existing, err := repo.ListAll(ctx)
	if err != nil {
		logger.Fatal("seed check", zap.Error(err))
	}
	if len(existing) > 0 {
		logger.Info("seed already applied, skipping", zap.Int("leads", len(existing)))
		return
	}
	for _, n := range sampleLeads {
		l, err := repo.Create(ctx, n)
		if err != nil {
			logger.Fatal("create lead", zap.String("name", n.Name), zap.Error(err))
		}
		logger.Info("created lead", zap.String("lead_id", l.ID), zap.String("name", l.Name))
	}
}
