package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"note-article-api/internal/config"
	"note-article-api/internal/wire"
)

func main() {
	_ = godotenv.Load()

	fmt.Println("Starting ledger bootstrap...")

	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.Ledger.Backend != config.LedgerBackendPostgres {
		fmt.Printf("Ledger backend is %q, nothing to migrate.\n", cfg.Ledger.Backend)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// 2. 连接 PostgreSQL
	repo, cleanup, err := wire.InitializeMigrator(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to connect postgres: %v", err)
	}
	defer cleanup()

	// 3. 建表与表头
	if err := repo.Migrate(ctx); err != nil {
		log.Fatalf("failed to migrate note_logs: %v", err)
	}

	fmt.Println("Ledger bootstrap completed successfully!")
}
