// Command import loads one CSV file of transactions into the store and
// prints a summary. The file is deleted after processing, matching the
// server's import endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"gofinances/internal/config"
	"gofinances/internal/services"
	"gofinances/internal/storage"
)

func main() {
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [-v] <file.csv>\n", os.Args[0])
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	resolver := services.NewCategoryResolver(repo)
	imports := services.NewImportService(repo, resolver, nil, cfg.Delimiter())

	ctx := context.Background()
	imported, err := imports.ImportFromFile(ctx, path)
	if err != nil {
		logger.Error("Import failed", "error", err, "path", path)
		os.Exit(1)
	}

	balance, err := repo.GetBalance(ctx)
	if err != nil {
		logger.Error("Failed to read balance", "error", err)
		os.Exit(1)
	}

	fmt.Printf("imported %d transactions from %s\n", len(imported), path)
	fmt.Printf("balance: income %s, outcome %s, total %s\n",
		balance.Income, balance.Outcome, balance.Total)
}
