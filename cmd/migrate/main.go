package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"

	"travel-expenses/internal/config"
	applog "travel-expenses/internal/log"
	"travel-expenses/internal/storage"
)

func main() {
	_ = godotenv.Load()

	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	cfg := config.Load()

	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dbPath := fs.String("db", cfg.DBPath, "Path to database file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.DBPath = *dbPath
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Component: "migrate",
		Output:    stderr,
	})

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	version, dirty, err := db.SchemaVersion()
	if err != nil {
		return err
	}
	logger.Info("Migrations applied", "path", cfg.DBPath, "version", version, "dirty", dirty)

	fmt.Fprintf(stdout, "Database %s at schema version %d\n", cfg.DBPath, version)
	return nil
}
