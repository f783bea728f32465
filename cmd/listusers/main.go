package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"

	"travel-expenses/internal/auth"
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

	fs := flag.NewFlagSet("listusers", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dbPath := fs.String("db", cfg.DBPath, "Path to database file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.DBPath = *dbPath
	if err := cfg.Validate(); err != nil {
		return err
	}
	applog.SetDefault(applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Component: "listusers",
		Output:    stderr,
	}))

	hasher, err := cfg.Hasher()
	if err != nil {
		return err
	}

	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	emails, err := auth.NewService(db, hasher).ListUsers(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	if len(emails) == 0 {
		fmt.Fprintln(stdout, "No users registered")
		return nil
	}
	for _, email := range emails {
		fmt.Fprintln(stdout, email)
	}
	return nil
}
