package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"travel-expenses/internal/auth"
	"travel-expenses/internal/config"
	applog "travel-expenses/internal/log"
	"travel-expenses/internal/models"
	"travel-expenses/internal/storage"
)

func main() {
	// Load .env file for local development
	_ = godotenv.Load()

	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg := config.Load()

	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	email := fs.String("email", "", "E-mail address")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	dbPath := fs.String("db", cfg.DBPath, "Path to database file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if strings.TrimSpace(*email) == "" {
		fmt.Fprintln(stdout, "Usage: adduser -email <email> [-password <password>] [-db <db_path>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: email")
	}

	cfg.DBPath = *dbPath
	if err := cfg.Validate(); err != nil {
		return err
	}
	applog.SetDefault(applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Component: "adduser",
		Output:    stderr,
	}))

	password := *passwordFlag
	if password == "" {
		p := newPrompter(stdin)
		var err error
		if password, err = p.prompt(stdout, "Password: "); err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		if strings.TrimSpace(password) == "" {
			return fmt.Errorf("password cannot be empty")
		}
		confirm, err := p.prompt(stdout, "Confirm password: ")
		if err != nil {
			return fmt.Errorf("failed to read password confirmation: %w", err)
		}
		if err := auth.CheckConfirmation(password, confirm); err != nil {
			return err
		}
	}

	hasher, err := cfg.Hasher()
	if err != nil {
		return err
	}

	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	normalized := models.NormalizeEmail(*email)
	svc := auth.NewService(db, hasher)
	if err := svc.CreateUser(context.Background(), normalized, password); err != nil {
		if errors.Is(err, models.ErrDuplicateUser) {
			return fmt.Errorf("user %s already exists", normalized)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s created successfully\n", normalized)
	return nil
}

// prompter reads passwords from a terminal without echo, or line by line
// from any other reader.
type prompter struct {
	file   *os.File
	reader *bufio.Reader
}

func newPrompter(stdin io.Reader) *prompter {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return &prompter{file: f}
	}
	return &prompter{reader: bufio.NewReader(stdin)}
}

func (p *prompter) prompt(stdout io.Writer, label string) (string, error) {
	fmt.Fprint(stdout, label)
	defer fmt.Fprintln(stdout)

	if p.file != nil {
		b, err := term.ReadPassword(int(p.file.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	line, err := p.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
