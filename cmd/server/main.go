package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/madit/hotelstock/internal/alert"
	"github.com/madit/hotelstock/internal/api"
	"github.com/madit/hotelstock/internal/config"
	"github.com/madit/hotelstock/internal/db"
	"github.com/madit/hotelstock/internal/model"
	"github.com/madit/hotelstock/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: hotelstock <serve|init|create-user>")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	zlog.Logger = logger

	switch os.Args[1] {
	case "serve":
		cmdServe(cfg, logger, os.Args[2:])
	case "init":
		cmdInit(cfg, os.Args[2:])
	case "create-user":
		cmdCreateUser(cfg, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\nUsage: hotelstock <serve|init|create-user>\n", os.Args[1])
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	if cfg.Env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
}

func cmdInit(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	fs.Parse(args)

	if _, err := os.Stat(cfg.DBPath); err == nil {
		fmt.Fprintf(os.Stderr, "Error: database file %s already exists\n", cfg.DBPath)
		os.Exit(1)
	}

	database, password, err := initDatabase(cfg.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	database.Close()

	printBootstrapInfo(cfg.DBPath, password)
}

func cmdCreateUser(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)
	username := fs.String("username", "", "username for the new account")
	role := fs.String("role", model.RoleStockUser, `role: "Admin", "Clerk" or "Stock User"`)
	fs.Parse(args)

	if *username == "" {
		fmt.Fprintln(os.Stderr, "Error: -username is required")
		os.Exit(1)
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		fmt.Fprintf(os.Stderr, "Error migrating database: %v\n", err)
		os.Exit(1)
	}

	password, err := generatePassword(16)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating password: %v\n", err)
		os.Exit(1)
	}

	user, err := store.CreateUser(context.Background(), database, *username, password, *role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating user: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("User created:\n  Username: %s\n  Role:     %s\n  Password: %s\n", user.Username, user.Role, password)
	fmt.Println("Save this password, it cannot be recovered.")
}

func cmdServe(cfg *config.Config, logger zerolog.Logger, args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	fs.Parse(args)

	// First run: create and bootstrap the database.
	if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) && cfg.DBPath != ":memory:" {
		database, password, err := initDatabase(cfg.DBPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("initializing database")
		}
		database.Close()
		printBootstrapInfo(cfg.DBPath, password)
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("opening database")
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		logger.Fatal().Err(err).Msg("migrating database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Prefer an explicitly configured secret; otherwise use the one
	// persisted in the settings table so tokens survive restarts.
	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" {
		jwtSecret, err = store.EnsureJWTSecret(ctx, database)
		if err != nil {
			logger.Fatal().Err(err).Msg("loading jwt secret")
		}
	}

	alertDefaults := store.AlertSettings{
		ExpiryDays:   cfg.ExpiryAlertDays,
		SoundEnabled: cfg.AlertSoundEnabled,
	}
	evaluator := alert.NewEvaluator(database, cfg.ExpiryAlertDays)

	watcher := &alert.Watcher{
		Evaluator: evaluator,
		Interval:  cfg.AlertCheckInterval,
		Log:       logger.With().Str("component", "alert-watcher").Logger(),
	}
	go watcher.Run(ctx)

	router := api.NewRouter(database, jwtSecret, evaluator, alertDefaults)
	handler := api.LoggingMiddleware(logger)(router)

	server := &http.Server{Addr: cfg.Addr, Handler: handler}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", cfg.Addr).Str("db", cfg.DBPath).Msg("server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server error")
	}
	logger.Info().Msg("server stopped")
}

// initDatabase creates a new database, applies the schema, and creates the
// initial admin account with a generated password.
func initDatabase(path string) (*sql.DB, string, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening database: %w", err)
	}

	cleanup := func() {
		database.Close()
		os.Remove(path)
	}

	if err := db.Migrate(database); err != nil {
		cleanup()
		return nil, "", fmt.Errorf("migrating database: %w", err)
	}

	password, err := generatePassword(16)
	if err != nil {
		cleanup()
		return nil, "", fmt.Errorf("generating password: %w", err)
	}

	if _, err := store.CreateUser(context.Background(), database, "admin", password, model.RoleAdmin); err != nil {
		cleanup()
		return nil, "", fmt.Errorf("creating admin user: %w", err)
	}

	return database, password, nil
}

func printBootstrapInfo(dbPath, password string) {
	fmt.Printf("Database created: %s\n", dbPath)
	fmt.Println()
	fmt.Println("Admin account created:")
	fmt.Println("  Username: admin")
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
