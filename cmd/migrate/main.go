// Command migrate manages the POS database schema. Without -path it applies
// the migrations compiled into the binary, the same set the server runs at
// startup outside production.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	_ "github.com/lib/pq"
	"github.com/retailpos/backend/internal/infrastructure/config"
	"github.com/retailpos/backend/internal/infrastructure/logger"
	"github.com/retailpos/backend/internal/infrastructure/migration"
	"go.uber.org/zap"
)

const defaultMigrationsDir = "migrations"

var errUsage = errors.New("invalid usage")

// schemaCommand runs against an open migrator; args excludes the command name
type schemaCommand struct {
	usage string
	run   func(m *migration.Migrator, log *zap.Logger, args []string) error
}

var schemaCommands = map[string]schemaCommand{
	"up": {"up", func(m *migration.Migrator, _ *zap.Logger, _ []string) error {
		return m.Up()
	}},
	"down": {"down", func(m *migration.Migrator, _ *zap.Logger, _ []string) error {
		return m.Down()
	}},
	"step": {"step <n>", func(m *migration.Migrator, _ *zap.Logger, args []string) error {
		n, err := intArg(args)
		if err != nil {
			return err
		}
		return m.Steps(n)
	}},
	"goto": {"goto <version>", func(m *migration.Migrator, _ *zap.Logger, args []string) error {
		v, err := intArg(args)
		if err != nil || v < 0 {
			return fmt.Errorf("%w: version must be a non-negative number", errUsage)
		}
		return m.GoTo(uint(v))
	}},
	"force": {"force <version>", func(m *migration.Migrator, log *zap.Logger, args []string) error {
		v, err := intArg(args)
		if err != nil {
			return err
		}
		log.Warn("Forcing schema version without running migrations", zap.Int("version", v))
		return m.Force(v)
	}},
	"version": {"version", func(m *migration.Migrator, log *zap.Logger, _ []string) error {
		v, dirty, err := m.Version()
		if err != nil {
			return err
		}
		if v == 0 {
			log.Info("No migrations applied")
			return nil
		}
		log.Info("Schema version", zap.Uint("version", v), zap.Bool("dirty", dirty))
		return nil
	}},
	"drop": {"drop -confirm", func(m *migration.Migrator, _ *zap.Logger, args []string) error {
		if !slices.Contains(args, "-confirm") && !slices.Contains(args, "--confirm") {
			return fmt.Errorf("%w: drop removes every table, pass -confirm", errUsage)
		}
		return m.Drop()
	}},
}

func main() {
	dir := flag.String("path", "", "Migrations directory; empty uses the embedded set (create and list default to ./migrations)")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	timeout := flag.Duration("connect-timeout", 10*time.Second, "Time allowed to reach the database")
	flag.Usage = printUsage
	flag.Parse()

	log, err := logger.New(&logger.Config{
		Level:      *logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	err = run(flag.Args(), *dir, *timeout, log)
	_ = log.Sync()
	if errors.Is(err, errUsage) {
		fmt.Fprintln(os.Stderr, err)
		printUsage()
		os.Exit(2)
	}
	if err != nil {
		log.Error("Migration command failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(args []string, dir string, timeout time.Duration, log *zap.Logger) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}
	name, rest := args[0], args[1:]

	switch name {
	case "create":
		if len(rest) == 0 {
			return fmt.Errorf("%w: create needs a migration name", errUsage)
		}
		description := ""
		if len(rest) > 1 {
			description = rest[1]
		}
		mf, err := migration.CreateMigration(fileDir(dir), rest[0], description)
		if err != nil {
			return err
		}
		log.Info("Migration created",
			zap.String("version", mf.Version),
			zap.String("up", mf.UpPath),
			zap.String("down", mf.DownPath))
		return nil
	case "list":
		files, err := migration.ListMigrations(fileDir(dir))
		if err != nil {
			return err
		}
		log.Info("Migrations on disk", zap.Int("count", len(files)))
		for _, f := range files {
			fmt.Println("  -", f)
		}
		return nil
	}

	cmd, ok := schemaCommands[name]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("reach database %s:%d: %w", cfg.Database.Host, cfg.Database.Port, err)
	}

	var m *migration.Migrator
	if dir == "" {
		m, err = migration.New(db, log)
	} else {
		m, err = migration.NewFromPath(db, absDir(dir), log)
	}
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	log.Debug("Running migration command", zap.String("command", cmd.usage))
	return cmd.run(m, log, rest)
}

func intArg(args []string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%w: missing numeric argument", errUsage)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", errUsage, args[0])
	}
	return n, nil
}

// fileDir resolves the directory create and list operate on
func fileDir(dir string) string {
	if dir != "" {
		return absDir(dir)
	}
	if _, err := os.Stat(defaultMigrationsDir); err == nil {
		return absDir(defaultMigrationsDir)
	}
	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), "..", "..", defaultMigrationsDir)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return absDir(defaultMigrationsDir)
}

func absDir(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Usage: migrate [flags] <command> [args]

Schema commands (need POS_DATABASE_* settings):
  up                 apply pending migrations
  down               roll back every migration
  step <n>           apply n migrations, negative rolls back
  goto <version>     move to a version
  version            print the applied version
  force <version>    mark a version as applied after a manual fix
  drop -confirm      drop every table

File commands:
  create <name> [description]
  list

Flags:
`)
	flag.PrintDefaults()
}
