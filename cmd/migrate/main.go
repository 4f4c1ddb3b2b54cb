package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/blagoySimandov/bundlestore/internal/config"
	"github.com/blagoySimandov/bundlestore/internal/db"
	"github.com/blagoySimandov/bundlestore/migrations"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun/migrate"
)

type command struct {
	help string
	run  func(ctx context.Context, m *migrate.Migrator, args []string) error
}

var commands = map[string]command{
	"up":           {"Run all pending migrations", up},
	"down":         {"Roll back the last migration group", down},
	"status":       {"Show applied and pending migrations", status},
	"mark-applied": {"Record pending migrations as applied without running them", markApplied},
	"create":       {"Create new transactional SQL migration files", create},
}

func main() {
	name := "up"
	if len(os.Args) > 1 {
		name = os.Args[1]
	}
	cmd, ok := commands[name]
	if !ok {
		usage()
		os.Exit(1)
	}

	cfg := config.Load()
	bunDB := db.NewBunPostgresClient(cfg.DatabaseURL)
	defer bunDB.Close()

	ctx := context.Background()
	if err := db.Ping(ctx, bunDB); err != nil {
		log.Fatal().Err(err).Msg("Database unreachable")
	}

	migrator := migrate.NewMigrator(bunDB, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize migrator")
	}

	if err := cmd.run(ctx, migrator, os.Args[min(2, len(os.Args)):]); err != nil {
		log.Fatal().Err(err).Str("command", name).Msg("Migration command failed")
	}
}

func up(ctx context.Context, m *migrate.Migrator, _ []string) error {
	return withLock(ctx, m, func() error {
		group, err := m.Migrate(ctx)
		if err != nil {
			return err
		}
		if group.IsZero() {
			log.Info().Msg("Database is up to date")
			return nil
		}
		log.Info().Str("group", group.String()).Msg("Migrated")
		return nil
	})
}

func down(ctx context.Context, m *migrate.Migrator, _ []string) error {
	return withLock(ctx, m, func() error {
		group, err := m.Rollback(ctx)
		if err != nil {
			return err
		}
		if group.IsZero() {
			log.Info().Msg("Nothing to roll back")
			return nil
		}
		log.Info().Str("group", group.String()).Msg("Rolled back")
		return nil
	})
}

// markApplied is for databases created by PostgresStore.InitializeDatabase
// before migrations were introduced.
func markApplied(ctx context.Context, m *migrate.Migrator, _ []string) error {
	return withLock(ctx, m, func() error {
		group, err := m.Migrate(ctx, migrate.WithNopMigration())
		if err != nil {
			return err
		}
		log.Info().Str("group", group.String()).Msg("Marked as applied")
		return nil
	})
}

func status(ctx context.Context, m *migrate.Migrator, _ []string) error {
	ms, err := m.MigrationsWithStatus(ctx)
	if err != nil {
		return err
	}
	for _, mig := range ms {
		state := "pending"
		if mig.IsApplied() {
			state = "applied"
		}
		fmt.Printf("%-60s %s\n", mig.Name, state)
	}
	return nil
}

func create(ctx context.Context, m *migrate.Migrator, args []string) error {
	name := "migration"
	if len(args) > 0 {
		name = strings.Join(args, "_")
	}
	files, err := m.CreateTxSQLMigrations(ctx, name)
	if err != nil {
		return err
	}
	for _, f := range files {
		log.Info().Str("path", f.Path).Msg("Created migration")
	}
	return nil
}

func withLock(ctx context.Context, m *migrate.Migrator, fn func() error) error {
	if err := m.Lock(ctx); err != nil {
		return fmt.Errorf("acquire migration lock: %w", err)
	}
	defer func() {
		if err := m.Unlock(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to release migration lock")
		}
	}()
	return fn()
}

func usage() {
	fmt.Println("Usage: migrate <command> [args]")
	for _, name := range []string{"up", "down", "status", "mark-applied", "create"} {
		fmt.Printf("  %-13s %s\n", name, commands[name].help)
	}
}
