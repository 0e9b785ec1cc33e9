package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/fitroom-backend/pkg/config"
	"github.com/angelmondragon/fitroom-backend/pkg/db"
	"github.com/angelmondragon/fitroom-backend/pkg/logger"
	"github.com/angelmondragon/fitroom-backend/pkg/migrate"
)

type options struct {
	dir     string
	name    string
	version string
}

// command is one -cmd value. Commands without a db only touch migration files.
type command struct {
	needsDB bool
	run     func(ctx context.Context, sqlDB *sql.DB, opts options) (string, error)
}

var commands = map[string]command{
	"up":     {needsDB: true, run: gooseCommand("up")},
	"down":   {needsDB: true, run: gooseCommand("down")},
	"status": {needsDB: true, run: gooseCommand("status")},
	"version": {needsDB: true, run: func(ctx context.Context, sqlDB *sql.DB, opts options) (string, error) {
		if opts.version == "" {
			return "", errors.New("missing -version")
		}
		if err := migrate.MigrateToVersion(ctx, sqlDB, opts.dir, opts.version); err != nil {
			return "", err
		}
		return "schema at version " + opts.version, nil
	}},
	"create": {run: func(_ context.Context, _ *sql.DB, opts options) (string, error) {
		if opts.name == "" {
			return "", errors.New("missing -name")
		}
		dir := opts.dir
		if dir == "" {
			dir = migrate.DefaultDir
		}
		path, err := migrate.CreateSQLMigration(dir, opts.name, time.Now())
		if err != nil {
			return "", err
		}
		return "created migration: " + path, nil
	}},
	"validate": {run: func(_ context.Context, _ *sql.DB, opts options) (string, error) {
		if err := migrate.ValidateDir(opts.dir); err != nil {
			return "", err
		}
		return "migration validation passed", nil
	}},
}

func gooseCommand(name string) func(context.Context, *sql.DB, options) (string, error) {
	return func(ctx context.Context, sqlDB *sql.DB, opts options) (string, error) {
		if err := migrate.Run(ctx, sqlDB, opts.dir, name); err != nil {
			return "", err
		}
		return "goose " + name + " completed", nil
	}
}

func commandNames() string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}

func main() {
	_ = godotenv.Load()

	var opts options
	cmdName := flag.String("cmd", "up", "migration command: "+commandNames())
	flag.StringVar(&opts.dir, "dir", "", "migrations directory (empty: embedded set, or "+migrate.DefaultDir+" for create)")
	flag.StringVar(&opts.name, "name", "", "migration name for -cmd=create")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	if err := run(*cmdName, opts); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", *cmdName, err)
		os.Exit(1)
	}
}

func run(name string, opts options) error {
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command (want %s)", commandNames())
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": name,
		"dir": opts.dir,
	})

	var sqlDB *sql.DB
	if cmd.needsDB {
		if cfg.FeatureFlags.UseSQLite || strings.EqualFold(cfg.DB.Driver, db.DriverSQLite) {
			return errors.New("goose migrations target postgres; sqlite databases are auto-migrated from models")
		}
		client, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer client.Close()
		if sqlDB, err = client.DB().DB(); err != nil {
			return fmt.Errorf("sql handle: %w", err)
		}
	}

	msg, err := cmd.run(ctx, sqlDB, opts)
	if err != nil {
		logg.Error(ctx, "migration command failed", err)
		return err
	}
	logg.Info(ctx, msg)
	fmt.Println(msg)
	return nil
}
