package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"github.com/freshmart/storefront-backend/pkg/config"
	"github.com/freshmart/storefront-backend/pkg/db"
	"github.com/freshmart/storefront-backend/pkg/logger"
	"github.com/freshmart/storefront-backend/pkg/migrate"
)

type options struct {
	cmd     string
	root    string
	name    string
	version string
}

func main() {
	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "up|down|status|version|create|validate")
	flag.StringVar(&opts.root, "dir", migrate.DefaultDir, "migrations root, one subdirectory per dialect")
	flag.StringVar(&opts.name, "name", "", "migration name for -cmd=create")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	_ = godotenv.Load()

	// create and validate only touch files
	switch opts.cmd {
	case "create":
		if opts.name == "" {
			fail(errors.New("-name is required for create"))
		}
		paths, err := migrate.CreateSQLMigration(opts.root, opts.name)
		if err != nil {
			fail(err)
		}
		for _, p := range paths {
			fmt.Println("created", p)
		}
		return
	case "validate":
		if err := migrate.ValidateRoot(opts.root); err != nil {
			fail(err)
		}
		fmt.Println("migrations ok")
		return
	}

	if err := run(opts); err != nil {
		fail(err)
	}
}

func run(opts options) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})

	driver := cfg.DB.NormalizedDriver()
	if driver == config.DriverSQLite {
		return errors.New("sqlite schemas are auto-migrated; goose commands need mysql or postgres")
	}
	dir := migrate.DirFor(opts.root, driver)
	ctx := logg.WithFields(context.Background(), map[string]any{
		"cmd":    opts.cmd,
		"dir":    dir,
		"driver": driver,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer dbClient.Close()
	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return err
	}

	runner, err := migrate.NewRunner(sqlDB, driver, dir)
	if err != nil {
		return err
	}
	defer runner.Close()

	logg.Info(ctx, "migrate.start")
	var moved []int64
	switch opts.cmd {
	case "up":
		moved, err = runner.Up(ctx)
	case "down":
		var v int64
		if v, err = runner.Down(ctx); err == nil {
			moved = []int64{v}
		}
	case "status":
		err = printStatus(ctx, runner)
	case "version":
		target, perr := strconv.ParseInt(opts.version, 10, 64)
		if perr != nil {
			return fmt.Errorf("-version must be YYYYMMDDHHMMSS: %w", perr)
		}
		moved, err = runner.To(ctx, target)
	default:
		return fmt.Errorf("unknown -cmd %q", opts.cmd)
	}
	if err != nil {
		logg.Error(ctx, "migrate.failed", err)
		return err
	}
	logg.Info(logg.WithField(ctx, "versions", moved), "migrate.done")
	return nil
}

func printStatus(ctx context.Context, runner *migrate.Runner) error {
	rows, err := runner.Status(ctx)
	if err != nil {
		return err
	}
	for _, row := range rows {
		applied := "pending"
		if row.State == goose.StateApplied {
			applied = row.AppliedAt.Format(time.RFC3339)
		}
		fmt.Printf("%-16d %-26s %s\n", row.Source.Version, applied, filepath.Base(row.Source.Path))
	}
	return nil
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "migrate:", err)
	os.Exit(1)
}
