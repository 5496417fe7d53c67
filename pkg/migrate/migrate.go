// Package migrate applies the goose SQL migrations kept per dialect under
// DefaultDir. SQLite databases skip goose and are built from the models.
package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pressly/goose/v3"

	"github.com/freshmart/storefront-backend/pkg/config"
)

const DefaultDir = "pkg/migrate/migrations"

func Dialect(driver string) (goose.Dialect, error) {
	switch driver {
	case "", config.DriverMySQL:
		return goose.DialectMySQL, nil
	case config.DriverPostgres:
		return goose.DialectPostgres, nil
	case config.DriverSQLite:
		return goose.DialectSQLite3, nil
	}
	return "", fmt.Errorf("no goose dialect for driver %q", driver)
}

// DirFor is root/driver with mysql as the default for both.
func DirFor(root, driver string) string {
	if root == "" {
		root = DefaultDir
	}
	if driver == "" {
		driver = config.DriverMySQL
	}
	return filepath.Join(root, driver)
}

// Runner drives one dialect's migrations against an open database.
type Runner struct {
	provider *goose.Provider
}

func NewRunner(db *sql.DB, driver, dir string) (*Runner, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	dialect, err := Dialect(driver)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("migrations dir: %w", err)
	}
	provider, err := goose.NewProvider(dialect, db, os.DirFS(dir))
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return &Runner{provider: provider}, nil
}

// Up applies every pending migration and returns the versions it ran.
func (r *Runner) Up(ctx context.Context) ([]int64, error) {
	results, err := r.provider.Up(ctx)
	return versions(results), wrap("up", err)
}

// Down rolls back the most recent migration.
func (r *Runner) Down(ctx context.Context) (int64, error) {
	res, err := r.provider.Down(ctx)
	if err != nil {
		return 0, wrap("down", err)
	}
	return res.Source.Version, nil
}

// To moves the schema up or down until target is the current version.
func (r *Runner) To(ctx context.Context, target int64) ([]int64, error) {
	current, err := r.provider.GetDBVersion(ctx)
	if err != nil {
		return nil, wrap("version", err)
	}
	switch {
	case current == target:
		return nil, nil
	case current < target:
		results, err := r.provider.UpTo(ctx, target)
		return versions(results), wrap(fmt.Sprintf("up-to %d", target), err)
	default:
		results, err := r.provider.DownTo(ctx, target)
		return versions(results), wrap(fmt.Sprintf("down-to %d", target), err)
	}
}

func (r *Runner) Status(ctx context.Context) ([]*goose.MigrationStatus, error) {
	out, err := r.provider.Status(ctx)
	return out, wrap("status", err)
}

func (r *Runner) Close() error { return r.provider.Close() }

func versions(results []*goose.MigrationResult) []int64 {
	out := make([]int64, 0, len(results))
	for _, res := range results {
		if res != nil && res.Source != nil {
			out = append(out, res.Source.Version)
		}
	}
	return out
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("goose %s: %w", op, err)
}
