package migrate

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/freshmart/storefront-backend/pkg/config"
	"github.com/pressly/goose/v3"
)

// Dialects lists the drivers that carry hand-written SQL migrations.
var Dialects = []string{config.DriverMySQL, config.DriverPostgres}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

const migrationTemplate = `-- +goose Up
-- +goose StatementBegin
-- %[1]s (%[2]s)
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- revert %[1]s (%[2]s)
-- +goose StatementEnd
`

// CreateSQLMigration writes an empty migration with the same version into every
// dialect directory under root and returns the created paths.
func CreateSQLMigration(root, name string) ([]string, error) {
	slug := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(name), "_"), "_")
	if slug == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	if root == "" {
		root = DefaultDir
	}

	file := time.Now().UTC().Format("20060102150405") + "_" + slug + ".sql"
	paths := make([]string, 0, len(Dialects))
	for _, dialect := range Dialects {
		dir := DirFor(root, dialect)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return paths, fmt.Errorf("create %s: %w", dir, err)
		}
		path := filepath.Join(dir, file)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			return paths, fmt.Errorf("create %s: %w", path, err)
		}
		_, werr := fmt.Fprintf(f, migrationTemplate, slug, dialect)
		if cerr := f.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			return paths, fmt.Errorf("write %s: %w", path, werr)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// ValidateDir checks one dialect directory: goose must accept every file and
// each file needs both an Up and a Down section. It returns the versions found.
func ValidateDir(dir string) ([]int64, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("migrations dir: %w", err)
	}
	migrations, err := goose.CollectMigrations(dir, 0, math.MaxInt64)
	if err != nil && !strings.Contains(err.Error(), "no migration files found") {
		return nil, fmt.Errorf("collect %s: %w", dir, err)
	}

	versions := make([]int64, 0, len(migrations))
	for _, m := range migrations {
		body, err := os.ReadFile(m.Source)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", m.Source, err)
		}
		for _, marker := range []string{"-- +goose Up", "-- +goose Down"} {
			if !strings.Contains(string(body), marker) {
				return nil, fmt.Errorf("%s: missing %q", filepath.Base(m.Source), marker)
			}
		}
		versions = append(versions, m.Version)
	}
	return versions, nil
}

// ValidateRoot validates every dialect directory and requires them to share
// the same version sequence.
func ValidateRoot(root string) error {
	if root == "" {
		root = DefaultDir
	}
	var reference []int64
	for i, dialect := range Dialects {
		versions, err := ValidateDir(DirFor(root, dialect))
		if err != nil {
			return fmt.Errorf("%s: %w", dialect, err)
		}
		if i == 0 {
			reference = versions
			continue
		}
		if !slices.Equal(reference, versions) {
			return fmt.Errorf("%s migrations diverge from %s: %v vs %v", dialect, Dialects[0], versions, reference)
		}
	}
	return nil
}
