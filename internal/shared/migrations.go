package shared

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"slices"
	"strconv"
)

//go:embed sql/*.sql
var migrationFiles embed.FS

// migrationName matches "0001_create_sessions_up.sql".
var migrationName = regexp.MustCompile(`^(\d+)_\w+_(up|down)\.sql$`)

// Migration is one schema step. Versions start at 1 and are contiguous.
type Migration struct {
	Version int
	Up      string
	Down    string
}

// loadMigrations reads the embedded scripts, sorted by version.
func loadMigrations() ([]Migration, error) {
	names, err := fs.Glob(migrationFiles, "sql/*.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}

	byVersion := map[int]*Migration{}
	for _, name := range names {
		m := migrationName.FindStringSubmatch(name[len("sql/"):])
		if m == nil {
			return nil, fmt.Errorf("unexpected migration file %s", name)
		}
		version, _ := strconv.Atoi(m[1])
		body, err := migrationFiles.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}

		mig := byVersion[version]
		if mig == nil {
			mig = &Migration{Version: version}
			byVersion[version] = mig
		}
		if m[2] == "up" {
			mig.Up = string(body)
		} else {
			mig.Down = string(body)
		}
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, mig := range byVersion {
		if mig.Up == "" || mig.Down == "" {
			return nil, fmt.Errorf("incomplete migration for version %d", mig.Version)
		}
		migrations = append(migrations, *mig)
	}
	slices.SortFunc(migrations, func(a, b Migration) int { return a.Version - b.Version })

	for i, mig := range migrations {
		if mig.Version != i+1 {
			return nil, fmt.Errorf("migration versions must start at 1 without gaps, found %d", mig.Version)
		}
	}
	return migrations, nil
}

// CurrentVersion returns the schema version stored in the database header, 0 for a fresh file.
func CurrentVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// RunMigrations applies every migration newer than the stored schema version.
func RunMigrations(db *sql.DB) error {
	migrations, err := loadMigrations()
	if err != nil {
		return err
	}
	current, err := CurrentVersion(db)
	if err != nil {
		return err
	}
	if current > len(migrations) {
		return fmt.Errorf("%w: schema version %d is newer than this build (%d)", ErrInvalidConfig, current, len(migrations))
	}

	for _, mig := range migrations[current:] {
		if err := step(db, mig.Up, mig.Version); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", mig.Version, err)
		}
	}
	return nil
}

// RollbackMigration reverts the newest applied migration.
func RollbackMigration(db *sql.DB) error {
	migrations, err := loadMigrations()
	if err != nil {
		return err
	}
	current, err := CurrentVersion(db)
	if err != nil {
		return err
	}
	if current == 0 || current > len(migrations) {
		return fmt.Errorf("no migration to roll back at schema version %d", current)
	}

	if err := step(db, migrations[current-1].Down, current-1); err != nil {
		return fmt.Errorf("failed to roll back migration %d: %w", current, err)
	}
	return nil
}

// step runs script and records version in one transaction.
func step(db *sql.DB, script string, version int) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		return err
	}
	return tx.Commit()
}
