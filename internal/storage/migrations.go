package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration. Up must tolerate being
// re-applied to a store that already has its objects: the recorded version,
// not the SQL text, decides what has run.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "create_tables",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS categories (
					id         TEXT    PRIMARY KEY NOT NULL,
					name       TEXT    NOT NULL UNIQUE,
					color      TEXT,
					is_default INTEGER NOT NULL DEFAULT 0,
					created_at TEXT    NOT NULL DEFAULT (datetime('now')),
					updated_at TEXT    NOT NULL DEFAULT (datetime('now'))
				)`,

				`CREATE TABLE IF NOT EXISTS services (
					id                  TEXT    PRIMARY KEY NOT NULL,
					name                TEXT    NOT NULL UNIQUE,
					icon_url            TEXT,
					url                 TEXT,
					default_category_id TEXT,
					is_default          INTEGER NOT NULL DEFAULT 0,
					created_at          TEXT    NOT NULL DEFAULT (datetime('now')),
					updated_at          TEXT    NOT NULL DEFAULT (datetime('now')),
					FOREIGN KEY (default_category_id) REFERENCES categories(id) ON DELETE SET NULL
				)`,

				`CREATE TABLE IF NOT EXISTS subscriptions (
					id                TEXT    PRIMARY KEY NOT NULL,
					service_id        TEXT,
					category_id       TEXT,
					custom_name       TEXT    NOT NULL,
					amount_cents      INTEGER NOT NULL,
					currency          TEXT    NOT NULL DEFAULT 'EUR',
					billing_cycle     TEXT    NOT NULL DEFAULT 'monthly'
					                  CHECK (billing_cycle IN ('weekly','monthly','quarterly','semi_annually','yearly')),
					start_date        TEXT    NOT NULL,
					next_billing_date TEXT,
					payment_method    TEXT,
					reminder_days     INTEGER DEFAULT 0,
					note              TEXT,
					is_active         INTEGER NOT NULL DEFAULT 1,
					cancelled_at      TEXT,
					created_at        TEXT    NOT NULL DEFAULT (datetime('now')),
					updated_at        TEXT    NOT NULL DEFAULT (datetime('now')),
					FOREIGN KEY (service_id)  REFERENCES services(id)   ON DELETE SET NULL,
					FOREIGN KEY (category_id) REFERENCES categories(id) ON DELETE SET NULL
				)`,

				`CREATE INDEX IF NOT EXISTS idx_sub_service ON subscriptions(service_id)`,
				`CREATE INDEX IF NOT EXISTS idx_sub_category ON subscriptions(category_id)`,
				`CREATE INDEX IF NOT EXISTS idx_sub_active ON subscriptions(is_active)`,
				`CREATE INDEX IF NOT EXISTS idx_sub_next_bill ON subscriptions(next_billing_date)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "seed_default_data",
		Up: func(tx *sql.Tx) error {
			result, err := seedTx(tx)
			if err != nil {
				return err
			}
			slog.Info("Seeded default data",
				"catalog_version", SeedCatalogVersion,
				"categories", result.CategoriesInserted,
				"services", result.ServicesInserted)
			return nil
		},
	},
	{
		Version:     3,
		Description: "reject_negative_amounts",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TRIGGER IF NOT EXISTS trg_sub_amount_insert
				BEFORE INSERT ON subscriptions
				FOR EACH ROW WHEN NEW.amount_cents < 0
				BEGIN
					SELECT RAISE(ABORT, 'amount_cents must not be negative');
				END`,
				`CREATE TRIGGER IF NOT EXISTS trg_sub_amount_update
				BEFORE UPDATE OF amount_cents ON subscriptions
				FOR EACH ROW WHEN NEW.amount_cents < 0
				BEGIN
					SELECT RAISE(ABORT, 'amount_cents must not be negative');
				END`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
}

// Migrations returns a copy of the registered migrations in version order.
func Migrations() []Migration {
	out := make([]Migration, len(migrations))
	copy(out, migrations)
	return out
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	if err := applyMigrations(ctx, s.db, migrations); err != nil {
		return err
	}

	// Verify we're at the expected schema version
	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

// SchemaVersion returns the last applied migration version, 0 for a new store.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return schemaVersion(ctx, s.db)
}

func schemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// applyMigrations runs every step newer than the recorded version. Each step
// and its version bump commit in one transaction; the first failure stops
// the run with the store at the last committed version.
func applyMigrations(ctx context.Context, db *sql.DB, steps []Migration) error {
	if err := checkMigrationOrder(steps); err != nil {
		return err
	}

	currentVersion, err := schemaVersion(ctx, db)
	if err != nil {
		return err
	}

	for _, migration := range steps {
		if migration.Version <= currentVersion {
			continue
		}

		if err := applyMigration(ctx, db, migration); err != nil {
			return err
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
		currentVersion = migration.Version
	}

	return nil
}

func applyMigration(ctx context.Context, db *sql.DB, migration Migration) error {
	fail := func(err error) error {
		return &MigrationError{
			Version:     migration.Version,
			Description: migration.Description,
			Err:         err,
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fail(fmt.Errorf("failed to begin transaction: %w", err))
	}

	if err := migration.Up(tx); err != nil {
		_ = tx.Rollback()
		return fail(err)
	}

	// user_version lives in the database header, so it commits with the step.
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); err != nil {
		_ = tx.Rollback()
		return fail(fmt.Errorf("failed to update schema version: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return fail(fmt.Errorf("failed to commit: %w", err))
	}

	return nil
}

// checkMigrationOrder requires versions >= 1 in strictly ascending order.
// Gaps are allowed.
func checkMigrationOrder(steps []Migration) error {
	previous := 0
	for _, migration := range steps {
		if migration.Version <= previous {
			return fmt.Errorf("migration %d (%s) is out of order: versions must be >= 1 and strictly ascending",
				migration.Version, migration.Description)
		}
		if migration.Up == nil {
			return fmt.Errorf("migration %d (%s) has no Up step", migration.Version, migration.Description)
		}
		previous = migration.Version
	}
	return nil
}
