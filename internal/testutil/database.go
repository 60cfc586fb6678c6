// Package testutil provides test utilities for the siphon project.
// It offers isolated, migrated databases and small fixture helpers.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Veraticus/siphon/internal/model"
	"github.com/Veraticus/siphon/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
	Path    string
}

// Options configures SetupTestDBWithOptions.
type Options struct {
	CustomSetup    func(context.Context, *storage.SQLiteStorage) error
	SkipMigrations bool
}

// SetupTestDB creates a migrated, seeded database in a per-test temp
// directory. It is closed automatically when the test ends.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, Options{})
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts Options) *TestDB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "siphon.db")
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	// Register cleanup
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()

	// Run migrations unless skipped
	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	// Run custom setup
	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return &TestDB{
		Storage: store,
		Path:    dbPath,
		t:       t,
	}
}

// MustCreateSubscription inserts a subscription built from the given payload
// and returns its id, failing the test on error.
func (db *TestDB) MustCreateSubscription(payload *model.CreateSubscriptionPayload) string {
	db.t.Helper()

	id, err := db.Storage.CreateSubscription(context.Background(), payload)
	if err != nil {
		db.t.Fatalf("failed to create subscription %q: %v", payload.CustomName, err)
	}
	return id
}

// MustCreateCategory inserts a user category and returns its id.
func (db *TestDB) MustCreateCategory(name string) string {
	db.t.Helper()

	id, err := db.Storage.CreateCategory(context.Background(), &model.CreateCategoryPayload{Name: name})
	if err != nil {
		db.t.Fatalf("failed to create category %q: %v", name, err)
	}
	return id
}

// NetflixSubscription returns a payload for a monthly subscription attached
// to a seeded service and category.
func NetflixSubscription() *model.CreateSubscriptionPayload {
	serviceID := "svc-netflix"
	categoryID := "cat-entertainment"
	next := "2026-11-01"
	return &model.CreateSubscriptionPayload{
		ServiceID:       &serviceID,
		CategoryID:      &categoryID,
		CustomName:      "Netflix Premium",
		AmountCents:     1799,
		Currency:        "EUR",
		BillingCycle:    model.BillingMonthly,
		StartDate:       "2024-01-01",
		NextBillingDate: &next,
	}
}

// CustomSubscription returns a payload for a subscription with no service,
// category or explicit currency and cycle.
func CustomSubscription(name string, amountCents int64) *model.CreateSubscriptionPayload {
	return &model.CreateSubscriptionPayload{
		CustomName:  name,
		AmountCents: amountCents,
		StartDate:   "2025-03-15",
	}
}
