package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/Veraticus/siphon/internal/common"
	"github.com/Veraticus/siphon/internal/config"
	"github.com/Veraticus/siphon/internal/model"
	"github.com/Veraticus/siphon/internal/service"
	"github.com/Veraticus/siphon/internal/storage"
)

// databasePath resolves the configured database path with tilde and
// environment expansion into an absolute path.
func databasePath() string {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath
	}
	abs, err := config.AbsPath(dbPath)
	if err != nil {
		return config.ExpandPath(dbPath)
	}
	return abs
}

// initStorage opens the store and brings its schema up to date.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := databasePath()

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Run migrations, snapshotting stores that already hold data
	if _, err := store.MigrateWithBackup(ctx, config.BackupDir(dbPath)); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// userFacing turns storage errors a user can act on into UserErrors.
// Anything else is returned unchanged.
func userFacing(err error, subject string) error {
	switch {
	case err == nil:
		return nil
	case common.IsUserError(err):
		return err
	case errors.Is(err, storage.ErrNotFound):
		return common.NewUserError(subject+" not found", err)
	case errors.Is(err, storage.ErrBackupExists):
		return common.NewUserError(subject+" destination already exists", err)
	case storage.IsConstraintKind(err, storage.ConstraintUnique),
		storage.IsConstraintKind(err, storage.ConstraintPrimaryKey):
		return common.NewUserError(subject+" already exists", err)
	case storage.IsConstraintKind(err, storage.ConstraintForeignKey):
		return common.NewUserError(subject+" refers to a service or category that does not exist", err)
	case errors.Is(err, storage.ErrConstraintViolation):
		return common.NewUserError(subject+" was rejected by the database", err)
	case errors.Is(err, storage.ErrInvalidCategory),
		errors.Is(err, storage.ErrInvalidService),
		errors.Is(err, storage.ErrInvalidSubscription),
		errors.Is(err, storage.ErrEmptyString),
		errors.Is(err, storage.ErrEmptyUpdate),
		errors.Is(err, model.ErrInvalidBillingCycle),
		errors.Is(err, model.ErrInvalidAmount):
		return common.NewUserError("invalid "+subject, err)
	default:
		return err
	}
}

// optionalString returns nil for an empty flag value.
func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
