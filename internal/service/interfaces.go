// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/siphon/internal/model"
	"github.com/Veraticus/siphon/internal/storage"
)

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Category operations
	ListCategories(ctx context.Context) ([]model.Category, error)
	GetCategory(ctx context.Context, id string) (*model.Category, error)
	CreateCategory(ctx context.Context, payload *model.CreateCategoryPayload) (string, error)
	UpdateCategory(ctx context.Context, id string, payload *model.CreateCategoryPayload) error
	DeleteCategory(ctx context.Context, id string) error

	// Service operations
	ListServices(ctx context.Context) ([]model.Service, error)
	GetService(ctx context.Context, id string) (*model.Service, error)
	CreateService(ctx context.Context, payload *model.CreateServicePayload) (string, error)
	DeleteService(ctx context.Context, id string) error

	// Subscription operations
	ListSubscriptions(ctx context.Context, filter storage.SubscriptionFilter) ([]model.SubscriptionView, error)
	GetSubscription(ctx context.Context, id string) (*model.SubscriptionView, error)
	GetSubscriptionRecord(ctx context.Context, id string) (*model.Subscription, error)
	CreateSubscription(ctx context.Context, payload *model.CreateSubscriptionPayload) (string, error)
	UpdateSubscription(ctx context.Context, id string, payload *model.UpdateSubscriptionPayload) error
	CancelSubscription(ctx context.Context, id string, at time.Time) error
	DeleteSubscription(ctx context.Context, id string) error

	// Database management
	Migrate(ctx context.Context) error
	MigrateWithBackup(ctx context.Context, backupDir string) (*storage.BackupInfo, error)
	SchemaVersion(ctx context.Context) (int, error)
	Seed(ctx context.Context) (storage.SeedResult, error)
	Backup(ctx context.Context, destPath string) (*storage.BackupInfo, error)
	Close() error
}

var _ Storage = (*storage.SQLiteStorage)(nil)
