package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/siphon/internal/model"
)

const serviceColumns = `id, name, icon_url, url, default_category_id, is_default, created_at, updated_at`

func scanService(row rowScanner) (model.Service, error) {
	var (
		svc                        model.Service
		iconURL, url, defaultCatID sql.NullString
	)
	if err := row.Scan(&svc.ID, &svc.Name, &iconURL, &url, &defaultCatID, &svc.IsDefault, &svc.CreatedAt, &svc.UpdatedAt); err != nil {
		return model.Service{}, err
	}
	svc.IconURL = nullStringPtr(iconURL)
	svc.URL = nullStringPtr(url)
	svc.DefaultCategoryID = nullStringPtr(defaultCatID)
	return svc, nil
}

// ListServices returns all services ordered by name.
func (s *SQLiteStorage) ListServices(ctx context.Context) ([]model.Service, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+serviceColumns+` FROM services ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query services: %w", err)
	}
	defer rows.Close()

	var services []model.Service
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, svc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating services: %w", err)
	}

	return services, nil
}

// GetService returns the service with the given id.
func (s *SQLiteStorage) GetService(ctx context.Context, id string) (*model.Service, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	svc, err := scanService(s.db.QueryRowContext(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("service %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query service: %w", err)
	}

	return &svc, nil
}

// CreateService inserts a user service and returns its new id. A
// DefaultCategoryID must name an existing category.
func (s *SQLiteStorage) CreateService(ctx context.Context, payload *model.CreateServicePayload) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	if err := validateServicePayload(payload); err != nil {
		return "", err
	}

	id := uuid.NewString()
	now := model.Timestamp(time.Now())

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO services (id, name, icon_url, url, default_category_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id,
		strings.TrimSpace(payload.Name),
		stringArg(payload.IconURL),
		stringArg(payload.URL),
		stringArg(payload.DefaultCategoryID),
		now,
		now,
	)
	if err != nil {
		return "", wrapDBError(err, "failed to create service")
	}

	slog.Info("created service", "name", payload.Name, "id", id)
	return id, nil
}

// DeleteService removes a service. Subscriptions linked to it keep existing
// with service_id cleared.
func (s *SQLiteStorage) DeleteService(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM services WHERE id = ?`, id)
	if err != nil {
		return wrapDBError(err, "failed to delete service")
	}
	if err := checkAffected(res, "service", id); err != nil {
		return err
	}

	slog.Info("deleted service", "id", id)
	return nil
}
