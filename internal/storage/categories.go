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

const categoryColumns = `id, name, color, is_default, created_at, updated_at`

func scanCategory(row rowScanner) (model.Category, error) {
	var (
		cat   model.Category
		color sql.NullString
	)
	if err := row.Scan(&cat.ID, &cat.Name, &color, &cat.IsDefault, &cat.CreatedAt, &cat.UpdatedAt); err != nil {
		return model.Category{}, err
	}
	cat.Color = nullStringPtr(color)
	return cat, nil
}

// ListCategories returns all categories ordered by name.
func (s *SQLiteStorage) ListCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	slog.Debug("retrieved categories", "count", len(categories))
	return categories, nil
}

// GetCategory returns the category with the given id.
func (s *SQLiteStorage) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	cat, err := scanCategory(s.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}

	return &cat, nil
}

// CreateCategory inserts a user category and returns its new id.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, payload *model.CreateCategoryPayload) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	if err := validateCategoryPayload(payload); err != nil {
		return "", err
	}

	id := uuid.NewString()
	now := model.Timestamp(time.Now())

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, color, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, strings.TrimSpace(payload.Name), stringArg(payload.Color), now, now,
	)
	if err != nil {
		return "", wrapDBError(err, "failed to create category")
	}

	slog.Info("created category", "name", payload.Name, "id", id)
	return id, nil
}

// UpdateCategory renames or recolors a category and refreshes updated_at.
func (s *SQLiteStorage) UpdateCategory(ctx context.Context, id string, payload *model.CreateCategoryPayload) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if err := validateCategoryPayload(payload); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, color = ?, updated_at = ? WHERE id = ?`,
		strings.TrimSpace(payload.Name), stringArg(payload.Color), model.Timestamp(time.Now()), id,
	)
	if err != nil {
		return wrapDBError(err, "failed to update category")
	}

	return checkAffected(res, "category", id)
}

// DeleteCategory removes a category. Services and subscriptions that
// referenced it keep existing with the reference cleared.
func (s *SQLiteStorage) DeleteCategory(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return wrapDBError(err, "failed to delete category")
	}
	if err := checkAffected(res, "category", id); err != nil {
		return err
	}

	slog.Info("deleted category", "id", id)
	return nil
}
