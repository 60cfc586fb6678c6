package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/siphon/internal/model"
)

// SeedCatalogVersion identifies the contents of the default catalog below.
// Bump it when rows are added so a new migration can load them.
const SeedCatalogVersion = 1

// SeedCategory is a default category row.
type SeedCategory struct {
	ID    string
	Name  string
	Color string
}

// SeedService is a default service row. DefaultCategoryID refers to a
// SeedCategory.
type SeedService struct {
	ID                string
	Name              string
	IconURL           string
	URL               string
	DefaultCategoryID string
}

// SeedResult counts the rows a seed run actually inserted.
type SeedResult struct {
	CategoriesInserted int
	ServicesInserted   int
}

var defaultCategories = []SeedCategory{
	{ID: "cat-entertainment", Name: "Entertainment", Color: "#E74C3C"},
	{ID: "cat-productivity", Name: "Productivity", Color: "#3498DB"},
	{ID: "cat-cloud", Name: "Cloud Services", Color: "#9B59B6"},
	{ID: "cat-music", Name: "Music", Color: "#E67E22"},
	{ID: "cat-gaming", Name: "Gaming", Color: "#2ECC71"},
	{ID: "cat-news", Name: "News & Media", Color: "#1ABC9C"},
	{ID: "cat-health", Name: "Health & Fitness", Color: "#F39C12"},
	{ID: "cat-education", Name: "Education", Color: "#34495E"},
	{ID: "cat-other", Name: "Other", Color: "#95A5A6"},
}

var defaultServices = []SeedService{
	{ID: "svc-netflix", Name: "Netflix", IconURL: "https://logo.clearbit.com/netflix.com", URL: "https://netflix.com", DefaultCategoryID: "cat-entertainment"},
	{ID: "svc-spotify", Name: "Spotify", IconURL: "https://logo.clearbit.com/spotify.com", URL: "https://spotify.com", DefaultCategoryID: "cat-music"},
	{ID: "svc-disney", Name: "Disney+", IconURL: "https://logo.clearbit.com/disneyplus.com", URL: "https://disneyplus.com", DefaultCategoryID: "cat-entertainment"},
	{ID: "svc-youtube", Name: "YouTube Premium", IconURL: "https://logo.clearbit.com/youtube.com", URL: "https://youtube.com", DefaultCategoryID: "cat-entertainment"},
	{ID: "svc-apple-music", Name: "Apple Music", IconURL: "https://logo.clearbit.com/apple.com", URL: "https://music.apple.com", DefaultCategoryID: "cat-music"},
	{ID: "svc-github", Name: "GitHub Pro", IconURL: "https://logo.clearbit.com/github.com", URL: "https://github.com", DefaultCategoryID: "cat-cloud"},
	{ID: "svc-icloud", Name: "iCloud+", IconURL: "https://logo.clearbit.com/icloud.com", URL: "https://icloud.com", DefaultCategoryID: "cat-cloud"},
	{ID: "svc-dropbox", Name: "Dropbox", IconURL: "https://logo.clearbit.com/dropbox.com", URL: "https://dropbox.com", DefaultCategoryID: "cat-cloud"},
	{ID: "svc-adobe", Name: "Adobe CC", IconURL: "https://logo.clearbit.com/adobe.com", URL: "https://adobe.com", DefaultCategoryID: "cat-productivity"},
	{ID: "svc-chatgpt", Name: "ChatGPT Plus", IconURL: "https://logo.clearbit.com/openai.com", URL: "https://chat.openai.com", DefaultCategoryID: "cat-productivity"},
	{ID: "svc-xbox", Name: "Xbox Game Pass", IconURL: "https://logo.clearbit.com/xbox.com", URL: "https://xbox.com", DefaultCategoryID: "cat-gaming"},
	{ID: "svc-playstation", Name: "PlayStation Plus", IconURL: "https://logo.clearbit.com/playstation.com", URL: "https://playstation.com", DefaultCategoryID: "cat-gaming"},
	{ID: "svc-notion", Name: "Notion", IconURL: "https://logo.clearbit.com/notion.so", URL: "https://notion.so", DefaultCategoryID: "cat-productivity"},
	{ID: "svc-1password", Name: "1Password", IconURL: "https://logo.clearbit.com/1password.com", URL: "https://1password.com", DefaultCategoryID: "cat-productivity"},
	{ID: "svc-todoist", Name: "Todoist", IconURL: "https://logo.clearbit.com/todoist.com", URL: "https://todoist.com", DefaultCategoryID: "cat-productivity"},
}

// DefaultCategories returns a copy of the seeded categories.
func DefaultCategories() []SeedCategory {
	out := make([]SeedCategory, len(defaultCategories))
	copy(out, defaultCategories)
	return out
}

// DefaultServices returns a copy of the seeded services.
func DefaultServices() []SeedService {
	out := make([]SeedService, len(defaultServices))
	copy(out, defaultServices)
	return out
}

// Seed inserts any missing default categories and services. Rows whose id
// already exists are left untouched, so running it again is a no-op. A
// default the user deleted is inserted again by an explicit Seed call; the
// automatic run only happens once, as migration 2.
func (s *SQLiteStorage) Seed(ctx context.Context) (SeedResult, error) {
	if err := validateContext(ctx); err != nil {
		return SeedResult{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return SeedResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}

	result, err := seedTx(tx)
	if err != nil {
		_ = tx.Rollback()
		return SeedResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return SeedResult{}, fmt.Errorf("failed to commit seed data: %w", err)
	}

	slog.Debug("seed run complete",
		"categories_inserted", result.CategoriesInserted,
		"services_inserted", result.ServicesInserted)
	return result, nil
}

// seedTx inserts categories before services, which reference them. OR IGNORE
// skips rows colliding on id or name; it does not cover foreign keys, so a
// service whose default category is missing (skipped for a name clash, or
// deleted) is inserted without one.
func seedTx(tx *sql.Tx) (SeedResult, error) {
	var result SeedResult

	if err := validateCatalog(defaultCategories, defaultServices); err != nil {
		return result, err
	}

	now := model.Timestamp(time.Now())

	for _, cat := range defaultCategories {
		res, err := tx.Exec(
			`INSERT OR IGNORE INTO categories (id, name, color, is_default, created_at, updated_at)
			 VALUES (?, ?, ?, 1, ?, ?)`,
			cat.ID, cat.Name, cat.Color, now, now,
		)
		if err != nil {
			return result, wrapDBError(err, fmt.Sprintf("failed to seed category %s", cat.ID))
		}
		n, err := res.RowsAffected()
		if err != nil {
			return result, fmt.Errorf("failed to read rows affected: %w", err)
		}
		result.CategoriesInserted += int(n)
	}

	for _, svc := range defaultServices {
		res, err := tx.Exec(
			`INSERT OR IGNORE INTO services (id, name, icon_url, url, default_category_id, is_default, created_at, updated_at)
			 VALUES (?, ?, ?, ?, (SELECT id FROM categories WHERE id = ?), 1, ?, ?)`,
			svc.ID, svc.Name, svc.IconURL, svc.URL, svc.DefaultCategoryID, now, now,
		)
		if err != nil {
			return result, wrapDBError(err, fmt.Sprintf("failed to seed service %s", svc.ID))
		}
		n, err := res.RowsAffected()
		if err != nil {
			return result, fmt.Errorf("failed to read rows affected: %w", err)
		}
		result.ServicesInserted += int(n)
	}

	return result, nil
}

// validateCatalog checks the static catalog for duplicate ids or names and
// dangling category references.
func validateCatalog(categories []SeedCategory, services []SeedService) error {
	categoryIDs := make(map[string]bool, len(categories))
	names := make(map[string]bool, len(categories))
	for _, cat := range categories {
		if categoryIDs[cat.ID] || names[cat.Name] {
			return fmt.Errorf("seed catalog: duplicate category %s (%s)", cat.ID, cat.Name)
		}
		categoryIDs[cat.ID] = true
		names[cat.Name] = true
	}

	serviceIDs := make(map[string]bool, len(services))
	names = make(map[string]bool, len(services))
	for _, svc := range services {
		if serviceIDs[svc.ID] || names[svc.Name] {
			return fmt.Errorf("seed catalog: duplicate service %s (%s)", svc.ID, svc.Name)
		}
		if svc.DefaultCategoryID != "" && !categoryIDs[svc.DefaultCategoryID] {
			return fmt.Errorf("seed catalog: service %s references unknown category %s", svc.ID, svc.DefaultCategoryID)
		}
		serviceIDs[svc.ID] = true
		names[svc.Name] = true
	}

	return nil
}
