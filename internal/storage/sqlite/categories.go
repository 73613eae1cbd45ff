package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/ledger/internal/models"
	"github.com/mmynk/ledger/internal/storage"
)

// CreateCategory persists a new category. A name already used by the same
// owner yields storage.ErrDuplicate.
func (q queries) CreateCategory(ctx context.Context, category *models.Category) error {
	if category.ID == "" {
		category.ID = uuid.New().String()
	}
	if category.CreatedAt == 0 {
		category.CreatedAt = time.Now().Unix()
	}

	_, err := q.q.ExecContext(ctx,
		"INSERT INTO categories (id, owner_id, name, created_at) VALUES (?, ?, ?, ?)",
		category.ID, category.OwnerID, category.Name, category.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("category %q: %w", category.Name, storage.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	return nil
}

// GetCategory retrieves a category owned by ownerID.
func (q queries) GetCategory(ctx context.Context, ownerID, categoryID string) (*models.Category, error) {
	c := &models.Category{}
	err := q.q.QueryRowContext(ctx,
		"SELECT id, owner_id, name, created_at FROM categories WHERE id = ? AND owner_id = ?",
		categoryID, ownerID,
	).Scan(&c.ID, &c.OwnerID, &c.Name, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %s: %w", categoryID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return c, nil
}

// ListCategories retrieves all categories of ownerID ordered by name.
func (q queries) ListCategories(ctx context.Context, ownerID string) ([]*models.Category, error) {
	rows, err := q.q.QueryContext(ctx,
		"SELECT id, owner_id, name, created_at FROM categories WHERE owner_id = ? ORDER BY name",
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		c := &models.Category{}
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}
	return categories, nil
}

// CountCategoryUses counts the transactions referencing a category.
func (q queries) CountCategoryUses(ctx context.Context, ownerID, categoryID string) (int, error) {
	var n int
	err := q.q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transactions WHERE owner_id = ? AND category_id = ?",
		ownerID, categoryID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count category uses: %w", err)
	}
	return n, nil
}

// UpdateCategory renames a category.
func (q queries) UpdateCategory(ctx context.Context, category *models.Category) error {
	res, err := q.q.ExecContext(ctx,
		"UPDATE categories SET name = ? WHERE id = ? AND owner_id = ?",
		category.Name, category.ID, category.OwnerID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("category %q: %w", category.Name, storage.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	return checkAffected(res, "category", category.ID)
}

// DeleteCategory removes a category. Referencing transactions keep existing
// with their category cleared (ON DELETE SET NULL).
func (q queries) DeleteCategory(ctx context.Context, ownerID, categoryID string) error {
	res, err := q.q.ExecContext(ctx,
		"DELETE FROM categories WHERE id = ? AND owner_id = ?",
		categoryID, ownerID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return checkAffected(res, "category", categoryID)
}
