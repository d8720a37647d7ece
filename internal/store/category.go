// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bloghub/internal/models"
)

// CategoryStore manages categories in the database.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryColumns = `id, title, slug, created_at, updated_at`

// scanCategory scans a row into a Category struct.
func scanCategory(row scanner) (*models.Category, error) {
	var c models.Category
	if err := row.Scan(&c.ID, &c.Title, &c.Slug, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListWithCounts returns all categories newest first, each with the number
// of published posts and of all posts filed under it.
func (s *CategoryStore) ListWithCounts(ctx context.Context) ([]models.CategoryWithCounts, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.title, c.slug, c.created_at, c.updated_at,
		       COUNT(p.id) FILTER (WHERE p.status = 'published') AS published_posts_count,
		       COUNT(p.id) AS all_posts_count
		FROM categories c
		LEFT JOIN posts p ON p.category_id = c.id
		GROUP BY c.id
		ORDER BY c.created_at DESC, c.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var items []models.CategoryWithCounts
	for rows.Next() {
		var c models.CategoryWithCounts
		err := rows.Scan(
			&c.ID, &c.Title, &c.Slug, &c.CreatedAt, &c.UpdatedAt,
			&c.PublishedPosts, &c.AllPosts,
		)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// FindBySlug retrieves a category by slug. Returns nil if not found.
func (s *CategoryStore) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	c, err := scanCategory(s.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE slug = $1`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by slug: %w", err)
	}
	return c, nil
}

// FindByID retrieves a category by id. Returns nil if not found.
func (s *CategoryStore) FindByID(ctx context.Context, id int64) (*models.Category, error) {
	c, err := scanCategory(s.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return c, nil
}

// Create inserts c and fills in its id and timestamps. Returns ErrDuplicate
// if the slug is taken.
func (s *CategoryStore) Create(ctx context.Context, c *models.Category) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO categories (title, slug) VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`, c.Title, c.Slug).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create category: %w", mapWriteError(err))
	}
	return nil
}

// Update saves the title and slug of c and refreshes UpdatedAt.
func (s *CategoryStore) Update(ctx context.Context, c *models.Category) error {
	err := s.db.QueryRowContext(ctx, `
		UPDATE categories SET title = $1, slug = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING updated_at
	`, c.Title, c.Slug, c.ID).Scan(&c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update category: %w", mapWriteError(err))
	}
	return nil
}

// Delete removes a category. Posts filed under it keep existing with no
// category.
func (s *CategoryStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
