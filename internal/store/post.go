// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"bloghub/internal/models"
)

// PostStore handles all post-related database operations.
type PostStore struct {
	db *sql.DB
}

// NewPostStore creates a new PostStore with the given database connection.
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

// postColumns selects a post joined with its category and author.
var postColumns = []string{
	"p.id", "p.title", "p.slug", "p.author_id", "p.category_id", "p.overview",
	"p.content", "p.thumbnail", "p.status", "p.views_count", "p.read_time",
	"p.published", "p.created_at", "p.updated_at",
	"c.title", "c.slug",
	"u.username", "u.first_name", "u.last_name",
}

func selectPosts() sq.SelectBuilder {
	return psql.Select(postColumns...).
		From("posts p").
		LeftJoin("categories c ON c.id = p.category_id").
		Join("users u ON u.id = p.author_id")
}

// scanPost scans a row produced by selectPosts.
func scanPost(row scanner) (*models.Post, error) {
	var (
		p        models.Post
		catID    sql.NullInt64
		catTitle sql.NullString
		catSlug  sql.NullString
		author   models.User
	)
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.AuthorID, &catID, &p.Overview,
		&p.Content, &p.Thumbnail, &p.Status, &p.ViewsCount, &p.ReadTime,
		&p.Published, &p.CreatedAt, &p.UpdatedAt,
		&catTitle, &catSlug,
		&author.Username, &author.FirstName, &author.LastName,
	)
	if err != nil {
		return nil, err
	}
	if catID.Valid {
		id := catID.Int64
		p.CategoryID = &id
		p.Category = &models.Category{ID: id, Title: catTitle.String, Slug: catSlug.String}
	}
	author.ID = p.AuthorID
	p.Author = &author
	return &p, nil
}

// List returns posts matching f, most recently published first.
func (s *PostStore) List(ctx context.Context, f models.PostFilter) ([]models.Post, error) {
	q := selectPosts().OrderBy("p.published DESC", "p.id DESC")
	if f.CategorySlug != "" {
		q = q.Where(sq.Eq{"c.slug": f.CategorySlug})
	}
	if f.Status != "" {
		q = q.Where(sq.Eq{"p.status": string(f.Status)})
	}
	if f.AuthorID != 0 {
		q = q.Where(sq.Eq{"p.author_id": f.AuthorID})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list posts: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var items []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

// FindBySlug retrieves a post with its category and author. Returns nil if
// not found.
func (s *PostStore) FindBySlug(ctx context.Context, slug string) (*models.Post, error) {
	query, args, err := selectPosts().Where(sq.Eq{"p.slug": slug}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find post: %w", err)
	}

	p, err := scanPost(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by slug: %w", err)
	}
	return p, nil
}

// Create inserts p and fills in its id, counters and timestamps. A zero
// Published time defaults to now. Returns ErrDuplicate if the slug is taken.
func (s *PostStore) Create(ctx context.Context, p *models.Post) error {
	var published any = p.Published
	if p.Published.IsZero() {
		published = sq.Expr("NOW()")
	}

	query, args, err := psql.Insert("posts").
		Columns("title", "slug", "author_id", "category_id", "overview",
			"content", "thumbnail", "status", "read_time", "published").
		Values(p.Title, p.Slug, p.AuthorID, p.CategoryID, p.Overview,
			p.Content, p.Thumbnail, string(p.Status), p.ReadTime, published).
		Suffix("RETURNING id, views_count, published, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create post: %w", err)
	}

	err = s.db.QueryRowContext(ctx, query, args...).
		Scan(&p.ID, &p.ViewsCount, &p.Published, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create post: %w", mapWriteError(err))
	}
	return nil
}

// Update saves every editable column of p. The view counter is never
// written here; see IncrementViews.
func (s *PostStore) Update(ctx context.Context, p *models.Post) error {
	query, args, err := psql.Update("posts").
		SetMap(map[string]any{
			"title":       p.Title,
			"slug":        p.Slug,
			"category_id": p.CategoryID,
			"overview":    p.Overview,
			"content":     p.Content,
			"thumbnail":   p.Thumbnail,
			"status":      string(p.Status),
			"read_time":   p.ReadTime,
		}).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": p.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update post: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&p.UpdatedAt); err != nil {
		return fmt.Errorf("update post: %w", mapWriteError(err))
	}
	return nil
}

// IncrementViews atomically adds one to a post's view counter and returns
// the new value.
func (s *PostStore) IncrementViews(ctx context.Context, id int64) (int64, error) {
	var views int64
	err := s.db.QueryRowContext(ctx, `
		UPDATE posts SET views_count = views_count + 1 WHERE id = $1
		RETURNING views_count
	`, id).Scan(&views)
	if err != nil {
		return 0, fmt.Errorf("increment post views: %w", err)
	}
	return views, nil
}

// Delete removes a post by id.
func (s *PostStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}
