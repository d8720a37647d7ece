package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloghub/internal/models"
)

func TestCategoryStore_ListWithCounts(t *testing.T) {
	db, mock := newMock(t)
	s := NewCategoryStore(db)
	now := time.Now()

	mock.ExpectQuery(`COUNT\(p.id\) FILTER \(WHERE p.status = 'published'\).*ORDER BY c.created_at DESC`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "slug", "created_at", "updated_at",
			"published_posts_count", "all_posts_count",
		}).
			AddRow(int64(2), "Go", "go", now, now, 3, 5).
			AddRow(int64(1), "Empty", "empty", now, now, 0, 0))

	items, err := s.ListWithCounts(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "go", items[0].Slug)
	assert.Equal(t, 3, items[0].PublishedPosts)
	assert.Equal(t, 5, items[0].AllPosts)
	assert.Zero(t, items[1].AllPosts)
}

func TestCategoryStore_FindBySlug(t *testing.T) {
	db, mock := newMock(t)
	s := NewCategoryStore(db)
	ctx := context.Background()
	cols := []string{"id", "title", "slug", "created_at", "updated_at"}

	mock.ExpectQuery(`SELECT .* FROM categories WHERE slug = \$1`).
		WithArgs("go").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(1), "Go", "go", time.Now(), time.Now()))
	mock.ExpectQuery(`SELECT .* FROM categories WHERE slug = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(cols))

	c, err := s.FindBySlug(ctx, "go")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "Go", c.Title)

	c, err = s.FindBySlug(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestCategoryStore_FindByID(t *testing.T) {
	db, mock := newMock(t)
	s := NewCategoryStore(db)

	mock.ExpectQuery(`SELECT .* FROM categories WHERE id = \$1`).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "slug", "created_at", "updated_at"}))

	c, err := s.FindByID(context.Background(), 4)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestCategoryStore_CreateUpdateDelete(t *testing.T) {
	db, mock := newMock(t)
	s := NewCategoryStore(db)
	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO categories \(title, slug\) VALUES \(\$1, \$2\)`).
		WithArgs("Go Tips", "go-tips").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(9), now, now))
	mock.ExpectQuery(`UPDATE categories SET title = \$1, slug = \$2, updated_at = NOW\(\)\s+WHERE id = \$3`).
		WithArgs("Go Tricks", "go-tricks", int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now.Add(time.Minute)))
	mock.ExpectExec(`DELETE FROM categories WHERE id = \$1`).
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c := &models.Category{Title: "Go Tips", Slug: "go-tips"}
	require.NoError(t, s.Create(ctx, c))
	assert.Equal(t, int64(9), c.ID)

	c.Title, c.Slug = "Go Tricks", "go-tricks"
	require.NoError(t, s.Update(ctx, c))
	assert.True(t, c.UpdatedAt.After(c.CreatedAt))

	require.NoError(t, s.Delete(ctx, c.ID))
}

func TestCategoryStore_CreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	s := NewCategoryStore(db)

	mock.ExpectQuery(`INSERT INTO categories`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "categories_slug_key"})

	err := s.Create(context.Background(), &models.Category{Title: "Go", Slug: "go"})
	assert.ErrorIs(t, err, ErrDuplicate)
}
