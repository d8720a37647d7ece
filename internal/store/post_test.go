package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloghub/internal/models"
)

var postRowColumns = []string{
	"id", "title", "slug", "author_id", "category_id", "overview",
	"content", "thumbnail", "status", "views_count", "read_time",
	"published", "created_at", "updated_at",
	"title", "slug",
	"username", "first_name", "last_name",
}

func TestPostStore_List(t *testing.T) {
	now := time.Now()

	t.Run("no filter", func(t *testing.T) {
		db, mock := newMock(t)
		s := NewPostStore(db)

		mock.ExpectQuery(`SELECT p.id, .* FROM posts p LEFT JOIN categories c ON c.id = p.category_id JOIN users u ON u.id = p.author_id ORDER BY p.published DESC, p.id DESC`).
			WillReturnRows(sqlmock.NewRows(postRowColumns).
				AddRow(int64(2), "Second", "second", int64(1), int64(3), "ov", "<p>x</p>", "posts/second/a.jpg",
					"published", int64(10), 1, now, now, now, "Go", "go", "jane", "Jane", "Doe").
				AddRow(int64(1), "First", "first", int64(1), nil, "ov", "", "",
					"draft", int64(0), 0, now, now, now, nil, nil, "jane", "Jane", "Doe"))

		posts, err := s.List(context.Background(), models.PostFilter{})
		require.NoError(t, err)
		require.Len(t, posts, 2)

		assert.Equal(t, "second", posts[0].Slug)
		require.NotNil(t, posts[0].Category)
		assert.Equal(t, "go", posts[0].Category.Slug)
		assert.Equal(t, int64(3), *posts[0].CategoryID)
		assert.Equal(t, "jane", posts[0].Author.Username)
		assert.Equal(t, int64(1), posts[0].Author.ID)

		assert.Nil(t, posts[1].CategoryID)
		assert.Nil(t, posts[1].Category)
		assert.Equal(t, models.PostStatusDraft, posts[1].Status)
	})

	t.Run("category and status filters", func(t *testing.T) {
		db, mock := newMock(t)
		s := NewPostStore(db)

		mock.ExpectQuery(`WHERE c.slug = \$1 AND p.status = \$2 ORDER BY`).
			WithArgs("go", "published").
			WillReturnRows(sqlmock.NewRows(postRowColumns))

		posts, err := s.List(context.Background(), models.PostFilter{
			CategorySlug: "go",
			Status:       models.PostStatusPublished,
		})
		require.NoError(t, err)
		assert.Empty(t, posts)
	})

	t.Run("author filter", func(t *testing.T) {
		db, mock := newMock(t)
		s := NewPostStore(db)

		mock.ExpectQuery(`WHERE p.author_id = \$1 ORDER BY`).
			WithArgs(int64(4)).
			WillReturnRows(sqlmock.NewRows(postRowColumns))

		_, err := s.List(context.Background(), models.PostFilter{AuthorID: 4})
		require.NoError(t, err)
	})
}

func TestPostStore_FindBySlug(t *testing.T) {
	db, mock := newMock(t)
	s := NewPostStore(db)
	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery(`FROM posts p .* WHERE p.slug = \$1`).
		WithArgs("hello").
		WillReturnRows(sqlmock.NewRows(postRowColumns).
			AddRow(int64(1), "Hello", "hello", int64(2), int64(3), "ov", "body", "",
				"published", int64(4), 1, now, now, now, "Go", "go", "bob", "", ""))
	mock.ExpectQuery(`FROM posts p .* WHERE p.slug = \$1`).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(postRowColumns))

	p, err := s.FindBySlug(ctx, "hello")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, int64(2), p.AuthorID)
	assert.Equal(t, int64(4), p.ViewsCount)

	p, err = s.FindBySlug(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestPostStore_Create(t *testing.T) {
	catID := int64(3)
	now := time.Now()

	t.Run("defaults published to now", func(t *testing.T) {
		db, mock := newMock(t)
		s := NewPostStore(db)

		mock.ExpectQuery(`INSERT INTO posts \(title,slug,author_id,category_id,overview,content,thumbnail,status,read_time,published\) VALUES \(\$1,\$2,\$3,\$4,\$5,\$6,\$7,\$8,\$9,NOW\(\)\) RETURNING id`).
			WithArgs("Hello", "hello", int64(1), catID, "ov", "body", "posts/hello/a.png", "published", 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "views_count", "published", "created_at", "updated_at"}).
				AddRow(int64(11), int64(0), now, now, now))

		p := &models.Post{
			Title: "Hello", Slug: "hello", AuthorID: 1, CategoryID: &catID,
			Overview: "ov", Content: "body", Thumbnail: "posts/hello/a.png",
			Status: models.PostStatusPublished, ReadTime: 1,
		}
		require.NoError(t, s.Create(context.Background(), p))
		assert.Equal(t, int64(11), p.ID)
		assert.Equal(t, now, p.Published)
	})

	t.Run("explicit published time", func(t *testing.T) {
		db, mock := newMock(t)
		s := NewPostStore(db)
		when := time.Date(2025, 12, 24, 9, 0, 0, 0, time.UTC)

		mock.ExpectQuery(`INSERT INTO posts .* VALUES \(\$1,\$2,\$3,\$4,\$5,\$6,\$7,\$8,\$9,\$10\)`).
			WithArgs("Hello", "hello", int64(1), nil, "ov", "", "", "draft", 0, when).
			WillReturnRows(sqlmock.NewRows([]string{"id", "views_count", "published", "created_at", "updated_at"}).
				AddRow(int64(12), int64(0), when, now, now))

		p := &models.Post{
			Title: "Hello", Slug: "hello", AuthorID: 1, Overview: "ov",
			Status: models.PostStatusDraft, Published: when,
		}
		require.NoError(t, s.Create(context.Background(), p))
	})

	t.Run("duplicate slug", func(t *testing.T) {
		db, mock := newMock(t)
		s := NewPostStore(db)

		mock.ExpectQuery(`INSERT INTO posts`).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "posts_slug_key"})

		err := s.Create(context.Background(), &models.Post{Title: "Hello", Slug: "hello", Status: models.PostStatusPublished})
		assert.ErrorIs(t, err, ErrDuplicate)
	})
}

func TestPostStore_Update(t *testing.T) {
	db, mock := newMock(t)
	s := NewPostStore(db)
	later := time.Now().Add(time.Hour)

	// SetMap writes columns in sorted order.
	mock.ExpectQuery(`UPDATE posts SET category_id = \$1, content = \$2, overview = \$3, read_time = \$4, slug = \$5, status = \$6, thumbnail = \$7, title = \$8, updated_at = NOW\(\) WHERE id = \$9 RETURNING updated_at`).
		WithArgs(nil, "new body", "ov", 2, "renamed", "draft", "", "Renamed", int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(later))

	p := &models.Post{
		ID: 5, Title: "Renamed", Slug: "renamed", Overview: "ov",
		Content: "new body", Status: models.PostStatusDraft, ReadTime: 2,
	}
	require.NoError(t, s.Update(context.Background(), p))
	assert.Equal(t, later, p.UpdatedAt)
}

func TestPostStore_IncrementViewsAndDelete(t *testing.T) {
	db, mock := newMock(t)
	s := NewPostStore(db)
	ctx := context.Background()

	mock.ExpectQuery(`UPDATE posts SET views_count = views_count \+ 1 WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"views_count"}).AddRow(int64(8)))
	mock.ExpectExec(`DELETE FROM posts WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	views, err := s.IncrementViews(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(8), views)
	require.NoError(t, s.Delete(ctx, 5))
}

// TestPostStore_IncrementViewsConcurrent checks that concurrent detail reads
// never lose an increment.
func TestPostStore_IncrementViewsConcurrent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	users := NewUserStore(db)
	posts := NewPostStore(db)
	t.Cleanup(func() { cleanUsers(t, db, "views-test@example.com") })

	author := &models.User{Username: "views-test", Email: "views-test@example.com", PasswordHash: "x"}
	require.NoError(t, users.Create(ctx, author))

	p := &models.Post{
		Title: "Views Test", Slug: "views-test-post", AuthorID: author.ID,
		Overview: "ov", Status: models.PostStatusPublished,
	}
	require.NoError(t, posts.Create(ctx, p))

	const readers = 20
	var wg sync.WaitGroup
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := posts.IncrementViews(ctx, p.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := posts.FindBySlug(ctx, p.Slug)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(readers), got.ViewsCount)
}

// TestCategoryDeleteKeepsPosts checks that deleting a category leaves its
// posts uncategorised.
func TestCategoryDeleteKeepsPosts(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	users := NewUserStore(db)
	cats := NewCategoryStore(db)
	posts := NewPostStore(db)
	t.Cleanup(func() {
		cleanUsers(t, db, "catdel-test@example.com")
		cleanCategories(t, db, "catdel-test")
	})

	author := &models.User{Username: "catdel-test", Email: "catdel-test@example.com", PasswordHash: "x"}
	require.NoError(t, users.Create(ctx, author))
	cat := &models.Category{Title: "Catdel Test", Slug: "catdel-test"}
	require.NoError(t, cats.Create(ctx, cat))

	p := &models.Post{
		Title: "Catdel", Slug: "catdel-test-post", AuthorID: author.ID,
		CategoryID: &cat.ID, Overview: "ov", Status: models.PostStatusPublished,
	}
	require.NoError(t, posts.Create(ctx, p))
	require.NoError(t, cats.Delete(ctx, cat.ID))

	got, err := posts.FindBySlug(ctx, p.Slug)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.CategoryID)
}
