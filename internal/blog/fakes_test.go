package blog

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"sort"
	"sync"
	"testing"
	"time"

	"bloghub/internal/models"
	"bloghub/internal/store"
)

// memDB backs the in-memory repositories used by the service tests. It
// mirrors the database constraints the service relies on: unique slugs and
// SET NULL on category delete.
type memDB struct {
	mu         sync.Mutex
	categories map[int64]*models.Category
	posts      map[int64]*models.Post
	nextID     int64
	clock      time.Time
}

func newMemDB() *memDB {
	return &memDB{
		categories: map[int64]*models.Category{},
		posts:      map[int64]*models.Post{},
		clock:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (db *memDB) tick() time.Time {
	db.clock = db.clock.Add(time.Minute)
	db.nextID++
	return db.clock
}

type memCategories struct{ *memDB }

func (r memCategories) ListWithCounts(_ context.Context) ([]models.CategoryWithCounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.CategoryWithCounts
	for _, c := range r.categories {
		item := models.CategoryWithCounts{Category: *c}
		for _, p := range r.posts {
			if p.CategoryID != nil && *p.CategoryID == c.ID {
				item.AllPosts++
				if p.IsPublished() {
					item.PublishedPosts++
				}
			}
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memCategories) FindBySlug(_ context.Context, slug string) (*models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.categories {
		if c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r memCategories) FindByID(_ context.Context, id int64) (*models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.categories[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (r memCategories) slugTaken(slug string, except int64) bool {
	for _, c := range r.categories {
		if c.Slug == slug && c.ID != except {
			return true
		}
	}
	return false
}

func (r memCategories) Create(_ context.Context, c *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.slugTaken(c.Slug, 0) {
		return store.ErrDuplicate
	}
	now := r.tick()
	c.ID, c.CreatedAt, c.UpdatedAt = r.nextID, now, now
	cp := *c
	r.categories[c.ID] = &cp
	return nil
}

func (r memCategories) Update(_ context.Context, c *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.slugTaken(c.Slug, c.ID) {
		return store.ErrDuplicate
	}
	c.UpdatedAt = r.tick()
	cp := *c
	r.categories[c.ID] = &cp
	return nil
}

func (r memCategories) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.categories, id)
	for _, p := range r.posts {
		if p.CategoryID != nil && *p.CategoryID == id {
			p.CategoryID, p.Category = nil, nil
		}
	}
	return nil
}

type memPosts struct {
	*memDB
	authors map[int64]*models.User
}

// load returns a copy of p with its joins filled in.
func (r memPosts) load(p *models.Post) models.Post {
	cp := *p
	cp.Category = nil
	if cp.CategoryID != nil {
		if c, ok := r.categories[*cp.CategoryID]; ok {
			cat := *c
			cp.Category = &cat
		}
	}
	cp.Author = r.authors[cp.AuthorID]
	return cp
}

func (r memPosts) List(_ context.Context, f models.PostFilter) ([]models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Post
	for _, p := range r.posts {
		full := r.load(p)
		if f.CategorySlug != "" && (full.Category == nil || full.Category.Slug != f.CategorySlug) {
			continue
		}
		if f.Status != "" && full.Status != f.Status {
			continue
		}
		if f.AuthorID != 0 && full.AuthorID != f.AuthorID {
			continue
		}
		out = append(out, full)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Published.Equal(out[j].Published) {
			return out[i].Published.After(out[j].Published)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r memPosts) FindBySlug(_ context.Context, slug string) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.posts {
		if p.Slug == slug {
			full := r.load(p)
			return &full, nil
		}
	}
	return nil, nil
}

func (r memPosts) slugTaken(slug string, except int64) bool {
	for _, p := range r.posts {
		if p.Slug == slug && p.ID != except {
			return true
		}
	}
	return false
}

func (r memPosts) Create(_ context.Context, p *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.slugTaken(p.Slug, 0) {
		return store.ErrDuplicate
	}
	now := r.tick()
	p.ID, p.CreatedAt, p.UpdatedAt = r.nextID, now, now
	if p.Published.IsZero() {
		p.Published = now
	}
	cp := *p
	r.posts[p.ID] = &cp
	return nil
}

func (r memPosts) Update(_ context.Context, p *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.posts[p.ID]
	if !ok {
		return errors.New("no rows")
	}
	if r.slugTaken(p.Slug, p.ID) {
		return store.ErrDuplicate
	}
	p.UpdatedAt = r.tick()
	views := stored.ViewsCount
	cp := *p
	cp.ViewsCount = views
	r.posts[p.ID] = &cp
	return nil
}

func (r memPosts) IncrementViews(_ context.Context, id int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return 0, errors.New("no rows")
	}
	p.ViewsCount++
	return p.ViewsCount, nil
}

func (r memPosts) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.posts, id)
	return nil
}

// memMedia is an in-memory storage.Store.
type memMedia struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memMedia) Put(_ context.Context, key, _ string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memMedia) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memMedia) URL(key string) string {
	if key == "" {
		return ""
	}
	return "http://media.test/" + key
}

func (m *memMedia) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

// fixture bundles a service with direct access to its fakes.
type fixture struct {
	svc   *Service
	db    *memDB
	media *memMedia
	alice *models.User
	bob   *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newMemDB()
	alice := &models.User{ID: 100, Username: "alice", FirstName: "Alice", LastName: "Liddell", IsActive: true}
	bob := &models.User{ID: 200, Username: "bob", IsActive: true}
	media := &memMedia{objects: map[string][]byte{}}
	posts := memPosts{memDB: db, authors: map[int64]*models.User{alice.ID: alice, bob.ID: bob}}

	svc := NewService(memCategories{db}, posts, media)
	svc.now = func() time.Time { return db.clock.Add(2 * time.Hour) }
	return &fixture{svc: svc, db: db, media: media, alice: alice, bob: bob}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func strPtr(s string) *string { return &s }
func idPtr(id int64) *int64   { return &id }
