// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package blog manages categories and posts: listing, creation, updates
// and deletion, derived fields (slug, read time), view counting,
// authorization and the JSON view models returned to clients.
package blog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"bloghub/internal/apperror"
	"bloghub/internal/imaging"
	"bloghub/internal/models"
	"bloghub/internal/readtime"
	"bloghub/internal/slug"
	"bloghub/internal/storage"
	"bloghub/internal/store"
	"bloghub/internal/validate"
)

// Field messages shared with the HTTP layer.
const (
	MsgInvalid        = "This field is invalid."
	MsgRequired       = "This field is required."
	MsgNoFile         = "No file was submitted."
	MsgInvalidImage   = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	msgEmptySlug      = "Title must contain at least one letter or digit."
	msgCategoryExists = "category with this slug already exists."
	msgPostExists     = "post with this slug already exists."
)

// CategoryRepository is the storage the service needs for categories.
type CategoryRepository interface {
	ListWithCounts(ctx context.Context) ([]models.CategoryWithCounts, error)
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
	FindByID(ctx context.Context, id int64) (*models.Category, error)
	Create(ctx context.Context, c *models.Category) error
	Update(ctx context.Context, c *models.Category) error
	Delete(ctx context.Context, id int64) error
}

// PostRepository is the storage the service needs for posts.
type PostRepository interface {
	List(ctx context.Context, f models.PostFilter) ([]models.Post, error)
	FindBySlug(ctx context.Context, slug string) (*models.Post, error)
	Create(ctx context.Context, p *models.Post) error
	Update(ctx context.Context, p *models.Post) error
	IncrementViews(ctx context.Context, id int64) (int64, error)
	Delete(ctx context.Context, id int64) error
}

// CategoryInput is the body of category create and update requests.
type CategoryInput struct {
	Title string `json:"title" validate:"required,max=50"`
}

// PostInput carries the writable post fields. Nil fields are left
// unchanged on update; Title, Overview and CategoryID are required on create.
type PostInput struct {
	Title      *string `json:"title" validate:"omitempty,max=200"`
	Overview   *string `json:"overview"`
	Content    *string `json:"content"`
	Status     *string `json:"status" validate:"omitempty,oneof=draft published"`
	CategoryID *int64  `json:"category"`
}

// Upload is an uploaded thumbnail file.
type Upload struct {
	Filename string
	Data     []byte
}

// ListQuery narrows a post listing.
type ListQuery struct {
	CategorySlug string
	Status       string
}

// Service implements category and post operations.
type Service struct {
	categories CategoryRepository
	posts      PostRepository
	media      storage.Store
	now        func() time.Time
}

// NewService creates a blog service.
func NewService(categories CategoryRepository, posts PostRepository, media storage.Store) *Service {
	return &Service{
		categories: categories,
		posts:      posts,
		media:      media,
		now:        time.Now,
	}
}

// --- Categories ---

// ListCategories returns every category, newest first, with post counts.
func (s *Service) ListCategories(ctx context.Context) ([]CategoryListItem, error) {
	cats, err := s.categories.ListWithCounts(ctx)
	if err != nil {
		return nil, apperror.NewDatabase("failed to list categories", err)
	}
	items := make([]CategoryListItem, 0, len(cats))
	for _, c := range cats {
		items = append(items, newCategoryListItem(c))
	}
	return items, nil
}

// GetCategory returns a category by slug.
func (s *Service) GetCategory(ctx context.Context, slug string) (*CategoryView, error) {
	c, err := s.findCategory(ctx, slug)
	if err != nil {
		return nil, err
	}
	return newCategoryView(c), nil
}

// CreateCategory creates a category. Any authenticated user may.
func (s *Service) CreateCategory(ctx context.Context, actor *models.User, in CategoryInput) (*CategoryView, error) {
	if err := CanCreate(actor).Err(); err != nil {
		return nil, err
	}

	c := &models.Category{}
	if err := applyCategoryInput(c, in); err != nil {
		return nil, err
	}

	if err := s.categories.Create(ctx, c); err != nil {
		return nil, categoryWriteError(err)
	}
	slog.Info("category created", "slug", c.Slug, "by", actor.ID)
	return newCategoryView(c), nil
}

// UpdateCategory renames a category and re-derives its slug.
func (s *Service) UpdateCategory(ctx context.Context, actor *models.User, slug string, in CategoryInput) (*CategoryView, error) {
	if err := CanMutateCategory(actor).Err(); err != nil {
		return nil, err
	}
	c, err := s.findCategory(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := applyCategoryInput(c, in); err != nil {
		return nil, err
	}

	if err := s.categories.Update(ctx, c); err != nil {
		return nil, categoryWriteError(err)
	}
	return newCategoryView(c), nil
}

// DeleteCategory removes a category. Its posts become uncategorised.
func (s *Service) DeleteCategory(ctx context.Context, actor *models.User, slug string) error {
	if err := CanMutateCategory(actor).Err(); err != nil {
		return err
	}
	c, err := s.findCategory(ctx, slug)
	if err != nil {
		return err
	}
	if err := s.categories.Delete(ctx, c.ID); err != nil {
		return apperror.NewDatabase("failed to delete category", err)
	}
	slog.Info("category deleted", "slug", c.Slug, "by", actor.ID)
	return nil
}

func (s *Service) findCategory(ctx context.Context, slug string) (*models.Category, error) {
	c, err := s.categories.FindBySlug(ctx, slug)
	if err != nil {
		return nil, apperror.NewDatabase("failed to load category", err)
	}
	if c == nil {
		return nil, apperror.NewNotFound("Not found.")
	}
	return c, nil
}

// applyCategoryInput validates in and copies it onto c with a fresh slug.
func applyCategoryInput(c *models.Category, in CategoryInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if fields := validate.Struct(in); !fields.Empty() {
		return apperror.NewValidation(fields)
	}
	c.Title = in.Title
	c.Slug = slug.Generate(c.Title)
	if c.Slug == "" {
		return apperror.NewFieldError("title", msgEmptySlug)
	}
	return nil
}

func categoryWriteError(err error) error {
	if errors.Is(err, store.ErrDuplicate) {
		return apperror.NewConflict(msgCategoryExists, err)
	}
	return apperror.NewDatabase("failed to save category", err)
}

// --- Posts ---

// ListPosts returns posts, most recently published first. An unknown
// category slug yields an empty list.
func (s *Service) ListPosts(ctx context.Context, q ListQuery) ([]PostListItem, error) {
	status := models.PostStatus(q.Status)
	if status != "" && !status.Valid() {
		return nil, apperror.NewFieldError("status", fmt.Sprintf("%q is not a valid choice.", q.Status))
	}

	posts, err := s.posts.List(ctx, models.PostFilter{CategorySlug: q.CategorySlug, Status: status})
	if err != nil {
		return nil, apperror.NewDatabase("failed to list posts", err)
	}

	now := s.now()
	items := make([]PostListItem, 0, len(posts))
	for i := range posts {
		items = append(items, newPostListItem(&posts[i], s.media.URL, now))
	}
	return items, nil
}

// GetPostDetail returns a post and counts the read: the stored view counter
// is incremented atomically and the new value is returned.
func (s *Service) GetPostDetail(ctx context.Context, slug string) (*PostDetail, error) {
	p, err := s.findPost(ctx, slug)
	if err != nil {
		return nil, err
	}

	views, err := s.posts.IncrementViews(ctx, p.ID)
	if err != nil {
		return nil, apperror.NewDatabase("failed to count view", err)
	}
	p.ViewsCount = views

	return newPostDetail(p, s.media.URL, s.now()), nil
}

// CreatePost creates a post authored by actor.
func (s *Service) CreatePost(ctx context.Context, actor *models.User, in PostInput, thumb *Upload) (*PostDetail, error) {
	if err := CanCreate(actor).Err(); err != nil {
		return nil, err
	}

	fields := validate.Struct(in)
	trimInput(&in)
	if in.Title == nil || *in.Title == "" {
		fields.Add("title", MsgRequired)
	}
	if in.Overview == nil || *in.Overview == "" {
		fields.Add("overview", MsgRequired)
	}
	if thumb == nil || len(thumb.Data) == 0 {
		fields.Add("thumbnail", MsgNoFile)
	}

	var cat *models.Category
	if in.CategoryID == nil {
		fields.Add("category", MsgInvalid)
	} else {
		var err error
		if cat, err = s.resolveCategory(ctx, *in.CategoryID); err != nil {
			return nil, err
		}
		if cat == nil {
			fields.Add("category", MsgInvalid)
		}
	}

	p := &models.Post{
		AuthorID: actor.ID,
		Status:   models.PostStatusPublished,
		Author:   actor,
	}
	applyPostInput(p, in, cat)
	deriveSlug(p, fields)

	var img *imaging.Processed
	if thumb != nil && len(thumb.Data) > 0 {
		var err error
		if img, err = imaging.Thumbnail(thumb.Data); err != nil {
			fields.Add("thumbnail", MsgInvalidImage)
		}
	}

	if !fields.Empty() {
		return nil, apperror.NewValidation(fields)
	}

	if existing, err := s.posts.FindBySlug(ctx, p.Slug); err != nil {
		return nil, apperror.NewDatabase("failed to check slug", err)
	} else if existing != nil {
		return nil, apperror.NewConflict(msgPostExists, nil)
	}

	key, err := s.storeThumbnail(ctx, p.Slug, thumb.Filename, img)
	if err != nil {
		return nil, err
	}
	p.Thumbnail = key

	if err := s.posts.Create(ctx, p); err != nil {
		s.removeThumbnail(ctx, key)
		return nil, postWriteError(err)
	}

	slog.Info("post created", "slug", p.Slug, "author", actor.ID)
	return newPostDetail(p, s.media.URL, s.now()), nil
}

// UpdatePost applies the supplied fields to a post. Only its author may.
func (s *Service) UpdatePost(ctx context.Context, actor *models.User, slug string, in PostInput, thumb *Upload) (*PostDetail, error) {
	p, err := s.findPost(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := CanMutatePost(actor, p).Err(); err != nil {
		return nil, err
	}

	fields := validate.Struct(in)
	trimInput(&in)
	if in.Title != nil && *in.Title == "" {
		fields.Add("title", MsgRequired)
	}
	if in.Overview != nil && *in.Overview == "" {
		fields.Add("overview", MsgRequired)
	}

	var cat *models.Category
	if in.CategoryID != nil {
		if cat, err = s.resolveCategory(ctx, *in.CategoryID); err != nil {
			return nil, err
		}
		if cat == nil {
			fields.Add("category", MsgInvalid)
		}
	}

	origSlug := p.Slug
	applyPostInput(p, in, cat)
	deriveSlug(p, fields)

	var img *imaging.Processed
	if thumb != nil && len(thumb.Data) > 0 {
		if img, err = imaging.Thumbnail(thumb.Data); err != nil {
			fields.Add("thumbnail", MsgInvalidImage)
		}
	}

	if !fields.Empty() {
		return nil, apperror.NewValidation(fields)
	}

	// A renamed post must not upload into another post's key space.
	if p.Slug != origSlug {
		if existing, err := s.posts.FindBySlug(ctx, p.Slug); err != nil {
			return nil, apperror.NewDatabase("failed to check slug", err)
		} else if existing != nil && existing.ID != p.ID {
			return nil, apperror.NewConflict(msgPostExists, nil)
		}
	}

	oldKey := p.Thumbnail
	var stored string
	if img != nil {
		key, err := s.storeThumbnail(ctx, p.Slug, thumb.Filename, img)
		if err != nil {
			return nil, err
		}
		if key != oldKey {
			stored = key
		}
		p.Thumbnail = key
	}

	if err := s.posts.Update(ctx, p); err != nil {
		// Only the file this call created is rolled back.
		s.removeThumbnail(ctx, stored)
		return nil, postWriteError(err)
	}
	if p.Thumbnail != oldKey {
		s.removeThumbnail(ctx, oldKey)
	}

	return newPostDetail(p, s.media.URL, s.now()), nil
}

// DeletePost removes a post and its thumbnail. Only its author may.
func (s *Service) DeletePost(ctx context.Context, actor *models.User, slug string) error {
	p, err := s.findPost(ctx, slug)
	if err != nil {
		return err
	}
	if err := CanMutatePost(actor, p).Err(); err != nil {
		return err
	}

	if err := s.posts.Delete(ctx, p.ID); err != nil {
		return apperror.NewDatabase("failed to delete post", err)
	}
	s.removeThumbnail(ctx, p.Thumbnail)

	slog.Info("post deleted", "slug", p.Slug, "author", actor.ID)
	return nil
}

func (s *Service) findPost(ctx context.Context, slug string) (*models.Post, error) {
	p, err := s.posts.FindBySlug(ctx, slug)
	if err != nil {
		return nil, apperror.NewDatabase("failed to load post", err)
	}
	if p == nil {
		return nil, apperror.NewNotFound("Not found.")
	}
	return p, nil
}

// resolveCategory returns the category with the given id, or nil if there
// is none.
func (s *Service) resolveCategory(ctx context.Context, id int64) (*models.Category, error) {
	if id <= 0 {
		return nil, nil
	}
	c, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.NewDatabase("failed to load category", err)
	}
	return c, nil
}

// storeThumbnail writes img under posts/{slug}/ and returns its key.
func (s *Service) storeThumbnail(ctx context.Context, postSlug, filename string, img *imaging.Processed) (string, error) {
	key := thumbnailKey(postSlug, filename, img.Ext)
	if err := s.media.Put(ctx, key, img.ContentType, img.Data); err != nil {
		return "", apperror.NewInternal("failed to store thumbnail", err)
	}
	return key, nil
}

// removeThumbnail deletes a stored thumbnail. Failures are logged only.
func (s *Service) removeThumbnail(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.media.Delete(ctx, key); err != nil {
		slog.Warn("failed to delete thumbnail", "key", key, "error", err)
	}
}

// thumbnailKey builds the storage key for a post thumbnail from the post
// slug and a slugified form of the uploaded file name.
func thumbnailKey(postSlug, filename, ext string) string {
	base := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	stem := slug.Generate(strings.TrimSuffix(base, path.Ext(base)))
	if stem == "" {
		stem = "thumbnail"
	}
	return fmt.Sprintf("posts/%s/%s.%s", postSlug, stem, ext)
}

// trimInput strips surrounding whitespace from the text fields that are
// required to be non-blank.
func trimInput(in *PostInput) {
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		in.Title = &t
	}
	if in.Overview != nil {
		o := strings.TrimSpace(*in.Overview)
		in.Overview = &o
	}
}

// applyPostInput copies the supplied fields onto p and re-derives the
// read time from the content.
func applyPostInput(p *models.Post, in PostInput, cat *models.Category) {
	if in.Title != nil {
		p.Title = *in.Title
	}
	if in.Overview != nil {
		p.Overview = *in.Overview
	}
	if in.Content != nil {
		p.Content = *in.Content
	}
	if in.Status != nil && *in.Status != "" {
		p.Status = models.PostStatus(*in.Status)
	}
	if cat != nil {
		p.CategoryID = &cat.ID
		p.Category = cat
	}
	p.ReadTime = readtime.Estimate(p.Content)
}

// deriveSlug sets p.Slug from the title, recording an error if the title
// yields an empty slug.
func deriveSlug(p *models.Post, fields apperror.FieldErrors) {
	if p.Title == "" {
		return
	}
	p.Slug = slug.Generate(p.Title)
	if p.Slug == "" {
		fields.Add("title", msgEmptySlug)
	}
}

func postWriteError(err error) error {
	if errors.Is(err, store.ErrDuplicate) {
		return apperror.NewConflict(msgPostExists, err)
	}
	return apperror.NewDatabase("failed to save post", err)
}
