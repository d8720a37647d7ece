// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"bloghub/internal/apperror"
	"bloghub/internal/blog"
	"bloghub/internal/middleware"
	"bloghub/internal/models"
)

// maxUploadSize caps thumbnail uploads (10 MB).
const maxUploadSize = 10 << 20

// BlogService is the category and post logic the handlers call.
type BlogService interface {
	ListCategories(ctx context.Context) ([]blog.CategoryListItem, error)
	GetCategory(ctx context.Context, slug string) (*blog.CategoryView, error)
	CreateCategory(ctx context.Context, actor *models.User, in blog.CategoryInput) (*blog.CategoryView, error)
	UpdateCategory(ctx context.Context, actor *models.User, slug string, in blog.CategoryInput) (*blog.CategoryView, error)
	DeleteCategory(ctx context.Context, actor *models.User, slug string) error

	ListPosts(ctx context.Context, q blog.ListQuery) ([]blog.PostListItem, error)
	GetPostDetail(ctx context.Context, slug string) (*blog.PostDetail, error)
	CreatePost(ctx context.Context, actor *models.User, in blog.PostInput, thumb *blog.Upload) (*blog.PostDetail, error)
	UpdatePost(ctx context.Context, actor *models.User, slug string, in blog.PostInput, thumb *blog.Upload) (*blog.PostDetail, error)
	DeletePost(ctx context.Context, actor *models.User, slug string) error
}

// Blog groups the /api/blog endpoints.
type Blog struct {
	svc BlogService
}

// NewBlog creates the blog handler group.
func NewBlog(svc BlogService) *Blog {
	return &Blog{svc: svc}
}

// --- Categories ---

// CategoryList lists categories with post counts.
// GET /api/blog/categories/list/
func (b *Blog) CategoryList(w http.ResponseWriter, r *http.Request) {
	items, err := b.svc.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// CategoryCreate creates a category. POST /api/blog/categories/create/
func (b *Blog) CategoryCreate(w http.ResponseWriter, r *http.Request) {
	var in blog.CategoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	c, err := b.svc.CreateCategory(r.Context(), middleware.UserFromCtx(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// CategoryDetail returns one category. GET /api/blog/categories/{slug}/
func (b *Blog) CategoryDetail(w http.ResponseWriter, r *http.Request) {
	c, err := b.svc.GetCategory(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// CategoryUpdate renames a category. PUT /api/blog/categories/{slug}/
func (b *Blog) CategoryUpdate(w http.ResponseWriter, r *http.Request) {
	var in blog.CategoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	c, err := b.svc.UpdateCategory(r.Context(), middleware.UserFromCtx(r.Context()), chi.URLParam(r, "slug"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// CategoryDelete removes a category. DELETE /api/blog/categories/{slug}/
func (b *Blog) CategoryDelete(w http.ResponseWriter, r *http.Request) {
	if err := b.svc.DeleteCategory(r.Context(), middleware.UserFromCtx(r.Context()), chi.URLParam(r, "slug")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CategoryPosts lists the posts filed under a category.
// GET /api/blog/categories/{slug}/posts/list/
func (b *Blog) CategoryPosts(w http.ResponseWriter, r *http.Request) {
	items, err := b.svc.ListPosts(r.Context(), blog.ListQuery{
		CategorySlug: chi.URLParam(r, "slug"),
		Status:       r.URL.Query().Get("status"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// --- Posts ---

// PostList lists posts, optionally filtered by ?category= and ?status=.
// GET /api/blog/posts/list/
func (b *Blog) PostList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := b.svc.ListPosts(r.Context(), blog.ListQuery{
		CategorySlug: q.Get("category"),
		Status:       q.Get("status"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// PostCreate creates a post from a multipart form carrying the thumbnail.
// POST /api/blog/posts/create/
func (b *Blog) PostCreate(w http.ResponseWriter, r *http.Request) {
	in, thumb, err := decodePostInput(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	p, err := b.svc.CreatePost(r.Context(), middleware.UserFromCtx(r.Context()), in, thumb)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// PostDetail returns one post and counts the view.
// GET /api/blog/posts/{slug}/
func (b *Blog) PostDetail(w http.ResponseWriter, r *http.Request) {
	p, err := b.svc.GetPostDetail(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// PostUpdate changes the supplied fields of a post.
// PUT|PATCH /api/blog/posts/{slug}/
func (b *Blog) PostUpdate(w http.ResponseWriter, r *http.Request) {
	in, thumb, err := decodePostInput(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	p, err := b.svc.UpdatePost(r.Context(), middleware.UserFromCtx(r.Context()), chi.URLParam(r, "slug"), in, thumb)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// PostDelete removes a post. DELETE /api/blog/posts/{slug}/
func (b *Blog) PostDelete(w http.ResponseWriter, r *http.Request) {
	if err := b.svc.DeletePost(r.Context(), middleware.UserFromCtx(r.Context()), chi.URLParam(r, "slug")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodePostInput reads post fields from a multipart form or, for requests
// without a file, a JSON body. Only fields present in the request are set.
func decodePostInput(w http.ResponseWriter, r *http.Request) (blog.PostInput, *blog.Upload, error) {
	var in blog.PostInput

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data", "application/x-www-form-urlencoded":
	default:
		return in, nil, decodeJSON(w, r, &in)
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1<<20)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return in, nil, apperror.NewFieldError("thumbnail", "The submitted file is too large.")
		}
		return in, nil, apperror.NewBadRequest("Multipart form parse error.", err)
	}

	formValue := func(key string) *string {
		if vals, ok := r.PostForm[key]; ok && len(vals) > 0 {
			v := vals[0]
			return &v
		}
		return nil
	}

	in.Title = formValue("title")
	in.Overview = formValue("overview")
	in.Content = formValue("content")
	in.Status = formValue("status")
	if raw := formValue("category"); raw != nil {
		// A non-numeric id resolves to no category and is reported invalid.
		id, _ := strconv.ParseInt(strings.TrimSpace(*raw), 10, 64)
		in.CategoryID = &id
	}

	thumb, err := readUpload(r, "thumbnail")
	if err != nil {
		return in, nil, err
	}
	return in, thumb, nil
}

// readUpload returns the named file from a parsed multipart form, or nil
// if none was sent.
func readUpload(r *http.Request, field string) (*blog.Upload, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return nil, nil
	}
	header := r.MultipartForm.File[field][0]
	if header.Size > maxUploadSize {
		return nil, apperror.NewFieldError(field, "The submitted file is too large.")
	}

	f, err := header.Open()
	if err != nil {
		return nil, apperror.NewBadRequest("Cannot read uploaded file.", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadSize+1))
	if err != nil {
		return nil, apperror.NewBadRequest("Cannot read uploaded file.", err)
	}
	if len(data) == 0 {
		return nil, apperror.NewFieldError(field, "The submitted file is empty.")
	}
	return &blog.Upload{Filename: header.Filename, Data: data}, nil
}
