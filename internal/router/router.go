// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// bloghub API. Routes are grouped under /api/users and /api/blog.
package router

import (
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"bloghub/internal/handlers"
	"bloghub/internal/middleware"
)

// Deps carries everything the router wires together.
type Deps struct {
	Accounts *handlers.Accounts
	Blog     *handlers.Blog

	// Auth resolves bearer tokens into users.
	Auth middleware.Authenticator

	// CredentialLimiter throttles the token, refresh and reset endpoints.
	// Nil disables throttling.
	CredentialLimiter *middleware.RateLimiter

	CORSOrigins []string

	// MediaDir and MediaURL serve locally stored uploads. Empty MediaDir
	// means uploads live in object storage and nothing is mounted.
	MediaDir string
	MediaURL string
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Retry-After"},
		MaxAge:         300,
	}))
	r.Use(middleware.Authenticate(d.Auth))

	r.Get("/health", healthHandler)

	throttle := func(h http.HandlerFunc) http.Handler {
		if d.CredentialLimiter == nil {
			return h
		}
		return d.CredentialLimiter.Middleware(h)
	}

	r.Route("/api/users", func(r chi.Router) {
		a := d.Accounts
		r.Post("/register/", a.Register)
		r.Method(http.MethodPost, "/token/", throttle(a.Token))
		r.Method(http.MethodPost, "/token/refresh/", throttle(a.TokenRefresh))
		r.Method(http.MethodPost, "/password/reset/", throttle(a.PasswordResetRequest))
		r.Get("/password/reset/{uidb64}/{token}/", a.PasswordResetCheck)
		r.Method(http.MethodPatch, "/password/reset/complete/", throttle(a.PasswordResetComplete))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Post("/logout/", a.Logout)
			r.Patch("/password/change/", a.PasswordChange)
		})
	})

	// Write permissions are decided per object by the blog service, so
	// anonymous writes reach it and come back as 401.
	r.Route("/api/blog", func(r chi.Router) {
		b := d.Blog
		r.Route("/categories", func(r chi.Router) {
			r.Get("/list/", b.CategoryList)
			r.Post("/create/", b.CategoryCreate)
			r.Get("/{slug}/", b.CategoryDetail)
			r.Put("/{slug}/", b.CategoryUpdate)
			r.Delete("/{slug}/", b.CategoryDelete)
			r.Get("/{slug}/posts/list/", b.CategoryPosts)
		})
		r.Route("/posts", func(r chi.Router) {
			r.Get("/list/", b.PostList)
			r.Post("/create/", b.PostCreate)
			r.Get("/{slug}/", b.PostDetail)
			r.Put("/{slug}/", b.PostUpdate)
			r.Patch("/{slug}/", b.PostUpdate)
			r.Delete("/{slug}/", b.PostDelete)
		})
	})

	if d.MediaDir != "" {
		mountMedia(r, d.MediaURL, d.MediaDir)
	}

	return r
}

// mountMedia serves files under dir at prefix. Directory listings are
// refused.
func mountMedia(r chi.Router, prefix, dir string) {
	prefix = "/" + strings.Trim(prefix, "/")
	fs := http.StripPrefix(prefix, http.FileServer(noListing{http.Dir(dir)}))
	r.Get(prefix+"/*", fs.ServeHTTP)
}

// noListing wraps a FileSystem so directories open as not found.
type noListing struct {
	fs http.FileSystem
}

func (n noListing) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, os.ErrNotExist
	}
	return f, nil
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
