// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// PostStatus represents the publishing state of a post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
)

// Valid reports whether s is a known status.
func (s PostStatus) Valid() bool {
	return s == PostStatusDraft || s == PostStatusPublished
}

// Post is a blog article. Slug and ReadTime are derived from Title and
// Content before every save; ViewsCount only ever grows.
type Post struct {
	ID         int64      `json:"id"`
	Title      string     `json:"title"`
	Slug       string     `json:"slug"`
	AuthorID   int64      `json:"author_id"`
	CategoryID *int64     `json:"category_id"`
	Overview   string     `json:"overview"`
	Content    string     `json:"content"`
	Thumbnail  string     `json:"thumbnail"`
	Status     PostStatus `json:"status"`
	ViewsCount int64      `json:"views_count"`
	ReadTime   int        `json:"read_time"`
	Published  time.Time  `json:"published"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// Populated by store joins.
	Category *Category `json:"category,omitempty"`
	Author   *User     `json:"author,omitempty"`
}

// IsPublished returns true if the post is in published status.
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// PostFilter narrows a post listing. Zero values mean "no filter".
type PostFilter struct {
	CategorySlug string
	Status       PostStatus
	AuthorID     int64
}
