// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// Category groups posts. Its slug is derived from the title on every save.
type Category struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CategoryWithCounts is a category plus the number of posts filed under it.
type CategoryWithCounts struct {
	Category
	PublishedPosts int `json:"published_posts_count"`
	AllPosts       int `json:"all_posts_count"`
}
