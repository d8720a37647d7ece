// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blog

import (
	"fmt"
	"time"

	"bloghub/internal/models"
)

// DisplayLayout formats timestamps for people, e.g. "Aug 06, 2020 at 07:21 PM".
const DisplayLayout = "Jan 02, 2006 at 03:04 PM"

// CategoryView is the public shape of a category.
type CategoryView struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// CategoryListItem adds post counts to CategoryView.
type CategoryListItem struct {
	CategoryView
	PublishedPostsCount int `json:"published_posts_count"`
	AllPostsCount       int `json:"all_posts_count"`
}

// AuthorView is the public shape of a post author.
type AuthorView struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Timestamps is embedded in post views.
type Timestamps struct {
	CreatedAt        time.Time `json:"created_at"`
	CreatedAtDisplay string    `json:"created_at_display"`
	UpdatedAt        time.Time `json:"updated_at"`
	UpdatedAtDisplay string    `json:"updated_at_display"`
	Timesince        string    `json:"timesince"`
}

// PostListItem is a post as shown in listings.
type PostListItem struct {
	ID        int64         `json:"id"`
	Title     string        `json:"title"`
	Slug      string        `json:"slug"`
	Overview  string        `json:"overview"`
	Thumbnail string        `json:"thumbnail"`
	Status    string        `json:"status"`
	Category  *CategoryView `json:"category"`
	Author    *AuthorView   `json:"author"`
	Published time.Time     `json:"published"`
	Timestamps
}

// PostDetail is the full representation of a single post.
type PostDetail struct {
	ID         int64         `json:"id"`
	Title      string        `json:"title"`
	Slug       string        `json:"slug"`
	Overview   string        `json:"overview"`
	Thumbnail  string        `json:"thumbnail"`
	Category   *CategoryView `json:"category"`
	Author     *AuthorView   `json:"author"`
	Content    string        `json:"content"`
	ViewsCount int64         `json:"views_count"`
	ReadTime   int           `json:"read_time"`
	Status     string        `json:"status"`
	Published  time.Time     `json:"published"`
	Timestamps
}

func newCategoryView(c *models.Category) *CategoryView {
	if c == nil {
		return nil
	}
	return &CategoryView{ID: c.ID, Title: c.Title, Slug: c.Slug}
}

func newCategoryListItem(c models.CategoryWithCounts) CategoryListItem {
	return CategoryListItem{
		CategoryView:        *newCategoryView(&c.Category),
		PublishedPostsCount: c.PublishedPosts,
		AllPostsCount:       c.AllPosts,
	}
}

func newAuthorView(u *models.User) *AuthorView {
	if u == nil {
		return nil
	}
	return &AuthorView{ID: u.ID, Username: u.Username, FirstName: u.FirstName, LastName: u.LastName}
}

func newTimestamps(created, updated, now time.Time) Timestamps {
	return Timestamps{
		CreatedAt:        created,
		CreatedAtDisplay: created.Format(DisplayLayout),
		UpdatedAt:        updated,
		UpdatedAtDisplay: updated.Format(DisplayLayout),
		Timesince:        RoundedTimesince(created, now) + " ago",
	}
}

// newPostListItem maps a post to its listing view. thumbURL resolves the
// stored thumbnail key to a public URL.
func newPostListItem(p *models.Post, thumbURL func(string) string, now time.Time) PostListItem {
	return PostListItem{
		ID:         p.ID,
		Title:      p.Title,
		Slug:       p.Slug,
		Overview:   p.Overview,
		Thumbnail:  thumbURL(p.Thumbnail),
		Status:     string(p.Status),
		Category:   newCategoryView(p.Category),
		Author:     newAuthorView(p.Author),
		Published:  p.Published,
		Timestamps: newTimestamps(p.CreatedAt, p.UpdatedAt, now),
	}
}

func newPostDetail(p *models.Post, thumbURL func(string) string, now time.Time) *PostDetail {
	return &PostDetail{
		ID:         p.ID,
		Title:      p.Title,
		Slug:       p.Slug,
		Overview:   p.Overview,
		Thumbnail:  thumbURL(p.Thumbnail),
		Category:   newCategoryView(p.Category),
		Author:     newAuthorView(p.Author),
		Content:    p.Content,
		ViewsCount: p.ViewsCount,
		ReadTime:   p.ReadTime,
		Status:     string(p.Status),
		Published:  p.Published,
		Timestamps: newTimestamps(p.CreatedAt, p.UpdatedAt, now),
	}
}

// timeChunks are the units used by RoundedTimesince, largest first.
var timeChunks = []struct {
	d    time.Duration
	name string
}{
	{365 * 24 * time.Hour, "year"},
	{30 * 24 * time.Hour, "month"},
	{7 * 24 * time.Hour, "week"},
	{24 * time.Hour, "day"},
	{time.Hour, "hour"},
	{time.Minute, "minute"},
}

// RoundedTimesince describes the time elapsed between t and now in its
// largest whole unit, e.g. 7 hours 16 minutes becomes "7 hours". Times in
// the future, or less than a minute ago, give "0 minutes".
func RoundedTimesince(t, now time.Time) string {
	elapsed := now.Sub(t)
	if elapsed < time.Minute {
		return "0 minutes"
	}
	for _, c := range timeChunks {
		if n := int64(elapsed / c.d); n > 0 {
			if n == 1 {
				return fmt.Sprintf("1 %s", c.name)
			}
			return fmt.Sprintf("%d %ss", n, c.name)
		}
	}
	return "0 minutes"
}
