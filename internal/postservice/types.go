package postservice

import (
	"context"
	"database/sql"
	"log/slog"
	"time"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusScheduled Status = "scheduled"

	RelatedPostsLimit = 3

	DefaultCategory    = "Uncategorized"
	DefaultAuthorTitle = "Author"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusScheduled:
		return true
	}
	return false
}

type SEO struct {
	MetaTitle       string   `json:"metaTitle"`
	MetaDescription string   `json:"metaDescription"`
	Keywords        []string `json:"keywords"`
	CanonicalURL    string   `json:"canonicalUrl,omitempty"`
	OGImage         string   `json:"ogImage,omitempty"`
	OGTitle         string   `json:"ogTitle,omitempty"`
	OGDescription   string   `json:"ogDescription,omitempty"`
}

// Post is the document shape shared with the editor and the public site.
//
// PublishedAt doubles as the list sort key: for scheduled posts it carries the
// future go-live time so scheduled and published posts interleave by date.
type Post struct {
	ID                 string         `json:"id"`
	Title              string         `json:"title"`
	Slug               string         `json:"slug"`
	Excerpt            string         `json:"excerpt"`
	FeaturedImage      string         `json:"featuredImage"`
	AuthorID           string         `json:"authorId"`
	AuthorName         string         `json:"authorName"`
	AuthorTitle        string         `json:"authorTitle"`
	Status             Status         `json:"status"`
	PublishedAt        *time.Time     `json:"publishedAt"`
	ScheduledFor       *time.Time     `json:"scheduledFor"`
	Blocks             []ContentBlock `json:"blocks"`
	SEO                SEO            `json:"seo"`
	ReadingTimeMinutes int            `json:"readingTimeMinutes"`
	Tags               []string       `json:"tags"`
	Category           string         `json:"category"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
}

// isDue reports whether a scheduled post has reached its go-live time but
// still carries the scheduled status.
func (p *Post) isDue(now time.Time) bool {
	return p.Status == StatusScheduled && p.ScheduledFor != nil && !p.ScheduledFor.After(now)
}

// Visible reports whether the public may see the post at now.
func (p *Post) Visible(now time.Time) bool {
	return p.Status == StatusPublished || p.isDue(now)
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// postStore is the query surface the service needs from the posts table.
type postStore interface {
	list(ctx context.Context, status *Status, now time.Time) ([]*Post, error)
	getBySlug(ctx context.Context, slug string, now time.Time) (*Post, error)
	getByID(ctx context.Context, id string) (*Post, error)
	related(ctx context.Context, excludeID, category string, now time.Time, limit int) ([]*Post, error)
	upsert(ctx context.Context, p *Post) (*Post, error)
	delete(ctx context.Context, id string) error
	markPublished(ctx context.Context, id string, now time.Time) (bool, error)
	ping(ctx context.Context) error
}

type PostModel struct {
	db *sql.DB
}

type Options struct {
	ReconcileWorkers   int
	ReconcileQueueSize int
	Categories         []string
}

type PostService struct {
	m          postStore
	r          *Reconciler
	logger     *slog.Logger
	categories []Category
	now        func() time.Time
}
