package postservice

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sushihentaime/lumina/internal/common"
)

func NewPostService(db *sql.DB, logger *slog.Logger, opts Options) *PostService {
	return newPostService(newPostModel(db), logger, opts, time.Now)
}

func newPostService(m postStore, logger *slog.Logger, opts Options, now func() time.Time) *PostService {
	return &PostService{
		m:          m,
		r:          NewReconciler(m, logger, opts.ReconcileWorkers, opts.ReconcileQueueSize, now),
		logger:     logger,
		categories: newCategories(opts.Categories),
		now:        now,
	}
}

// Close waits for queued status corrections and stops the background workers.
func (s *PostService) Close() {
	s.r.Close()
}

// ListPosts returns posts ordered by publish date, newest first. A nil status
// returns every post. StatusPublished returns every publicly visible post,
// including scheduled posts whose time has come; other statuses match exactly.
func (s *PostService) ListPosts(ctx context.Context, status *Status) ([]*Post, error) {
	if status != nil {
		v := common.NewValidator()
		validateStatus(v, *status)
		if !v.Valid() {
			return nil, v.ValidationError()
		}
	}

	now := s.now()

	posts, err := s.m.list(ctx, status, now)
	if err != nil {
		return nil, err
	}

	s.reconcile(now, posts...)

	return posts, nil
}

// GetPostBySlug returns the visible post with the given slug, or nil when no
// such post exists or it is not visible yet.
func (s *PostService) GetPostBySlug(ctx context.Context, slug string) (*Post, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, nil
	}

	now := s.now()

	p, err := s.m.getBySlug(ctx, slug, now)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	s.reconcile(now, p)

	return p, nil
}

// GetPostByID returns the post regardless of its status, or nil when absent.
func (s *PostService) GetPostByID(ctx context.Context, id string) (*Post, error) {
	v := common.NewValidator()
	validateID(v, id, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	now := s.now()

	p, err := s.m.getByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	s.reconcile(now, p)

	return p, nil
}

// GetRelatedPosts returns up to three visible posts of the same category,
// excluding excludeID. Failures are logged and yield an empty result.
func (s *PostService) GetRelatedPosts(ctx context.Context, excludeID, category string) []*Post {
	now := s.now()

	posts, err := s.m.related(ctx, excludeID, category, now, RelatedPostsLimit)
	if err != nil {
		s.logger.Error("could not fetch related posts", slog.String("post_id", excludeID), slog.String("category", category), slog.String("error", err.Error()))
		return []*Post{}
	}

	s.reconcile(now, posts...)

	return posts
}

// SavePost validates and stores the whole document, inserting it or
// overwriting the existing post with the same id. The reading time is
// recomputed from the blocks. The stored document is returned.
func (s *PostService) SavePost(ctx context.Context, post *Post) (*Post, error) {
	if post == nil {
		return nil, errors.New("post must not be nil")
	}

	doc := *post
	s.prepare(&doc, s.now())

	v := common.NewValidator()
	validatePost(v, &doc)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	doc.ReadingTimeMinutes = ReadingTime(doc.Blocks)

	return s.m.upsert(ctx, &doc)
}

// DeletePost removes the post. Unknown ids are not an error.
func (s *PostService) DeletePost(ctx context.Context, id string) error {
	v := common.NewValidator()
	validateID(v, id, "id")
	if !v.Valid() {
		return v.ValidationError()
	}

	return s.m.delete(ctx, id)
}

// Ping reports whether the post store answers.
func (s *PostService) Ping(ctx context.Context) error {
	return s.m.ping(ctx)
}

func (s *PostService) ReconcileStats() ReconcileStats {
	return s.r.Stats()
}

func (s *PostService) ListCategories() []Category {
	categories := make([]Category, len(s.categories))
	copy(categories, s.categories)
	return categories
}

// prepare fills generated fields and aligns the timestamps with the status.
func (s *PostService) prepare(p *Post, now time.Time) {
	p.ID = strings.TrimSpace(p.ID)
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	p.Slug = strings.TrimSpace(p.Slug)
	if p.Slug == "" {
		p.Slug = Slugify(p.Title)
	}
	if p.Slug == "" {
		p.Slug = Slugify(p.ID)
	}

	p.Blocks = normalizeBlocks(p.Blocks)
	p.FeaturedImage = sanitizeImageSource(p.FeaturedImage)
	p.SEO.OGImage = sanitizeImageSource(p.SEO.OGImage)

	switch p.Status {
	case StatusScheduled:
		if p.ScheduledFor != nil {
			scheduledFor := p.ScheduledFor.UTC()
			publishedAt := scheduledFor
			p.ScheduledFor = &scheduledFor
			p.PublishedAt = &publishedAt
		}
	case StatusPublished:
		p.ScheduledFor = nil
		if p.PublishedAt == nil || p.PublishedAt.After(now) {
			publishedAt := now.UTC()
			p.PublishedAt = &publishedAt
		}
	case StatusDraft:
		p.PublishedAt = nil
		p.ScheduledFor = nil
	}

	applyDefaults(p)
}

// reconcile marks due scheduled posts as published in memory and queues the
// matching store update.
func (s *PostService) reconcile(now time.Time, posts ...*Post) {
	for _, p := range posts {
		if p == nil || !p.isDue(now) {
			continue
		}

		p.Status = StatusPublished
		s.r.Enqueue(p.ID)
	}
}
