package postservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	// ErrStoreMisconfigured marks store failures caused by permissions or a
	// missing table/column rather than connectivity.
	ErrStoreMisconfigured = errors.New("post store rejected the request, check database permissions and schema")
)

const postColumns = `id, title, slug, excerpt, featured_image, author_id, author_name, author_title,
	status, published_at, scheduled_for, blocks, seo, reading_time_minutes, tags, category,
	created_at, updated_at`

// visibleClause expects the current time as $1.
const visibleClause = `(status = 'published' OR (status = 'scheduled' AND scheduled_for <= $1))`

func newPostModel(db *sql.DB) *PostModel {
	return &PostModel{db: db}
}

// storeError wraps err with op and tags permission and schema failures.
func storeError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "42501", "42P01", "42703":
			return fmt.Errorf("%s: %w: %w", op, ErrStoreMisconfigured, err)
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// postRow mirrors a row of the posts table.
type postRow struct {
	ID                 string
	Title              string
	Slug               string
	Excerpt            string
	FeaturedImage      string
	AuthorID           string
	AuthorName         string
	AuthorTitle        string
	Status             string
	PublishedAt        sql.NullTime
	ScheduledFor       sql.NullTime
	Blocks             []byte
	SEO                []byte
	ReadingTimeMinutes int
	Tags               []string
	Category           string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func scanPostRow(s rowScanner) (*postRow, error) {
	var row postRow
	err := s.Scan(
		&row.ID,
		&row.Title,
		&row.Slug,
		&row.Excerpt,
		&row.FeaturedImage,
		&row.AuthorID,
		&row.AuthorName,
		&row.AuthorTitle,
		&row.Status,
		&row.PublishedAt,
		&row.ScheduledFor,
		&row.Blocks,
		&row.SEO,
		&row.ReadingTimeMinutes,
		pq.Array(&row.Tags),
		&row.Category,
		&row.CreatedAt,
		&row.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &row, nil
}

func newPostRow(p *Post) (*postRow, error) {
	blocks := p.Blocks
	if blocks == nil {
		blocks = []ContentBlock{}
	}
	blocksJSON, err := json.Marshal(blocks)
	if err != nil {
		return nil, fmt.Errorf("encode blocks: %w", err)
	}

	seoJSON, err := json.Marshal(p.SEO)
	if err != nil {
		return nil, fmt.Errorf("encode seo: %w", err)
	}

	row := &postRow{
		ID:                 p.ID,
		Title:              p.Title,
		Slug:               p.Slug,
		Excerpt:            p.Excerpt,
		FeaturedImage:      p.FeaturedImage,
		AuthorID:           p.AuthorID,
		AuthorName:         p.AuthorName,
		AuthorTitle:        p.AuthorTitle,
		Status:             string(p.Status),
		Blocks:             blocksJSON,
		SEO:                seoJSON,
		ReadingTimeMinutes: p.ReadingTimeMinutes,
		Tags:               p.Tags,
		Category:           p.Category,
	}

	if p.PublishedAt != nil {
		row.PublishedAt = sql.NullTime{Time: *p.PublishedAt, Valid: true}
	}
	if p.ScheduledFor != nil {
		row.ScheduledFor = sql.NullTime{Time: *p.ScheduledFor, Valid: true}
	}
	if row.Tags == nil {
		row.Tags = []string{}
	}

	return row, nil
}

// toPost converts the row to a document. Undecodable blocks or seo degrade to
// empty values.
func (r *postRow) toPost() *Post {
	p := &Post{
		ID:                 r.ID,
		Title:              r.Title,
		Slug:               r.Slug,
		Excerpt:            r.Excerpt,
		FeaturedImage:      r.FeaturedImage,
		AuthorID:           r.AuthorID,
		AuthorName:         r.AuthorName,
		AuthorTitle:        r.AuthorTitle,
		Status:             Status(r.Status),
		ReadingTimeMinutes: r.ReadingTimeMinutes,
		Tags:               r.Tags,
		Category:           r.Category,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}

	if r.PublishedAt.Valid {
		t := r.PublishedAt.Time
		p.PublishedAt = &t
	}
	if r.ScheduledFor.Valid {
		t := r.ScheduledFor.Time
		p.ScheduledFor = &t
	}

	if err := json.Unmarshal(r.Blocks, &p.Blocks); err != nil || p.Blocks == nil {
		p.Blocks = []ContentBlock{}
	}
	if err := json.Unmarshal(r.SEO, &p.SEO); err != nil {
		p.SEO = SEO{}
	}

	applyDefaults(p)

	return p
}

// applyDefaults fills the descriptive fields that must never be null.
func applyDefaults(p *Post) {
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.SEO.Keywords == nil {
		p.SEO.Keywords = []string{}
	}
	if p.Blocks == nil {
		p.Blocks = []ContentBlock{}
	}
	if p.Category == "" {
		p.Category = DefaultCategory
	}
	if p.AuthorTitle == "" {
		p.AuthorTitle = DefaultAuthorTitle
	}
}

func (m *PostModel) queryPosts(ctx context.Context, query string, args ...any) ([]*Post, error) {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := make([]*Post, 0)
	for rows.Next() {
		row, err := scanPostRow(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, row.toPost())
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}

func (m *PostModel) queryPost(ctx context.Context, query string, args ...any) (*Post, error) {
	row, err := scanPostRow(m.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return row.toPost(), nil
}

// list returns posts ordered by published_at descending. A published filter
// also matches scheduled posts that are due at now.
func (m *PostModel) list(ctx context.Context, status *Status, now time.Time) ([]*Post, error) {
	const order = `ORDER BY published_at DESC NULLS FIRST, updated_at DESC`

	var (
		posts []*Post
		err   error
	)

	switch {
	case status == nil:
		posts, err = m.queryPosts(ctx, `SELECT `+postColumns+` FROM posts `+order)
	case *status == StatusPublished:
		posts, err = m.queryPosts(ctx, `SELECT `+postColumns+` FROM posts WHERE `+visibleClause+` `+order, now)
	default:
		posts, err = m.queryPosts(ctx, `SELECT `+postColumns+` FROM posts WHERE status = $1 `+order, string(*status))
	}
	if err != nil {
		return nil, storeError("list posts", err)
	}

	return posts, nil
}

func (m *PostModel) getBySlug(ctx context.Context, slug string, now time.Time) (*Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE slug = $2 AND ` + visibleClause + `
		ORDER BY updated_at DESC
		LIMIT 1`

	p, err := m.queryPost(ctx, query, now, slug)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, err
		}
		return nil, storeError("get post by slug", err)
	}

	return p, nil
}

func (m *PostModel) getByID(ctx context.Context, id string) (*Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE id = $1`

	p, err := m.queryPost(ctx, query, id)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, err
		}
		return nil, storeError("get post by id", err)
	}

	return p, nil
}

func (m *PostModel) related(ctx context.Context, excludeID, category string, now time.Time, limit int) ([]*Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE ` + visibleClause + ` AND category = $2 AND id <> $3
		ORDER BY published_at DESC NULLS LAST
		LIMIT $4`

	posts, err := m.queryPosts(ctx, query, now, category, excludeID, limit)
	if err != nil {
		return nil, storeError("list related posts", err)
	}

	return posts, nil
}

// upsert inserts the post or overwrites every column of an existing row with
// the same id, and returns the stored row.
func (m *PostModel) upsert(ctx context.Context, p *Post) (*Post, error) {
	row, err := newPostRow(p)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO posts (id, title, slug, excerpt, featured_image, author_id, author_name, author_title,
			status, published_at, scheduled_for, blocks, seo, reading_time_minutes, tags, category)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			slug = EXCLUDED.slug,
			excerpt = EXCLUDED.excerpt,
			featured_image = EXCLUDED.featured_image,
			author_id = EXCLUDED.author_id,
			author_name = EXCLUDED.author_name,
			author_title = EXCLUDED.author_title,
			status = EXCLUDED.status,
			published_at = EXCLUDED.published_at,
			scheduled_for = EXCLUDED.scheduled_for,
			blocks = EXCLUDED.blocks,
			seo = EXCLUDED.seo,
			reading_time_minutes = EXCLUDED.reading_time_minutes,
			tags = EXCLUDED.tags,
			category = EXCLUDED.category,
			updated_at = now()
		RETURNING ` + postColumns

	args := []any{
		row.ID,
		row.Title,
		row.Slug,
		row.Excerpt,
		row.FeaturedImage,
		row.AuthorID,
		row.AuthorName,
		row.AuthorTitle,
		row.Status,
		row.PublishedAt,
		row.ScheduledFor,
		string(row.Blocks),
		string(row.SEO),
		row.ReadingTimeMinutes,
		pq.Array(row.Tags),
		row.Category,
	}

	saved, err := scanPostRow(m.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, storeError("save post", err)
	}

	return saved.toPost(), nil
}

func (m *PostModel) ping(ctx context.Context) error {
	if err := m.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping post store: %w", err)
	}
	return nil
}

// delete removes the row. Deleting an unknown id is not an error.
func (m *PostModel) delete(ctx context.Context, id string) error {
	query := `
		DELETE FROM posts
		WHERE id = $1`

	_, err := m.db.ExecContext(ctx, query, id)
	if err != nil {
		return storeError("delete post", err)
	}

	return nil
}

// markPublished flips a due scheduled row to published. It reports whether a
// row changed; a row that is already published, or was moved back to draft,
// is left alone.
func (m *PostModel) markPublished(ctx context.Context, id string, now time.Time) (bool, error) {
	query := `
		UPDATE posts
		SET status = 'published'
		WHERE id = $1 AND status = 'scheduled' AND scheduled_for <= $2`

	res, err := m.db.ExecContext(ctx, query, id, now)
	if err != nil {
		return false, storeError("mark post published", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}
