package main

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/sushihentaime/lumina/internal/common"
	"github.com/sushihentaime/lumina/internal/postservice"
)

func seedPost(t *testing.T, app *application, p *postservice.Post) *postservice.Post {
	saved, err := app.postService.SavePost(context.Background(), p)
	require.NoError(t, err)
	return saved
}

func seedFixtures(t *testing.T, app *application) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	seedPost(t, app, &postservice.Post{ID: "published", Title: "Published", Status: postservice.StatusPublished, Category: "SEO"})
	seedPost(t, app, &postservice.Post{ID: "due", Title: "Due", Status: postservice.StatusScheduled, ScheduledFor: &past, Category: "SEO"})
	seedPost(t, app, &postservice.Post{ID: "future", Title: "Future", Status: postservice.StatusScheduled, ScheduledFor: &future, Category: "SEO"})
	seedPost(t, app, &postservice.Post{ID: "draft", Title: "Draft", Status: postservice.StatusDraft, Category: "SEO"})
}

func cleanPosts(t *testing.T, db *sql.DB) {
	t.Cleanup(func() {
		_, err := db.Exec("DELETE FROM posts")
		assert.NoError(t, err)
	})
}

func postIDs(t *testing.T, body envelope) []string {
	posts, ok := body["posts"].([]any)
	require.True(t, ok, body.JSON())

	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.(map[string]any)["id"].(string))
	}
	return ids
}

func TestHealthCheckHandler(t *testing.T) {
	app, db := newTestDBApplication(t)
	ts := newTestServer(t, app.routes())

	status, _, body := ts.get(t, "/v1/healthcheck", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, envelope{
		"status":      "available",
		"system_info": map[string]string{"environment": "test", "version": "1.0.0"},
		"post_store":  map[string]bool{"reachable": true},
		"reconciler":  map[string]int{"published": 0, "unchanged": 0, "failed": 0, "dropped": 0},
	}.JSON(), body.JSON())

	require.NoError(t, db.Close())

	status, _, body = ts.get(t, "/v1/healthcheck", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, map[string]any{"reachable": false}, body["post_store"])
}

func TestPublicPostHandlers(t *testing.T) {
	app, db := newTestDBApplication(t)
	ts := newTestServer(t, app.routes())
	cleanPosts(t, db)

	seedFixtures(t, app)

	t.Run("list", func(t *testing.T) {
		status, _, body := ts.get(t, "/v1/posts", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, []string{"published", "due"}, postIDs(t, body))

		for _, p := range body["posts"].([]any) {
			assert.Equal(t, "published", p.(map[string]any)["status"])
		}
	})

	testCases := []struct {
		name       string
		slug       string
		wantStatus int
	}{
		{name: "published", slug: "published", wantStatus: http.StatusOK},
		{name: "due scheduled", slug: "due", wantStatus: http.StatusOK},
		{name: "future scheduled", slug: "future", wantStatus: http.StatusNotFound},
		{name: "draft", slug: "draft", wantStatus: http.StatusNotFound},
		{name: "absent", slug: "missing", wantStatus: http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, _, body := ts.get(t, "/v1/posts/"+tc.slug, nil)
			assert.Equal(t, tc.wantStatus, status)

			if tc.wantStatus == http.StatusNotFound {
				assert.JSONEq(t, envelope{"error": "resource not found"}.JSON(), body.JSON())
				return
			}

			post := body["post"].(map[string]any)
			assert.Equal(t, tc.slug, post["slug"])
			assert.Equal(t, "published", post["status"])
		})
	}

	t.Run("related", func(t *testing.T) {
		status, _, body := ts.get(t, "/v1/posts/published/related", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, []string{"due"}, postIDs(t, body))

		status, _, _ = ts.get(t, "/v1/posts/draft/related", nil)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("categories", func(t *testing.T) {
		status, _, body := ts.get(t, "/v1/categories", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Len(t, body["categories"], 3)
	})

	t.Run("store unavailable", func(t *testing.T) {
		_, err := db.Exec("ALTER TABLE posts RENAME TO posts_old")
		require.NoError(t, err)
		t.Cleanup(func() {
			_, err := db.Exec("ALTER TABLE posts_old RENAME TO posts")
			assert.NoError(t, err)
		})

		status, _, body := ts.get(t, "/v1/posts", nil)
		assert.Equal(t, http.StatusServiceUnavailable, status)
		assert.JSONEq(t, envelope{"error": "content is not available right now, please try again later"}.JSON(), body.JSON())

		token := ts.login(t)
		status, _, body = ts.get(t, "/v1/admin/posts", token)
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Contains(t, body["error"], "migrations")
	})
}

func TestLoginHandler(t *testing.T) {
	app, _ := newTestApplication(t, nil)
	ts := newTestServer(t, app.routes())

	testCases := []struct {
		name       string
		payload    any
		wantStatus int
		wantBody   envelope
	}{
		{
			name:       "Valid Request",
			payload:    map[string]any{"email": testAdminEmail, "password": testAdminPassword},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "Invalid Password",
			payload:    map[string]any{"email": testAdminEmail, "password": "Test1234!"},
			wantStatus: http.StatusUnauthorized,
			wantBody:   envelope{"error": "invalid authentication credentials"},
		},
		{
			name:       "Unknown Email",
			payload:    map[string]any{"email": "someone@example.com", "password": testAdminPassword},
			wantStatus: http.StatusUnauthorized,
			wantBody:   envelope{"error": "invalid authentication credentials"},
		},
		{
			name:       "Empty Payload",
			payload:    map[string]any{},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody: envelope{"error": map[string]string{
				"email":    "must be provided",
				"password": "must be provided",
			}},
		},
		{
			name:       "Unknown Field",
			payload:    map[string]any{"username": "admin"},
			wantStatus: http.StatusBadRequest,
			wantBody:   envelope{"error": `request body contains unknown field "username"`},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, _, gotBody := ts.post(t, "/v1/admin/login", tc.payload, nil)
			assert.Equal(t, tc.wantStatus, status)
			if tc.wantBody != nil {
				assert.JSONEq(t, tc.wantBody.JSON(), gotBody.JSON())
			}
		})
	}
}

func TestSessionHandlers(t *testing.T) {
	app, _ := newTestApplication(t, nil)
	ts := newTestServer(t, app.routes())

	token := ts.login(t)

	status, _, body := ts.get(t, "/v1/admin/session", token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, testAdminEmail, body["user"].(map[string]any)["email"])

	status, _, body = ts.post(t, "/v1/admin/session/refresh", nil, token)
	require.Equal(t, http.StatusOK, status)
	refreshed := body["session"].(map[string]any)["token"].(string)
	assert.NotEqual(t, *token, refreshed)

	status, _, _ = ts.get(t, "/v1/admin/session", token)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _, _ = ts.post(t, "/v1/admin/logout", nil, &refreshed)
	assert.Equal(t, http.StatusOK, status)

	status, _, _ = ts.get(t, "/v1/admin/session", &refreshed)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _, body = ts.get(t, "/v1/admin/session", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.JSONEq(t, envelope{"error": "you must be authenticated to access this resource"}.JSON(), body.JSON())
}

func TestAdminPostHandlers(t *testing.T) {
	app, db := newTestDBApplication(t)
	ts := newTestServer(t, app.routes())
	cleanPosts(t, db)

	seedFixtures(t, app)
	token := ts.login(t)

	t.Run("requires authentication", func(t *testing.T) {
		status, _, _ := ts.get(t, "/v1/admin/posts", nil)
		assert.Equal(t, http.StatusUnauthorized, status)

		status, _, _ = ts.get(t, "/v1/admin/posts", strptr("AAAAAAAAAAAAAAAAAAAAAAAAAA"))
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("list by status", func(t *testing.T) {
		testCases := []struct {
			query      string
			wantStatus int
			wantIDs    []string
		}{
			{query: "", wantStatus: http.StatusOK, wantIDs: []string{"draft", "future", "published", "due"}},
			{query: "?status=draft", wantStatus: http.StatusOK, wantIDs: []string{"draft"}},
			{query: "?status=archived", wantStatus: http.StatusBadRequest},
		}

		for _, tc := range testCases {
			status, _, body := ts.get(t, "/v1/admin/posts"+tc.query, token)
			assert.Equal(t, tc.wantStatus, status, tc.query)
			if tc.wantIDs != nil {
				assert.Equal(t, tc.wantIDs, postIDs(t, body), tc.query)
			}
		}

		// the due post may already have been flipped by the reconciler
		status, _, body := ts.get(t, "/v1/admin/posts?status=scheduled", token)
		require.Equal(t, http.StatusOK, status)
		scheduled := postIDs(t, body)
		assert.Contains(t, scheduled, "future")
		assert.NotContains(t, scheduled, "published")
		assert.NotContains(t, scheduled, "draft")
	})

	t.Run("show draft", func(t *testing.T) {
		status, _, body := ts.get(t, "/v1/admin/posts/draft", token)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "draft", body["post"].(map[string]any)["status"])

		status, _, _ = ts.get(t, "/v1/admin/posts/missing", token)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("save", func(t *testing.T) {
		payload := map[string]any{
			"title":  "A brand new post",
			"status": "published",
			"blocks": []map[string]any{
				{"type": "paragraph", "content": strings.Repeat("word ", 250)},
				{"type": "list", "content": `["one","two"]`},
			},
		}

		status, _, body := ts.put(t, "/v1/admin/posts", token, payload)
		require.Equal(t, http.StatusOK, status, body.JSON())

		post := body["post"].(map[string]any)
		assert.Equal(t, "a-brand-new-post", post["slug"])
		assert.Equal(t, float64(2), post["readingTimeMinutes"])
		assert.Equal(t, "Test Admin", post["authorName"])
		assert.NotEmpty(t, post["authorId"])
		assert.NotEmpty(t, post["publishedAt"])

		status, _, body = ts.get(t, "/v1/posts/a-brand-new-post", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, post["id"], body["post"].(map[string]any)["id"])
	})

	t.Run("save invalid", func(t *testing.T) {
		status, _, body := ts.put(t, "/v1/admin/posts", token, map[string]any{"title": "Later", "status": "scheduled"})
		assert.Equal(t, http.StatusUnprocessableEntity, status)
		assert.JSONEq(t, envelope{"error": map[string]string{"scheduledFor": "must be provided for scheduled posts"}}.JSON(), body.JSON())
	})

	t.Run("delete", func(t *testing.T) {
		status, _, _ := ts.delete(t, "/v1/admin/posts/draft", token)
		assert.Equal(t, http.StatusOK, status)

		status, _, _ = ts.delete(t, "/v1/admin/posts/draft", token)
		assert.Equal(t, http.StatusOK, status)

		status, _, _ = ts.get(t, "/v1/admin/posts/draft", token)
		assert.Equal(t, http.StatusNotFound, status)
	})
}

func TestContactHandler(t *testing.T) {
	app, producer := newTestApplication(t, nil)
	ts := newTestServer(t, app.routes())

	producer.On("Publish", mock.Anything, mock.Anything, common.ContactSubmittedKey, common.ContactExchange).Return(nil).Once()

	testCases := []struct {
		name       string
		payload    any
		wantStatus int
		wantBody   envelope
	}{
		{
			name:       "Valid Request",
			payload:    map[string]any{"name": "Jane", "email": "jane@example.com", "message": "Hello"},
			wantStatus: http.StatusAccepted,
			wantBody:   envelope{"message": "your message has been received"},
		},
		{
			name:       "Invalid Email",
			payload:    map[string]any{"name": "Jane", "email": "jane", "message": "Hello"},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   envelope{"error": map[string]string{"email": "must be a valid email address"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, _, gotBody := ts.post(t, "/v1/contact", tc.payload, nil)
			assert.Equal(t, tc.wantStatus, status)
			assert.JSONEq(t, tc.wantBody.JSON(), gotBody.JSON())
		})
	}

	producer.AssertExpectations(t)
}
