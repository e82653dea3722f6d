package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/sushihentaime/lumina/internal/common"
	"github.com/sushihentaime/lumina/internal/mailservice"
	"github.com/sushihentaime/lumina/internal/postservice"
	"github.com/sushihentaime/lumina/internal/userservice"
)

const (
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "Test_1234!"
)

func (e envelope) JSON() string {
	json, err := json.MarshalIndent(e, "", "\t")
	if err != nil {
		return ""
	}

	return string(json)
}

type testServer struct {
	*httptest.Server
}

func newTestServer(t *testing.T, h http.Handler) *testServer {
	ts := httptest.NewServer(h)

	t.Cleanup(ts.Close)

	return &testServer{ts}
}

func readResponse(t *testing.T, res *http.Response) (int, http.Header, envelope) {
	defer res.Body.Close()

	responseBody, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}

	var envelope envelope
	err = json.Unmarshal(responseBody, &envelope)
	if err != nil {
		t.Fatal(err)
	}

	return res.StatusCode, res.Header, envelope
}

func testConfig(t *testing.T) *Config {
	cfg, err := loadConfig("../../.test.env")
	require.NoError(t, err)
	return cfg
}

// newTestApplication wires the application without external services. db may
// be nil for tests that never reach the post store.
func newTestApplication(t *testing.T, db *sql.DB) (*application, *mailservice.MockMessageProducer) {
	cfg := testConfig(t)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	users, err := userservice.NewUserService(userservice.AdminConfig{
		Email:    testAdminEmail,
		Password: testAdminPassword,
		Name:     "Test Admin",
	}, common.NewCache(time.Hour, time.Hour), time.Hour)
	require.NoError(t, err)

	producer := new(mailservice.MockMessageProducer)

	app := &application{
		config:         cfg,
		logger:         logger,
		userService:    users,
		contactService: mailservice.NewContactService(producer),
		limiter:        common.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, time.Minute),
	}

	if db != nil {
		app.postService = postservice.NewPostService(db, logger, postservice.Options{Categories: cfg.Categories})
		t.Cleanup(app.postService.Close)
	}

	return app, producer
}

func newTestDBApplication(t *testing.T) (*application, *sql.DB) {
	db := common.TestDB("file://../../migrations", t)
	app, producer := newTestApplication(t, db)
	producer.On("Publish", mock.Anything, mock.Anything, common.ContactSubmittedKey, common.ContactExchange).Return(nil)
	return app, db
}

func (ts *testServer) do(t *testing.T, method, path string, token *string, payload any) (int, http.Header, envelope) {
	var body io.Reader
	if payload != nil {
		jsonPayload, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewReader(jsonPayload)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != nil {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", *token))
	}

	res, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}

	return readResponse(t, res)
}

func (ts *testServer) get(t *testing.T, path string, token *string) (int, http.Header, envelope) {
	return ts.do(t, http.MethodGet, path, token, nil)
}

func (ts *testServer) post(t *testing.T, path string, payload any, token *string) (int, http.Header, envelope) {
	return ts.do(t, http.MethodPost, path, token, payload)
}

func (ts *testServer) put(t *testing.T, path string, token *string, payload any) (int, http.Header, envelope) {
	return ts.do(t, http.MethodPut, path, token, payload)
}

func (ts *testServer) delete(t *testing.T, path string, token *string) (int, http.Header, envelope) {
	return ts.do(t, http.MethodDelete, path, token, nil)
}

// login returns a session token for the test admin.
func (ts *testServer) login(t *testing.T) *string {
	status, _, body := ts.post(t, "/v1/admin/login", map[string]any{"email": testAdminEmail, "password": testAdminPassword}, nil)
	require.Equal(t, http.StatusCreated, status, body.JSON())

	session, ok := body["session"].(map[string]any)
	require.True(t, ok)

	token, ok := session["token"].(string)
	require.True(t, ok)

	return &token
}

func strptr(s string) *string {
	return &s
}
