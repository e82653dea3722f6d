package userservice

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sushihentaime/lumina/internal/common"
)

var (
	ErrAuthenticationFailure = errors.New("invalid authentication credentials")
	ErrNotFound              = errors.New("session not found")
)

// NewUserService registers the admin account described by admin. Sessions are
// kept in c and expire after ttl.
func NewUserService(admin AdminConfig, c *common.Cache, ttl time.Duration) (*UserService, error) {
	return newUserService(admin, c, ttl, time.Now)
}

func newUserService(admin AdminConfig, c *common.Cache, ttl time.Duration, now func() time.Time) (*UserService, error) {
	v := common.NewValidator()
	validateEmail(v, admin.Email)
	validatePassword(v, admin.Password)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	name := strings.TrimSpace(admin.Name)
	if name == "" {
		name = "Admin"
	}

	email := strings.ToLower(admin.Email)
	a := &account{
		user: User{
			ID:          uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+email)).String(),
			Email:       email,
			Name:        name,
			Role:        RoleAdmin,
			Permissions: rolePermissions(RoleAdmin),
		},
	}

	if err := a.password.set(admin.Password); err != nil {
		return nil, err
	}

	return &UserService{
		accounts: map[string]*account{email: a},
		c:        c,
		ttl:      ttl,
		now:      now,
	}, nil
}

// Login checks the credentials and opens a new session.
func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	v := common.NewValidator()
	validateEmail(v, email)
	validatePassword(v, password)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	a, ok := s.accounts[strings.ToLower(email)]
	if !ok {
		return nil, ErrAuthenticationFailure
	}

	ok, err := a.password.matches(password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAuthenticationFailure
	}

	return s.newSession(a)
}

// Authenticate returns the session that token belongs to.
func (s *UserService) Authenticate(ctx context.Context, token string) (*Session, error) {
	v := common.NewValidator()
	ValidateToken(v, token)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	rec, a, err := s.lookup(token)
	if err != nil {
		return nil, err
	}

	return &Session{
		Token:  token,
		User:   a.user.snapshot(),
		Expiry: rec.expiry,
	}, nil
}

// Refresh replaces the session behind token with a new one carrying a fresh
// token and expiry. The old token stops working.
func (s *UserService) Refresh(ctx context.Context, token string) (*Session, error) {
	v := common.NewValidator()
	ValidateToken(v, token)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	_, a, err := s.lookup(token)
	if err != nil {
		return nil, err
	}

	session, err := s.newSession(a)
	if err != nil {
		return nil, err
	}

	s.c.Delete(common.CacheKeySession(hashToken(token)))

	return session, nil
}

// Logout ends the session. Unknown tokens are ignored.
func (s *UserService) Logout(ctx context.Context, token string) error {
	v := common.NewValidator()
	ValidateToken(v, token)
	if !v.Valid() {
		return v.ValidationError()
	}

	s.c.Delete(common.CacheKeySession(hashToken(token)))

	return nil
}

func (s *UserService) newSession(a *account) (*Session, error) {
	plain, hash, err := newToken()
	if err != nil {
		return nil, err
	}

	expiry := s.now().Add(s.ttl)

	err = s.c.Add(common.CacheKeySession(hash), &sessionRecord{email: a.user.Email, expiry: expiry}, s.ttl)
	if err != nil {
		return nil, err
	}

	return &Session{
		Token:  plain,
		User:   a.user.snapshot(),
		Expiry: expiry,
	}, nil
}

func (s *UserService) lookup(token string) (*sessionRecord, *account, error) {
	key := common.CacheKeySession(hashToken(token))

	v, ok := s.c.Get(key)
	if !ok {
		return nil, nil, ErrNotFound
	}

	rec, ok := v.(*sessionRecord)
	if !ok || !rec.expiry.After(s.now()) {
		s.c.Delete(key)
		return nil, nil, ErrNotFound
	}

	a, ok := s.accounts[rec.email]
	if !ok {
		s.c.Delete(key)
		return nil, nil, ErrNotFound
	}

	return rec, a, nil
}

func (u User) snapshot() User {
	u.Permissions = slices.Clone(u.Permissions)
	return u
}
