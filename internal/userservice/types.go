package userservice

import (
	"time"

	"github.com/sushihentaime/lumina/internal/common"
)

type Role string

type Permission string
type Permissions []Permission

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"

	PermissionWritePost Permission = "post:write"

	DefaultSessionTTL time.Duration = 24 * time.Hour
)

var (
	// AnonymousSession is attached to requests without a token.
	AnonymousSession = &Session{}
)

// AdminConfig describes the single console account.
type AdminConfig struct {
	Email    string
	Password string
	Name     string
}

type UserService struct {
	accounts map[string]*account
	c        *common.Cache
	ttl      time.Duration
	now      func() time.Time
}

type User struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	Name        string      `json:"name"`
	Role        Role        `json:"role"`
	Permissions Permissions `json:"permissions"`
}

type account struct {
	user     User
	password Password
}

type Password struct {
	Plain string `json:"-"`
	hash  []byte `json:"-"`
}

// Session is an immutable snapshot of an authenticated login. Refresh returns
// a new Session and invalidates the old token.
type Session struct {
	Token  string    `json:"token"`
	User   User      `json:"user"`
	Expiry time.Time `json:"expiry"`
}

// sessionRecord is what the cache holds under the token hash.
type sessionRecord struct {
	email  string
	expiry time.Time
}
