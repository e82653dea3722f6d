package userservice

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/sushihentaime/lumina/internal/common"
)

func TestValidateEmail(t *testing.T) {
	testCases := []struct {
		email string
		valid bool
	}{
		{email: "", valid: false},
		{email: "a", valid: false},
		{email: "a@", valid: false},
		{email: "a@b", valid: false},
		{email: "a@b.c", valid: false},
		{email: "a@b.com", valid: true},
	}

	for _, tc := range testCases {
		t.Run(tc.email, func(t *testing.T) {
			v := common.NewValidator()
			validateEmail(v, tc.email)
			assert.Equal(t, tc.valid, v.Valid(), v.Errors)
		})
	}
}

func TestValidatePassword(t *testing.T) {
	testCases := []struct {
		name     string
		password string
		valid    bool
	}{
		{name: "empty", password: "", valid: false},
		{name: "short", password: "x", valid: true},
		{name: "max", password: strings.Repeat("a", 72), valid: true},
		{name: "too long", password: strings.Repeat("a", 73), valid: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := common.NewValidator()
			validatePassword(v, tc.password)
			assert.Equal(t, tc.valid, v.Valid(), v.Errors)
		})
	}
}

func TestValidateToken(t *testing.T) {
	testCases := []struct {
		name  string
		token string
		valid bool
	}{
		{name: "empty", token: "", valid: false},
		{name: "short", token: "ABC", valid: false},
		{name: "valid", token: strings.Repeat("A", tokenLength), valid: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := common.NewValidator()
			ValidateToken(v, tc.token)
			assert.Equal(t, tc.valid, v.Valid(), v.Errors)
		})
	}
}
