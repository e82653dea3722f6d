package userservice

import (
	"github.com/sushihentaime/lumina/internal/common"
)

func validateEmail(v *common.Validator, email string) {
	v.Check(email != "", "email", "must be provided")
	v.Check(v.Matches(email, common.EmailRX), "email", "must be a valid email address")
}

func validatePassword(v *common.Validator, password string) {
	v.Check(password != "", "password", "must be provided")
	v.Check(v.CheckStringLength(password, 0, 72), "password", "must not be more than 72 characters long")
}

func ValidateToken(v *common.Validator, token string) {
	v.Check(token != "", "token", "must be provided")
	v.Check(len(token) == tokenLength, "token", "invalid token")
}
