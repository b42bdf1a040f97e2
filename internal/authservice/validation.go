package authservice

import (
	"regexp"

	"github.com/sushihentaime/quillpost/internal/common"
)

var EmailRX = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func validateEmail(v *common.Validator, email string) {
	v.Check(email != "", "email", "must be provided")
	v.Check(EmailRX.MatchString(email), "email", "must be a valid email address")
}

// The backend owns the password policy, so only presence and an upper bound are checked here.
func validatePassword(v *common.Validator, password string) {
	v.Check(password != "", "password", "must be provided")
	v.Check(v.CheckStringLength(password, 0, 256), "password", "must not be more than 256 characters long")
}

func validateName(v *common.Validator, name string) {
	v.Check(v.CheckStringLength(name, 0, 128), "name", "must not be more than 128 characters long")
}
