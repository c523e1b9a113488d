package user

import (
	"github.com/frahmantamala/donation-management/internal"
	"github.com/frahmantamala/donation-management/internal/core/common/validation"
)

// bcrypt ignores input beyond 72 bytes
const maxPasswordLength = 72

type CreateUserDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

func (d CreateUserDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("email", d.Email).Required().Email().MaxLength(255)
	v.Field("password", d.Password).Required().MaxLength(maxPasswordLength)
	v.Field("name", d.Name).Required().MaxLength(255)
	v.Field("role", d.Role).Required()
	return v.Validate()
}

// UpdateUserDTO carries only the fields to change. Role, when present,
// replaces every role the user holds.
type UpdateUserDTO struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Name     *string `json:"name"`
	Role     *string `json:"role"`
}

func (d UpdateUserDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	if d.Email != nil {
		v.Field("email", *d.Email).Required().Email().MaxLength(255)
	}
	if d.Password != nil {
		v.Field("password", *d.Password).Required().MaxLength(maxPasswordLength)
	}
	if d.Name != nil {
		v.Field("name", *d.Name).Required().MaxLength(255)
	}
	if d.Role != nil {
		v.Field("role", *d.Role).Required()
	}
	return v.Validate()
}
