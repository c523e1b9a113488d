package permission

import (
	"github.com/frahmantamala/donation-management/internal"
	"github.com/frahmantamala/donation-management/internal/core/common/validation"
)

type CreatePermissionDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (d CreatePermissionDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(100)
	v.Field("description", d.Description).MaxLength(255)
	return v.Validate()
}

// UpdatePermissionDTO carries only the fields to change. A present field is
// applied even when empty, and is validated like on create.
type UpdatePermissionDTO struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (d UpdatePermissionDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	if d.Name != nil {
		v.Field("name", *d.Name).Required().MaxLength(100)
	}
	if d.Description != nil {
		v.Field("description", *d.Description).MaxLength(255)
	}
	return v.Validate()
}

type DeletePermissionResponse struct {
	Message    string      `json:"message"`
	Permission *Permission `json:"permission"`
}
