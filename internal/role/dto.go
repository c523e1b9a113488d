package role

import (
	"github.com/frahmantamala/donation-management/internal"
	"github.com/frahmantamala/donation-management/internal/core/common/validation"
	userDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/user"
)

type CreateRoleDTO struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

func (d CreateRoleDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(100)
	v.Field("description", d.Description).MaxLength(255)
	v.Field("permissions", d.Permissions).Required()
	return v.Validate()
}

// UpdateRoleDTO carries only the fields to change. Permissions, when present,
// replaces the whole permission set.
type UpdateRoleDTO struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Permissions *[]string `json:"permissions"`
}

func (d UpdateRoleDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	if d.Name != nil {
		v.Field("name", *d.Name).Required().MaxLength(100)
	}
	if d.Description != nil {
		v.Field("description", *d.Description).MaxLength(255)
	}
	if d.Permissions != nil {
		v.Field("permissions", *d.Permissions).Required()
	}
	return v.Validate()
}

func (d UpdateRoleDTO) Apply(row *userDatamodel.Role) {
	if d.Name != nil {
		row.Name = *d.Name
	}
	if d.Description != nil {
		row.Description = *d.Description
	}
}

// InvalidPermissions is the error detail listing unknown permission names.
type InvalidPermissions struct {
	InvalidPermissions []string `json:"invalidPermissions"`
}

type DeleteRoleResponse struct {
	Message string `json:"message"`
	Role    *Role  `json:"role"`
}
