package user

import (
	"time"

	userDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/user"
)

// User is the account view returned by the user endpoints. The password hash
// never leaves the repository layer.
type User struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	IsActive    bool      `json:"isActive"`
	Roles       []string  `json:"roles"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Access is the live role and permission names of one user.
type Access struct {
	Roles       []string
	Permissions []string
}

func FromDataModel(u *userDatamodel.User, access Access) *User {
	out := &User{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		IsActive:    u.IsActive,
		Roles:       access.Roles,
		Permissions: access.Permissions,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
	if out.Roles == nil {
		out.Roles = []string{}
	}
	if out.Permissions == nil {
		out.Permissions = []string{}
	}
	return out
}
