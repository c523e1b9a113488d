package permission

import (
	"time"

	userDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/user"
)

type Permission struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func FromDataModel(p *userDatamodel.Permission) *Permission {
	return &Permission{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// Apply copies the fields present in dto onto row.
func (d UpdatePermissionDTO) Apply(row *userDatamodel.Permission) {
	if d.Name != nil {
		row.Name = *d.Name
	}
	if d.Description != nil {
		row.Description = *d.Description
	}
}
