package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/donation-management/internal/auth"
	userDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/user"
	"gorm.io/gorm"
)

const roleNamesQuery = `
SELECT r.name
FROM role_assignments ra
JOIN roles r ON r.id = ra.role_id AND r.deleted_at IS NULL
WHERE ra.user_id = ? AND ra.deleted_at IS NULL
ORDER BY r.name`

// effective permissions: every live permission reachable through a live
// assignment of a live role
const permissionNamesQuery = `
SELECT DISTINCT p.name
FROM role_assignments ra
JOIN roles r ON r.id = ra.role_id AND r.deleted_at IS NULL
JOIN permission_assignments pa ON pa.role_id = r.id AND pa.deleted_at IS NULL
JOIN permissions p ON p.id = pa.permission_id AND p.deleted_at IS NULL
WHERE ra.user_id = ? AND ra.deleted_at IS NULL
ORDER BY p.name`

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindCredentials(ctx context.Context, email string) (*auth.Credentials, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &auth.Credentials{
		UserID:         u.ID,
		Email:          u.Email,
		HashedPassword: u.HashedPassword,
		IsActive:       u.IsActive,
		GoogleID:       u.GoogleID,
	}, nil
}

func (r *Repository) ResolveUser(ctx context.Context, userID int64) (*auth.User, error) {
	db := r.db.WithContext(ctx)

	var u userDatamodel.User
	err := db.Where("id = ? AND is_active = ?", userID, true).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	roles, err := r.names(db, roleNamesQuery, userID)
	if err != nil {
		return nil, err
	}
	permissions, err := r.names(db, permissionNamesQuery, userID)
	if err != nil {
		return nil, err
	}

	return &auth.User{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Roles:       roles,
		Permissions: permissions,
	}, nil
}

func (r *Repository) names(db *gorm.DB, query string, userID int64) ([]string, error) {
	names := []string{}
	if err := db.Raw(query, userID).Scan(&names).Error; err != nil {
		return nil, err
	}
	return names, nil
}

func (r *Repository) LinkGoogleID(ctx context.Context, userID int64, googleID string) error {
	return r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		Update("google_id", googleID).Error
}
