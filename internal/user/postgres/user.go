package postgres

import (
	"context"
	"errors"

	userDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/user"
	"github.com/frahmantamala/donation-management/internal/core/naming"
	"github.com/frahmantamala/donation-management/internal/user"
	"gorm.io/gorm"
)

type UserRepository struct {
	db     *gorm.DB
	emails *naming.Reconciler
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db, emails: naming.NewReconciler("email")}
}

func (r *UserRepository) Transaction(ctx context.Context, fn func(repo user.RepositoryAPI) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&UserRepository{db: tx, emails: r.emails})
	})
}

func (r *UserRepository) List(ctx context.Context) ([]*userDatamodel.User, error) {
	var rows []*userDatamodel.User
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	var row userDatamodel.User
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

type userName struct {
	UserID int64
	Name   string
}

func (r *UserRepository) Access(ctx context.Context, userIDs ...int64) (map[int64]user.Access, error) {
	out := make(map[int64]user.Access, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	db := r.db.WithContext(ctx)

	var roles []userName
	err := db.Table("role_assignments AS ra").
		Select("ra.user_id AS user_id, r.name AS name").
		Joins("JOIN roles r ON r.id = ra.role_id AND r.deleted_at IS NULL").
		Where("ra.user_id IN ? AND ra.deleted_at IS NULL", userIDs).
		Order("r.name").
		Scan(&roles).Error
	if err != nil {
		return nil, err
	}

	var permissions []userName
	err = db.Table("role_assignments AS ra").
		Distinct("ra.user_id AS user_id", "p.name AS name").
		Joins("JOIN roles r ON r.id = ra.role_id AND r.deleted_at IS NULL").
		Joins("JOIN permission_assignments pa ON pa.role_id = r.id AND pa.deleted_at IS NULL").
		Joins("JOIN permissions p ON p.id = pa.permission_id AND p.deleted_at IS NULL").
		Where("ra.user_id IN ? AND ra.deleted_at IS NULL", userIDs).
		Order("p.name").
		Scan(&permissions).Error
	if err != nil {
		return nil, err
	}

	for _, row := range roles {
		a := out[row.UserID]
		a.Roles = append(a.Roles, row.Name)
		out[row.UserID] = a
	}
	for _, row := range permissions {
		a := out[row.UserID]
		a.Permissions = append(a.Permissions, row.Name)
		out[row.UserID] = a
	}
	return out, nil
}

func (r *UserRepository) FindRoleID(ctx context.Context, name string) (int64, error) {
	var role userDatamodel.Role
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return role.ID, nil
}

func (r *UserRepository) ReserveEmail(ctx context.Context, selfID int64, email string) error {
	if selfID == 0 {
		return r.emails.FreeForCreate(r.db.WithContext(ctx), &userDatamodel.User{}, email)
	}
	return r.emails.FreeForRename(r.db.WithContext(ctx), &userDatamodel.User{}, selfID, email)
}

func (r *UserRepository) Create(ctx context.Context, u *userDatamodel.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *UserRepository) Save(ctx context.Context, u *userDatamodel.User) error {
	return r.db.WithContext(ctx).Save(u).Error
}

func (r *UserRepository) ReplaceRoles(ctx context.Context, userID int64, roleIDs ...int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("user_id = ?", userID).Delete(&userDatamodel.RoleAssignment{}).Error; err != nil {
		return err
	}
	if len(roleIDs) == 0 {
		return nil
	}

	assignments := make([]userDatamodel.RoleAssignment, 0, len(roleIDs))
	for _, id := range roleIDs {
		assignments = append(assignments, userDatamodel.RoleAssignment{UserID: userID, RoleID: id})
	}
	return db.Create(&assignments).Error
}

// Deactivate also releases the google subject so the account can be linked
// again by a later registration with the same Google identity.
func (r *UserRepository) Deactivate(ctx context.Context, u *userDatamodel.User) error {
	db := r.db.WithContext(ctx)
	err := db.Model(u).Updates(map[string]interface{}{
		"is_active": false,
		"google_id": nil,
	}).Error
	if err != nil {
		return err
	}
	return db.Delete(u).Error
}
