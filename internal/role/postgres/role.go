package postgres

import (
	"context"
	"errors"

	userDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/user"
	"github.com/frahmantamala/donation-management/internal/core/naming"
	"github.com/frahmantamala/donation-management/internal/role"
	"gorm.io/gorm"
)

type RoleRepository struct {
	db    *gorm.DB
	names *naming.Reconciler
}

func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db, names: naming.NewReconciler("name")}
}

func (r *RoleRepository) Transaction(ctx context.Context, fn func(repo role.RepositoryAPI) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&RoleRepository{db: tx, names: r.names})
	})
}

func (r *RoleRepository) List(ctx context.Context) ([]*userDatamodel.Role, error) {
	var rows []*userDatamodel.Role
	if err := r.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *RoleRepository) GetByID(ctx context.Context, id int64) (*userDatamodel.Role, error) {
	var row userDatamodel.Role
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

type rolePermission struct {
	RoleID int64
	Name   string
}

func (r *RoleRepository) PermissionNames(ctx context.Context, roleIDs ...int64) (map[int64][]string, error) {
	out := make(map[int64][]string, len(roleIDs))
	if len(roleIDs) == 0 {
		return out, nil
	}

	var rows []rolePermission
	err := r.db.WithContext(ctx).
		Table("permission_assignments AS pa").
		Select("pa.role_id AS role_id, p.name AS name").
		Joins("JOIN permissions p ON p.id = pa.permission_id AND p.deleted_at IS NULL").
		Where("pa.role_id IN ? AND pa.deleted_at IS NULL", roleIDs).
		Order("p.name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		out[row.RoleID] = append(out[row.RoleID], row.Name)
	}
	return out, nil
}

func (r *RoleRepository) FindPermissionIDs(ctx context.Context, names []string) (map[string]int64, error) {
	out := make(map[string]int64, len(names))
	if len(names) == 0 {
		return out, nil
	}

	var rows []userDatamodel.Permission
	if err := r.db.WithContext(ctx).Where("name IN ?", names).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.Name] = p.ID
	}
	return out, nil
}

func (r *RoleRepository) ReserveName(ctx context.Context, selfID int64, name string) error {
	if selfID == 0 {
		return r.names.FreeForCreate(r.db.WithContext(ctx), &userDatamodel.Role{}, name)
	}
	return r.names.FreeForRename(r.db.WithContext(ctx), &userDatamodel.Role{}, selfID, name)
}

func (r *RoleRepository) Create(ctx context.Context, row *userDatamodel.Role) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *RoleRepository) Save(ctx context.Context, row *userDatamodel.Role) error {
	return r.db.WithContext(ctx).Save(row).Error
}

func (r *RoleRepository) ReplacePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("role_id = ?", roleID).Delete(&userDatamodel.PermissionAssignment{}).Error; err != nil {
		return err
	}
	if len(permissionIDs) == 0 {
		return nil
	}

	assignments := make([]userDatamodel.PermissionAssignment, 0, len(permissionIDs))
	for _, id := range permissionIDs {
		assignments = append(assignments, userDatamodel.PermissionAssignment{RoleID: roleID, PermissionID: id})
	}
	return db.Create(&assignments).Error
}

func (r *RoleRepository) Delete(ctx context.Context, row *userDatamodel.Role) error {
	return r.db.WithContext(ctx).Delete(row).Error
}
