package postgres

import (
	"context"
	"errors"

	userDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/user"
	"github.com/frahmantamala/donation-management/internal/core/naming"
	"github.com/frahmantamala/donation-management/internal/permission"
	"gorm.io/gorm"
)

type PermissionRepository struct {
	db    *gorm.DB
	names *naming.Reconciler
}

func NewPermissionRepository(db *gorm.DB) *PermissionRepository {
	return &PermissionRepository{db: db, names: naming.NewReconciler("name")}
}

func (r *PermissionRepository) Transaction(ctx context.Context, fn func(repo permission.RepositoryAPI) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PermissionRepository{db: tx, names: r.names})
	})
}

func (r *PermissionRepository) List(ctx context.Context) ([]*userDatamodel.Permission, error) {
	var rows []*userDatamodel.Permission
	if err := r.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PermissionRepository) GetByID(ctx context.Context, id int64) (*userDatamodel.Permission, error) {
	var row userDatamodel.Permission
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *PermissionRepository) ReserveName(ctx context.Context, selfID int64, name string) error {
	if selfID == 0 {
		return r.names.FreeForCreate(r.db.WithContext(ctx), &userDatamodel.Permission{}, name)
	}
	return r.names.FreeForRename(r.db.WithContext(ctx), &userDatamodel.Permission{}, selfID, name)
}

func (r *PermissionRepository) Create(ctx context.Context, p *userDatamodel.Permission) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PermissionRepository) Save(ctx context.Context, p *userDatamodel.Permission) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *PermissionRepository) Delete(ctx context.Context, p *userDatamodel.Permission) error {
	return r.db.WithContext(ctx).Delete(p).Error
}
