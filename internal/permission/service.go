package permission

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/donation-management/internal"
	userDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/user"
	"github.com/frahmantamala/donation-management/internal/core/naming"
)

type RepositoryAPI interface {
	// Transaction runs fn against a repository bound to one database transaction.
	Transaction(ctx context.Context, fn func(repo RepositoryAPI) error) error
	List(ctx context.Context) ([]*userDatamodel.Permission, error)
	// GetByID returns nil when no live permission has the id.
	GetByID(ctx context.Context, id int64) (*userDatamodel.Permission, error)
	// ReserveName frees name for the permission selfID (0 on create), renaming a
	// soft-deleted holder. Returns naming.ErrNameTaken when a live row holds it.
	ReserveName(ctx context.Context, selfID int64, name string) error
	Create(ctx context.Context, p *userDatamodel.Permission) error
	Save(ctx context.Context, p *userDatamodel.Permission) error
	Delete(ctx context.Context, p *userDatamodel.Permission) error
}

type ServiceAPI interface {
	List(ctx context.Context) ([]*Permission, error)
	Get(ctx context.Context, id int64) (*Permission, error)
	Create(ctx context.Context, dto CreatePermissionDTO) (*Permission, error)
	Update(ctx context.Context, id int64, dto UpdatePermissionDTO) (*Permission, error)
	Delete(ctx context.Context, id int64) (*Permission, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

func (s *Service) List(ctx context.Context) ([]*Permission, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, internal.NewInternalError("failed to list permissions", err)
	}
	out := make([]*Permission, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Permission, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load permission", err)
	}
	if row == nil {
		return nil, internal.ErrPermissionNotFound
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, dto CreatePermissionDTO) (*Permission, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row := &userDatamodel.Permission{Name: dto.Name, Description: dto.Description}
	err := s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		if err := repo.ReserveName(ctx, 0, row.Name); err != nil {
			return err
		}
		return repo.Create(ctx, row)
	})
	if err != nil {
		return nil, s.mapError("create", err)
	}

	s.logger.InfoContext(ctx, "permission created", "permission_id", row.ID, "name", row.Name)
	return FromDataModel(row), nil
}

func (s *Service) Update(ctx context.Context, id int64, dto UpdatePermissionDTO) (*Permission, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var row *userDatamodel.Permission
	err := s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		var err error
		row, err = repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if row == nil {
			return internal.ErrPermissionNotFound
		}
		if dto.Name != nil && *dto.Name != row.Name {
			if err := repo.ReserveName(ctx, row.ID, *dto.Name); err != nil {
				return err
			}
		}
		dto.Apply(row)
		return repo.Save(ctx, row)
	})
	if err != nil {
		return nil, s.mapError("update", err)
	}
	return FromDataModel(row), nil
}

func (s *Service) Delete(ctx context.Context, id int64) (*Permission, error) {
	var row *userDatamodel.Permission
	err := s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		var err error
		row, err = repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if row == nil {
			return internal.ErrPermissionNotFound
		}
		return repo.Delete(ctx, row)
	})
	if err != nil {
		return nil, s.mapError("delete", err)
	}

	s.logger.InfoContext(ctx, "permission deleted", "permission_id", row.ID)
	return FromDataModel(row), nil
}

func (s *Service) mapError(op string, err error) error {
	if appErr, ok := internal.IsAppError(err); ok {
		return appErr
	}
	if naming.IsConflict(err) {
		return internal.NewConflictError("Permission name already exists", internal.ErrCodeNameTaken)
	}
	return internal.NewInternalError("failed to "+op+" permission", err)
}
