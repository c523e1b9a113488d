package role

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/donation-management/internal"
	userDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/user"
	"github.com/frahmantamala/donation-management/internal/core/naming"
)

type RepositoryAPI interface {
	Transaction(ctx context.Context, fn func(repo RepositoryAPI) error) error
	List(ctx context.Context) ([]*userDatamodel.Role, error)
	// GetByID returns nil when no live role has the id.
	GetByID(ctx context.Context, id int64) (*userDatamodel.Role, error)
	// PermissionNames returns the live permission names of each role, keyed by role id.
	PermissionNames(ctx context.Context, roleIDs ...int64) (map[int64][]string, error)
	// FindPermissionIDs maps each live permission name to its id. Unknown names are absent.
	FindPermissionIDs(ctx context.Context, names []string) (map[string]int64, error)
	ReserveName(ctx context.Context, selfID int64, name string) error
	Create(ctx context.Context, r *userDatamodel.Role) error
	Save(ctx context.Context, r *userDatamodel.Role) error
	// ReplacePermissions soft-deletes the role's live assignments and assigns permissionIDs.
	ReplacePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error
	Delete(ctx context.Context, r *userDatamodel.Role) error
}

type ServiceAPI interface {
	List(ctx context.Context) ([]*Role, error)
	Get(ctx context.Context, id int64) (*Role, error)
	Create(ctx context.Context, dto CreateRoleDTO) (*Role, error)
	Update(ctx context.Context, id int64, dto UpdateRoleDTO) (*Role, error)
	Delete(ctx context.Context, id int64) (*Role, error)
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

func (s *Service) List(ctx context.Context) ([]*Role, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, internal.NewInternalError("failed to list roles", err)
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	names, err := s.repo.PermissionNames(ctx, ids...)
	if err != nil {
		return nil, internal.NewInternalError("failed to list role permissions", err)
	}

	out := make([]*Role, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row, names[row.ID]))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Role, error) {
	role, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, s.mapError("load", err)
	}
	return role, nil
}

func (s *Service) Create(ctx context.Context, dto CreateRoleDTO) (*Role, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var created *Role
	err := s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		permissionIDs, err := s.resolvePermissions(ctx, repo, dto.Permissions)
		if err != nil {
			return err
		}
		if err := repo.ReserveName(ctx, 0, dto.Name); err != nil {
			return err
		}

		row := &userDatamodel.Role{Name: dto.Name, Description: dto.Description}
		if err := repo.Create(ctx, row); err != nil {
			return err
		}
		if err := repo.ReplacePermissions(ctx, row.ID, permissionIDs); err != nil {
			return err
		}
		created, err = s.load(ctx, repo, row.ID)
		return err
	})
	if err != nil {
		return nil, s.mapError("create", err)
	}

	s.logger.InfoContext(ctx, "role created", "role_id", created.ID, "name", created.Name, "permissions", created.Permissions)
	return created, nil
}

func (s *Service) Update(ctx context.Context, id int64, dto UpdateRoleDTO) (*Role, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var updated *Role
	err := s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		row, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if row == nil {
			return internal.ErrRoleNotFound
		}

		if dto.Name != nil && *dto.Name != row.Name {
			if err := repo.ReserveName(ctx, row.ID, *dto.Name); err != nil {
				return err
			}
		}
		dto.Apply(row)
		if err := repo.Save(ctx, row); err != nil {
			return err
		}

		if dto.Permissions != nil {
			permissionIDs, err := s.resolvePermissions(ctx, repo, *dto.Permissions)
			if err != nil {
				return err
			}
			if err := repo.ReplacePermissions(ctx, row.ID, permissionIDs); err != nil {
				return err
			}
		}

		updated, err = s.load(ctx, repo, row.ID)
		return err
	})
	if err != nil {
		return nil, s.mapError("update", err)
	}
	return updated, nil
}

// Delete soft-deletes the role. Its assignments stay in place; the resolver
// ignores assignments that point at a deleted role.
func (s *Service) Delete(ctx context.Context, id int64) (*Role, error) {
	var deleted *Role
	err := s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		var err error
		deleted, err = s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		return repo.Delete(ctx, &userDatamodel.Role{ID: id})
	})
	if err != nil {
		return nil, s.mapError("delete", err)
	}

	s.logger.InfoContext(ctx, "role deleted", "role_id", id)
	return deleted, nil
}

func (s *Service) load(ctx context.Context, repo RepositoryAPI, id int64) (*Role, error) {
	row, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, internal.ErrRoleNotFound
	}
	names, err := repo.PermissionNames(ctx, row.ID)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row, names[row.ID]), nil
}

// resolvePermissions maps names to live permission ids, rejecting the whole
// request with the list of unknown names.
func (s *Service) resolvePermissions(ctx context.Context, repo RepositoryAPI, names []string) ([]int64, error) {
	found, err := repo.FindPermissionIDs(ctx, names)
	if err != nil {
		return nil, err
	}

	var invalid []string
	ids := make([]int64, 0, len(names))
	seen := make(map[int64]bool, len(names))
	for _, name := range names {
		id, ok := found[name]
		if !ok {
			invalid = append(invalid, name)
			continue
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(invalid) > 0 {
		return nil, internal.NewValidationError("Some permissions do not exist", internal.ErrCodeInvalidPermission).
			WithDetails(InvalidPermissions{InvalidPermissions: invalid})
	}
	return ids, nil
}

func (s *Service) mapError(op string, err error) error {
	if appErr, ok := internal.IsAppError(err); ok {
		return appErr
	}
	if naming.IsConflict(err) {
		return internal.NewConflictError("Role name already exists", internal.ErrCodeNameTaken)
	}
	return internal.NewInternalError("failed to "+op+" role", err)
}
