package user

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/donation-management/internal"
	"github.com/frahmantamala/donation-management/internal/auth"
	userDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/user"
	"github.com/frahmantamala/donation-management/internal/core/naming"
)

type RepositoryAPI interface {
	Transaction(ctx context.Context, fn func(repo RepositoryAPI) error) error
	List(ctx context.Context) ([]*userDatamodel.User, error)
	// GetByID returns nil when no live user has the id.
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	// Access returns the live roles and effective permissions of each user.
	Access(ctx context.Context, userIDs ...int64) (map[int64]Access, error)
	// FindRoleID returns 0 when no live role has the name.
	FindRoleID(ctx context.Context, name string) (int64, error)
	ReserveEmail(ctx context.Context, selfID int64, email string) error
	Create(ctx context.Context, u *userDatamodel.User) error
	Save(ctx context.Context, u *userDatamodel.User) error
	// ReplaceRoles soft-deletes the user's live role assignments and assigns roleIDs.
	ReplaceRoles(ctx context.Context, userID int64, roleIDs ...int64) error
	// Deactivate marks the user inactive and soft-deletes it.
	Deactivate(ctx context.Context, u *userDatamodel.User) error
}

type ServiceAPI interface {
	List(ctx context.Context) ([]*User, error)
	Get(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, dto CreateUserDTO) (*User, error)
	Update(ctx context.Context, id int64, dto UpdateUserDTO) (*User, error)
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	repo       RepositoryAPI
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, bcryptCost int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, bcryptCost: bcryptCost, logger: logger}
}

var errRoleMissing = internal.NewValidationFieldError("role", "Specified role does not exist", internal.ErrCodeRoleNotFound)

func (s *Service) List(ctx context.Context) ([]*User, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, internal.NewInternalError("failed to list users", err)
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	access, err := s.repo.Access(ctx, ids...)
	if err != nil {
		return nil, internal.NewInternalError("failed to resolve user access", err)
	}

	out := make([]*User, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row, access[row.ID]))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	u, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, s.mapError("load", err)
	}
	return u, nil
}

func (s *Service) Create(ctx context.Context, dto CreateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	var created *User
	err = s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		roleID, err := repo.FindRoleID(ctx, dto.Role)
		if err != nil {
			return err
		}
		if roleID == 0 {
			return errRoleMissing
		}
		if err := repo.ReserveEmail(ctx, 0, dto.Email); err != nil {
			return err
		}

		row := &userDatamodel.User{
			Email:          dto.Email,
			Name:           dto.Name,
			HashedPassword: hash,
			IsActive:       true,
		}
		if err := repo.Create(ctx, row); err != nil {
			return err
		}
		if err := repo.ReplaceRoles(ctx, row.ID, roleID); err != nil {
			return err
		}
		created, err = s.load(ctx, repo, row.ID)
		return err
	})
	if err != nil {
		return nil, s.mapError("create", err)
	}

	s.logger.InfoContext(ctx, "user created", "user_id", created.ID, "role", dto.Role)
	return created, nil
}

func (s *Service) Update(ctx context.Context, id int64, dto UpdateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var hash string
	if dto.Password != nil {
		var err error
		if hash, err = auth.HashPassword(*dto.Password, s.bcryptCost); err != nil {
			return nil, internal.NewInternalError("failed to hash password", err)
		}
	}

	var updated *User
	err := s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		row, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if row == nil {
			return internal.ErrUserNotFound
		}

		if dto.Email != nil && *dto.Email != row.Email {
			if err := repo.ReserveEmail(ctx, row.ID, *dto.Email); err != nil {
				return err
			}
			row.Email = *dto.Email
		}
		if dto.Name != nil {
			row.Name = *dto.Name
		}
		if hash != "" {
			row.HashedPassword = hash
		}
		if err := repo.Save(ctx, row); err != nil {
			return err
		}

		if dto.Role != nil {
			roleID, err := repo.FindRoleID(ctx, *dto.Role)
			if err != nil {
				return err
			}
			if roleID == 0 {
				return errRoleMissing
			}
			if err := repo.ReplaceRoles(ctx, row.ID, roleID); err != nil {
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

// Delete soft-deletes the user and marks it inactive so outstanding tokens stop resolving.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		row, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if row == nil {
			return internal.ErrUserNotFound
		}
		return repo.Deactivate(ctx, row)
	})
	if err != nil {
		return s.mapError("delete", err)
	}

	s.logger.InfoContext(ctx, "user deleted", "user_id", id)
	return nil
}

func (s *Service) load(ctx context.Context, repo RepositoryAPI, id int64) (*User, error) {
	row, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, internal.ErrUserNotFound
	}
	access, err := repo.Access(ctx, row.ID)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row, access[row.ID]), nil
}

func (s *Service) mapError(op string, err error) error {
	if appErr, ok := internal.IsAppError(err); ok {
		return appErr
	}
	if naming.IsConflict(err) {
		return internal.NewConflictError("Email already exists", internal.ErrCodeNameTaken)
	}
	return internal.NewInternalError("failed to "+op+" user", err)
}
