package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/yigit/unitime/internal/app/models"
	"github.com/yigit/unitime/internal/app/models/dto"
	"github.com/yigit/unitime/internal/app/repositories"
	"github.com/yigit/unitime/internal/db"
	"github.com/yigit/unitime/internal/pkg/apperrors"
	"github.com/yigit/unitime/internal/pkg/auth"
	"github.com/yigit/unitime/internal/pkg/email"
	"github.com/yigit/unitime/internal/pkg/helpers"
)

// UserService defines the interface for admin account management
type UserService interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUsersByFilter(ctx context.Context, filter *dto.UserFilterRequest, page helpers.Page) ([]*models.User, int64, error)
	CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*models.User, error)
	DeactivateUser(ctx context.Context, actorID, id int64) error
}

// UserReader reads accounts outside a transaction.
type UserReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context, f repositories.UserFilter) ([]*models.User, int64, error)
}

// AccountStore is what an account write sees inside its transaction.
type AccountStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	CreateTeacher(ctx context.Context, teacher *models.Teacher) error
	SetUserActive(ctx context.Context, userID int64, active bool) error
	SetTeacherActive(ctx context.Context, userID int64, active bool) error
	RevokeAllUserTokens(ctx context.Context, userID int64) error
}

// AccountUnitOfWork runs fn in one transaction.
type AccountUnitOfWork interface {
	Within(ctx context.Context, fn func(ctx context.Context, store AccountStore) error) error
}

type pgAccountStore struct {
	users    *repositories.UserRepository
	teachers *repositories.TeacherRepository
	tokens   *repositories.TokenRepository
}

func (s *pgAccountStore) CreateUser(ctx context.Context, user *models.User) error {
	return s.users.Create(ctx, user)
}

func (s *pgAccountStore) CreateTeacher(ctx context.Context, teacher *models.Teacher) error {
	return s.teachers.Create(ctx, teacher)
}

func (s *pgAccountStore) SetUserActive(ctx context.Context, userID int64, active bool) error {
	return s.users.SetActive(ctx, userID, active)
}

func (s *pgAccountStore) SetTeacherActive(ctx context.Context, userID int64, active bool) error {
	return s.teachers.SetActiveByUserID(ctx, userID, active)
}

func (s *pgAccountStore) RevokeAllUserTokens(ctx context.Context, userID int64) error {
	return s.tokens.RevokeAllUserTokens(ctx, userID)
}

type pgAccountUnitOfWork struct {
	db *db.PostgresDB
}

// NewAccountUnitOfWork runs account writes in Postgres transactions.
func NewAccountUnitOfWork(database *db.PostgresDB) AccountUnitOfWork {
	return &pgAccountUnitOfWork{db: database}
}

func (u *pgAccountUnitOfWork) Within(ctx context.Context, fn func(ctx context.Context, store AccountStore) error) error {
	return u.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, &pgAccountStore{
			users:    repositories.NewUserRepository(tx),
			teachers: repositories.NewTeacherRepository(tx),
			tokens:   repositories.NewTokenRepository(tx),
		})
	})
}

// userServiceImpl implements UserService
type userServiceImpl struct {
	users    UserReader
	accounts AccountUnitOfWork
	mail     email.EmailService
	logger   zerolog.Logger
	dispatch func(func())
}

// NewUserService creates a new UserService. mail may be nil.
func NewUserService(users UserReader, accounts AccountUnitOfWork, mail email.EmailService, logger zerolog.Logger) UserService {
	return &userServiceImpl{
		users:    users,
		accounts: accounts,
		mail:     mail,
		logger:   logger,
		dispatch: func(f func()) { go f() },
	}
}

// GetUserByID retrieves a user by ID
func (s *userServiceImpl) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid user ID", apperrors.ErrValidationFailed)
	}
	return s.users.GetByID(ctx, id)
}

// GetUsersByFilter returns one page of users and the total matching filter
func (s *userServiceImpl) GetUsersByFilter(ctx context.Context, filter *dto.UserFilterRequest, page helpers.Page) ([]*models.User, int64, error) {
	f := repositories.UserFilter{Offset: page.Offset(), Limit: page.Limit()}
	if filter != nil {
		if filter.Role != "" {
			role := models.RoleType(strings.ToUpper(filter.Role))
			f.Role = &role
		}
		f.Search = filter.Search
		f.Active = filter.Active
	}

	users, total, err := s.users.List(ctx, f)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list users")
		return nil, 0, fmt.Errorf("error retrieving users: %w", err)
	}
	return users, total, nil
}

// validateAccount checks the fields each role needs.
func validateAccount(req *dto.CreateUserRequest, role models.RoleType) error {
	switch role {
	case models.RoleTeacher:
		if req.DepartmentID == nil {
			return fmt.Errorf("%w: departmentId is required for teachers", apperrors.ErrValidationFailed)
		}
		if strings.TrimSpace(req.EmployeeNumber) == "" {
			return fmt.Errorf("%w: employeeNumber is required for teachers", apperrors.ErrValidationFailed)
		}
	case models.RoleStudent:
		if req.ProgramID == nil {
			return fmt.Errorf("%w: programId is required for students", apperrors.ErrValidationFailed)
		}
	case models.RoleAdmin:
	default:
		return fmt.Errorf("%w: unknown role %q", apperrors.ErrValidationFailed, req.RoleType)
	}
	if role != models.RoleStudent && req.ProgramID != nil {
		return fmt.Errorf("%w: only students belong to a program", apperrors.ErrValidationFailed)
	}
	return nil
}

// CreateUser creates an account. A TEACHER account gets its teacher profile
// in the same transaction.
func (s *userServiceImpl) CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*models.User, error) {
	role := models.RoleType(strings.ToUpper(strings.TrimSpace(req.RoleType)))
	if err := validateAccount(req, role); err != nil {
		return nil, err
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Password:  hashed,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		RoleType:  role,
		ProgramID: req.ProgramID,
		IsActive:  true,
	}

	err = s.accounts.Within(ctx, func(ctx context.Context, store AccountStore) error {
		if err := store.CreateUser(ctx, user); err != nil {
			return err
		}
		if role != models.RoleTeacher {
			return nil
		}
		return store.CreateTeacher(ctx, &models.Teacher{
			UserID:         user.ID,
			DepartmentID:   *req.DepartmentID,
			EmployeeNumber: strings.TrimSpace(req.EmployeeNumber),
			Specialty:      strings.TrimSpace(req.Specialty),
			Grade:          strings.TrimSpace(req.Grade),
			IsActive:       true,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("userID", user.ID).Str("role", string(role)).Msg("User created")

	if s.mail != nil {
		to, name := user.Email, user.FullName()
		s.dispatch(func() {
			if err := s.mail.SendWelcomeEmail(to, name); err != nil {
				s.logger.Warn().Err(err).Str("email", to).Msg("Failed to send welcome email")
			}
		})
	}
	return user, nil
}

// DeactivateUser disables an account, its teacher profile and every refresh
// token. Admins cannot deactivate themselves.
func (s *userServiceImpl) DeactivateUser(ctx context.Context, actorID, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid user ID", apperrors.ErrValidationFailed)
	}
	if actorID == id {
		return apperrors.NewForbiddenError("you cannot deactivate your own account")
	}

	err := s.accounts.Within(ctx, func(ctx context.Context, store AccountStore) error {
		if err := store.SetUserActive(ctx, id, false); err != nil {
			return err
		}
		if err := store.SetTeacherActive(ctx, id, false); err != nil {
			return err
		}
		return store.RevokeAllUserTokens(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info().Int64("userID", id).Int64("actorID", actorID).Msg("User deactivated")
	return nil
}
