package seed

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	appModels "github.com/yigit/unitime/internal/app/models"
	appRepos "github.com/yigit/unitime/internal/app/repositories"
	"github.com/yigit/unitime/internal/db"
	"github.com/yigit/unitime/internal/pkg/apperrors"
	"github.com/yigit/unitime/internal/pkg/auth"
)

// AdminAccount is the bootstrap administrator created on an empty database.
type AdminAccount struct {
	Email    string
	Password string
}

type defaultFaculty struct {
	name        string
	code        string
	departments []appModels.Department
}

var defaultCatalogue = []defaultFaculty{
	{
		name: "Faculty of Science and Technology",
		code: "FST",
		departments: []appModels.Department{
			{Name: "Computer Science", Code: "CS"},
			{Name: "Mathematics", Code: "MATH"},
			{Name: "Physics", Code: "PHYS"},
		},
	},
	{
		name: "Faculty of Economics and Management",
		code: "FEM",
		departments: []appModels.Department{
			{Name: "Economics", Code: "ECO"},
			{Name: "Management", Code: "MGT"},
		},
	},
}

// CreateDefaultData creates the default faculties, their departments and the
// administrator account when they don't exist yet. It keeps going after a
// failure and returns every error it met.
func CreateDefaultData(ctx context.Context, conn db.DBTX, admin AdminAccount, lgr zerolog.Logger) error {
	facultyRepo := appRepos.NewFacultyRepository(conn)
	departmentRepo := appRepos.NewDepartmentRepository(conn)
	userRepo := appRepos.NewUserRepository(conn)

	lgr.Info().Msg("Checking/Creating default data (Faculties/Departments)...")
	var finalErr error

	for _, f := range defaultCatalogue {
		facultyID, err := ensureFaculty(ctx, facultyRepo, f.name, f.code)
		if err != nil {
			lgr.Error().Err(err).Str("faculty", f.code).Msg("Error creating default faculty")
			finalErr = errors.Join(finalErr, err)
			continue
		}

		for _, d := range f.departments {
			dept := d
			dept.FacultyID = facultyID
			err := departmentRepo.Create(ctx, &dept)
			if err != nil && !errors.Is(err, apperrors.ErrDepartmentAlreadyExists) {
				lgr.Error().Err(err).Str("department", d.Code).Msg("Error creating default department")
				finalErr = errors.Join(finalErr, err)
			}
		}
	}

	if err := ensureAdmin(ctx, userRepo, admin, lgr); err != nil {
		finalErr = errors.Join(finalErr, err)
	}

	lgr.Info().Msg("Default data check/creation finished.")
	return finalErr
}

// ensureFaculty returns the id of the faculty with code, creating it first if
// needed.
func ensureFaculty(ctx context.Context, repo *appRepos.FacultyRepository, name, code string) (int64, error) {
	id, err := repo.CreateFaculty(ctx, &appModels.Faculty{Name: name, Code: code})
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, apperrors.ErrFacultyAlreadyExists) {
		return 0, err
	}

	faculties, err := repo.GetAllFaculties(ctx)
	if err != nil {
		return 0, err
	}
	for _, f := range faculties {
		if f.Code == code {
			return f.ID, nil
		}
	}
	return 0, apperrors.ErrFacultyNotFound
}

func ensureAdmin(ctx context.Context, repo *appRepos.UserRepository, admin AdminAccount, lgr zerolog.Logger) error {
	email := strings.ToLower(strings.TrimSpace(admin.Email))
	if email == "" || admin.Password == "" {
		lgr.Warn().Msg("Admin credentials not configured, skipping admin creation")
		return nil
	}

	_, err := repo.GetByEmail(ctx, email)
	if err == nil {
		lgr.Info().Msg("Admin user already exists, skipping creation")
		return nil
	}
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		lgr.Error().Err(err).Msg("Error checking if admin user exists")
		return err
	}

	lgr.Info().Str("email", email).Msg("Creating default admin user...")
	hashedPassword, err := auth.HashPassword(admin.Password)
	if err != nil {
		lgr.Error().Err(err).Msg("Error hashing admin password")
		return err
	}

	user := &appModels.User{
		Email:     email,
		Password:  hashedPassword,
		FirstName: "System",
		LastName:  "Administrator",
		RoleType:  appModels.RoleAdmin,
		IsActive:  true,
	}
	if err := repo.Create(ctx, user); err != nil {
		lgr.Error().Err(err).Msg("Error creating admin user")
		return err
	}

	lgr.Info().Int64("adminID", user.ID).Msg("Default admin user created successfully")
	return nil
}
