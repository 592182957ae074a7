package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/unitime/internal/db"
	"github.com/yigit/unitime/internal/pkg/logger"
)

// Repositories holds all the repository instances bound to the pool.
type Repositories struct {
	UserRepository           *UserRepository
	TokenRepository          *TokenRepository
	FacultyRepository        *FacultyRepository
	DepartmentRepository     *DepartmentRepository
	ProgramRepository        *ProgramRepository
	SubjectRepository        *SubjectRepository
	BuildingRepository       *BuildingRepository
	RoomRepository           *RoomRepository
	TeacherRepository        *TeacherRepository
	SessionRepository        *SessionRepository
	UnavailabilityRepository *UnavailabilityRepository
	StatsRepository          *StatsRepository
}

// NewRepositories initializes all repositories. conn is usually the pool; a
// transaction works as well.
func NewRepositories(conn db.DBTX) *Repositories {
	return &Repositories{
		UserRepository:           NewUserRepository(conn),
		TokenRepository:          NewTokenRepository(conn),
		FacultyRepository:        NewFacultyRepository(conn),
		DepartmentRepository:     NewDepartmentRepository(conn),
		ProgramRepository:        NewProgramRepository(conn),
		SubjectRepository:        NewSubjectRepository(conn),
		BuildingRepository:       NewBuildingRepository(conn),
		RoomRepository:           NewRoomRepository(conn),
		TeacherRepository:        NewTeacherRepository(conn),
		SessionRepository:        NewSessionRepository(conn),
		UnavailabilityRepository: NewUnavailabilityRepository(conn),
		StatsRepository:          NewStatsRepository(conn),
	}
}

func newBuilder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// exists runs SELECT EXISTS(<query>).
func exists(ctx context.Context, conn db.DBTX, query squirrel.SelectBuilder, what string) (bool, error) {
	sql, args, err := query.Prefix("SELECT EXISTS (").Suffix(")").ToSql()
	if err != nil {
		logger.Error().Err(err).Str("check", what).Msg("Error building exists SQL")
		return false, fmt.Errorf("failed to build %s query: %w", what, err)
	}

	var found bool
	if err := conn.QueryRow(ctx, sql, args...).Scan(&found); err != nil {
		logger.Error().Err(err).Str("check", what).Msg("Error executing exists query")
		return false, fmt.Errorf("error checking %s: %w", what, err)
	}
	return found, nil
}

// count runs a SELECT COUNT(*) built from query.
func count(ctx context.Context, conn db.DBTX, query squirrel.SelectBuilder, what string) (int64, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		logger.Error().Err(err).Str("count", what).Msg("Error building count SQL")
		return 0, fmt.Errorf("failed to build %s count query: %w", what, err)
	}

	var total int64
	if err := conn.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		logger.Error().Err(err).Str("count", what).Msg("Error executing count query")
		return 0, fmt.Errorf("error counting %s: %w", what, err)
	}
	return total, nil
}
