package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/unitime/internal/app/models"
	"github.com/yigit/unitime/internal/db"
	"github.com/yigit/unitime/internal/pkg/apperrors"
	"github.com/yigit/unitime/internal/pkg/dberrors"
	"github.com/yigit/unitime/internal/pkg/logger"
)

// BuildingRepository handles buildings
type BuildingRepository struct {
	db db.DBTX
	sb squirrel.StatementBuilderType
}

func NewBuildingRepository(conn db.DBTX) *BuildingRepository {
	return &BuildingRepository{db: conn, sb: newBuilder()}
}

// Create inserts a building and sets its ID
func (r *BuildingRepository) Create(ctx context.Context, building *models.Building) error {
	sql, args, err := r.sb.Insert("buildings").
		Columns("name", "code", "address").
		Values(building.Name, building.Code, building.Address).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create building SQL")
		return fmt.Errorf("failed to build create building query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&building.ID); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "buildings_code_key") {
			return apperrors.ErrBuildingAlreadyExists
		}
		logger.Error().Err(err).Str("code", building.Code).Msg("Error executing create building query")
		return fmt.Errorf("error creating building: %w", err)
	}
	return nil
}

func (r *BuildingRepository) selectBuildings() squirrel.SelectBuilder {
	return r.sb.Select("b.id", "b.name", "b.code", "b.address", "COUNT(r.id)").
		From("buildings b").
		LeftJoin("rooms r ON r.building_id = b.id").
		GroupBy("b.id")
}

func scanBuilding(row pgx.Row) (*models.Building, error) {
	b := &models.Building{}
	err := row.Scan(&b.ID, &b.Name, &b.Code, &b.Address, &b.RoomCount)
	return b, err
}

// GetByID retrieves a building with its room count
func (r *BuildingRepository) GetByID(ctx context.Context, id int64) (*models.Building, error) {
	sql, args, err := r.selectBuildings().Where(squirrel.Eq{"b.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get building query: %w", err)
	}

	building, err := scanBuilding(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrBuildingNotFound
		}
		logger.Error().Err(err).Int64("buildingID", id).Msg("Error scanning building row")
		return nil, fmt.Errorf("error getting building: %w", err)
	}
	return building, nil
}

// List returns all buildings with their room counts
func (r *BuildingRepository) List(ctx context.Context) ([]*models.Building, error) {
	sql, args, err := r.selectBuildings().OrderBy("b.name ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list buildings query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list buildings query")
		return nil, fmt.Errorf("error querying buildings: %w", err)
	}
	defer rows.Close()

	buildings := []*models.Building{}
	for rows.Next() {
		b, err := scanBuilding(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning building row: %w", err)
		}
		buildings = append(buildings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating building rows: %w", err)
	}
	return buildings, nil
}
