package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/unitime/internal/app/models"
	"github.com/yigit/unitime/internal/db"
	"github.com/yigit/unitime/internal/pkg/apperrors"
	"github.com/yigit/unitime/internal/pkg/dberrors"
	"github.com/yigit/unitime/internal/pkg/logger"
)

// RoomFilter narrows room listings. Nil fields are ignored.
type RoomFilter struct {
	BuildingID  *int64
	RoomType    *models.RoomType
	MinCapacity *int
}

// RoomRepository handles rooms
type RoomRepository struct {
	db db.DBTX
	sb squirrel.StatementBuilderType
}

func NewRoomRepository(conn db.DBTX) *RoomRepository {
	return &RoomRepository{db: conn, sb: newBuilder()}
}

func mapRoomWriteError(err error, room *models.Room) error {
	switch {
	case dberrors.IsDuplicateConstraintError(err, "rooms_building_name_key"):
		return apperrors.ErrRoomAlreadyExists
	case dberrors.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: id %d", apperrors.ErrBuildingNotFound, room.BuildingID)
	}
	return nil
}

func equipmentOrEmpty(equipment []string) []string {
	if equipment == nil {
		return []string{}
	}
	return equipment
}

// Create inserts a room and sets its ID
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	sql, args, err := r.sb.Insert("rooms").
		Columns("building_id", "name", "capacity", "room_type", "floor", "equipment").
		Values(room.BuildingID, room.Name, room.Capacity, room.RoomType, room.Floor, equipmentOrEmpty(room.Equipment)).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create room SQL")
		return fmt.Errorf("failed to build create room query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&room.ID); err != nil {
		if mapped := mapRoomWriteError(err, room); mapped != nil {
			return mapped
		}
		logger.Error().Err(err).Str("name", room.Name).Msg("Error executing create room query")
		return fmt.Errorf("error creating room: %w", err)
	}
	return nil
}

func (r *RoomRepository) selectRooms() squirrel.SelectBuilder {
	return r.sb.Select("r.id", "r.building_id", "r.name", "r.capacity", "r.room_type", "r.floor", "r.equipment",
		"b.id", "b.name", "b.code", "b.address").
		From("rooms r").
		Join("buildings b ON b.id = r.building_id")
}

func scanRoom(row pgx.Row) (*models.Room, error) {
	room := &models.Room{Building: &models.Building{}}
	err := row.Scan(&room.ID, &room.BuildingID, &room.Name, &room.Capacity, &room.RoomType, &room.Floor, &room.Equipment,
		&room.Building.ID, &room.Building.Name, &room.Building.Code, &room.Building.Address)
	return room, err
}

// GetByID retrieves a room with its building
func (r *RoomRepository) GetByID(ctx context.Context, id int64) (*models.Room, error) {
	sql, args, err := r.selectRooms().Where(squirrel.Eq{"r.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get room query: %w", err)
	}

	room, err := scanRoom(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrRoomNotFound
		}
		logger.Error().Err(err).Int64("roomID", id).Msg("Error scanning room row")
		return nil, fmt.Errorf("error getting room: %w", err)
	}
	return room, nil
}

// List returns rooms matching the filter ordered by building then name
func (r *RoomRepository) List(ctx context.Context, f RoomFilter) ([]*models.Room, error) {
	q := r.selectRooms().OrderBy("b.name ASC", "r.name ASC")
	if f.BuildingID != nil {
		q = q.Where(squirrel.Eq{"r.building_id": *f.BuildingID})
	}
	if f.RoomType != nil {
		q = q.Where(squirrel.Eq{"r.room_type": *f.RoomType})
	}
	if f.MinCapacity != nil {
		q = q.Where(squirrel.GtOrEq{"r.capacity": *f.MinCapacity})
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list rooms query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list rooms query")
		return nil, fmt.Errorf("error querying rooms: %w", err)
	}
	defer rows.Close()

	rooms := []*models.Room{}
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning room row: %w", err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating room rows: %w", err)
	}
	return rooms, nil
}

// Update overwrites the editable room fields
func (r *RoomRepository) Update(ctx context.Context, room *models.Room) error {
	sql, args, err := r.sb.Update("rooms").
		SetMap(map[string]interface{}{
			"building_id": room.BuildingID,
			"name":        room.Name,
			"capacity":    room.Capacity,
			"room_type":   room.RoomType,
			"floor":       room.Floor,
			"equipment":   equipmentOrEmpty(room.Equipment),
		}).
		Where(squirrel.Eq{"id": room.ID}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building update room SQL")
		return fmt.Errorf("failed to build update room query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if mapped := mapRoomWriteError(err, room); mapped != nil {
			return mapped
		}
		logger.Error().Err(err).Int64("roomID", room.ID).Msg("Error executing update room query")
		return fmt.Errorf("error updating room: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrRoomNotFound
	}
	return nil
}

// HasUpcomingSessions reports whether a non-cancelled session in the room
// ends after now.
func (r *RoomRepository) HasUpcomingSessions(ctx context.Context, roomID int64, now time.Time) (bool, error) {
	return exists(ctx, r.db,
		r.sb.Select("1").From("sessions").
			Where(squirrel.Eq{"room_id": roomID}).
			Where(squirrel.NotEq{"status": models.StatusCancelled}).
			Where(squirrel.Gt{"end_time": now}).
			Limit(1),
		"room upcoming sessions")
}

// Delete removes a room. Rooms still referenced by any session row cannot be
// removed.
func (r *RoomRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("rooms").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete room query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: room is referenced by past sessions", apperrors.ErrRoomInUse)
		}
		logger.Error().Err(err).Int64("roomID", id).Msg("Error executing delete room query")
		return fmt.Errorf("error deleting room: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrRoomNotFound
	}
	return nil
}
