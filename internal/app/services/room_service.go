package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/yigit/unitime/internal/app/models"
	"github.com/yigit/unitime/internal/app/models/dto"
	"github.com/yigit/unitime/internal/app/repositories"
	"github.com/yigit/unitime/internal/app/scheduling"
	"github.com/yigit/unitime/internal/pkg/apperrors"
)

// RoomService manages buildings and rooms and answers availability questions
type RoomService interface {
	ListBuildings(ctx context.Context) ([]*models.Building, error)
	CreateBuilding(ctx context.Context, req *dto.CreateBuildingRequest) (*models.Building, error)

	ListRooms(ctx context.Context, filter *dto.RoomFilterRequest) ([]*models.Room, error)
	GetRoom(ctx context.Context, id int64) (*models.Room, error)
	CreateRoom(ctx context.Context, req *dto.RoomRequest) (*models.Room, error)
	UpdateRoom(ctx context.Context, id int64, req *dto.RoomRequest) (*models.Room, error)
	DeleteRoom(ctx context.Context, id int64) error

	CheckAvailability(ctx context.Context, id int64, window scheduling.Interval) (*dto.RoomAvailabilityResponse, error)
	GetOccupancy(ctx context.Context, id int64, window scheduling.Interval) (*dto.RoomOccupancyResponse, error)
}

// RoomStore is the room persistence the service needs.
type RoomStore interface {
	Create(ctx context.Context, room *models.Room) error
	GetByID(ctx context.Context, id int64) (*models.Room, error)
	List(ctx context.Context, f repositories.RoomFilter) ([]*models.Room, error)
	Update(ctx context.Context, room *models.Room) error
	HasUpcomingSessions(ctx context.Context, roomID int64, now time.Time) (bool, error)
	Delete(ctx context.Context, id int64) error
}

// BuildingStore is the building persistence the service needs.
type BuildingStore interface {
	Create(ctx context.Context, building *models.Building) error
	GetByID(ctx context.Context, id int64) (*models.Building, error)
	List(ctx context.Context) ([]*models.Building, error)
}

type roomServiceImpl struct {
	rooms     RoomStore
	buildings BuildingStore
	finder    scheduling.SessionFinder
	sessions  SessionReader
	now       func() time.Time
}

// NewRoomService creates a new room service. finder is the same overlap
// query the conflict validator uses.
func NewRoomService(rooms RoomStore, buildings BuildingStore, finder scheduling.SessionFinder, sessions SessionReader) RoomService {
	return &roomServiceImpl{
		rooms:     rooms,
		buildings: buildings,
		finder:    finder,
		sessions:  sessions,
		now:       time.Now,
	}
}

// ListBuildings returns every building with its room count
func (s *roomServiceImpl) ListBuildings(ctx context.Context) ([]*models.Building, error) {
	buildings, err := s.buildings.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error retrieving buildings: %w", err)
	}
	return buildings, nil
}

// CreateBuilding creates a new building
func (s *roomServiceImpl) CreateBuilding(ctx context.Context, req *dto.CreateBuildingRequest) (*models.Building, error) {
	building := &models.Building{
		Name:    strings.TrimSpace(req.Name),
		Code:    strings.ToUpper(strings.TrimSpace(req.Code)),
		Address: strings.TrimSpace(req.Address),
	}
	if building.Name == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", apperrors.ErrValidationFailed)
	}
	if !isValidCode(building.Code) {
		return nil, fmt.Errorf("%w: code must be alphanumeric", apperrors.ErrValidationFailed)
	}

	if err := s.buildings.Create(ctx, building); err != nil {
		return nil, err
	}
	return building, nil
}

func roomFromRequest(req *dto.RoomRequest) (*models.Room, error) {
	room := &models.Room{
		BuildingID: req.BuildingID,
		Name:       strings.TrimSpace(req.Name),
		Capacity:   req.Capacity,
		RoomType:   models.RoomType(req.RoomType),
		Floor:      req.Floor,
	}
	if room.Name == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", apperrors.ErrValidationFailed)
	}
	if room.Capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be positive", apperrors.ErrValidationFailed)
	}

	seen := make(map[string]bool, len(req.Equipment))
	room.Equipment = make([]string, 0, len(req.Equipment))
	for _, item := range req.Equipment {
		item = strings.TrimSpace(item)
		if item == "" || seen[strings.ToLower(item)] {
			continue
		}
		seen[strings.ToLower(item)] = true
		room.Equipment = append(room.Equipment, item)
	}
	return room, nil
}

// ListRooms returns rooms matching the filter
func (s *roomServiceImpl) ListRooms(ctx context.Context, filter *dto.RoomFilterRequest) ([]*models.Room, error) {
	f := repositories.RoomFilter{}
	if filter != nil {
		f.BuildingID = filter.BuildingID
		f.MinCapacity = filter.MinCapacity
		if filter.RoomType != "" {
			roomType := models.RoomType(filter.RoomType)
			f.RoomType = &roomType
		}
	}
	rooms, err := s.rooms.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("error retrieving rooms: %w", err)
	}
	return rooms, nil
}

// GetRoom retrieves a room by ID
func (s *roomServiceImpl) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid room ID", apperrors.ErrValidationFailed)
	}
	return s.rooms.GetByID(ctx, id)
}

// CreateRoom creates a new room
func (s *roomServiceImpl) CreateRoom(ctx context.Context, req *dto.RoomRequest) (*models.Room, error) {
	room, err := roomFromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, err
	}
	return s.rooms.GetByID(ctx, room.ID)
}

// UpdateRoom updates an existing room
func (s *roomServiceImpl) UpdateRoom(ctx context.Context, id int64, req *dto.RoomRequest) (*models.Room, error) {
	room, err := roomFromRequest(req)
	if err != nil {
		return nil, err
	}
	room.ID = id
	if err := s.rooms.Update(ctx, room); err != nil {
		return nil, err
	}
	return s.rooms.GetByID(ctx, id)
}

// DeleteRoom removes a room that no upcoming session uses
func (s *roomServiceImpl) DeleteRoom(ctx context.Context, id int64) error {
	if _, err := s.rooms.GetByID(ctx, id); err != nil {
		return err
	}

	busy, err := s.rooms.HasUpcomingSessions(ctx, id, s.now())
	if err != nil {
		return err
	}
	if busy {
		return fmt.Errorf("%w: id %d", apperrors.ErrRoomInUse, id)
	}
	return s.rooms.Delete(ctx, id)
}

// CheckAvailability reports the non-cancelled sessions holding the room
// during window.
func (s *roomServiceImpl) CheckAvailability(ctx context.Context, id int64, window scheduling.Interval) (*dto.RoomAvailabilityResponse, error) {
	if err := checkWindow("availability", window); err != nil {
		return nil, err
	}
	if _, err := s.rooms.GetByID(ctx, id); err != nil {
		return nil, err
	}

	ids, err := s.finder.FindOverlappingSessions(ctx, scheduling.SessionOverlapQuery{RoomID: &id, Interval: window})
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []int64{}
	}
	return &dto.RoomAvailabilityResponse{
		RoomID:                id,
		Start:                 window.Start,
		End:                   window.End,
		Available:             len(ids) == 0,
		ConflictingSessionIDs: ids,
	}, nil
}

// GetOccupancy sums the booked part of window. Sessions straddling a window
// edge count only inside it.
func (s *roomServiceImpl) GetOccupancy(ctx context.Context, id int64, window scheduling.Interval) (*dto.RoomOccupancyResponse, error) {
	if err := checkWindow("occupancy", window); err != nil {
		return nil, err
	}
	if _, err := s.rooms.GetByID(ctx, id); err != nil {
		return nil, err
	}

	sessions, _, err := s.sessions.List(ctx, repositories.SessionFilter{
		RoomID:           &id,
		From:             &window.Start,
		To:               &window.End,
		ExcludeCancelled: true,
	})
	if err != nil {
		return nil, err
	}

	var booked time.Duration
	for _, session := range sessions {
		iv := scheduling.Interval{Start: session.StartTime, End: session.EndTime}
		if part, ok := iv.Clip(window); ok {
			booked += part.Duration()
		}
	}

	return &dto.RoomOccupancyResponse{
		RoomID:        id,
		Start:         window.Start,
		End:           window.End,
		SessionCount:  len(sessions),
		BookedMinutes: int64(booked / time.Minute),
		Ratio:         math.Round(float64(booked)/float64(window.Duration())*10000) / 10000,
	}, nil
}
