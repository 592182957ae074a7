package dto

import "time"

// RoomRequest is the body of room create and update.
type RoomRequest struct {
	BuildingID int64    `json:"buildingId" binding:"required,gt=0"`
	Name       string   `json:"name" binding:"required,max=100"`
	Capacity   int      `json:"capacity" binding:"required,gt=0"`
	RoomType   string   `json:"roomType" binding:"required,room_type"`
	Floor      int      `json:"floor"`
	Equipment  []string `json:"equipment"`
}

// RoomFilterRequest are the room list query parameters.
type RoomFilterRequest struct {
	BuildingID  *int64 `form:"buildingId" binding:"omitempty,gt=0"`
	RoomType    string `form:"roomType" binding:"omitempty,room_type"`
	MinCapacity *int   `form:"minCapacity" binding:"omitempty,gt=0"`
}

// TimeWindowQuery is a required [start, end) query window.
type TimeWindowQuery struct {
	Start time.Time `form:"start" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	End   time.Time `form:"end" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
}

// RoomAvailabilityResponse answers whether a room is free for a window.
type RoomAvailabilityResponse struct {
	RoomID                int64     `json:"roomId"`
	Start                 time.Time `json:"start"`
	End                   time.Time `json:"end"`
	Available             bool      `json:"available"`
	ConflictingSessionIDs []int64   `json:"conflictingSessionIds"`
}

// RoomOccupancyResponse summarises how much of a window a room is booked.
type RoomOccupancyResponse struct {
	RoomID        int64     `json:"roomId"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	SessionCount  int       `json:"sessionCount"`
	BookedMinutes int64     `json:"bookedMinutes"`
	Ratio         float64   `json:"ratio" example:"0.42"`
}
