package models

// RoomType classifies what a room can host.
type RoomType string

const (
	RoomTypeLectureHall RoomType = "lecture_hall"
	RoomTypeClassroom   RoomType = "classroom"
	RoomTypeLab         RoomType = "lab"
	RoomTypeComputerLab RoomType = "computer_lab"
)

// Room is a bookable space.
type Room struct {
	ID         int64    `json:"id" db:"id"`
	BuildingID int64    `json:"buildingId" db:"building_id"`
	Name       string   `json:"name" db:"name"`
	Capacity   int      `json:"capacity" db:"capacity"`
	RoomType   RoomType `json:"roomType" db:"room_type"`
	Floor      int      `json:"floor" db:"floor"`
	Equipment  []string `json:"equipment" db:"equipment"`

	Building *Building `json:"building,omitempty"`
}
