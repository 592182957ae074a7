package models

// Building groups rooms on a campus.
type Building struct {
	ID        int64  `json:"id" db:"id"`
	Name      string `json:"name" db:"name"`
	Code      string `json:"code" db:"code"`
	Address   string `json:"address,omitempty" db:"address"`
	RoomCount int    `json:"roomCount" db:"-"`
}
