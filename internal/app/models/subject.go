package models

// Subject is a taught course unit of a program.
type Subject struct {
	ID          int64   `json:"id" db:"id"`
	ProgramID   int64   `json:"programId" db:"program_id"`
	Code        string  `json:"code" db:"code"`
	Name        string  `json:"name" db:"name"`
	Description *string `json:"description,omitempty" db:"description"`
	Credits     int     `json:"credits" db:"credits"`
	HoursTotal  int     `json:"hoursTotal" db:"hours_total"`
}
