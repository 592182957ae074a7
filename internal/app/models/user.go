package models

import (
	"time"
)

// User is an account from the 'users' table.
type User struct {
	ID          int64      `json:"id" db:"id" example:"1"`
	Email       string     `json:"email" db:"email" example:"admin@unitime.app"`
	Password    string     `json:"-" db:"password"`
	FirstName   string     `json:"firstName" db:"first_name" example:"Marie"`
	LastName    string     `json:"lastName" db:"last_name" example:"Ngoma"`
	RoleType    RoleType   `json:"roleType" db:"role_type" example:"TEACHER"`
	ProgramID   *int64     `json:"programId,omitempty" db:"program_id" example:"3"` // students only
	IsActive    bool       `json:"isActive" db:"is_active" example:"true"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
