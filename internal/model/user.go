package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

type User struct {
	ID         uint           `gorm:"primarykey" json:"id"`
	Username   string         `json:"username" gorm:"not null;uniqueIndex"`
	FirstName  string         `json:"first_name"`
	LastName   string         `json:"last_name"`
	Role       string         `json:"role" gorm:"not null;default:'student'"` // "student", "teacher", "admin"
	StudentID  *string        `json:"student_id,omitempty"`
	ClassName  *string        `json:"class_name,omitempty"`
	Grade      *int           `json:"grade,omitempty"` // school grade level, students only
	IsVerified bool           `json:"is_verified" gorm:"default:false"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// FullName falls back to the username when the profile has no name fields.
func (u *User) FullName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Username
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
