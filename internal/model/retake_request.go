package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	RetakeStatusPending  = "pending"
	RetakeStatusApproved = "approved"
	RetakeStatusRejected = "rejected"
)

// TestRetakeRequest gates a student's re-entry into a completed test.
// At most one active request (pending, or approved and not yet used) may
// exist per (student, test, previous attempt); enforcing this in the service
// transaction rather than a unique index lets a student file again after a
// rejection.
type TestRetakeRequest struct {
	ID                uint           `gorm:"primarykey" json:"id"`
	StudentID         uint           `json:"student_id" gorm:"not null;index"`
	Student           User           `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	TestID            uint           `json:"test_id" gorm:"not null;index"`
	Test              Test           `json:"test,omitempty" gorm:"foreignKey:TestID"`
	PreviousAttemptID uint           `json:"previous_attempt_id" gorm:"not null;index"`
	PreviousAttempt   TestAttempt    `json:"previous_attempt,omitempty" gorm:"foreignKey:PreviousAttemptID"`
	Reason            string         `json:"reason" gorm:"type:text;not null"`
	Status            string         `json:"status" gorm:"default:'pending';index"` // "pending", "approved", "rejected"
	AdminResponse     string         `json:"admin_response,omitempty" gorm:"type:text"`
	ApprovedByID      *uint          `json:"approved_by_id,omitempty"`
	ApprovedBy        *User          `json:"approved_by,omitempty" gorm:"foreignKey:ApprovedByID"`
	IsUsed            bool           `json:"is_used" gorm:"default:false"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}
