package model

import (
	"time"

	"gorm.io/gorm"
)

// TestResult is the one-to-one summary attached to a completed attempt.
// It is created exactly once at finish time and never mutated afterwards.
type TestResult struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	AttemptID        uint           `json:"attempt_id" gorm:"not null;uniqueIndex"`
	CorrectAnswers   int            `json:"correct_answers" gorm:"default:0"`
	IncorrectAnswers int            `json:"incorrect_answers" gorm:"default:0"`
	Unanswered       int            `json:"unanswered" gorm:"default:0"`
	Grade            string         `json:"grade"` // "Excellent", "Good", "Satisfactory", "Unsatisfactory"
	Feedback         string         `json:"feedback,omitempty" gorm:"type:text"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}
