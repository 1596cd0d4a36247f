package model

import (
	"time"

	"gorm.io/gorm"
)

type TestAttempt struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	TestID        uint           `json:"test_id" gorm:"not null;index"`
	Test          Test           `json:"test,omitempty" gorm:"foreignKey:TestID"`
	StudentID     uint           `json:"student_id" gorm:"not null;index"`
	Student       User           `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	StartedAt     time.Time      `json:"started_at" gorm:"autoCreateTime"`
	FinishedAt    *time.Time     `json:"finished_at,omitempty"`
	Score         *float64       `json:"score,omitempty"`
	TotalPoints   float64        `json:"total_points" gorm:"default:0"`
	Percentage    *float64       `json:"percentage,omitempty"`
	IsCompleted   bool           `json:"is_completed" gorm:"default:false;index"`
	TimeTaken     time.Duration  `json:"time_taken"` // stored as nanoseconds
	AttemptNumber int            `json:"attempt_number" gorm:"default:1"`
	IsRetake      bool           `json:"is_retake" gorm:"default:false"`
	Answers       []Answer       `json:"answers,omitempty" gorm:"foreignKey:AttemptID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Result        *TestResult    `json:"result,omitempty" gorm:"foreignKey:AttemptID"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// AttemptQuestion records one question served to an attempt, in serving order.
// Scoring uses these rows as the denominator so a sampled attempt is never
// graded against questions the student was never shown.
type AttemptQuestion struct {
	ID         uint     `gorm:"primarykey" json:"id"`
	AttemptID  uint     `json:"attempt_id" gorm:"not null;uniqueIndex:idx_attempt_question"`
	QuestionID uint     `json:"question_id" gorm:"not null;uniqueIndex:idx_attempt_question"`
	Question   Question `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
	Position   int      `json:"position" gorm:"not null"`
}
