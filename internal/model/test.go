package model

import (
	"time"

	"gorm.io/gorm"
)

type Test struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	Title            string         `json:"title" gorm:"not null"`
	Description      string         `json:"description,omitempty"`
	Subject          string         `json:"subject" gorm:"not null"`
	Grade            int            `json:"grade" gorm:"not null;index"` // target school grade level
	CreatedByID      uint           `json:"created_by_id" gorm:"not null;index"`
	CreatedBy        User           `json:"created_by,omitempty" gorm:"foreignKey:CreatedByID"`
	TimeLimit        int            `json:"time_limit" gorm:"not null"` // minutes
	IsActive         bool           `json:"is_active" gorm:"default:true"`
	IsPaused         bool           `json:"is_paused" gorm:"default:false"`
	PausedAt         *time.Time     `json:"paused_at,omitempty"`
	StartTime        *time.Time     `json:"start_time,omitempty"`
	EndTime          *time.Time     `json:"end_time,omitempty"`
	MaxAttempts      int            `json:"max_attempts" gorm:"default:1"`
	ShowResults      bool           `json:"show_results" gorm:"default:true"`
	ShuffleQuestions bool           `json:"shuffle_questions" gorm:"default:false"`
	Questions        []Question     `json:"questions,omitempty" gorm:"foreignKey:TestID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// TotalPoints sums the point values of the loaded questions.
func (t *Test) TotalPoints() float64 {
	var total float64
	for _, q := range t.Questions {
		total += q.Points
	}
	return total
}
