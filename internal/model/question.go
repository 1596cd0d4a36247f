package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	QuestionSingleChoice   = "single_choice"
	QuestionMultipleChoice = "multiple_choice"
	QuestionTextAnswer     = "text_answer"
)

type Question struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	TestID       uint           `json:"test_id" gorm:"not null;index"`
	QuestionText string         `json:"question_text" gorm:"type:text;not null"`
	QuestionType string         `json:"question_type" gorm:"not null"` // "single_choice", "multiple_choice", "text_answer"
	Points       float64        `json:"points" gorm:"not null;default:1"`
	Order        int            `json:"order" gorm:"column:order_in_test;not null;default:0"`
	Explanation  string         `json:"explanation,omitempty" gorm:"type:text"`
	ImageURL     *string        `json:"image_url,omitempty"`
	Choices      []Choice       `json:"choices,omitempty" gorm:"foreignKey:QuestionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsChoiceType reports whether the question is scored against marked choices.
func (q *Question) IsChoiceType() bool {
	return q.QuestionType == QuestionSingleChoice || q.QuestionType == QuestionMultipleChoice
}

// CorrectChoice returns the first choice flagged correct, or nil.
func (q *Question) CorrectChoice() *Choice {
	for i := range q.Choices {
		if q.Choices[i].IsCorrect {
			return &q.Choices[i]
		}
	}
	return nil
}
