package model

import (
	"time"

	"gorm.io/gorm"
)

type Answer struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	AttemptID       uint           `json:"attempt_id" gorm:"not null;uniqueIndex:idx_answer_attempt_question"`
	QuestionID      uint           `json:"question_id" gorm:"not null;uniqueIndex:idx_answer_attempt_question"`
	Question        Question       `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
	SelectedChoices []Choice       `json:"selected_choices,omitempty" gorm:"many2many:answer_choices;"`
	TextAnswer      string         `json:"text_answer,omitempty" gorm:"type:text"`
	AnsweredAt      time.Time      `json:"answered_at" gorm:"autoUpdateTime"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// SelectedChoiceIDs returns the ids of the loaded selections.
func (a *Answer) SelectedChoiceIDs() []uint {
	ids := make([]uint, 0, len(a.SelectedChoices))
	for _, c := range a.SelectedChoices {
		ids = append(ids, c.ID)
	}
	return ids
}
