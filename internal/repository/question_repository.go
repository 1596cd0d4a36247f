package repository

import (
	"github.com/bilimdonlar/maktabtest/internal/model"
	"gorm.io/gorm"
)

type QuestionRepository interface {
	FindByIDInTest(id, testID uint) (*model.Question, error)
}

type questionRepository struct {
	db *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) FindByIDInTest(id, testID uint) (*model.Question, error) {
	var question model.Question
	err := r.db.
		Preload("Choices").
		Where("id = ? AND test_id = ?", id, testID).
		First(&question).Error
	if err != nil {
		return nil, err
	}
	return &question, nil
}
