package repository

import (
	"github.com/bilimdonlar/maktabtest/internal/model"
	"gorm.io/gorm"
)

type TestAttemptRepository interface {
	FindByID(id uint) (*model.TestAttempt, error)
	FindByIDWithResult(id uint) (*model.TestAttempt, error)
	FindIncomplete(testID, studentID uint) (*model.TestAttempt, error)
	FindLastCompleted(testID, studentID uint) (*model.TestAttempt, error)
	CountCompletedByTest(testID uint) (int64, error)
	FindCompletedByTest(testID uint) ([]model.TestAttempt, error)
	FindCompletedByTestCreator(creatorID uint) ([]model.TestAttempt, error)
	FindAllCompleted() ([]model.TestAttempt, error)
	FindServedQuestions(attemptID uint) ([]model.AttemptQuestion, error)
}

type testAttemptRepository struct {
	db *gorm.DB
}

func NewTestAttemptRepository(db *gorm.DB) TestAttemptRepository {
	return &testAttemptRepository{db: db}
}

func (r *testAttemptRepository) FindByID(id uint) (*model.TestAttempt, error) {
	var attempt model.TestAttempt
	if err := r.db.First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *testAttemptRepository) FindByIDWithResult(id uint) (*model.TestAttempt, error) {
	var attempt model.TestAttempt
	err := r.db.
		Preload("Test").
		Preload("Student").
		Preload("Result").
		First(&attempt, id).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *testAttemptRepository) FindIncomplete(testID, studentID uint) (*model.TestAttempt, error) {
	var attempt model.TestAttempt
	err := r.db.
		Where("test_id = ? AND student_id = ? AND is_completed = ?", testID, studentID, false).
		Order("started_at DESC").
		First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *testAttemptRepository) FindLastCompleted(testID, studentID uint) (*model.TestAttempt, error) {
	var attempt model.TestAttempt
	err := r.db.
		Where("test_id = ? AND student_id = ? AND is_completed = ?", testID, studentID, true).
		Order("started_at DESC").
		First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *testAttemptRepository) CountCompletedByTest(testID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.TestAttempt{}).
		Where("test_id = ? AND is_completed = ?", testID, true).
		Count(&count).Error
	return count, err
}

func (r *testAttemptRepository) FindCompletedByTest(testID uint) ([]model.TestAttempt, error) {
	var attempts []model.TestAttempt
	err := r.db.
		Preload("Student").
		Preload("Result").
		Where("test_id = ? AND is_completed = ?", testID, true).
		Order("finished_at DESC").
		Find(&attempts).Error
	return attempts, err
}

func (r *testAttemptRepository) FindCompletedByTestCreator(creatorID uint) ([]model.TestAttempt, error) {
	var attempts []model.TestAttempt
	err := r.db.
		Preload("Student").
		Preload("Test").
		Preload("Test.CreatedBy").
		Preload("Result").
		Joins("JOIN tests ON tests.id = test_attempts.test_id").
		Where("tests.created_by_id = ? AND test_attempts.is_completed = ?", creatorID, true).
		Order("test_attempts.finished_at DESC").
		Find(&attempts).Error
	return attempts, err
}

func (r *testAttemptRepository) FindAllCompleted() ([]model.TestAttempt, error) {
	var attempts []model.TestAttempt
	err := r.db.
		Preload("Student").
		Preload("Test").
		Preload("Test.CreatedBy").
		Preload("Result").
		Where("is_completed = ?", true).
		Order("finished_at DESC").
		Find(&attempts).Error
	return attempts, err
}

func (r *testAttemptRepository) FindServedQuestions(attemptID uint) ([]model.AttemptQuestion, error) {
	var served []model.AttemptQuestion
	err := r.db.
		Preload("Question").
		Preload("Question.Choices").
		Where("attempt_id = ?", attemptID).
		Order("position ASC").
		Find(&served).Error
	return served, err
}
