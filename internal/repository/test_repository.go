package repository

import (
	"github.com/bilimdonlar/maktabtest/internal/model"
	"gorm.io/gorm"
)

type TestRepository interface {
	Create(test *model.Test) error
	Save(test *model.Test) error
	FindByID(id uint) (*model.Test, error)
	FindByIDWithQuestions(id uint) (*model.Test, error)
	FindActiveByGrade(grade int) ([]model.Test, error)
	FindByCreator(creatorID uint) ([]model.Test, error)
}

type testRepository struct {
	db *gorm.DB
}

func NewTestRepository(db *gorm.DB) TestRepository {
	return &testRepository{db: db}
}

func (r *testRepository) Create(test *model.Test) error {
	// GORM creates the associated questions and choices in the same insert
	// when test.Questions is populated.
	return r.db.Create(test).Error
}

func (r *testRepository) Save(test *model.Test) error {
	return r.db.Save(test).Error
}

func (r *testRepository) FindByID(id uint) (*model.Test, error) {
	var test model.Test
	if err := r.db.Preload("CreatedBy").First(&test, id).Error; err != nil {
		return nil, err
	}
	return &test, nil
}

func (r *testRepository) FindByIDWithQuestions(id uint) (*model.Test, error) {
	var test model.Test
	err := r.db.
		Preload("CreatedBy").
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.order_in_test ASC")
		}).
		Preload("Questions.Choices").
		First(&test, id).Error
	if err != nil {
		return nil, err
	}
	return &test, nil
}

func (r *testRepository) FindActiveByGrade(grade int) ([]model.Test, error) {
	var tests []model.Test
	err := r.db.
		Preload("CreatedBy").
		Preload("Questions").
		Where("is_active = ? AND grade = ?", true, grade).
		Order("created_at DESC").
		Find(&tests).Error
	return tests, err
}

func (r *testRepository) FindByCreator(creatorID uint) ([]model.Test, error) {
	var tests []model.Test
	err := r.db.
		Preload("Questions").
		Where("created_by_id = ?", creatorID).
		Order("created_at DESC").
		Find(&tests).Error
	return tests, err
}
