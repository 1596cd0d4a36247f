package repository

import (
	"github.com/bilimdonlar/maktabtest/internal/model"
	"gorm.io/gorm"
)

type RetakeRequestRepository interface {
	FindByIDWithDetails(id uint) (*model.TestRetakeRequest, error)
	FindAll(statusFilter string) ([]model.TestRetakeRequest, error)
	FindApprovedUnused(testID, studentID uint) (*model.TestRetakeRequest, error)
}

type retakeRequestRepository struct {
	db *gorm.DB
}

func NewRetakeRequestRepository(db *gorm.DB) RetakeRequestRepository {
	return &retakeRequestRepository{db: db}
}

func (r *retakeRequestRepository) FindByIDWithDetails(id uint) (*model.TestRetakeRequest, error) {
	var req model.TestRetakeRequest
	err := r.db.
		Preload("Student").
		Preload("Test").
		Preload("PreviousAttempt").
		Preload("ApprovedBy").
		First(&req, id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *retakeRequestRepository) FindAll(statusFilter string) ([]model.TestRetakeRequest, error) {
	query := r.db.
		Preload("Student").
		Preload("Test").
		Preload("PreviousAttempt").
		Preload("ApprovedBy").
		Order("created_at DESC")
	if statusFilter != "" && statusFilter != "all" {
		query = query.Where("status = ?", statusFilter)
	}

	var requests []model.TestRetakeRequest
	err := query.Find(&requests).Error
	return requests, err
}

func (r *retakeRequestRepository) FindApprovedUnused(testID, studentID uint) (*model.TestRetakeRequest, error) {
	var req model.TestRetakeRequest
	err := r.db.
		Where("test_id = ? AND student_id = ? AND status = ? AND is_used = ?",
			testID, studentID, model.RetakeStatusApproved, false).
		Order("created_at DESC").
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}
