package service

import (
	"errors"
	"math"

	"github.com/bilimdonlar/maktabtest/internal/apperr"
	"github.com/bilimdonlar/maktabtest/internal/dto"
	"github.com/bilimdonlar/maktabtest/internal/model"
	"github.com/bilimdonlar/maktabtest/internal/repository"
	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

// StudentTestService serves the student-facing catalog: the tests available
// to a student's grade and the public card for a single test.
type StudentTestService interface {
	GetTestsForStudent(studentID uint) ([]dto.StudentTestSummaryDTO, error)
	GetTestInfo(testID, callerID uint) (*dto.TestInfoDTO, error)
}

type studentTestService struct {
	userRepo    repository.UserRepository
	testRepo    repository.TestRepository
	attemptRepo repository.TestAttemptRepository
	retakeRepo  repository.RetakeRequestRepository
}

func NewStudentTestService(
	userRepo repository.UserRepository,
	testRepo repository.TestRepository,
	attemptRepo repository.TestAttemptRepository,
	retakeRepo repository.RetakeRequestRepository,
) StudentTestService {
	return &studentTestService{
		userRepo:    userRepo,
		testRepo:    testRepo,
		attemptRepo: attemptRepo,
		retakeRepo:  retakeRepo,
	}
}

func (s *studentTestService) GetTestsForStudent(studentID uint) ([]dto.StudentTestSummaryDTO, error) {
	student, err := s.userRepo.FindStudentByID(studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("student not found")
		}
		return nil, apperr.Internal("failed to load student", err)
	}
	if student.Grade == nil {
		return []dto.StudentTestSummaryDTO{}, nil
	}

	tests, err := s.testRepo.FindActiveByGrade(*student.Grade)
	if err != nil {
		return nil, apperr.Internal("failed to load tests", err)
	}

	rows := make([]dto.StudentTestSummaryDTO, 0, len(tests))
	for _, t := range tests {
		var row dto.StudentTestSummaryDTO
		_ = copier.Copy(&row, &t)
		row.TotalQuestions = len(t.Questions)
		row.CreatedBy = t.CreatedBy.FullName()
		row.CanAttempt = !t.IsPaused

		attempt, err := s.attemptRepo.FindLastCompleted(t.ID, studentID)
		switch {
		case err == nil:
			row.HasAttempted = true
			if attempt.Percentage != nil {
				rounded := math.Round(*attempt.Percentage*10) / 10
				row.AttemptScore = &rounded
			}
			// an approved, unconsumed retake makes the test attemptable again
			row.CanAttempt = false
			if _, retakeErr := s.retakeRepo.FindApprovedUnused(t.ID, studentID); retakeErr == nil {
				row.CanAttempt = !t.IsPaused
			} else if !errors.Is(retakeErr, gorm.ErrRecordNotFound) {
				return nil, apperr.Internal("failed to load retake requests", retakeErr)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return nil, apperr.Internal("failed to load attempts", err)
		}

		if !row.HasAttempted {
			if _, err := s.attemptRepo.FindIncomplete(t.ID, studentID); err == nil {
				row.HasAttempted = true
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.Internal("failed to load attempts", err)
			}
		}

		rows = append(rows, row)
	}
	return rows, nil
}

// GetTestInfo returns the public test card. Students only see tests for
// their own grade; staff see any test.
func (s *studentTestService) GetTestInfo(testID, callerID uint) (*dto.TestInfoDTO, error) {
	caller, err := s.userRepo.FindByID(callerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal("failed to load user", err)
	}

	test, err := s.testRepo.FindByIDWithQuestions(testID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("test not found")
		}
		return nil, apperr.Internal("failed to load test", err)
	}

	if caller.Role == model.RoleStudent {
		if caller.Grade == nil || *caller.Grade != test.Grade {
			return nil, apperr.AccessDenied("this test is not for your grade")
		}
	}

	var info dto.TestInfoDTO
	_ = copier.Copy(&info, test)
	info.TotalQuestions = len(test.Questions)
	info.CreatedBy = test.CreatedBy.FullName()
	return &info, nil
}
