package service

import (
	"errors"
	"fmt"

	"github.com/bilimdonlar/maktabtest/internal/apperr"
	"github.com/bilimdonlar/maktabtest/internal/dto"
	"github.com/bilimdonlar/maktabtest/internal/model"
	"github.com/bilimdonlar/maktabtest/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// RetakeService handles the retake workflow: students file requests against
// a completed attempt, staff approve or reject them, and an approved request
// is consumed when the retake attempt starts.
type RetakeService interface {
	File(testID, studentID uint, payload dto.RetakeCreateDTO) (*dto.RetakeFiledDTO, error)
	List(actorID uint, statusFilter string) (*dto.RetakeListDTO, error)
	Decide(requestID, actorID uint, payload dto.RetakeDecisionDTO) (*dto.RetakeDecidedDTO, error)
}

type retakeService struct {
	userRepo    repository.UserRepository
	testRepo    repository.TestRepository
	attemptRepo repository.TestAttemptRepository
	retakeRepo  repository.RetakeRequestRepository
	db          *gorm.DB
}

func NewRetakeService(
	userRepo repository.UserRepository,
	testRepo repository.TestRepository,
	attemptRepo repository.TestAttemptRepository,
	retakeRepo repository.RetakeRequestRepository,
	db *gorm.DB,
) RetakeService {
	return &retakeService{
		userRepo:    userRepo,
		testRepo:    testRepo,
		attemptRepo: attemptRepo,
		retakeRepo:  retakeRepo,
		db:          db,
	}
}

// File creates a pending request tied to the student's latest completed
// attempt. A second active request for the same test is rejected; a new
// request after a rejection is allowed.
func (s *retakeService) File(testID, studentID uint, payload dto.RetakeCreateDTO) (*dto.RetakeFiledDTO, error) {
	if _, err := s.userRepo.FindStudentByID(studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("student not found")
		}
		return nil, apperr.Internal("failed to load student", err)
	}

	test, err := s.testRepo.FindByID(testID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("test not found")
		}
		return nil, apperr.Internal("failed to load test", err)
	}

	lastAttempt, err := s.attemptRepo.FindLastCompleted(testID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.InvalidState("you have not completed this test yet")
		}
		return nil, apperr.Internal("failed to load attempts", err)
	}

	var request model.TestRetakeRequest
	err = s.db.Transaction(func(tx *gorm.DB) error {
		// One active request per (student, test): pending, or approved but
		// not yet consumed by a retake attempt.
		var active int64
		if err := tx.Model(&model.TestRetakeRequest{}).
			Where("test_id = ? AND student_id = ?", testID, studentID).
			Where("status = ? OR (status = ? AND is_used = ?)",
				model.RetakeStatusPending, model.RetakeStatusApproved, false).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return apperr.InvalidState("a retake request for this test is already pending or approved")
		}

		request = model.TestRetakeRequest{
			StudentID:         studentID,
			TestID:            testID,
			PreviousAttemptID: lastAttempt.ID,
			Reason:            payload.Reason,
			Status:            model.RetakeStatusPending,
		}
		return tx.Create(&request).Error
	})
	if err != nil {
		var typed *apperr.Error
		if errors.As(err, &typed) {
			return nil, typed
		}
		log.Error().Err(err).Uint("testID", testID).Uint("studentID", studentID).Msg("File retake request failed")
		return nil, apperr.Internal("failed to file retake request", err)
	}

	return &dto.RetakeFiledDTO{
		Message:   fmt.Sprintf("Retake request for %q submitted", test.Title),
		RequestID: request.ID,
	}, nil
}

func (s *retakeService) List(actorID uint, statusFilter string) (*dto.RetakeListDTO, error) {
	actor, err := s.userRepo.FindByID(actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.AccessDenied("only staff can view retake requests")
		}
		return nil, apperr.Internal("failed to load user", err)
	}
	if actor.Role != model.RoleAdmin && actor.Role != model.RoleTeacher {
		return nil, apperr.AccessDenied("only staff can view retake requests")
	}

	requests, err := s.retakeRepo.FindAll(statusFilter)
	if err != nil {
		return nil, apperr.Internal("failed to load retake requests", err)
	}

	rows := make([]dto.RetakeRequestDTO, 0, len(requests))
	for _, req := range requests {
		// Teachers only see requests against their own tests.
		if actor.Role == model.RoleTeacher && req.Test.CreatedByID != actor.ID {
			continue
		}
		rows = append(rows, buildRetakeRow(req))
	}
	return &dto.RetakeListDTO{Requests: rows, TotalCount: len(rows)}, nil
}

// Decide resolves a pending request. Only an admin or the test's author may
// decide; a request that already left the pending state is immutable.
func (s *retakeService) Decide(requestID, actorID uint, payload dto.RetakeDecisionDTO) (*dto.RetakeDecidedDTO, error) {
	actor, err := s.userRepo.FindByID(actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.AccessDenied("only staff can decide retake requests")
		}
		return nil, apperr.Internal("failed to load user", err)
	}

	request, err := s.retakeRepo.FindByIDWithDetails(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("retake request not found")
		}
		return nil, apperr.Internal("failed to load retake request", err)
	}

	if actor.Role != model.RoleAdmin &&
		!(actor.Role == model.RoleTeacher && request.Test.CreatedByID == actor.ID) {
		return nil, apperr.AccessDenied("you cannot decide requests for this test")
	}

	if request.Status != model.RetakeStatusPending {
		return nil, apperr.InvalidState("this request has already been decided")
	}

	status := model.RetakeStatusRejected
	if payload.Action == "approve" {
		status = model.RetakeStatusApproved
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.TestRetakeRequest{}).
			Where("id = ? AND status = ?", requestID, model.RetakeStatusPending).
			Updates(map[string]any{
				"status":         status,
				"admin_response": payload.AdminResponse,
				"approved_by_id": actor.ID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.InvalidState("this request has already been decided")
		}
		return nil
	})
	if err != nil {
		var typed *apperr.Error
		if errors.As(err, &typed) {
			return nil, typed
		}
		log.Error().Err(err).Uint("requestID", requestID).Msg("Decide retake request failed")
		return nil, apperr.Internal("failed to decide retake request", err)
	}

	log.Info().Uint("requestID", requestID).Uint("actorID", actorID).Str("status", status).
		Msg("Retake request decided")

	return &dto.RetakeDecidedDTO{
		Message: fmt.Sprintf("Retake request %s", status),
		Status:  status,
	}, nil
}

func buildRetakeRow(req model.TestRetakeRequest) dto.RetakeRequestDTO {
	row := dto.RetakeRequestDTO{
		ID:                req.ID,
		StudentName:       req.Student.FullName(),
		StudentUsername:   req.Student.Username,
		StudentGrade:      req.Student.Grade,
		StudentClass:      req.Student.ClassName,
		TestID:            req.TestID,
		TestTitle:         req.Test.Title,
		TestSubject:       req.Test.Subject,
		PreviousAttemptID: req.PreviousAttemptID,
		Reason:            req.Reason,
		Status:            req.Status,
		AdminResponse:     req.AdminResponse,
		IsUsed:            req.IsUsed,
		CreatedAt:         req.CreatedAt,
		UpdatedAt:         req.UpdatedAt,
	}
	if req.ApprovedBy != nil {
		name := req.ApprovedBy.FullName()
		row.ApprovedBy = &name
	}
	if req.PreviousAttempt.ID != 0 {
		row.PreviousScore = req.PreviousAttempt.Score
		row.PreviousPercentage = req.PreviousAttempt.Percentage
	}
	return row
}
