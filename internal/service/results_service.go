package service

import (
	"errors"
	"time"

	"github.com/bilimdonlar/maktabtest/internal/apperr"
	"github.com/bilimdonlar/maktabtest/internal/dto"
	"github.com/bilimdonlar/maktabtest/internal/grading"
	"github.com/bilimdonlar/maktabtest/internal/model"
	"github.com/bilimdonlar/maktabtest/internal/repository"
	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

// ResultsService builds result views: the student's own breakdown, the
// author's per-test listing, and the staff-wide listing.
type ResultsService interface {
	GetAttemptResult(attemptID, callerID uint) (*dto.StudentResultDTO, error)
	GetTestResults(testID, callerID uint) (*dto.TestResultsDTO, error)
	GetAllResults(callerID uint) ([]dto.TeacherResultRowDTO, error)
}

type resultsService struct {
	userRepo    repository.UserRepository
	testRepo    repository.TestRepository
	attemptRepo repository.TestAttemptRepository
	answerRepo  repository.AnswerRepository
}

func NewResultsService(
	userRepo repository.UserRepository,
	testRepo repository.TestRepository,
	attemptRepo repository.TestAttemptRepository,
	answerRepo repository.AnswerRepository,
) ResultsService {
	return &resultsService{
		userRepo:    userRepo,
		testRepo:    testRepo,
		attemptRepo: attemptRepo,
		answerRepo:  answerRepo,
	}
}

// GetAttemptResult returns the full breakdown of a completed attempt. The
// breakdown is recomputed from the stored answers against the served set, so
// it always agrees with what was persisted at finish time.
func (s *resultsService) GetAttemptResult(attemptID, callerID uint) (*dto.StudentResultDTO, error) {
	attempt, err := s.attemptRepo.FindByIDWithResult(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("attempt not found")
		}
		return nil, apperr.Internal("failed to load attempt", err)
	}

	caller, err := s.userRepo.FindByID(callerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.AccessDenied("you cannot view this result")
		}
		return nil, apperr.Internal("failed to load user", err)
	}

	switch caller.Role {
	case model.RoleAdmin:
	case model.RoleTeacher:
		if attempt.Test.CreatedByID != caller.ID {
			return nil, apperr.AccessDenied("you cannot view results for this test")
		}
	default:
		if attempt.StudentID != caller.ID {
			return nil, apperr.AccessDenied("this attempt belongs to another student")
		}
		if !attempt.Test.ShowResults {
			return nil, apperr.AccessDenied("results are not visible for this test")
		}
	}

	if !attempt.IsCompleted {
		return nil, apperr.InvalidState("test is not completed yet")
	}

	served, err := s.attemptRepo.FindServedQuestions(attemptID)
	if err != nil {
		return nil, apperr.Internal("failed to load attempt questions", err)
	}
	questions := make([]model.Question, len(served))
	for i, sq := range served {
		questions[i] = sq.Question
	}

	answers, err := s.answerRepo.FindByAttempt(attemptID)
	if err != nil {
		return nil, apperr.Internal("failed to load answers", err)
	}

	summary := grading.Evaluate(questions, answers)
	band := grading.BandFor(summary.Percentage)
	if attempt.Result != nil && attempt.Result.Grade != "" {
		band = attempt.Result.Grade
	}

	finishedAt := time.Time{}
	if attempt.FinishedAt != nil {
		finishedAt = *attempt.FinishedAt
	}

	return &dto.StudentResultDTO{
		Student:    attempt.Student.FullName(),
		AttemptID:  attempt.ID,
		TestID:     attempt.TestID,
		TestTitle:  attempt.Test.Title,
		FinishedAt: finishedAt,
		Results:    buildResultPayload(summary, band, attempt.TimeTaken),
	}, nil
}

// GetTestResults lists completed attempts for one test, for its author or an
// admin.
func (s *resultsService) GetTestResults(testID, callerID uint) (*dto.TestResultsDTO, error) {
	test, err := s.testRepo.FindByID(testID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("test not found")
		}
		return nil, apperr.Internal("failed to load test", err)
	}

	caller, err := s.userRepo.FindByID(callerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.AccessDenied("you cannot view results for this test")
		}
		return nil, apperr.Internal("failed to load user", err)
	}
	if caller.Role != model.RoleAdmin &&
		!(caller.Role == model.RoleTeacher && test.CreatedByID == caller.ID) {
		return nil, apperr.AccessDenied("you cannot view results for this test")
	}

	attempts, err := s.attemptRepo.FindCompletedByTest(testID)
	if err != nil {
		return nil, apperr.Internal("failed to load attempts", err)
	}

	rows := make([]dto.TeacherResultRowDTO, 0, len(attempts))
	for _, attempt := range attempts {
		row := buildResultRow(attempt)
		row.TestID = test.ID
		row.TestTitle = test.Title
		row.TestSubject = test.Subject
		rows = append(rows, row)
	}

	return &dto.TestResultsDTO{
		TestID:     test.ID,
		TestTitle:  test.Title,
		TotalCount: len(rows),
		Results:    rows,
	}, nil
}

// GetAllResults lists every completed attempt an admin may see, or the
// attempts against a teacher's own tests.
func (s *resultsService) GetAllResults(callerID uint) ([]dto.TeacherResultRowDTO, error) {
	caller, err := s.userRepo.FindByID(callerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.AccessDenied("only staff can view all results")
		}
		return nil, apperr.Internal("failed to load user", err)
	}

	var attempts []model.TestAttempt
	switch caller.Role {
	case model.RoleAdmin:
		attempts, err = s.attemptRepo.FindAllCompleted()
	case model.RoleTeacher:
		attempts, err = s.attemptRepo.FindCompletedByTestCreator(caller.ID)
	default:
		return nil, apperr.AccessDenied("only staff can view all results")
	}
	if err != nil {
		return nil, apperr.Internal("failed to load attempts", err)
	}

	rows := make([]dto.TeacherResultRowDTO, 0, len(attempts))
	for _, attempt := range attempts {
		row := buildResultRow(attempt)
		row.TestID = attempt.TestID
		row.TestTitle = attempt.Test.Title
		row.TestSubject = attempt.Test.Subject
		rows = append(rows, row)
	}
	return rows, nil
}

func buildResultRow(attempt model.TestAttempt) dto.TeacherResultRowDTO {
	var student dto.StudentBriefDTO
	_ = copier.Copy(&student, &attempt.Student)

	row := dto.TeacherResultRowDTO{
		Student:       student,
		AttemptID:     attempt.ID,
		AttemptNumber: attempt.AttemptNumber,
		IsRetake:      attempt.IsRetake,
		TotalPoints:   attempt.TotalPoints,
		TimeTaken:     attempt.TimeTaken.Round(time.Second).String(),
	}
	if attempt.Score != nil {
		row.Score = *attempt.Score
	}
	if attempt.Percentage != nil {
		row.Percentage = *attempt.Percentage
		row.Grade = grading.BandFor(*attempt.Percentage)
	}
	if attempt.Result != nil {
		row.Grade = attempt.Result.Grade
		row.CorrectAnswers = attempt.Result.CorrectAnswers
		row.IncorrectAnswers = attempt.Result.IncorrectAnswers
		row.Unanswered = attempt.Result.Unanswered
	}
	if attempt.FinishedAt != nil {
		row.FinishedAt = *attempt.FinishedAt
	}
	return row
}
