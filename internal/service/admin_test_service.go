package service

import (
	"errors"
	"time"

	"github.com/bilimdonlar/maktabtest/internal/apperr"
	"github.com/bilimdonlar/maktabtest/internal/dto"
	"github.com/bilimdonlar/maktabtest/internal/model"
	"github.com/bilimdonlar/maktabtest/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AdminTestService covers test authoring: creating, editing and listing
// tests from the teacher side.
type AdminTestService interface {
	CreateTest(actorID uint, payload dto.TestCreateDTO) (*dto.TestAdminDTO, error)
	UpdateTest(testID, actorID uint, payload dto.TestUpdateDTO) (*dto.TestAdminDTO, error)
	GetTest(testID, actorID uint) (*dto.TestAdminDTO, error)
	GetTeacherTests(actorID uint) ([]dto.TeacherTestSummaryDTO, error)
}

type adminTestService struct {
	userRepo    repository.UserRepository
	testRepo    repository.TestRepository
	attemptRepo repository.TestAttemptRepository
	db          *gorm.DB
}

func NewAdminTestService(
	userRepo repository.UserRepository,
	testRepo repository.TestRepository,
	attemptRepo repository.TestAttemptRepository,
	db *gorm.DB,
) AdminTestService {
	return &adminTestService{
		userRepo:    userRepo,
		testRepo:    testRepo,
		attemptRepo: attemptRepo,
		db:          db,
	}
}

func (s *adminTestService) CreateTest(actorID uint, payload dto.TestCreateDTO) (*dto.TestAdminDTO, error) {
	actor, err := s.requireStaff(actorID)
	if err != nil {
		return nil, err
	}

	questions := make([]model.Question, 0, len(payload.Questions))
	for i, q := range payload.Questions {
		question, err := buildQuestion(q.QuestionText, q.QuestionType, q.Points, q.Explanation, q.ImageURL, i+1)
		if err != nil {
			return nil, err
		}
		for _, c := range q.Choices {
			question.Choices = append(question.Choices, model.Choice{ChoiceText: c.Text, IsCorrect: c.IsCorrect})
		}
		if err := validateChoices(question); err != nil {
			return nil, err
		}
		questions = append(questions, *question)
	}

	maxAttempts := payload.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	showResults := true
	if payload.ShowResults != nil {
		showResults = *payload.ShowResults
	}
	if payload.StartTime != nil && payload.EndTime != nil && payload.EndTime.Before(*payload.StartTime) {
		return nil, apperr.Validation("end_time must be after start_time")
	}

	test := model.Test{
		Title:            payload.Title,
		Description:      payload.Description,
		Subject:          payload.Subject,
		Grade:            payload.Grade,
		CreatedByID:      actor.ID,
		TimeLimit:        payload.TimeLimit,
		IsActive:         true,
		MaxAttempts:      maxAttempts,
		ShowResults:      showResults,
		ShuffleQuestions: payload.ShuffleQuestions,
		StartTime:        payload.StartTime,
		EndTime:          payload.EndTime,
		Questions:        questions,
	}

	if err := s.testRepo.Create(&test); err != nil {
		log.Error().Err(err).Uint("actorID", actorID).Msg("Create test failed")
		return nil, apperr.Internal("failed to create test", err)
	}

	log.Info().Uint("testID", test.ID).Uint("actorID", actorID).Int("questions", len(test.Questions)).
		Msg("Test created")
	return buildTestAdminDTO(&test), nil
}

// UpdateTest edits metadata and question content. Questions omitted from the
// payload are removed; existing attempts keep the scores they were given.
func (s *adminTestService) UpdateTest(testID, actorID uint, payload dto.TestUpdateDTO) (*dto.TestAdminDTO, error) {
	test, err := s.loadOwnedTest(testID, actorID)
	if err != nil {
		return nil, err
	}

	applyTestPatch(test, payload)
	if test.StartTime != nil && test.EndTime != nil && test.EndTime.Before(*test.StartTime) {
		return nil, apperr.Validation("end_time must be after start_time")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Questions", "CreatedBy").Save(test).Error; err != nil {
			return err
		}
		if payload.Questions == nil {
			return nil
		}
		return reconcileQuestions(tx, test, payload.Questions)
	})
	if err != nil {
		var typed *apperr.Error
		if errors.As(err, &typed) {
			return nil, typed
		}
		log.Error().Err(err).Uint("testID", testID).Msg("Update test failed")
		return nil, apperr.Internal("failed to update test", err)
	}

	updated, err := s.testRepo.FindByIDWithQuestions(testID)
	if err != nil {
		return nil, apperr.Internal("failed to reload test", err)
	}
	return buildTestAdminDTO(updated), nil
}

func (s *adminTestService) GetTest(testID, actorID uint) (*dto.TestAdminDTO, error) {
	test, err := s.loadOwnedTest(testID, actorID)
	if err != nil {
		return nil, err
	}
	return buildTestAdminDTO(test), nil
}

func (s *adminTestService) GetTeacherTests(actorID uint) ([]dto.TeacherTestSummaryDTO, error) {
	actor, err := s.requireStaff(actorID)
	if err != nil {
		return nil, err
	}

	tests, err := s.testRepo.FindByCreator(actor.ID)
	if err != nil {
		return nil, apperr.Internal("failed to load tests", err)
	}

	rows := make([]dto.TeacherTestSummaryDTO, 0, len(tests))
	for _, t := range tests {
		attempts, err := s.attemptRepo.CountCompletedByTest(t.ID)
		if err != nil {
			return nil, apperr.Internal("failed to count attempts", err)
		}
		rows = append(rows, dto.TeacherTestSummaryDTO{
			ID:             t.ID,
			Title:          t.Title,
			Subject:        t.Subject,
			Grade:          t.Grade,
			TotalQuestions: len(t.Questions),
			IsActive:       t.IsActive,
			IsPaused:       t.IsPaused,
			AttemptCount:   attempts,
			MaxAttempts:    t.MaxAttempts,
			TimeLimit:      t.TimeLimit,
			CreatedAt:      t.CreatedAt,
		})
	}
	return rows, nil
}

func (s *adminTestService) requireStaff(actorID uint) (*model.User, error) {
	actor, err := s.userRepo.FindByID(actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.AccessDenied("only teachers and admins can manage tests")
		}
		return nil, apperr.Internal("failed to load user", err)
	}
	if actor.Role != model.RoleTeacher && actor.Role != model.RoleAdmin {
		return nil, apperr.AccessDenied("only teachers and admins can manage tests")
	}
	return actor, nil
}

func (s *adminTestService) loadOwnedTest(testID, actorID uint) (*model.Test, error) {
	actor, err := s.requireStaff(actorID)
	if err != nil {
		return nil, err
	}
	test, err := s.testRepo.FindByIDWithQuestions(testID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("test not found")
		}
		return nil, apperr.Internal("failed to load test", err)
	}
	if actor.Role != model.RoleAdmin && test.CreatedByID != actor.ID {
		return nil, apperr.AccessDenied("you can only manage your own tests")
	}
	return test, nil
}

func applyTestPatch(test *model.Test, payload dto.TestUpdateDTO) {
	if payload.Title != nil {
		test.Title = *payload.Title
	}
	if payload.Description != nil {
		test.Description = *payload.Description
	}
	if payload.Subject != nil {
		test.Subject = *payload.Subject
	}
	if payload.Grade != nil {
		test.Grade = *payload.Grade
	}
	if payload.TimeLimit != nil {
		test.TimeLimit = *payload.TimeLimit
	}
	if payload.MaxAttempts != nil {
		test.MaxAttempts = *payload.MaxAttempts
	}
	if payload.ShowResults != nil {
		test.ShowResults = *payload.ShowResults
	}
	if payload.ShuffleQuestions != nil {
		test.ShuffleQuestions = *payload.ShuffleQuestions
	}
	if payload.IsActive != nil {
		test.IsActive = *payload.IsActive
	}
	if payload.IsPaused != nil && *payload.IsPaused != test.IsPaused {
		test.IsPaused = *payload.IsPaused
		if test.IsPaused {
			now := time.Now()
			test.PausedAt = &now
		} else {
			test.PausedAt = nil
		}
	}
	if payload.StartTime != nil {
		test.StartTime = payload.StartTime
	}
	if payload.EndTime != nil {
		test.EndTime = payload.EndTime
	}
}

// reconcileQuestions makes the test's question set match the payload:
// questions carrying a known id are updated in place, new ones are created,
// and questions absent from the payload are deleted along with their choices.
func reconcileQuestions(tx *gorm.DB, test *model.Test, payload []dto.QuestionUpdateDTO) error {
	existing := make(map[uint]model.Question, len(test.Questions))
	for _, q := range test.Questions {
		existing[q.ID] = q
	}

	kept := make(map[uint]bool, len(payload))
	for i, q := range payload {
		question, err := buildQuestion(q.QuestionText, q.QuestionType, q.Points, q.Explanation, q.ImageURL, i+1)
		if err != nil {
			return err
		}
		question.TestID = test.ID
		for _, c := range q.Choices {
			choice := model.Choice{ChoiceText: c.Text, IsCorrect: c.IsCorrect}
			if c.ID != nil {
				choice.ID = *c.ID
			}
			question.Choices = append(question.Choices, choice)
		}
		if err := validateChoices(question); err != nil {
			return err
		}

		if q.ID != nil {
			if _, ok := existing[*q.ID]; !ok {
				return apperr.Validation("question %d does not belong to this test", *q.ID)
			}
			question.ID = *q.ID
			kept[*q.ID] = true
			// Replace the choice set wholesale; stale choices carry no
			// state worth preserving.
			if err := tx.Where("question_id = ?", question.ID).Delete(&model.Choice{}).Error; err != nil {
				return err
			}
			for j := range question.Choices {
				question.Choices[j].ID = 0
				question.Choices[j].QuestionID = question.ID
			}
			if err := tx.Omit("Choices").Save(question).Error; err != nil {
				return err
			}
			if len(question.Choices) > 0 {
				if err := tx.Create(&question.Choices).Error; err != nil {
					return err
				}
			}
			continue
		}

		if err := tx.Create(question).Error; err != nil {
			return err
		}
	}

	for id := range existing {
		if kept[id] {
			continue
		}
		if err := tx.Where("question_id = ?", id).Delete(&model.Choice{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&model.Question{}, id).Error; err != nil {
			return err
		}
	}
	return nil
}

func buildQuestion(text, qType string, points float64, explanation string, imageURL *string, order int) (*model.Question, error) {
	switch qType {
	case model.QuestionSingleChoice, model.QuestionMultipleChoice, model.QuestionTextAnswer:
	default:
		return nil, apperr.Validation("unknown question type %q", qType)
	}
	if points < 0 {
		return nil, apperr.Validation("question points cannot be negative")
	}
	if points == 0 {
		points = 1.0
	}
	return &model.Question{
		QuestionText: text,
		QuestionType: qType,
		Points:       points,
		Order:        order,
		Explanation:  explanation,
		ImageURL:     imageURL,
	}, nil
}

func validateChoices(q *model.Question) error {
	if q.QuestionType == model.QuestionTextAnswer {
		if len(q.Choices) > 0 {
			return apperr.Validation("text questions cannot have choices")
		}
		return nil
	}
	if len(q.Choices) < 2 {
		return apperr.Validation("choice questions need at least two choices")
	}
	correct := 0
	for _, c := range q.Choices {
		if c.IsCorrect {
			correct++
		}
	}
	if q.QuestionType == model.QuestionSingleChoice && correct != 1 {
		return apperr.Validation("single choice questions need exactly one correct choice")
	}
	if q.QuestionType == model.QuestionMultipleChoice && correct == 0 {
		return apperr.Validation("multiple choice questions need at least one correct choice")
	}
	return nil
}

func buildTestAdminDTO(test *model.Test) *dto.TestAdminDTO {
	out := &dto.TestAdminDTO{
		ID:               test.ID,
		Title:            test.Title,
		Description:      test.Description,
		Subject:          test.Subject,
		Grade:            test.Grade,
		TimeLimit:        test.TimeLimit,
		MaxAttempts:      test.MaxAttempts,
		IsActive:         test.IsActive,
		IsPaused:         test.IsPaused,
		ShowResults:      test.ShowResults,
		ShuffleQuestions: test.ShuffleQuestions,
		StartTime:        test.StartTime,
		EndTime:          test.EndTime,
		CreatedAt:        test.CreatedAt,
	}
	for _, q := range test.Questions {
		qd := dto.QuestionAdminDTO{
			ID:           q.ID,
			QuestionText: q.QuestionText,
			QuestionType: q.QuestionType,
			Points:       q.Points,
			Order:        q.Order,
			Explanation:  q.Explanation,
			ImageURL:     q.ImageURL,
		}
		for _, c := range q.Choices {
			qd.Choices = append(qd.Choices, dto.ChoiceAdminDTO{ID: c.ID, Text: c.ChoiceText, IsCorrect: c.IsCorrect})
		}
		out.Questions = append(out.Questions, qd)
	}
	return out
}
