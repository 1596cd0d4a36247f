package service

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/bilimdonlar/maktabtest/internal/apperr"
	"github.com/bilimdonlar/maktabtest/internal/dto"
	"github.com/bilimdonlar/maktabtest/internal/grading"
	"github.com/bilimdonlar/maktabtest/internal/model"
	"github.com/bilimdonlar/maktabtest/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AttemptService governs the attempt lifecycle: starting (or resuming) an
// attempt, finishing it with scoring, and the admin reopen override.
type AttemptService interface {
	Start(testID, studentID uint) (*dto.StartAttemptDTO, error)
	Finish(attemptID, studentID uint) (*dto.FinishAttemptDTO, error)
	Reopen(testID, studentID, actorID uint) (*dto.ReopenDTO, error)
}

type attemptService struct {
	userRepo      repository.UserRepository
	testRepo      repository.TestRepository
	attemptRepo   repository.TestAttemptRepository
	answerRepo    repository.AnswerRepository
	questionLimit int
	db            *gorm.DB
}

func NewAttemptService(
	userRepo repository.UserRepository,
	testRepo repository.TestRepository,
	attemptRepo repository.TestAttemptRepository,
	answerRepo repository.AnswerRepository,
	questionLimit int,
	db *gorm.DB,
) AttemptService {
	return &attemptService{
		userRepo:      userRepo,
		testRepo:      testRepo,
		attemptRepo:   attemptRepo,
		answerRepo:    answerRepo,
		questionLimit: questionLimit,
		db:            db,
	}
}

// Start creates a new attempt or resumes the student's incomplete one.
// Resuming never creates a second row: at most one incomplete attempt exists
// per (student, test); a partial unique index backs this in the database.
func (s *attemptService) Start(testID, studentID uint) (*dto.StartAttemptDTO, error) {
	student, err := s.userRepo.FindStudentByID(studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("student not found")
		}
		return nil, apperr.Internal("failed to load student", err)
	}

	test, err := s.testRepo.FindByIDWithQuestions(testID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("test not found")
		}
		return nil, apperr.Internal("failed to load test", err)
	}

	if rejection := s.checkEntry(test, student); rejection != nil {
		return nil, rejection
	}

	var attempt *model.TestAttempt
	var resumed bool

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var existing model.TestAttempt
		findErr := tx.
			Where("test_id = ? AND student_id = ? AND is_completed = ?", testID, studentID, false).
			First(&existing).Error
		if findErr == nil {
			attempt = &existing
			resumed = true
			return nil
		}
		if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return findErr
		}

		var totalAttempts int64
		if err := tx.Model(&model.TestAttempt{}).
			Where("test_id = ? AND student_id = ?", testID, studentID).
			Count(&totalAttempts).Error; err != nil {
			return err
		}

		// All prior attempts are completed at this point. Attempts beyond the
		// test's ceiling need an approved, unused retake authorization, which
		// is consumed here.
		isRetake := false
		if totalAttempts > 0 && totalAttempts >= int64(test.MaxAttempts) {
			var auth model.TestRetakeRequest
			authErr := tx.
				Where("test_id = ? AND student_id = ? AND status = ? AND is_used = ?",
					testID, studentID, model.RetakeStatusApproved, false).
				Order("created_at DESC").
				First(&auth).Error
			if errors.Is(authErr, gorm.ErrRecordNotFound) {
				return apperr.InvalidState("you have already completed this test")
			}
			if authErr != nil {
				return authErr
			}
			if err := tx.Model(&auth).Update("is_used", true).Error; err != nil {
				return err
			}
			isRetake = true
		}

		fresh := model.TestAttempt{
			TestID:        testID,
			StudentID:     studentID,
			StartedAt:     time.Now(),
			AttemptNumber: int(totalAttempts) + 1,
			IsRetake:      isRetake,
		}
		if err := tx.Create(&fresh).Error; err != nil {
			return err
		}

		served := s.pickQuestions(test)
		rows := make([]model.AttemptQuestion, len(served))
		for i, q := range served {
			rows[i] = model.AttemptQuestion{AttemptID: fresh.ID, QuestionID: q.ID, Position: i + 1}
		}
		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}

		attempt = &fresh
		return nil
	})
	if err != nil {
		var typed *apperr.Error
		if errors.As(err, &typed) {
			return nil, typed
		}
		log.Error().Err(err).Uint("testID", testID).Uint("studentID", studentID).Msg("Start attempt transaction failed")
		return nil, apperr.Internal("failed to start attempt", err)
	}

	return s.buildStartResponse(test, attempt, resumed)
}

// checkEntry applies every entry precondition: active, not paused, grade
// match, scheduling window.
func (s *attemptService) checkEntry(test *model.Test, student *model.User) error {
	if !test.IsActive {
		return apperr.AccessDenied("this test is not active")
	}
	if test.IsPaused {
		return apperr.AccessDenied("this test is currently paused")
	}
	if student.Grade == nil || *student.Grade != test.Grade {
		return apperr.AccessDenied("this test is not for your grade")
	}
	now := time.Now()
	if test.StartTime != nil && now.Before(*test.StartTime) {
		return apperr.AccessDenied("this test has not started yet")
	}
	if test.EndTime != nil && now.After(*test.EndTime) {
		return apperr.AccessDenied("this test has ended")
	}
	return nil
}

// pickQuestions selects the served set: the whole bank, or a random sample
// of questionLimit when the bank is larger. Shuffling applies when the test
// asks for it; a sampled-but-unshuffled test keeps catalog order.
func (s *attemptService) pickQuestions(test *model.Test) []model.Question {
	questions := make([]model.Question, len(test.Questions))
	copy(questions, test.Questions)

	sampled := s.questionLimit > 0 && len(questions) > s.questionLimit
	if test.ShuffleQuestions || sampled {
		rand.Shuffle(len(questions), func(i, j int) {
			questions[i], questions[j] = questions[j], questions[i]
		})
	}
	if sampled {
		questions = questions[:s.questionLimit]
	}
	if !test.ShuffleQuestions {
		sort.SliceStable(questions, func(i, j int) bool {
			return questions[i].Order < questions[j].Order
		})
	}
	return questions
}

func (s *attemptService) buildStartResponse(test *model.Test, attempt *model.TestAttempt, resumed bool) (*dto.StartAttemptDTO, error) {
	served, err := s.attemptRepo.FindServedQuestions(attempt.ID)
	if err != nil {
		return nil, apperr.Internal("failed to load attempt questions", err)
	}

	// Attempts minted by the reopen override have no served set yet; build
	// and persist one on first entry.
	if len(served) == 0 {
		picked := s.pickQuestions(test)
		rows := make([]model.AttemptQuestion, len(picked))
		for i, q := range picked {
			rows[i] = model.AttemptQuestion{AttemptID: attempt.ID, QuestionID: q.ID, Position: i + 1}
		}
		if len(rows) > 0 {
			if err := s.db.Create(&rows).Error; err != nil {
				return nil, apperr.Internal("failed to persist attempt questions", err)
			}
		}
		served, err = s.attemptRepo.FindServedQuestions(attempt.ID)
		if err != nil {
			return nil, apperr.Internal("failed to load attempt questions", err)
		}
	}

	answers, err := s.answerRepo.FindByAttempt(attempt.ID)
	if err != nil {
		return nil, apperr.Internal("failed to load recorded answers", err)
	}
	answeredIDs := make([]uint, 0, len(answers))
	for _, a := range answers {
		answeredIDs = append(answeredIDs, a.QuestionID)
	}

	questions := make([]dto.ServedQuestionDTO, 0, len(served))
	for _, sq := range served {
		q := dto.ServedQuestionDTO{
			ID:           sq.Question.ID,
			QuestionText: sq.Question.QuestionText,
			QuestionType: sq.Question.QuestionType,
			Points:       sq.Question.Points,
			Position:     sq.Position,
			ImageURL:     sq.Question.ImageURL,
		}
		if sq.Question.IsChoiceType() {
			for _, c := range sq.Question.Choices {
				q.Choices = append(q.Choices, dto.ChoiceOptionDTO{ID: c.ID, Text: c.ChoiceText})
			}
		}
		questions = append(questions, q)
	}

	return &dto.StartAttemptDTO{
		AttemptID:           attempt.ID,
		AttemptNumber:       attempt.AttemptNumber,
		IsRetake:            attempt.IsRetake,
		Resumed:             resumed,
		Questions:           questions,
		AnsweredQuestionIDs: answeredIDs,
		TimeLimit:           test.TimeLimit,
		StartedAt:           attempt.StartedAt,
	}, nil
}

// Finish completes the attempt exactly once: the caller that flips the
// completed flag computes the score and creates the result; every other
// caller is rejected. The whole operation is one transaction.
func (s *attemptService) Finish(attemptID, studentID uint) (*dto.FinishAttemptDTO, error) {
	attempt, err := s.attemptRepo.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("attempt not found")
		}
		return nil, apperr.Internal("failed to load attempt", err)
	}
	if attempt.StudentID != studentID {
		return nil, apperr.AccessDenied("this attempt belongs to another student")
	}
	if attempt.IsCompleted {
		return nil, apperr.InvalidState("test already completed")
	}

	var summary grading.Summary
	var band string
	finishedAt := time.Now()
	timeTaken := finishedAt.Sub(attempt.StartedAt)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Compare-and-set on the completed flag; concurrent finishers lose.
		res := tx.Model(&model.TestAttempt{}).
			Where("id = ? AND is_completed = ?", attemptID, false).
			Updates(map[string]any{
				"is_completed": true,
				"finished_at":  finishedAt,
				"time_taken":   timeTaken,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.InvalidState("test already completed")
		}

		questions, err := s.servedOrAllQuestions(tx, attempt)
		if err != nil {
			return err
		}

		var answers []model.Answer
		if err := tx.Preload("SelectedChoices").
			Where("attempt_id = ?", attemptID).
			Find(&answers).Error; err != nil {
			return err
		}

		summary = grading.Evaluate(questions, answers)
		band = grading.BandFor(summary.Percentage)

		if err := tx.Model(&model.TestAttempt{}).
			Where("id = ?", attemptID).
			Updates(map[string]any{
				"score":        summary.Score,
				"total_points": summary.TotalPoints,
				"percentage":   summary.Percentage,
			}).Error; err != nil {
			return err
		}

		result := model.TestResult{
			AttemptID:      attemptID,
			CorrectAnswers: summary.CorrectCount,
			// Ungraded text answers are folded into the incorrect count of
			// the stored result; the summary still reports them separately.
			IncorrectAnswers: summary.IncorrectCount + summary.UngradedCount,
			Unanswered:       summary.UnansweredCount,
			Grade:            band,
		}
		return tx.Create(&result).Error
	})
	if err != nil {
		var typed *apperr.Error
		if errors.As(err, &typed) {
			return nil, typed
		}
		log.Error().Err(err).Uint("attemptID", attemptID).Msg("Finish attempt transaction failed")
		return nil, apperr.Internal("failed to finish attempt", err)
	}

	message := fmt.Sprintf("Test finished. %d of %d questions answered.", summary.AnsweredCount, summary.TotalQuestions)
	if summary.AllAnswered {
		message = fmt.Sprintf("Well done! You answered all %d questions.", summary.TotalQuestions)
	}

	return &dto.FinishAttemptDTO{
		Message: message,
		Results: buildResultPayload(summary, band, timeTaken),
	}, nil
}

// servedOrAllQuestions returns the attempt's persisted served set, falling
// back to the full question bank for attempts that never recorded one.
func (s *attemptService) servedOrAllQuestions(tx *gorm.DB, attempt *model.TestAttempt) ([]model.Question, error) {
	var served []model.AttemptQuestion
	if err := tx.
		Preload("Question").
		Preload("Question.Choices").
		Where("attempt_id = ?", attempt.ID).
		Order("position ASC").
		Find(&served).Error; err != nil {
		return nil, err
	}
	if len(served) > 0 {
		questions := make([]model.Question, len(served))
		for i, sq := range served {
			questions[i] = sq.Question
		}
		return questions, nil
	}

	var questions []model.Question
	err := tx.
		Preload("Choices").
		Where("test_id = ?", attempt.TestID).
		Order("order_in_test ASC").
		Find(&questions).Error
	return questions, err
}

// Reopen is the admin override: it mints a fresh retake attempt for the
// student without requiring a filed request, and consumes an approved
// request when one exists.
func (s *attemptService) Reopen(testID, studentID, actorID uint) (*dto.ReopenDTO, error) {
	actor, err := s.userRepo.FindByID(actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.AccessDenied("only admins can reopen tests")
		}
		return nil, apperr.Internal("failed to load user", err)
	}
	if actor.Role != model.RoleAdmin {
		return nil, apperr.AccessDenied("only admins can reopen tests")
	}

	test, err := s.testRepo.FindByID(testID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("test not found")
		}
		return nil, apperr.Internal("failed to load test", err)
	}

	student, err := s.userRepo.FindStudentByID(studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("student not found")
		}
		return nil, apperr.Internal("failed to load student", err)
	}

	var attempt model.TestAttempt
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var incomplete int64
		if err := tx.Model(&model.TestAttempt{}).
			Where("test_id = ? AND student_id = ? AND is_completed = ?", testID, studentID, false).
			Count(&incomplete).Error; err != nil {
			return err
		}
		if incomplete > 0 {
			return apperr.InvalidState("student already has an attempt in progress")
		}

		var priorAttempts int64
		if err := tx.Model(&model.TestAttempt{}).
			Where("test_id = ? AND student_id = ?", testID, studentID).
			Count(&priorAttempts).Error; err != nil {
			return err
		}

		attempt = model.TestAttempt{
			TestID:        testID,
			StudentID:     studentID,
			StartedAt:     time.Now(),
			AttemptNumber: int(priorAttempts) + 1,
			IsRetake:      true,
		}
		if err := tx.Create(&attempt).Error; err != nil {
			return err
		}

		var auth model.TestRetakeRequest
		authErr := tx.
			Where("test_id = ? AND student_id = ? AND status = ? AND is_used = ?",
				testID, studentID, model.RetakeStatusApproved, false).
			Order("created_at DESC").
			First(&auth).Error
		if authErr == nil {
			return tx.Model(&auth).Update("is_used", true).Error
		}
		if errors.Is(authErr, gorm.ErrRecordNotFound) {
			return nil
		}
		return authErr
	})
	if err != nil {
		var typed *apperr.Error
		if errors.As(err, &typed) {
			return nil, typed
		}
		log.Error().Err(err).Uint("testID", testID).Uint("studentID", studentID).Msg("Reopen transaction failed")
		return nil, apperr.Internal("failed to reopen test", err)
	}

	log.Info().Uint("testID", testID).Uint("studentID", studentID).Uint("actorID", actorID).
		Int("attemptNumber", attempt.AttemptNumber).Msg("Test reopened for student")

	return &dto.ReopenDTO{
		Message:       fmt.Sprintf("Test %q reopened for %s", test.Title, student.FullName()),
		AttemptID:     attempt.ID,
		AttemptNumber: attempt.AttemptNumber,
	}, nil
}

func buildResultPayload(summary grading.Summary, band string, timeTaken time.Duration) dto.ResultPayloadDTO {
	return dto.ResultPayloadDTO{
		Score:              summary.Score,
		TotalPoints:        summary.TotalPoints,
		Percentage:         summary.Percentage,
		Grade:              band,
		CorrectAnswers:     summary.CorrectCount,
		IncorrectAnswers:   summary.IncorrectCount,
		UngradedAnswers:    summary.UngradedCount,
		Unanswered:         summary.UnansweredCount,
		TimeTaken:          timeTaken.Round(time.Second).String(),
		AllAnswered:        summary.AllAnswered,
		AnsweredCount:      summary.AnsweredCount,
		TotalQuestions:     summary.TotalQuestions,
		IncorrectQuestions: summary.IncorrectQuestions,
	}
}
