package service

import (
	"errors"

	"github.com/bilimdonlar/maktabtest/internal/apperr"
	"github.com/bilimdonlar/maktabtest/internal/dto"
	"github.com/bilimdonlar/maktabtest/internal/model"
	"github.com/bilimdonlar/maktabtest/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AnswerService records student answers during an attempt. Submitting for
// the same question again replaces the previous answer entirely.
type AnswerService interface {
	Submit(attemptID, studentID uint, payload dto.SubmitAnswerDTO) (*dto.MessageResponse, error)
}

type answerService struct {
	attemptRepo  repository.TestAttemptRepository
	questionRepo repository.QuestionRepository
	db           *gorm.DB
}

func NewAnswerService(
	attemptRepo repository.TestAttemptRepository,
	questionRepo repository.QuestionRepository,
	db *gorm.DB,
) AnswerService {
	return &answerService{
		attemptRepo:  attemptRepo,
		questionRepo: questionRepo,
		db:           db,
	}
}

func (s *answerService) Submit(attemptID, studentID uint, payload dto.SubmitAnswerDTO) (*dto.MessageResponse, error) {
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

	question, err := s.questionRepo.FindByIDInTest(payload.QuestionID, attempt.TestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("question not found in this test")
		}
		return nil, apperr.Internal("failed to load question", err)
	}

	if err := s.ensureQuestionServed(attempt.ID, question.ID); err != nil {
		return nil, err
	}

	selected, err := resolveChoices(question, payload.ChoiceIDs)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var answer model.Answer
		findErr := tx.
			Where("attempt_id = ? AND question_id = ?", attemptID, question.ID).
			First(&answer).Error
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			answer = model.Answer{AttemptID: attemptID, QuestionID: question.ID}
			if err := tx.Create(&answer).Error; err != nil {
				return err
			}
		} else if findErr != nil {
			return findErr
		}

		// Full replacement: the new submission is the whole answer.
		text := ""
		if question.QuestionType == model.QuestionTextAnswer {
			text = payload.TextAnswer
		}
		if err := tx.Model(&answer).Update("text_answer", text).Error; err != nil {
			return err
		}
		if len(selected) == 0 {
			return tx.Model(&answer).Association("SelectedChoices").Clear()
		}
		return tx.Model(&answer).Association("SelectedChoices").Replace(selected)
	})
	if err != nil {
		log.Error().Err(err).Uint("attemptID", attemptID).Uint("questionID", question.ID).Msg("Submit answer transaction failed")
		return nil, apperr.Internal("failed to record answer", err)
	}

	return &dto.MessageResponse{Message: "Answer recorded"}, nil
}

// ensureQuestionServed rejects answers for questions outside the attempt's
// served set. Sampling can serve fewer questions than the test holds, and
// only served questions count toward the score.
func (s *answerService) ensureQuestionServed(attemptID, questionID uint) error {
	var count int64
	err := s.db.Model(&model.AttemptQuestion{}).
		Where("attempt_id = ? AND question_id = ?", attemptID, questionID).
		Count(&count).Error
	if err != nil {
		return apperr.Internal("failed to check attempt questions", err)
	}
	if count == 0 {
		return apperr.NotFound("question is not part of this attempt")
	}
	return nil
}

// resolveChoices validates the submitted choice IDs against the question's
// own choices. Choice selections on text questions are rejected; an empty
// selection on a choice question deselects everything.
func resolveChoices(question *model.Question, choiceIDs []uint) ([]model.Choice, error) {
	if question.QuestionType == model.QuestionTextAnswer {
		if len(choiceIDs) > 0 {
			return nil, apperr.Validation("text questions do not accept choice selections")
		}
		return nil, nil
	}

	byID := make(map[uint]model.Choice, len(question.Choices))
	for _, c := range question.Choices {
		byID[c.ID] = c
	}

	selected := make([]model.Choice, 0, len(choiceIDs))
	seen := make(map[uint]bool, len(choiceIDs))
	for _, id := range choiceIDs {
		choice, ok := byID[id]
		if !ok {
			return nil, apperr.Validation("choice %d does not belong to question %d", id, question.ID)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		selected = append(selected, choice)
	}

	if question.QuestionType == model.QuestionSingleChoice && len(selected) > 1 {
		return nil, apperr.Validation("single choice questions accept at most one selection")
	}
	return selected, nil
}
