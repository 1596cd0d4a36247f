package dto

import (
	"time"

	"github.com/bilimdonlar/maktabtest/internal/grading"
)

// ChoiceOptionDTO is an answer option as served to a student. The correctness
// flag is deliberately absent.
type ChoiceOptionDTO struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

// ServedQuestionDTO is one question of the attempt's served set.
type ServedQuestionDTO struct {
	ID           uint              `json:"id"`
	QuestionText string            `json:"question_text"`
	QuestionType string            `json:"question_type"`
	Points       float64           `json:"points"`
	Position     int               `json:"position"`
	ImageURL     *string           `json:"image_url,omitempty"`
	Choices      []ChoiceOptionDTO `json:"choices,omitempty"`
}

// StartAttemptDTO is returned by StartAttempt, for both fresh and resumed
// attempts.
type StartAttemptDTO struct {
	AttemptID           uint                `json:"attempt_id"`
	AttemptNumber       int                 `json:"attempt_number"`
	IsRetake            bool                `json:"is_retake"`
	Resumed             bool                `json:"resumed"`
	Questions           []ServedQuestionDTO `json:"questions"`
	AnsweredQuestionIDs []uint              `json:"answered_question_ids"`
	TimeLimit           int                 `json:"time_limit"`
	StartedAt           time.Time           `json:"started_at"`
}

// SubmitAnswerDTO records or replaces the answer to one question. ChoiceIDs
// applies to choice-type questions, TextAnswer to text questions; an empty
// submission clears any prior selection.
type SubmitAnswerDTO struct {
	QuestionID uint   `json:"question_id" binding:"required"`
	ChoiceIDs  []uint `json:"choice_ids"`
	TextAnswer string `json:"text_answer"`
}

// ResultPayloadDTO is the scored outcome of a completed attempt.
type ResultPayloadDTO struct {
	Score              float64                     `json:"score"`
	TotalPoints        float64                     `json:"total_points"`
	Percentage         float64                     `json:"percentage"`
	Grade              string                      `json:"grade"`
	CorrectAnswers     int                         `json:"correct_answers"`
	IncorrectAnswers   int                         `json:"incorrect_answers"`
	UngradedAnswers    int                         `json:"ungraded_answers"`
	Unanswered         int                         `json:"unanswered"`
	TimeTaken          string                      `json:"time_taken"`
	AllAnswered        bool                        `json:"all_answered"`
	AnsweredCount      int                         `json:"answered_count"`
	TotalQuestions     int                         `json:"total_questions"`
	IncorrectQuestions []grading.IncorrectQuestion `json:"incorrect_questions"`
}

// FinishAttemptDTO is returned by FinishAttempt.
type FinishAttemptDTO struct {
	Message string           `json:"message"`
	Results ResultPayloadDTO `json:"results"`
}

// StudentBriefDTO identifies a student in results listings.
type StudentBriefDTO struct {
	ID        uint    `json:"id"`
	Username  string  `json:"username"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	StudentID *string `json:"student_id,omitempty"`
	ClassName *string `json:"class_name,omitempty"`
	Grade     *int    `json:"grade,omitempty"`
}

// StudentResultDTO is a student's own view of a completed attempt.
type StudentResultDTO struct {
	Student    string           `json:"student"`
	AttemptID  uint             `json:"attempt_id"`
	TestID     uint             `json:"test_id"`
	TestTitle  string           `json:"test_title"`
	FinishedAt time.Time        `json:"finished_at"`
	Results    ResultPayloadDTO `json:"results"`
}

// TeacherResultRowDTO is one completed attempt in an owner/admin listing.
type TeacherResultRowDTO struct {
	Student          StudentBriefDTO `json:"student"`
	TestID           uint            `json:"test_id"`
	TestTitle        string          `json:"test_title"`
	TestSubject      string          `json:"test_subject"`
	AttemptID        uint            `json:"attempt_id"`
	AttemptNumber    int             `json:"attempt_number"`
	IsRetake         bool            `json:"is_retake"`
	Score            float64         `json:"score"`
	TotalPoints      float64         `json:"total_points"`
	Percentage       float64         `json:"percentage"`
	Grade            string          `json:"grade"`
	CorrectAnswers   int             `json:"correct_answers"`
	IncorrectAnswers int             `json:"incorrect_answers"`
	Unanswered       int             `json:"unanswered"`
	TimeTaken        string          `json:"time_taken"`
	FinishedAt       time.Time       `json:"finished_at"`
}

// TestResultsDTO is the owner's results listing for one test.
type TestResultsDTO struct {
	TestID     uint                  `json:"test_id"`
	TestTitle  string                `json:"test_title"`
	TotalCount int                   `json:"total_count"`
	Results    []TeacherResultRowDTO `json:"results"`
}
