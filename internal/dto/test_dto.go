package dto

import "time"

// ChoiceCreateDTO is one answer option supplied when authoring a question.
type ChoiceCreateDTO struct {
	Text      string `json:"text" binding:"required"`
	IsCorrect bool   `json:"is_correct"`
}

// QuestionCreateDTO is one question supplied when authoring a test.
type QuestionCreateDTO struct {
	QuestionText string            `json:"question_text" binding:"required"`
	QuestionType string            `json:"question_type" binding:"required,oneof=single_choice multiple_choice text_answer"`
	Points       float64           `json:"points" binding:"omitempty,gte=0"`
	Explanation  string            `json:"explanation"`
	ImageURL     *string           `json:"image_url"`
	Choices      []ChoiceCreateDTO `json:"choices" binding:"omitempty,dive"`
}

// TestCreateDTO is the teacher's request to create a test with its questions.
type TestCreateDTO struct {
	Title            string              `json:"title" binding:"required"`
	Description      string              `json:"description"`
	Subject          string              `json:"subject" binding:"required"`
	Grade            int                 `json:"grade" binding:"required,gt=0"`
	TimeLimit        int                 `json:"time_limit" binding:"required,gt=0"`
	MaxAttempts      int                 `json:"max_attempts" binding:"omitempty,gt=0"`
	ShowResults      *bool               `json:"show_results"`
	ShuffleQuestions bool                `json:"shuffle_questions"`
	StartTime        *time.Time          `json:"start_time"`
	EndTime          *time.Time          `json:"end_time"`
	Questions        []QuestionCreateDTO `json:"questions" binding:"omitempty,dive"`
}

// ChoiceUpdateDTO carries an id when an existing choice is being edited.
type ChoiceUpdateDTO struct {
	ID        *uint  `json:"id"`
	Text      string `json:"text" binding:"required"`
	IsCorrect bool   `json:"is_correct"`
}

// QuestionUpdateDTO carries an id when an existing question is being edited;
// questions omitted from the update are removed from the test.
type QuestionUpdateDTO struct {
	ID           *uint             `json:"id"`
	QuestionText string            `json:"question_text" binding:"required"`
	QuestionType string            `json:"question_type" binding:"required,oneof=single_choice multiple_choice text_answer"`
	Points       float64           `json:"points" binding:"omitempty,gte=0"`
	Explanation  string            `json:"explanation"`
	ImageURL     *string           `json:"image_url"`
	Choices      []ChoiceUpdateDTO `json:"choices" binding:"omitempty,dive"`
}

// TestUpdateDTO edits test metadata and question content. Edits never rescore
// attempts that already exist.
type TestUpdateDTO struct {
	Title            *string             `json:"title"`
	Description      *string             `json:"description"`
	Subject          *string             `json:"subject"`
	Grade            *int                `json:"grade" binding:"omitempty,gt=0"`
	TimeLimit        *int                `json:"time_limit" binding:"omitempty,gt=0"`
	MaxAttempts      *int                `json:"max_attempts" binding:"omitempty,gt=0"`
	ShowResults      *bool               `json:"show_results"`
	ShuffleQuestions *bool               `json:"shuffle_questions"`
	IsActive         *bool               `json:"is_active"`
	IsPaused         *bool               `json:"is_paused"`
	StartTime        *time.Time          `json:"start_time"`
	EndTime          *time.Time          `json:"end_time"`
	Questions        []QuestionUpdateDTO `json:"questions" binding:"omitempty,dive"`
}

// ChoiceAdminDTO includes the correctness flag; only returned to the author.
type ChoiceAdminDTO struct {
	ID        uint   `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

type QuestionAdminDTO struct {
	ID           uint             `json:"id"`
	QuestionText string           `json:"question_text"`
	QuestionType string           `json:"question_type"`
	Points       float64          `json:"points"`
	Order        int              `json:"order"`
	Explanation  string           `json:"explanation,omitempty"`
	ImageURL     *string          `json:"image_url,omitempty"`
	Choices      []ChoiceAdminDTO `json:"choices,omitempty"`
}

type TestAdminDTO struct {
	ID               uint               `json:"id"`
	Title            string             `json:"title"`
	Description      string             `json:"description,omitempty"`
	Subject          string             `json:"subject"`
	Grade            int                `json:"grade"`
	TimeLimit        int                `json:"time_limit"`
	MaxAttempts      int                `json:"max_attempts"`
	IsActive         bool               `json:"is_active"`
	IsPaused         bool               `json:"is_paused"`
	ShowResults      bool               `json:"show_results"`
	ShuffleQuestions bool               `json:"shuffle_questions"`
	StartTime        *time.Time         `json:"start_time,omitempty"`
	EndTime          *time.Time         `json:"end_time,omitempty"`
	Questions        []QuestionAdminDTO `json:"questions,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
}

// TeacherTestSummaryDTO is one row of a teacher's own test listing.
type TeacherTestSummaryDTO struct {
	ID             uint      `json:"id"`
	Title          string    `json:"title"`
	Subject        string    `json:"subject"`
	Grade          int       `json:"grade"`
	TotalQuestions int       `json:"total_questions"`
	IsActive       bool      `json:"is_active"`
	IsPaused       bool      `json:"is_paused"`
	AttemptCount   int64     `json:"attempt_count"`
	MaxAttempts    int       `json:"max_attempts"`
	TimeLimit      int       `json:"time_limit"`
	CreatedAt      time.Time `json:"created_at"`
}

// StudentTestSummaryDTO is one row of the student's available-tests listing.
type StudentTestSummaryDTO struct {
	ID             uint       `json:"id"`
	Title          string     `json:"title"`
	Subject        string     `json:"subject"`
	Description    string     `json:"description,omitempty"`
	Grade          int        `json:"grade"`
	TimeLimit      int        `json:"time_limit"`
	MaxAttempts    int        `json:"max_attempts"`
	TotalQuestions int        `json:"total_questions"`
	HasAttempted   bool       `json:"has_attempted"`
	AttemptScore   *float64   `json:"attempt_score,omitempty"` // completed percentage, rounded
	CanAttempt     bool       `json:"can_attempt"`
	CreatedBy      string     `json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"`
	StartTime      *time.Time `json:"start_time,omitempty"`
	EndTime        *time.Time `json:"end_time,omitempty"`
}

// TestInfoDTO is the public test card shown before starting an attempt.
type TestInfoDTO struct {
	ID             uint       `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Subject        string     `json:"subject"`
	Grade          int        `json:"grade"`
	TimeLimit      int        `json:"time_limit"`
	MaxAttempts    int        `json:"max_attempts"`
	TotalQuestions int        `json:"total_questions"`
	CreatedBy      string     `json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"`
	StartTime      *time.Time `json:"start_time,omitempty"`
	EndTime        *time.Time `json:"end_time,omitempty"`
}
