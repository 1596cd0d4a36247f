package dto

import "time"

// RetakeCreateDTO is the student's request to retake a completed test.
type RetakeCreateDTO struct {
	Reason string `json:"reason" binding:"required"`
}

// RetakeDecisionDTO approves or rejects a pending retake request.
type RetakeDecisionDTO struct {
	Action        string `json:"action" binding:"required,oneof=approve reject"`
	AdminResponse string `json:"admin_response"`
}

type RetakeRequestDTO struct {
	ID                 uint      `json:"id"`
	StudentName        string    `json:"student_name"`
	StudentUsername    string    `json:"student_username"`
	StudentGrade       *int      `json:"student_grade,omitempty"`
	StudentClass       *string   `json:"student_class,omitempty"`
	TestID             uint      `json:"test_id"`
	TestTitle          string    `json:"test_title"`
	TestSubject        string    `json:"test_subject"`
	PreviousAttemptID  uint      `json:"previous_attempt_id"`
	PreviousScore      *float64  `json:"previous_score,omitempty"`
	PreviousPercentage *float64  `json:"previous_percentage,omitempty"`
	Reason             string    `json:"reason"`
	Status             string    `json:"status"`
	AdminResponse      string    `json:"admin_response,omitempty"`
	ApprovedBy         *string   `json:"approved_by,omitempty"`
	IsUsed             bool      `json:"is_used"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type RetakeListDTO struct {
	Requests   []RetakeRequestDTO `json:"requests"`
	TotalCount int                `json:"total_count"`
}

type RetakeFiledDTO struct {
	Message   string `json:"message"`
	RequestID uint   `json:"request_id"`
}

type RetakeDecidedDTO struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// ReopenDTO is returned when an admin reopens a test for a student.
type ReopenDTO struct {
	Message       string `json:"message"`
	AttemptID     uint   `json:"attempt_id"`
	AttemptNumber int    `json:"attempt_number"`
}
