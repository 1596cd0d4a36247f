package service

import (
	"testing"
	"time"

	"github.com/bilimdonlar/maktabtest/internal/apperr"
	"github.com/bilimdonlar/maktabtest/internal/dto"
	"github.com/bilimdonlar/maktabtest/internal/model"
	"github.com/stretchr/testify/require"
)

func TestStartCreatesAttemptWithServedQuestions(t *testing.T) {
	db := setupTestDB(t)
	teacher := createTeacher(t, db, "teacher1")
	student := createStudent(t, db, "student1", 7)
	test := createMathTest(t, db, teacher.ID, 7)
	svc := newAttemptServiceForTest(db, 50)

	resp, err := svc.Start(test.ID, student.ID)
	require.NoError(t, err)
	require.NotZero(t, resp.AttemptID)
	require.Equal(t, 1, resp.AttemptNumber)
	require.False(t, resp.IsRetake)
	require.False(t, resp.Resumed)
	require.Len(t, resp.Questions, 2)
	require.Empty(t, resp.AnsweredQuestionIDs)
	require.Equal(t, 30, resp.TimeLimit)

	// served set persisted in serving order
	var served []model.AttemptQuestion
	require.NoError(t, db.Where("attempt_id = ?", resp.AttemptID).Order("position ASC").Find(&served).Error)
	require.Len(t, served, 2)
	require.Equal(t, 1, served[0].Position)
	require.Equal(t, 2, served[1].Position)
}

func TestStartEntryPreconditions(t *testing.T) {
	cases := []struct {
		name         string
		studentGrade int
		mutate       func(*model.Test)
	}{
		{"inactive test", 7, func(tt *model.Test) { tt.IsActive = false }},
		{"paused test", 7, func(tt *model.Test) { tt.IsPaused = true }},
		{"grade mismatch", 8, func(tt *model.Test) {}},
		{"not started yet", 7, func(tt *model.Test) {
			future := time.Now().Add(time.Hour)
			tt.StartTime = &future
		}},
		{"already ended", 7, func(tt *model.Test) {
			past := time.Now().Add(-time.Hour)
			tt.EndTime = &past
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db := setupTestDB(t)
			teacher := createTeacher(t, db, "teacher1")
			student := createStudent(t, db, "student1", tc.studentGrade)
			test := createMathTest(t, db, teacher.ID, 7)
			tc.mutate(test)
			require.NoError(t, db.Save(test).Error)

			svc := newAttemptServiceForTest(db, 50)
			_, err := svc.Start(test.ID, student.ID)
			require.Error(t, err)
			require.True(t, apperr.IsKind(err, apperr.KindAccessDenied), "got %v", err)
		})
	}
}

func TestStartResumesIncompleteAttempt(t *testing.T) {
	db := setupTestDB(t)
	teacher := createTeacher(t, db, "teacher1")
	student := createStudent(t, db, "student1", 7)
	test := createMathTest(t, db, teacher.ID, 7)
	svc := newAttemptServiceForTest(db, 50)

	first, err := svc.Start(test.ID, student.ID)
	require.NoError(t, err)

	answers := newAnswerServiceForTest(db)
	q1 := test.Questions[0]
	_, err = answers.Submit(first.AttemptID, student.ID, dto.SubmitAnswerDTO{
		QuestionID: q1.ID,
		ChoiceIDs:  []uint{q1.Choices[0].ID},
	})
	require.NoError(t, err)

	second, err := svc.Start(test.ID, student.ID)
	require.NoError(t, err)
	require.True(t, second.Resumed)
	require.Equal(t, first.AttemptID, second.AttemptID)
	require.Equal(t, []uint{q1.ID}, second.AnsweredQuestionIDs)

	var count int64
	require.NoError(t, db.Model(&model.TestAttempt{}).Where("student_id = ?", student.ID).Count(&count).Error)
	require.EqualValues(t, 1, count, "resume must not create a second attempt")
}

func TestStartAfterCompletionRequiresApprovedRetake(t *testing.T) {
	db := setupTestDB(t)
	teacher := createTeacher(t, db, "teacher1")
	student := createStudent(t, db, "student1", 7)
	test := createMathTest(t, db, teacher.ID, 7)
	svc := newAttemptServiceForTest(db, 50)

	first, err := svc.Start(test.ID, student.ID)
	require.NoError(t, err)
	_, err = svc.Finish(first.AttemptID, student.ID)
	require.NoError(t, err)

	_, err = svc.Start(test.ID, student.ID)
	require.Error(t, err)
	require.True(t, apperr.IsKind(err, apperr.KindInvalidState), "got %v", err)

	auth := model.TestRetakeRequest{
		StudentID:         student.ID,
		TestID:            test.ID,
		PreviousAttemptID: first.AttemptID,
		Reason:            "network dropped",
		Status:            model.RetakeStatusApproved,
	}
	require.NoError(t, db.Create(&auth).Error)

	retake, err := svc.Start(test.ID, student.ID)
	require.NoError(t, err)
	require.True(t, retake.IsRetake)
	require.Equal(t, 2, retake.AttemptNumber)
	require.NotEqual(t, first.AttemptID, retake.AttemptID)

	var used model.TestRetakeRequest
	require.NoError(t, db.First(&used, auth.ID).Error)
	require.True(t, used.IsUsed, "approved request must be consumed by the retake")
}

func TestStartSamplesLargeQuestionBank(t *testing.T) {
	db := setupTestDB(t)
	teacher := createTeacher(t, db, "teacher1")
	student := createStudent(t, db, "student1", 7)
	test := createMathTest(t, db, teacher.ID, 7)
	svc := newAttemptServiceForTest(db, 1)

	resp, err := svc.Start(test.ID, student.ID)
	require.NoError(t, err)
	require.Len(t, resp.Questions, 1)

	finish, err := svc.Finish(resp.AttemptID, student.ID)
	require.NoError(t, err)
	require.Equal(t, 1, finish.Results.TotalQuestions, "scoring denominator must match the served set")
	require.InDelta(t, 1.0, finish.Results.TotalPoints, 1e-9)
}

func TestFinishScoresAndPersistsResult(t *testing.T) {
	db := setupTestDB(t)
	teacher := createTeacher(t, db, "teacher1")
	student := createStudent(t, db, "student1", 7)
	test := createMathTest(t, db, teacher.ID, 7)
	svc := newAttemptServiceForTest(db, 50)
	answers := newAnswerServiceForTest(db)

	resp, err := svc.Start(test.ID, student.ID)
	require.NoError(t, err)

	q1 := test.Questions[0]
	_, err = answers.Submit(resp.AttemptID, student.ID, dto.SubmitAnswerDTO{
		QuestionID: q1.ID,
		ChoiceIDs:  []uint{q1.Choices[0].ID},
	})
	require.NoError(t, err)

	finish, err := svc.Finish(resp.AttemptID, student.ID)
	require.NoError(t, err)
	require.InDelta(t, 1.0, finish.Results.Score, 1e-9)
	require.InDelta(t, 2.0, finish.Results.TotalPoints, 1e-9)
	require.InDelta(t, 50.0, finish.Results.Percentage, 1e-9)
	require.Equal(t, "Satisfactory", finish.Results.Grade)
	require.Equal(t, 1, finish.Results.CorrectAnswers)
	require.Equal(t, 0, finish.Results.IncorrectAnswers)
	require.Equal(t, 1, finish.Results.Unanswered)
	require.False(t, finish.Results.AllAnswered)

	var attempt model.TestAttempt
	require.NoError(t, db.Preload("Result").First(&attempt, resp.AttemptID).Error)
	require.True(t, attempt.IsCompleted)
	require.NotNil(t, attempt.FinishedAt)
	require.NotNil(t, attempt.Score)
	require.InDelta(t, 1.0, *attempt.Score, 1e-9)
	require.NotNil(t, attempt.Result)
	require.Equal(t, "Satisfactory", attempt.Result.Grade)
	require.Equal(t, 1, attempt.Result.Unanswered)
}

func TestFinishIsExactlyOnce(t *testing.T) {
	db := setupTestDB(t)
	teacher := createTeacher(t, db, "teacher1")
	student := createStudent(t, db, "student1", 7)
	test := createMathTest(t, db, teacher.ID, 7)
	svc := newAttemptServiceForTest(db, 50)

	resp, err := svc.Start(test.ID, student.ID)
	require.NoError(t, err)
	_, err = svc.Finish(resp.AttemptID, student.ID)
	require.NoError(t, err)

	_, err = svc.Finish(resp.AttemptID, student.ID)
	require.Error(t, err)
	require.True(t, apperr.IsKind(err, apperr.KindInvalidState), "got %v", err)

	var results int64
	require.NoError(t, db.Model(&model.TestResult{}).Where("attempt_id = ?", resp.AttemptID).Count(&results).Error)
	require.EqualValues(t, 1, results)
}

func TestFinishRejectsForeignAttempt(t *testing.T) {
	db := setupTestDB(t)
	teacher := createTeacher(t, db, "teacher1")
	student := createStudent(t, db, "student1", 7)
	other := createStudent(t, db, "student2", 7)
	test := createMathTest(t, db, teacher.ID, 7)
	svc := newAttemptServiceForTest(db, 50)

	resp, err := svc.Start(test.ID, student.ID)
	require.NoError(t, err)

	_, err = svc.Finish(resp.AttemptID, other.ID)
	require.Error(t, err)
	require.True(t, apperr.IsKind(err, apperr.KindAccessDenied), "got %v", err)
}

func TestReopenMintsRetakeAttempt(t *testing.T) {
	db := setupTestDB(t)
	teacher := createTeacher(t, db, "teacher1")
	admin := createAdmin(t, db, "admin1")
	student := createStudent(t, db, "student1", 7)
	test := createMathTest(t, db, teacher.ID, 7)
	svc := newAttemptServiceForTest(db, 50)

	resp, err := svc.Start(test.ID, student.ID)
	require.NoError(t, err)
	_, err = svc.Finish(resp.AttemptID, student.ID)
	require.NoError(t, err)

	_, err = svc.Reopen(test.ID, student.ID, teacher.ID)
	require.Error(t, err)
	require.True(t, apperr.IsKind(err, apperr.KindAccessDenied), "only admins may reopen")

	reopened, err := svc.Reopen(test.ID, student.ID, admin.ID)
	require.NoError(t, err)
	require.Equal(t, 2, reopened.AttemptNumber)

	var attempt model.TestAttempt
	require.NoError(t, db.First(&attempt, reopened.AttemptID).Error)
	require.True(t, attempt.IsRetake)
	require.False(t, attempt.IsCompleted)

	// a second reopen is blocked while the minted attempt is open
	_, err = svc.Reopen(test.ID, student.ID, admin.ID)
	require.Error(t, err)
	require.True(t, apperr.IsKind(err, apperr.KindInvalidState), "got %v", err)

	// the student can enter the reopened attempt and gets a served set
	entered, err := svc.Start(test.ID, student.ID)
	require.NoError(t, err)
	require.True(t, entered.Resumed)
	require.Equal(t, reopened.AttemptID, entered.AttemptID)
	require.Len(t, entered.Questions, 2)
}

func TestReopenUnknownStudent(t *testing.T) {
	db := setupTestDB(t)
	teacher := createTeacher(t, db, "teacher1")
	admin := createAdmin(t, db, "admin1")
	test := createMathTest(t, db, teacher.ID, 7)
	svc := newAttemptServiceForTest(db, 50)

	_, err := svc.Reopen(test.ID, 9999, admin.ID)
	require.Error(t, err)
	require.True(t, apperr.IsKind(err, apperr.KindNotFound), "got %v", err)
}
