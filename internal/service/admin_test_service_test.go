package service

import (
	"testing"

	"github.com/bilimdonlar/maktabtest/internal/apperr"
	"github.com/bilimdonlar/maktabtest/internal/dto"
	"github.com/bilimdonlar/maktabtest/internal/model"
	"github.com/stretchr/testify/require"
)

func validCreatePayload() dto.TestCreateDTO {
	return dto.TestCreateDTO{
		Title:     "Fractions",
		Subject:   "Math",
		Grade:     6,
		TimeLimit: 20,
		Questions: []dto.QuestionCreateDTO{
			{
				QuestionText: "1/2 + 1/2 = ?",
				QuestionType: model.QuestionSingleChoice,
				Choices: []dto.ChoiceCreateDTO{
					{Text: "1", IsCorrect: true},
					{Text: "2"},
				},
			},
			{
				QuestionText: "Explain why.",
				QuestionType: model.QuestionTextAnswer,
				Points:       2,
			},
		},
	}
}

func TestCreateTestPersistsQuestionsInOrder(t *testing.T) {
	db := setupTestDB(t)
	teacher := createTeacher(t, db, "teacher1")
	svc := newAdminTestServiceForTest(db)

	created, err := svc.CreateTest(teacher.ID, validCreatePayload())
	require.NoError(t, err)
	require.True(t, created.IsActive)
	require.Equal(t, 1, created.MaxAttempts, "max attempts defaults to one")
	require.True(t, created.ShowResults)
	require.Len(t, created.Questions, 2)
	require.Equal(t, 1, created.Questions[0].Order)
	require.Equal(t, 2, created.Questions[1].Order)
	require.InDelta(t, 1.0, created.Questions[0].Points, 1e-9, "points default to one")
	require.InDelta(t, 2.0, created.Questions[1].Points, 1e-9)

	var stored model.Test
	require.NoError(t, db.Preload("Questions.Choices").First(&stored, created.ID).Error)
	require.Equal(t, teacher.ID, stored.CreatedByID)
	require.Len(t, stored.Questions, 2)
}

func TestCreateTestRejectsStudents(t *testing.T) {
	db := setupTestDB(t)
	student := createStudent(t, db, "student1", 7)
	svc := newAdminTestServiceForTest(db)

	_, err := svc.CreateTest(student.ID, validCreatePayload())
	require.Error(t, err)
	require.True(t, apperr.IsKind(err, apperr.KindAccessDenied), "got %v", err)
}

func TestCreateTestValidatesQuestionShape(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*dto.TestCreateDTO)
	}{
		{"single choice with two correct", func(p *dto.TestCreateDTO) {
			p.Questions[0].Choices[1].IsCorrect = true
		}},
		{"single choice with none correct", func(p *dto.TestCreateDTO) {
			p.Questions[0].Choices[0].IsCorrect = false
		}},
		{"choice question with one choice", func(p *dto.TestCreateDTO) {
			p.Questions[0].Choices = p.Questions[0].Choices[:1]
		}},
		{"text question with choices", func(p *dto.TestCreateDTO) {
			p.Questions[1].Choices = []dto.ChoiceCreateDTO{{Text: "because"}}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db := setupTestDB(t)
			teacher := createTeacher(t, db, "teacher1")
			svc := newAdminTestServiceForTest(db)

			payload := validCreatePayload()
			tc.mutate(&payload)
			_, err := svc.CreateTest(teacher.ID, payload)
			require.Error(t, err)
			require.True(t, apperr.IsKind(err, apperr.KindValidation), "got %v", err)
		})
	}
}

func TestUpdateTestReconcilesQuestions(t *testing.T) {
	db := setupTestDB(t)
	teacher := createTeacher(t, db, "teacher1")
	test := createMathTest(t, db, teacher.ID, 7)
	svc := newAdminTestServiceForTest(db)

	q1 := test.Questions[0]
	keptID := q1.ID
	newTitle := "Algebra Basics v2"
	payload := dto.TestUpdateDTO{
		Title: &newTitle,
		Questions: []dto.QuestionUpdateDTO{
			{
				ID:           &keptID,
				QuestionText: "2 + 2 equals?",
				QuestionType: model.QuestionSingleChoice,
				Choices: []dto.ChoiceUpdateDTO{
					{Text: "4", IsCorrect: true},
					{Text: "22"},
				},
			},
			{
				QuestionText: "3 * 3 = ?",
				QuestionType: model.QuestionSingleChoice,
				Choices: []dto.ChoiceUpdateDTO{
					{Text: "9", IsCorrect: true},
					{Text: "6"},
				},
			},
		},
	}

	updated, err := svc.UpdateTest(test.ID, teacher.ID, payload)
	require.NoError(t, err)
	require.Equal(t, "Algebra Basics v2", updated.Title)
	require.Len(t, updated.Questions, 2)
	require.Equal(t, keptID, updated.Questions[0].ID)
	require.Equal(t, "2 + 2 equals?", updated.Questions[0].QuestionText)
	require.Equal(t, "3 * 3 = ?", updated.Questions[1].QuestionText)

	// the omitted multiple choice question is gone
	var questionCount int64
	require.NoError(t, db.Model(&model.Question{}).Where("test_id = ?", test.ID).Count(&questionCount).Error)
	require.EqualValues(t, 2, questionCount)
}

func TestUpdateTestOwnershipEnforced(t *testing.T) {
	db := setupTestDB(t)
	author := createTeacher(t, db, "author")
	outsider := createTeacher(t, db, "outsider")
	admin := createAdmin(t, db, "admin1")
	test := createMathTest(t, db, author.ID, 7)
	svc := newAdminTestServiceForTest(db)

	paused := true
	payload := dto.TestUpdateDTO{IsPaused: &paused}

	_, err := svc.UpdateTest(test.ID, outsider.ID, payload)
	require.Error(t, err)
	require.True(t, apperr.IsKind(err, apperr.KindAccessDenied), "got %v", err)

	updated, err := svc.UpdateTest(test.ID, admin.ID, payload)
	require.NoError(t, err)
	require.True(t, updated.IsPaused)

	var stored model.Test
	require.NoError(t, db.First(&stored, test.ID).Error)
	require.True(t, stored.IsPaused)
	require.NotNil(t, stored.PausedAt)
}

func TestGetTeacherTestsListsOwnOnly(t *testing.T) {
	db := setupTestDB(t)
	author := createTeacher(t, db, "author")
	other := createTeacher(t, db, "other")
	createMathTest(t, db, author.ID, 7)
	createMathTest(t, db, other.ID, 8)
	svc := newAdminTestServiceForTest(db)

	mine, err := svc.GetTeacherTests(author.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, 7, mine[0].Grade)
	require.Equal(t, 2, mine[0].TotalQuestions)
}
