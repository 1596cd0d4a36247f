package service

import (
	"fmt"
	"testing"

	"github.com/bilimdonlar/maktabtest/internal/model"
	"github.com/bilimdonlar/maktabtest/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Test{},
		&model.Question{},
		&model.Choice{},
		&model.TestAttempt{},
		&model.AttemptQuestion{},
		&model.Answer{},
		&model.TestResult{},
		&model.TestRetakeRequest{},
	))
	return db
}

func createStudent(t *testing.T, db *gorm.DB, username string, grade int) *model.User {
	t.Helper()
	user := model.User{
		Username:  username,
		FirstName: "Test",
		LastName:  "Student",
		Role:      model.RoleStudent,
		Grade:     &grade,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createTeacher(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()
	user := model.User{Username: username, Role: model.RoleTeacher}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createAdmin(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()
	user := model.User{Username: username, Role: model.RoleAdmin}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

// createMathTest builds an active two-question test: a single choice question
// (first choice correct) and a multiple choice question (first two choices
// correct), one point each.
func createMathTest(t *testing.T, db *gorm.DB, teacherID uint, grade int) *model.Test {
	t.Helper()
	test := model.Test{
		Title:       "Algebra Basics",
		Subject:     "Math",
		Grade:       grade,
		CreatedByID: teacherID,
		TimeLimit:   30,
		IsActive:    true,
		MaxAttempts: 1,
		ShowResults: true,
		Questions: []model.Question{
			{
				QuestionText: "2 + 2 = ?",
				QuestionType: model.QuestionSingleChoice,
				Points:       1,
				Order:        1,
				Choices: []model.Choice{
					{ChoiceText: "4", IsCorrect: true},
					{ChoiceText: "5"},
				},
			},
			{
				QuestionText: "Which are even?",
				QuestionType: model.QuestionMultipleChoice,
				Points:       1,
				Order:        2,
				Choices: []model.Choice{
					{ChoiceText: "2", IsCorrect: true},
					{ChoiceText: "6", IsCorrect: true},
					{ChoiceText: "3"},
				},
			},
		},
	}
	require.NoError(t, db.Create(&test).Error)
	return &test
}

func newAttemptServiceForTest(db *gorm.DB, questionLimit int) AttemptService {
	return NewAttemptService(
		repository.NewUserRepository(db),
		repository.NewTestRepository(db),
		repository.NewTestAttemptRepository(db),
		repository.NewAnswerRepository(db),
		questionLimit,
		db,
	)
}

func newAnswerServiceForTest(db *gorm.DB) AnswerService {
	return NewAnswerService(
		repository.NewTestAttemptRepository(db),
		repository.NewQuestionRepository(db),
		db,
	)
}

func newRetakeServiceForTest(db *gorm.DB) RetakeService {
	return NewRetakeService(
		repository.NewUserRepository(db),
		repository.NewTestRepository(db),
		repository.NewTestAttemptRepository(db),
		repository.NewRetakeRequestRepository(db),
		db,
	)
}

func newStudentTestServiceForTest(db *gorm.DB) StudentTestService {
	return NewStudentTestService(
		repository.NewUserRepository(db),
		repository.NewTestRepository(db),
		repository.NewTestAttemptRepository(db),
		repository.NewRetakeRequestRepository(db),
	)
}

func newResultsServiceForTest(db *gorm.DB) ResultsService {
	return NewResultsService(
		repository.NewUserRepository(db),
		repository.NewTestRepository(db),
		repository.NewTestAttemptRepository(db),
		repository.NewAnswerRepository(db),
	)
}

func newAdminTestServiceForTest(db *gorm.DB) AdminTestService {
	return NewAdminTestService(
		repository.NewUserRepository(db),
		repository.NewTestRepository(db),
		repository.NewTestAttemptRepository(db),
		db,
	)
}
