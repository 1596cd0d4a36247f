package service

import (
	"testing"

	"github.com/bilimdonlar/maktabtest/internal/apperr"
	"github.com/bilimdonlar/maktabtest/internal/dto"
	"github.com/bilimdonlar/maktabtest/internal/model"
	"github.com/stretchr/testify/require"
)

func finishFirstAttempt(t *testing.T, svc AttemptService, testID, studentID uint) uint {
	t.Helper()
	resp, err := svc.Start(testID, studentID)
	require.NoError(t, err)
	_, err = svc.Finish(resp.AttemptID, studentID)
	require.NoError(t, err)
	return resp.AttemptID
}

func TestFileRequiresCompletedAttempt(t *testing.T) {
	db := setupTestDB(t)
	teacher := createTeacher(t, db, "teacher1")
	student := createStudent(t, db, "student1", 7)
	test := createMathTest(t, db, teacher.ID, 7)
	retakes := newRetakeServiceForTest(db)

	_, err := retakes.File(test.ID, student.ID, dto.RetakeCreateDTO{Reason: "want another try"})
	require.Error(t, err)
	require.True(t, apperr.IsKind(err, apperr.KindInvalidState), "got %v", err)
}

func TestFileBlocksSecondActiveRequest(t *testing.T) {
	db := setupTestDB(t)
	teacher := createTeacher(t, db, "teacher1")
	student := createStudent(t, db, "student1", 7)
	test := createMathTest(t, db, teacher.ID, 7)
	attempts := newAttemptServiceForTest(db, 50)
	retakes := newRetakeServiceForTest(db)

	attemptID := finishFirstAttempt(t, attempts, test.ID, student.ID)

	filed, err := retakes.File(test.ID, student.ID, dto.RetakeCreateDTO{Reason: "browser crashed"})
	require.NoError(t, err)
	require.NotZero(t, filed.RequestID)

	var stored model.TestRetakeRequest
	require.NoError(t, db.First(&stored, filed.RequestID).Error)
	require.Equal(t, model.RetakeStatusPending, stored.Status)
	require.Equal(t, attemptID, stored.PreviousAttemptID)

	_, err = retakes.File(test.ID, student.ID, dto.RetakeCreateDTO{Reason: "again"})
	require.Error(t, err)
	require.True(t, apperr.IsKind(err, apperr.KindInvalidState), "a pending request blocks a second one")
}

func TestFileAllowedAfterRejection(t *testing.T) {
	db := setupTestDB(t)
	teacher := createTeacher(t, db, "teacher1")
	admin := createAdmin(t, db, "admin1")
	student := createStudent(t, db, "student1", 7)
	test := createMathTest(t, db, teacher.ID, 7)
	attempts := newAttemptServiceForTest(db, 50)
	retakes := newRetakeServiceForTest(db)

	finishFirstAttempt(t, attempts, test.ID, student.ID)

	filed, err := retakes.File(test.ID, student.ID, dto.RetakeCreateDTO{Reason: "browser crashed"})
	require.NoError(t, err)

	_, err = retakes.Decide(filed.RequestID, admin.ID, dto.RetakeDecisionDTO{Action: "reject", AdminResponse: "finish your homework first"})
	require.NoError(t, err)

	refiled, err := retakes.File(test.ID, student.ID, dto.RetakeCreateDTO{Reason: "homework done"})
	require.NoError(t, err)
	require.NotEqual(t, filed.RequestID, refiled.RequestID)
}

func TestDecideIsImmutableOnceResolved(t *testing.T) {
	db := setupTestDB(t)
	teacher := createTeacher(t, db, "teacher1")
	admin := createAdmin(t, db, "admin1")
	student := createStudent(t, db, "student1", 7)
	test := createMathTest(t, db, teacher.ID, 7)
	attempts := newAttemptServiceForTest(db, 50)
	retakes := newRetakeServiceForTest(db)

	finishFirstAttempt(t, attempts, test.ID, student.ID)
	filed, err := retakes.File(test.ID, student.ID, dto.RetakeCreateDTO{Reason: "browser crashed"})
	require.NoError(t, err)

	decided, err := retakes.Decide(filed.RequestID, admin.ID, dto.RetakeDecisionDTO{Action: "approve"})
	require.NoError(t, err)
	require.Equal(t, model.RetakeStatusApproved, decided.Status)

	var stored model.TestRetakeRequest
	require.NoError(t, db.First(&stored, filed.RequestID).Error)
	require.Equal(t, model.RetakeStatusApproved, stored.Status)
	require.NotNil(t, stored.ApprovedByID)
	require.Equal(t, admin.ID, *stored.ApprovedByID)

	_, err = retakes.Decide(filed.RequestID, admin.ID, dto.RetakeDecisionDTO{Action: "reject"})
	require.Error(t, err)
	require.True(t, apperr.IsKind(err, apperr.KindInvalidState), "got %v", err)
}

func TestDecideRestrictedToAdminOrAuthor(t *testing.T) {
	db := setupTestDB(t)
	author := createTeacher(t, db, "author")
	outsider := createTeacher(t, db, "outsider")
	student := createStudent(t, db, "student1", 7)
	test := createMathTest(t, db, author.ID, 7)
	attempts := newAttemptServiceForTest(db, 50)
	retakes := newRetakeServiceForTest(db)

	finishFirstAttempt(t, attempts, test.ID, student.ID)
	filed, err := retakes.File(test.ID, student.ID, dto.RetakeCreateDTO{Reason: "browser crashed"})
	require.NoError(t, err)

	_, err = retakes.Decide(filed.RequestID, outsider.ID, dto.RetakeDecisionDTO{Action: "approve"})
	require.Error(t, err)
	require.True(t, apperr.IsKind(err, apperr.KindAccessDenied), "got %v", err)

	_, err = retakes.Decide(filed.RequestID, author.ID, dto.RetakeDecisionDTO{Action: "approve"})
	require.NoError(t, err)
}

func TestListFiltersByStatusAndOwnership(t *testing.T) {
	db := setupTestDB(t)
	author := createTeacher(t, db, "author")
	outsider := createTeacher(t, db, "outsider")
	admin := createAdmin(t, db, "admin1")
	student := createStudent(t, db, "student1", 7)
	test := createMathTest(t, db, author.ID, 7)
	attempts := newAttemptServiceForTest(db, 50)
	retakes := newRetakeServiceForTest(db)

	finishFirstAttempt(t, attempts, test.ID, student.ID)
	_, err := retakes.File(test.ID, student.ID, dto.RetakeCreateDTO{Reason: "browser crashed"})
	require.NoError(t, err)

	all, err := retakes.List(admin.ID, "all")
	require.NoError(t, err)
	require.Equal(t, 1, all.TotalCount)
	require.Equal(t, "Algebra Basics", all.Requests[0].TestTitle)

	pending, err := retakes.List(admin.ID, model.RetakeStatusPending)
	require.NoError(t, err)
	require.Equal(t, 1, pending.TotalCount)

	approved, err := retakes.List(admin.ID, model.RetakeStatusApproved)
	require.NoError(t, err)
	require.Equal(t, 0, approved.TotalCount)

	foreign, err := retakes.List(outsider.ID, "all")
	require.NoError(t, err)
	require.Equal(t, 0, foreign.TotalCount, "teachers only see requests against their own tests")

	_, err = retakes.List(student.ID, "all")
	require.Error(t, err)
	require.True(t, apperr.IsKind(err, apperr.KindAccessDenied), "got %v", err)
}
