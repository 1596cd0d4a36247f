package user

import (
	"net/http"

	"github.com/bilimdonlar/maktabtest/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type StudentTestController struct {
	studentTestService service.StudentTestService
}

func NewStudentTestController(studentTestService service.StudentTestService) *StudentTestController {
	return &StudentTestController{studentTestService: studentTestService}
}

// GetAvailableTests godoc
// @Summary (Student) List tests available for the student's grade
// @Description Active tests matching the student's grade, with attempt status per test.
// @Tags Student - Tests
// @Produce json
// @Param user_id query int true "Student's user ID"
// @Success 200 {array} dto.StudentTestSummaryDTO
// @Failure 400 {object} dto.ErrorResponse "Missing or invalid user_id"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /tests [get]
func (c *StudentTestController) GetAvailableTests(ctx *gin.Context) {
	studentID, ok := identity(ctx)
	if !ok {
		return
	}

	tests, err := c.studentTestService.GetTestsForStudent(studentID)
	if err != nil {
		log.Warn().Err(err).Uint("studentID", studentID).Msg("GetAvailableTests failed")
		renderError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, tests)
}

// GetTestInfo godoc
// @Summary (Student) Get the public card of a test
// @Description Test metadata shown before starting an attempt. No questions or answers.
// @Tags Student - Tests
// @Produce json
// @Param test_id path int true "Test ID"
// @Param user_id query int true "Caller's user ID"
// @Success 200 {object} dto.TestInfoDTO
// @Failure 403 {object} dto.ErrorResponse "Test not for the student's grade"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Router /tests/{test_id} [get]
func (c *StudentTestController) GetTestInfo(ctx *gin.Context) {
	testID, ok := pathID(ctx, "test_id")
	if !ok {
		return
	}
	callerID, ok := identity(ctx)
	if !ok {
		return
	}

	info, err := c.studentTestService.GetTestInfo(testID, callerID)
	if err != nil {
		log.Warn().Err(err).Uint("testID", testID).Msg("GetTestInfo failed")
		renderError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, info)
}
