package admin

import (
	"net/http"

	"github.com/bilimdonlar/maktabtest/internal/dto"
	"github.com/bilimdonlar/maktabtest/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type AdminTestController struct {
	adminTestService service.AdminTestService
}

func NewAdminTestController(adminTestService service.AdminTestService) *AdminTestController {
	return &AdminTestController{adminTestService: adminTestService}
}

// CreateTest godoc
// @Summary (Teacher) Create a test with its questions
// @Description Creates a test owned by the caller. Questions and choices are created in the same request; single choice questions need exactly one correct choice.
// @Tags Admin - Tests
// @Accept json
// @Produce json
// @Param user_id query int true "Teacher's user ID"
// @Param test_data body dto.TestCreateDTO true "Test with questions"
// @Success 201 {object} dto.TestAdminDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid payload or question set"
// @Failure 403 {object} dto.ErrorResponse "Caller is not a teacher or admin"
// @Router /admin/tests [post]
func (c *AdminTestController) CreateTest(ctx *gin.Context) {
	actorID, ok := identity(ctx)
	if !ok {
		return
	}

	var req dto.TestCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("CreateTest: failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	test, err := c.adminTestService.CreateTest(actorID, req)
	if err != nil {
		log.Warn().Err(err).Uint("actorID", actorID).Msg("CreateTest failed")
		renderError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, test)
}

// UpdateTest godoc
// @Summary (Teacher) Update a test and its questions
// @Description Edits metadata and question content. Questions omitted from the payload are removed. Existing attempts are never rescored.
// @Tags Admin - Tests
// @Accept json
// @Produce json
// @Param test_id path int true "Test ID"
// @Param user_id query int true "Teacher's user ID"
// @Param test_data body dto.TestUpdateDTO true "Fields to change"
// @Success 200 {object} dto.TestAdminDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid payload"
// @Failure 403 {object} dto.ErrorResponse "Not the test's author"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Router /admin/tests/{test_id} [put]
func (c *AdminTestController) UpdateTest(ctx *gin.Context) {
	testID, ok := pathID(ctx, "test_id")
	if !ok {
		return
	}
	actorID, ok := identity(ctx)
	if !ok {
		return
	}

	var req dto.TestUpdateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("UpdateTest: failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	test, err := c.adminTestService.UpdateTest(testID, actorID, req)
	if err != nil {
		log.Warn().Err(err).Uint("testID", testID).Uint("actorID", actorID).Msg("UpdateTest failed")
		renderError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, test)
}

// GetTest godoc
// @Summary (Teacher) Get a test with questions and correct answers
// @Description The author's full view of one test, including correctness flags.
// @Tags Admin - Tests
// @Produce json
// @Param test_id path int true "Test ID"
// @Param user_id query int true "Teacher's user ID"
// @Success 200 {object} dto.TestAdminDTO
// @Failure 403 {object} dto.ErrorResponse "Not the test's author"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Router /admin/tests/{test_id} [get]
func (c *AdminTestController) GetTest(ctx *gin.Context) {
	testID, ok := pathID(ctx, "test_id")
	if !ok {
		return
	}
	actorID, ok := identity(ctx)
	if !ok {
		return
	}

	test, err := c.adminTestService.GetTest(testID, actorID)
	if err != nil {
		renderError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, test)
}

// GetTeacherTests godoc
// @Summary (Teacher) List the caller's own tests
// @Tags Admin - Tests
// @Produce json
// @Param user_id query int true "Teacher's user ID"
// @Success 200 {array} dto.TeacherTestSummaryDTO
// @Failure 403 {object} dto.ErrorResponse "Caller is not a teacher or admin"
// @Router /admin/tests [get]
func (c *AdminTestController) GetTeacherTests(ctx *gin.Context) {
	actorID, ok := identity(ctx)
	if !ok {
		return
	}

	tests, err := c.adminTestService.GetTeacherTests(actorID)
	if err != nil {
		renderError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, tests)
}
