package admin

import (
	"net/http"

	"github.com/bilimdonlar/maktabtest/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type AdminResultsController struct {
	resultsService service.ResultsService
}

func NewAdminResultsController(resultsService service.ResultsService) *AdminResultsController {
	return &AdminResultsController{resultsService: resultsService}
}

// GetTestResults godoc
// @Summary (Teacher) List completed attempts for one test
// @Description Every completed attempt with score, grade band and per-count breakdown. Restricted to the test's author or an admin.
// @Tags Admin - Results
// @Produce json
// @Param test_id path int true "Test ID"
// @Param user_id query int true "Caller's user ID"
// @Success 200 {object} dto.TestResultsDTO
// @Failure 403 {object} dto.ErrorResponse "Not the test's author"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Router /admin/tests/{test_id}/results [get]
func (c *AdminResultsController) GetTestResults(ctx *gin.Context) {
	testID, ok := pathID(ctx, "test_id")
	if !ok {
		return
	}
	callerID, ok := identity(ctx)
	if !ok {
		return
	}

	results, err := c.resultsService.GetTestResults(testID, callerID)
	if err != nil {
		log.Warn().Err(err).Uint("testID", testID).Uint("callerID", callerID).Msg("GetTestResults failed")
		renderError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, results)
}

// GetAllResults godoc
// @Summary (Staff) List all completed attempts
// @Description Admins see every completed attempt; teachers see attempts against their own tests.
// @Tags Admin - Results
// @Produce json
// @Param user_id query int true "Caller's user ID"
// @Success 200 {array} dto.TeacherResultRowDTO
// @Failure 403 {object} dto.ErrorResponse "Caller is not staff"
// @Router /admin/results [get]
func (c *AdminResultsController) GetAllResults(ctx *gin.Context) {
	callerID, ok := identity(ctx)
	if !ok {
		return
	}

	results, err := c.resultsService.GetAllResults(callerID)
	if err != nil {
		renderError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, results)
}
