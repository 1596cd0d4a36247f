package user

import (
	"net/http"

	"github.com/bilimdonlar/maktabtest/internal/dto"
	"github.com/bilimdonlar/maktabtest/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type RetakeController struct {
	retakeService service.RetakeService
}

func NewRetakeController(retakeService service.RetakeService) *RetakeController {
	return &RetakeController{retakeService: retakeService}
}

// FileRetakeRequest godoc
// @Summary (Student) Request a retake of a completed test
// @Description Files a pending retake request against the student's latest completed attempt. Only one active request per test is allowed.
// @Tags Student - Retakes
// @Accept json
// @Produce json
// @Param test_id path int true "Test ID"
// @Param user_id query int true "Student's user ID"
// @Param request body dto.RetakeCreateDTO true "Reason for the retake"
// @Success 201 {object} dto.RetakeFiledDTO
// @Failure 400 {object} dto.ErrorResponse "No completed attempt, or a request is already active"
// @Failure 404 {object} dto.ErrorResponse "Test or student not found"
// @Router /tests/{test_id}/retake-requests [post]
func (c *RetakeController) FileRetakeRequest(ctx *gin.Context) {
	testID, ok := pathID(ctx, "test_id")
	if !ok {
		return
	}
	studentID, ok := identity(ctx)
	if !ok {
		return
	}

	var req dto.RetakeCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("FileRetakeRequest: failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	resp, err := c.retakeService.File(testID, studentID, req)
	if err != nil {
		log.Warn().Err(err).Uint("testID", testID).Uint("studentID", studentID).Msg("FileRetakeRequest failed")
		renderError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}
