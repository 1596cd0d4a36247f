package admin

import (
	"net/http"

	"github.com/bilimdonlar/maktabtest/internal/dto"
	"github.com/bilimdonlar/maktabtest/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type AdminRetakeController struct {
	retakeService  service.RetakeService
	attemptService service.AttemptService
}

func NewAdminRetakeController(
	retakeService service.RetakeService,
	attemptService service.AttemptService,
) *AdminRetakeController {
	return &AdminRetakeController{
		retakeService:  retakeService,
		attemptService: attemptService,
	}
}

// ListRetakeRequests godoc
// @Summary (Staff) List retake requests
// @Description Admins see every request; teachers see requests against their own tests. Filter with ?status=pending|approved|rejected|all.
// @Tags Admin - Retakes
// @Produce json
// @Param user_id query int true "Caller's user ID"
// @Param status query string false "Status filter, defaults to all"
// @Success 200 {object} dto.RetakeListDTO
// @Failure 403 {object} dto.ErrorResponse "Caller is not staff"
// @Router /admin/retake-requests [get]
func (c *AdminRetakeController) ListRetakeRequests(ctx *gin.Context) {
	callerID, ok := identity(ctx)
	if !ok {
		return
	}

	list, err := c.retakeService.List(callerID, ctx.Query("status"))
	if err != nil {
		renderError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, list)
}

// DecideRetakeRequest godoc
// @Summary (Staff) Approve or reject a retake request
// @Description Resolves a pending request. Only an admin or the test's author may decide; decided requests are immutable.
// @Tags Admin - Retakes
// @Accept json
// @Produce json
// @Param request_id path int true "Retake request ID"
// @Param user_id query int true "Caller's user ID"
// @Param decision body dto.RetakeDecisionDTO true "approve or reject, with an optional response"
// @Success 200 {object} dto.RetakeDecidedDTO
// @Failure 400 {object} dto.ErrorResponse "Request already decided"
// @Failure 403 {object} dto.ErrorResponse "Caller cannot decide for this test"
// @Failure 404 {object} dto.ErrorResponse "Request not found"
// @Router /admin/retake-requests/{request_id}/decision [post]
func (c *AdminRetakeController) DecideRetakeRequest(ctx *gin.Context) {
	requestID, ok := pathID(ctx, "request_id")
	if !ok {
		return
	}
	callerID, ok := identity(ctx)
	if !ok {
		return
	}

	var req dto.RetakeDecisionDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("DecideRetakeRequest: failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	resp, err := c.retakeService.Decide(requestID, callerID, req)
	if err != nil {
		log.Warn().Err(err).Uint("requestID", requestID).Uint("callerID", callerID).Msg("DecideRetakeRequest failed")
		renderError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// ReopenTest godoc
// @Summary (Admin) Reopen a test for a student
// @Description Mints a fresh retake attempt for the student without a filed request. Consumes an approved request when one exists.
// @Tags Admin - Retakes
// @Produce json
// @Param test_id path int true "Test ID"
// @Param student_id path int true "Student's user ID"
// @Param user_id query int true "Admin's user ID"
// @Success 201 {object} dto.ReopenDTO
// @Failure 400 {object} dto.ErrorResponse "Student already has an attempt in progress"
// @Failure 403 {object} dto.ErrorResponse "Caller is not an admin"
// @Failure 404 {object} dto.ErrorResponse "Test or student not found"
// @Router /admin/tests/{test_id}/students/{student_id}/reopen [post]
func (c *AdminRetakeController) ReopenTest(ctx *gin.Context) {
	testID, ok := pathID(ctx, "test_id")
	if !ok {
		return
	}
	studentID, ok := pathID(ctx, "student_id")
	if !ok {
		return
	}
	actorID, ok := identity(ctx)
	if !ok {
		return
	}

	resp, err := c.attemptService.Reopen(testID, studentID, actorID)
	if err != nil {
		log.Warn().Err(err).Uint("testID", testID).Uint("studentID", studentID).Msg("ReopenTest failed")
		renderError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}
