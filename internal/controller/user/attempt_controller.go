package user

import (
	"net/http"

	"github.com/bilimdonlar/maktabtest/internal/dto"
	"github.com/bilimdonlar/maktabtest/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type AttemptController struct {
	attemptService service.AttemptService
	answerService  service.AnswerService
	resultsService service.ResultsService
}

func NewAttemptController(
	attemptService service.AttemptService,
	answerService service.AnswerService,
	resultsService service.ResultsService,
) *AttemptController {
	return &AttemptController{
		attemptService: attemptService,
		answerService:  answerService,
		resultsService: resultsService,
	}
}

// StartAttempt godoc
// @Summary (Student) Start or resume a test attempt
// @Description Creates a new attempt, or resumes the student's incomplete one. The response carries the served questions without correctness flags.
// @Tags Student - Attempts
// @Produce json
// @Param test_id path int true "Test ID"
// @Param user_id query int true "Student's user ID"
// @Success 201 {object} dto.StartAttemptDTO
// @Failure 400 {object} dto.ErrorResponse "Already completed, or no attempts remaining"
// @Failure 403 {object} dto.ErrorResponse "Test inactive, paused, out of window, or wrong grade"
// @Failure 404 {object} dto.ErrorResponse "Test or student not found"
// @Router /tests/{test_id}/attempts [post]
func (c *AttemptController) StartAttempt(ctx *gin.Context) {
	testID, ok := pathID(ctx, "test_id")
	if !ok {
		return
	}
	studentID, ok := identity(ctx)
	if !ok {
		return
	}

	attempt, err := c.attemptService.Start(testID, studentID)
	if err != nil {
		log.Warn().Err(err).Uint("testID", testID).Uint("studentID", studentID).Msg("StartAttempt failed")
		renderError(ctx, err)
		return
	}

	status := http.StatusCreated
	if attempt.Resumed {
		status = http.StatusOK
	}
	ctx.JSON(status, attempt)
}

// SubmitAnswer godoc
// @Summary (Student) Submit or replace the answer to one question
// @Description Records the answer for a question of an in-progress attempt. Re-submitting replaces the previous answer entirely.
// @Tags Student - Attempts
// @Accept json
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Param user_id query int true "Student's user ID"
// @Param answer body dto.SubmitAnswerDTO true "Answer payload"
// @Success 200 {object} dto.MessageResponse
// @Failure 400 {object} dto.ErrorResponse "Attempt completed, or invalid selection"
// @Failure 403 {object} dto.ErrorResponse "Attempt belongs to another student"
// @Failure 404 {object} dto.ErrorResponse "Attempt or question not found"
// @Router /attempts/{attempt_id}/answers [post]
func (c *AttemptController) SubmitAnswer(ctx *gin.Context) {
	attemptID, ok := pathID(ctx, "attempt_id")
	if !ok {
		return
	}
	studentID, ok := identity(ctx)
	if !ok {
		return
	}

	var req dto.SubmitAnswerDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("SubmitAnswer: failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	resp, err := c.answerService.Submit(attemptID, studentID, req)
	if err != nil {
		log.Warn().Err(err).Uint("attemptID", attemptID).Uint("questionID", req.QuestionID).Msg("SubmitAnswer failed")
		renderError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// FinishAttempt godoc
// @Summary (Student) Finish an attempt and get the scored result
// @Description Completes the attempt exactly once, scores it against the served questions, and returns the breakdown.
// @Tags Student - Attempts
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Param user_id query int true "Student's user ID"
// @Success 200 {object} dto.FinishAttemptDTO
// @Failure 400 {object} dto.ErrorResponse "Attempt already completed"
// @Failure 403 {object} dto.ErrorResponse "Attempt belongs to another student"
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Router /attempts/{attempt_id}/finish [post]
func (c *AttemptController) FinishAttempt(ctx *gin.Context) {
	attemptID, ok := pathID(ctx, "attempt_id")
	if !ok {
		return
	}
	studentID, ok := identity(ctx)
	if !ok {
		return
	}

	resp, err := c.attemptService.Finish(attemptID, studentID)
	if err != nil {
		log.Warn().Err(err).Uint("attemptID", attemptID).Uint("studentID", studentID).Msg("FinishAttempt failed")
		renderError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetAttemptResult godoc
// @Summary (Student) Get the result of a completed attempt
// @Description Full breakdown including incorrect questions with correct answers. Students see their own attempts only, and only when the test shows results.
// @Tags Student - Attempts
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Param user_id query int true "Caller's user ID"
// @Success 200 {object} dto.StudentResultDTO
// @Failure 400 {object} dto.ErrorResponse "Attempt not completed yet"
// @Failure 403 {object} dto.ErrorResponse "Not the attempt owner, or results hidden"
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Router /attempts/{attempt_id}/result [get]
func (c *AttemptController) GetAttemptResult(ctx *gin.Context) {
	attemptID, ok := pathID(ctx, "attempt_id")
	if !ok {
		return
	}
	callerID, ok := identity(ctx)
	if !ok {
		return
	}

	result, err := c.resultsService.GetAttemptResult(attemptID, callerID)
	if err != nil {
		log.Warn().Err(err).Uint("attemptID", attemptID).Uint("callerID", callerID).Msg("GetAttemptResult failed")
		renderError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}
