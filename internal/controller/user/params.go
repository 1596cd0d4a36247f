package user

import (
	"net/http"
	"strconv"

	"github.com/bilimdonlar/maktabtest/internal/apperr"
	"github.com/bilimdonlar/maktabtest/internal/dto"
	"github.com/gin-gonic/gin"
)

// pathID parses a numeric path parameter, responding 400 itself on failure.
func pathID(ctx *gin.Context, name string) (uint, bool) {
	val, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid " + name + " format"})
		return 0, false
	}
	return uint(val), true
}

// identity reads the caller's user_id query parameter. Authentication lives
// at the gateway; this API trusts the forwarded identity.
func identity(ctx *gin.Context) (uint, bool) {
	val, err := strconv.ParseUint(ctx.Query("user_id"), 10, 32)
	if err != nil || val == 0 {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Missing or invalid user_id"})
		return 0, false
	}
	return uint(val), true
}

func renderError(ctx *gin.Context, err error) {
	ctx.JSON(apperr.HTTPStatus(err), dto.ErrorResponse{Message: err.Error()})
}
