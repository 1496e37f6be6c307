package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/siparist/services"
	"github.com/yeremiapane/siparist/utils"
)

// respondServiceError maps the service error taxonomy onto HTTP.
func respondServiceError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrStaleSession) {
		utils.RespondErrorWithData(c, http.StatusUnauthorized, err, gin.H{"reauth_required": true})
		return
	}
	code, err := serviceErrorStatus(c, err)
	utils.RespondError(c, code, err)
}

// respondServiceErrorWithData is respondServiceError with a payload, e.g. a
// partial result the caller still needs to see.
func respondServiceErrorWithData(c *gin.Context, err error, data interface{}) {
	code, err := serviceErrorStatus(c, err)
	utils.RespondErrorWithData(c, code, err, data)
}

func serviceErrorStatus(c *gin.Context, err error) (int, error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest, err
	case errors.Is(err, services.ErrStaleSession), errors.Is(err, services.ErrAuth):
		return http.StatusUnauthorized, err
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, err
	case errors.Is(err, services.ErrInvalidTransition), errors.Is(err, services.ErrConflict):
		return http.StatusConflict, err
	default:
		utils.ErrorLogger.Printf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		return http.StatusInternalServerError, errors.New("operation failed, please try again")
	}
}

func bindJSON(c *gin.Context, out interface{}) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return false
	}
	return true
}
