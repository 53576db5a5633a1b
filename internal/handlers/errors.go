package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/travelease/ticketing-backend/internal/apperr"
)

// ErrorDetail is the body of every failed response: {"error":{"code","message"}}
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps ErrorDetail
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// SuccessResponse is returned by endpoints with nothing else to say
type SuccessResponse struct {
	Message string `json:"message"`
}

func writeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// respondError maps err onto its HTTP status. Anything that is not a classified
// client error is logged and reported as a generic 500.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	appErr, ok := apperr.As(err)
	if !ok || appErr.Kind == apperr.KindInternal {
		logger.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).Error("Request failed")
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
		return
	}
	writeError(c, appErr.Status(), appErr.Code, appErr.Message)
}

func respondBindError(c *gin.Context, err error) {
	writeError(c, http.StatusBadRequest, "INVALID_REQUEST_BODY", "Invalid request body: "+err.Error())
}
