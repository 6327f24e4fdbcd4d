package api

import (
	"errors"
	"net/http"

	"wagerpool/service"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// errorResponse is the body of every failed request
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errorMappings = []struct {
	err    error
	status int
	code   string
}{
	{service.ErrNotFound, http.StatusNotFound, "not_found"},
	{service.ErrUnauthorized, http.StatusForbidden, "unauthorized"},
	{service.ErrInvalidDeposit, http.StatusBadRequest, "invalid_deposit"},
	{service.ErrInvalidGroup, http.StatusBadRequest, "invalid_group"},
	{service.ErrInvalidDirection, http.StatusBadRequest, "invalid_direction"},
	{service.ErrInvalidDuration, http.StatusBadRequest, "invalid_duration"},
	{service.ErrInvalidValue, http.StatusBadRequest, "invalid_value"},
	{service.ErrNotApproved, http.StatusConflict, "not_approved"},
	{service.ErrAlreadyApproved, http.StatusConflict, "already_approved"},
	{service.ErrNotClosed, http.StatusConflict, "not_closed"},
	{service.ErrInsufficientFunds, http.StatusPaymentRequired, "insufficient_funds"},
}

// writeServiceError maps a service error onto its HTTP status
func writeServiceError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			c.JSON(m.status, errorResponse{Error: err.Error(), Code: m.code})
			return
		}
	}

	log.WithFields(log.Fields{
		"path":  c.FullPath(),
		"error": err,
	}).Error("Request failed")
	c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error", Code: "internal"})
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: message, Code: code})
}

func badRequest(c *gin.Context, message string) {
	abortWithError(c, http.StatusBadRequest, "invalid_request", message)
}
