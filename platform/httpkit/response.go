// Package httpkit provides shared HTTP transport utilities: error mapping,
// auth middleware, rate limiting and identity extraction.
package httpkit

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"collectflow_backend/platform/apperr"
	"collectflow_backend/platform/logger"
)

// ErrorResponse is the JSON shape of every error returned by the API.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HandleError writes the appropriate HTTP response for err.
// Domain errors (apperr.Error) map to their HTTP status with their message;
// anything else becomes an opaque 500.
func HandleError(c *gin.Context, log *logger.Logger, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus()
		if status >= http.StatusInternalServerError {
			log.HTTPError(c.Request.Method, c.Request.URL.Path, status, err, c.ClientIP())
			c.JSON(status, ErrorResponse{Error: "internal server error"})
			return
		}
		c.JSON(status, ErrorResponse{Error: appErr.Message})
		return
	}

	log.HTTPError(c.Request.Method, c.Request.URL.Path, http.StatusInternalServerError, err, c.ClientIP())
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// Created writes a 201 with the given body.
func Created(c *gin.Context, body any) {
	c.JSON(http.StatusCreated, body)
}

// OK writes a 200 with the given body.
func OK(c *gin.Context, body any) {
	c.JSON(http.StatusOK, body)
}

// NoContent writes a 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
