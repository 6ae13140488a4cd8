package handler

import (
	"errors"
	"net/http"

	"github.com/buildtalk/forum/internal/service"
	"github.com/buildtalk/forum/internal/validation"
	"github.com/buildtalk/forum/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// respondError maps service and validation errors onto HTTP responses.
// Anything unrecognised is logged and answered with an opaque 500.
func respondError(c *gin.Context, err error) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"details": verr.Fields,
		})
		return
	}

	status, message := classify(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		logger.Log.Error("Unhandled request error",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("ip", c.ClientIP()),
			zap.Error(err),
		)
	}
	c.JSON(status, gin.H{"error": message})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrThreadNotFound),
		errors.Is(err, service.ErrCommentNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrTargetNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrOverwriteDisabled):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrEmailAlreadyExists),
		errors.Is(err, service.ErrConflict):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
}

// pathID parses a UUID route parameter, answering 400 when malformed.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondError(c, &validation.Error{Fields: []validation.FieldError{
			{Field: name, Reason: "must be a valid UUID"},
		}})
		return uuid.Nil, false
	}
	return id, true
}
