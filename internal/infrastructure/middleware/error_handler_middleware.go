package middleware

import (
	"context"
	stderrors "errors"
	"net/http"

	"drawboard/internal/core/domain"
	"drawboard/internal/core/services"
	"drawboard/pkg/circuitbreaker"
	"drawboard/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ToAppError maps domain failures onto their HTTP error codes. Errors that
// are already AppErrors pass through; anything unknown becomes a 500.
func ToAppError(err error) *errors.AppError {
	if appErr := errors.GetAppError(err); appErr != nil {
		return appErr
	}

	switch {
	case stderrors.Is(err, domain.ErrUnknownAction),
		stderrors.Is(err, domain.ErrInvalidPayload),
		stderrors.Is(err, domain.ErrInvalidMode),
		stderrors.Is(err, domain.ErrInvalidInput):
		return errors.WrapError(err, errors.ErrCodeInvalidInput, err.Error(), http.StatusBadRequest)
	case stderrors.Is(err, domain.ErrActionNotAllowed):
		return errors.WrapError(err, errors.ErrCodeForbidden, err.Error(), http.StatusForbidden)
	case stderrors.Is(err, domain.ErrOwnerNotRemovable),
		stderrors.Is(err, domain.ErrOwnerNotAddable),
		stderrors.Is(err, domain.ErrDuplicateStroke):
		return errors.WrapError(err, errors.ErrCodeConflict, err.Error(), http.StatusConflict)
	case stderrors.Is(err, domain.ErrLayerLocked):
		return errors.WrapError(err, errors.ErrCodeLocked, err.Error(), http.StatusLocked)
	case stderrors.Is(err, domain.ErrNotAuthenticated),
		stderrors.Is(err, services.ErrInvalidToken),
		stderrors.Is(err, services.ErrExpiredToken):
		return errors.WrapError(err, errors.ErrCodeUnauthorized, err.Error(), http.StatusUnauthorized)
	case stderrors.Is(err, domain.ErrProfileNotFound),
		stderrors.Is(err, domain.ErrSnapshotNotFound),
		stderrors.Is(err, domain.ErrKeyNotFound):
		return errors.WrapError(err, errors.ErrCodeNotFound, err.Error(), http.StatusNotFound)
	case stderrors.Is(err, domain.ErrNoStore),
		stderrors.Is(err, domain.ErrStoreClosed):
		return errors.WrapError(err, errors.ErrCodeServiceUnavailable, err.Error(), http.StatusServiceUnavailable)
	case stderrors.Is(err, circuitbreaker.ErrOpen):
		return errors.WrapError(err, errors.ErrCodeServiceUnavailable, "storage temporarily unavailable", http.StatusServiceUnavailable)
	case stderrors.Is(err, context.DeadlineExceeded),
		stderrors.Is(err, context.Canceled):
		return errors.WrapError(err, errors.ErrCodeTimeout, "request did not complete in time", http.StatusGatewayTimeout)
	}
	return errors.WrapError(err, errors.ErrCodeInternal, "Internal server error", http.StatusInternalServerError)
}

// ErrorHandlerMiddleware renders the last error a handler attached with
// c.Error as a JSON body.
func ErrorHandlerMiddleware(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		appErr := ToAppError(c.Errors.Last().Err)

		if appErr.HTTPStatus >= http.StatusInternalServerError {
			logger.Errorw("request failed",
				"code", appErr.Code,
				"error", appErr.Error(),
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
			)
		} else {
			logger.Debugw("request rejected",
				"code", appErr.Code,
				"message", appErr.Message,
				"path", c.Request.URL.Path,
			)
		}

		body := gin.H{
			"error":   string(appErr.Code),
			"message": appErr.Message,
		}
		if len(appErr.Context) > 0 {
			body["details"] = appErr.Context
		}
		c.JSON(appErr.HTTPStatus, body)
	}
}

// RecoveryMiddleware recovers from panics and returns proper error responses
func RecoveryMiddleware(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Errorw("panic recovered",
					"error", err,
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":   string(errors.ErrCodeInternal),
					"message": "Internal server error",
				})
			}
		}()

		c.Next()
	}
}
