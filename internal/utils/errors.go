// internal/utils/errors.go
package utils

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/prodcare/prodcare-backend/internal/i18n"
)

// AppError carries an i18n key and the HTTP status it should be rendered with.
type AppError struct {
	Status  int
	Key     string
	Args    []interface{}
	Details interface{}
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Key, e.Err)
	}
	return e.Key
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches another AppError by key so callers can use errors.Is with the constructors below.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Key == e.Key
}

func newAppError(status int, key string, args ...interface{}) *AppError {
	return &AppError{Status: status, Key: key, Args: args}
}

func NewValidationError(key string, args ...interface{}) *AppError {
	return newAppError(http.StatusBadRequest, key, args...)
}

func NewNotFoundError(key string) *AppError {
	return newAppError(http.StatusNotFound, key)
}

func NewConflictError(key string) *AppError {
	return newAppError(http.StatusConflict, key)
}

func NewUnauthorizedError(key string) *AppError {
	return newAppError(http.StatusUnauthorized, key)
}

func NewForbiddenError(key string) *AppError {
	return newAppError(http.StatusForbidden, key)
}

// WithCause attaches the underlying error for logging.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// HandleError renders err in the failed envelope. Anything that is not an
// AppError or a validation failure is logged and masked as internal.
func HandleError(c *gin.Context, err error) {
	lang := GetLangFromContext(c)

	var appErr *AppError
	if errors.As(err, &appErr) {
		status := appErr.Status
		if status == 0 {
			status = http.StatusBadRequest
		}
		ErrorResponse(c, status, i18n.T(lang, appErr.Key, appErr.Args...), appErr.Details)
		return
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationErrorResponse(c, GetValidationErrors(validationErrs))
		return
	}

	logrus.WithFields(logrus.Fields{
		"request_id": c.GetString("request_id"),
		"path":       c.Request.URL.Path,
	}).WithError(err).Error("Unhandled request error")
	InternalErrorResponse(c)
}
