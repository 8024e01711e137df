package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	alertdomain "github.com/smallbiznis/opsdesk/internal/alert/domain"
	auditdomain "github.com/smallbiznis/opsdesk/internal/audit/domain"
	"github.com/smallbiznis/opsdesk/internal/authorization"
	bookingdomain "github.com/smallbiznis/opsdesk/internal/booking/domain"
	contactdomain "github.com/smallbiznis/opsdesk/internal/contact/domain"
	conversationdomain "github.com/smallbiznis/opsdesk/internal/conversation/domain"
	formdomain "github.com/smallbiznis/opsdesk/internal/form/domain"
	identitydomain "github.com/smallbiznis/opsdesk/internal/identity/domain"
	inventorydomain "github.com/smallbiznis/opsdesk/internal/inventory/domain"
	ruledomain "github.com/smallbiznis/opsdesk/internal/rule/domain"
	workspacedomain "github.com/smallbiznis/opsdesk/internal/workspace/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrRateLimited    = errors.New("rate_limited")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := err.Error()
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: "invalid value",
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, identitydomain.ErrInvalidCredentials),
		errors.Is(err, identitydomain.ErrInvalidToken):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, workspacedomain.ErrForbidden),
		errors.Is(err, authorization.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, ErrConflict),
		errors.Is(err, identitydomain.ErrUserExists),
		errors.Is(err, workspacedomain.ErrAlreadyActive),
		errors.Is(err, inventorydomain.ErrInsufficientStock):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(err),
		}
	case isActivationGateError(err):
		// Readiness failures are client-correctable, not conflicts.
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "activation_blocked",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, inventorydomain.ErrInsufficientStock):
		return "insufficient stock"
	case errors.Is(err, workspacedomain.ErrAlreadyActive):
		return "workspace already active"
	default:
		return "conflict"
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch err {
	case ErrInvalidRequest,
		workspacedomain.ErrInvalidWorkspace,
		workspacedomain.ErrInvalidName,
		workspacedomain.ErrInvalidEmail,
		workspacedomain.ErrInvalidChannel,
		workspacedomain.ErrChannelNotSet,
		identitydomain.ErrInvalidWorkspace,
		identitydomain.ErrInvalidEmail,
		identitydomain.ErrInvalidPassword,
		contactdomain.ErrInvalidWorkspace,
		contactdomain.ErrInvalidName,
		contactdomain.ErrMissingChannel,
		conversationdomain.ErrInvalidWorkspace,
		conversationdomain.ErrInvalidID,
		conversationdomain.ErrInvalidContent,
		conversationdomain.ErrInvalidType,
		bookingdomain.ErrInvalidWorkspace,
		bookingdomain.ErrInvalidName,
		bookingdomain.ErrInvalidDuration,
		bookingdomain.ErrInvalidAvailability,
		bookingdomain.ErrInvalidStartTime,
		bookingdomain.ErrInvalidID,
		formdomain.ErrInvalidWorkspace,
		formdomain.ErrInvalidName,
		formdomain.ErrInvalidID,
		inventorydomain.ErrInvalidWorkspace,
		inventorydomain.ErrInvalidName,
		inventorydomain.ErrInvalidQuantity,
		inventorydomain.ErrInvalidThreshold,
		inventorydomain.ErrInvalidID,
		ruledomain.ErrInvalidWorkspace,
		ruledomain.ErrInvalidName,
		ruledomain.ErrInvalidAction,
		ruledomain.ErrInvalidID,
		alertdomain.ErrInvalidWorkspace,
		alertdomain.ErrInvalidType,
		alertdomain.ErrInvalidMessage,
		alertdomain.ErrInvalidID,
		auditdomain.ErrInvalidWorkspace,
		auditdomain.ErrInvalidAction,
		auditdomain.ErrInvalidEntity:
		return true
	default:
		return false
	}
}

func isActivationGateError(err error) bool {
	switch {
	case errors.Is(err, workspacedomain.ErrNoChannel),
		errors.Is(err, workspacedomain.ErrNoOfferings),
		errors.Is(err, workspacedomain.ErrNoAvailability):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, workspacedomain.ErrNotFound),
		errors.Is(err, identitydomain.ErrNotFound),
		errors.Is(err, contactdomain.ErrNotFound),
		errors.Is(err, conversationdomain.ErrNotFound),
		errors.Is(err, bookingdomain.ErrNotFound),
		errors.Is(err, bookingdomain.ErrOfferingNotFound),
		errors.Is(err, bookingdomain.ErrContactNotFound),
		errors.Is(err, formdomain.ErrNotFound),
		errors.Is(err, inventorydomain.ErrNotFound),
		errors.Is(err, ruledomain.ErrNotFound),
		errors.Is(err, ruledomain.ErrTemplateNotFound),
		errors.Is(err, alertdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}
