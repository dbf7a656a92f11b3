package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	approvaldomain "github.com/safeguardhq/safeguard/internal/approval/domain"
	"github.com/safeguardhq/safeguard/internal/authorization"
	customerdomain "github.com/safeguardhq/safeguard/internal/customer/domain"
	incidentdomain "github.com/safeguardhq/safeguard/internal/incident/domain"
	ledgerdomain "github.com/safeguardhq/safeguard/internal/ledger/domain"
	outletdomain "github.com/safeguardhq/safeguard/internal/outlet/domain"
	productdomain "github.com/safeguardhq/safeguard/internal/product/domain"
	terminaldomain "github.com/safeguardhq/safeguard/internal/terminal/domain"
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
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
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
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(err),
					Code:    err.Error(),
					Message: err.Error(),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden),
		errors.Is(err, customerdomain.ErrBlocked):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: err.Error(),
		}
	case errors.Is(err, terminaldomain.ErrApprovalDenied),
		errors.Is(err, terminaldomain.ErrSessionTimedOut):
		// The gate said no. A distinct type lets the terminal UI show
		// "denied by manager" versus "request expired".
		return http.StatusForbidden, errorPayload{
			Type:    "purchase_rejected",
			Message: err.Error(),
		}
	case errors.Is(err, ledgerdomain.ErrAllowanceExceeded):
		return http.StatusConflict, errorPayload{
			Type:    "allowance_exceeded",
			Message: "daily unit allowance exceeded",
		}
	case errors.Is(err, ledgerdomain.ErrCommitConflict),
		errors.Is(err, approvaldomain.ErrTerminalBusy),
		errors.Is(err, approvaldomain.ErrAlreadyResolved),
		errors.Is(err, terminaldomain.ErrPurchaseCancelled),
		errors.Is(err, ErrConflict):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case errors.Is(err, terminaldomain.ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, ledgerdomain.ErrStoreUnavailable),
		errors.Is(err, terminaldomain.ErrChannelUnavailable),
		errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: err.Error(),
		}
	case errors.Is(err, customerdomain.ErrDuplicate),
		errors.Is(err, productdomain.ErrDuplicateSKU),
		errors.Is(err, outletdomain.ErrDuplicate):
		return http.StatusConflict, errorPayload{
			Type:    "duplicate",
			Message: err.Error(),
		}
	}

	return http.StatusInternalServerError, errorPayload{
		Type:    "internal_error",
		Message: "internal server error",
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) {
		return vErr
	}
	return nil
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, customerdomain.ErrNotFound),
		errors.Is(err, productdomain.ErrNotFound),
		errors.Is(err, outletdomain.ErrNotFound),
		errors.Is(err, ledgerdomain.ErrNotFound),
		errors.Is(err, approvaldomain.ErrNotFound):
		return true
	}
	return false
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, customerdomain.ErrInvalidCredential),
		errors.Is(err, customerdomain.ErrInvalidName),
		errors.Is(err, customerdomain.ErrUnderage),
		errors.Is(err, customerdomain.ErrInvalidID),
		errors.Is(err, productdomain.ErrInvalidSKU),
		errors.Is(err, productdomain.ErrInvalidName),
		errors.Is(err, productdomain.ErrInvalidVolume),
		errors.Is(err, productdomain.ErrInvalidStrength),
		errors.Is(err, productdomain.ErrInvalidPrice),
		errors.Is(err, productdomain.ErrInvalidID),
		errors.Is(err, productdomain.ErrInactive),
		errors.Is(err, outletdomain.ErrInvalidName),
		errors.Is(err, ledgerdomain.ErrInvalidCustomer),
		errors.Is(err, ledgerdomain.ErrInvalidProduct),
		errors.Is(err, ledgerdomain.ErrInvalidUnits),
		errors.Is(err, ledgerdomain.ErrInvalidID),
		errors.Is(err, incidentdomain.ErrInvalidCustomer),
		errors.Is(err, incidentdomain.ErrInvalidType),
		errors.Is(err, incidentdomain.ErrInvalidSeverity),
		errors.Is(err, approvaldomain.ErrInvalidRequest):
		return true
	}
	return false
}

func validationErrorField(err error) string {
	switch {
	case errors.Is(err, customerdomain.ErrInvalidCredential):
		return "credential"
	case errors.Is(err, customerdomain.ErrInvalidName),
		errors.Is(err, productdomain.ErrInvalidName),
		errors.Is(err, outletdomain.ErrInvalidName):
		return "name"
	case errors.Is(err, customerdomain.ErrUnderage):
		return "age"
	case errors.Is(err, productdomain.ErrInvalidSKU):
		return "sku"
	case errors.Is(err, productdomain.ErrInvalidVolume):
		return "volume_ml"
	case errors.Is(err, productdomain.ErrInvalidStrength):
		return "abv_percent"
	case errors.Is(err, productdomain.ErrInvalidPrice):
		return "price_minor"
	case errors.Is(err, incidentdomain.ErrInvalidType):
		return "type"
	case errors.Is(err, incidentdomain.ErrInvalidSeverity):
		return "severity"
	case errors.Is(err, customerdomain.ErrInvalidID),
		errors.Is(err, productdomain.ErrInvalidID),
		errors.Is(err, ledgerdomain.ErrInvalidID):
		return "id"
	}
	return "request"
}

// classifyErrorForLog buckets handler errors for the request logger so
// expected rejections do not show up as server failures.
func classifyErrorForLog(err error) (string, string) {
	switch {
	case err == nil:
		return "", ""
	case isValidationError(err), asValidationErrors(err) != nil:
		return "validation", err.Error()
	case isNotFoundError(err):
		return "not_found", err.Error()
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden),
		errors.Is(err, customerdomain.ErrBlocked):
		return "denied", err.Error()
	case errors.Is(err, terminaldomain.ErrApprovalDenied),
		errors.Is(err, terminaldomain.ErrSessionTimedOut),
		errors.Is(err, ledgerdomain.ErrAllowanceExceeded):
		return "gated", err.Error()
	case errors.Is(err, terminaldomain.ErrRateLimited):
		return "rate_limited", err.Error()
	default:
		return "internal", err.Error()
	}
}
