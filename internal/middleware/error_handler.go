package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Sumit21adm/School-Management-System-sub005/internal/billing"
)

// APIError is the JSON error envelope returned by every endpoint.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error APIError `json:"error"`
}

// CustomErrorHandler maps domain and HTTP errors to a consistent JSON
// envelope. Ledger conflicts are client errors, never 500s.
func CustomErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	apiErr := APIError{Code: "internal_error", Message: "Something went wrong. Please try again later."}

	switch {
	case errors.Is(err, billing.ErrBillNotFound),
		errors.Is(err, billing.ErrStudentNotFound),
		errors.Is(err, billing.ErrTransactionNotFound):
		code = http.StatusNotFound
		apiErr = APIError{Code: "not_found", Message: err.Error()}
	case errors.Is(err, billing.ErrBillAlreadyPaid),
		errors.Is(err, billing.ErrAlreadyVoided),
		errors.Is(err, billing.ErrNotSettled):
		code = http.StatusConflict
		apiErr = APIError{Code: "conflict", Message: err.Error()}
	case errors.Is(err, billing.ErrInvalidAmount),
		errors.Is(err, billing.ErrPaymentOvershoot):
		code = http.StatusBadRequest
		apiErr = APIError{Code: "invalid_request", Message: err.Error()}
	default:
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			apiErr = APIError{Code: codeName(he.Code)}
			if msg, ok := he.Message.(string); ok && msg != "" {
				apiErr.Message = msg
			} else {
				apiErr.Message = http.StatusText(he.Code)
			}
		}
	}

	if code >= http.StatusInternalServerError {
		c.Logger().Error(err)
	}

	if jsonErr := c.JSON(code, errorResponse{Error: apiErr}); jsonErr != nil {
		c.Logger().Error(jsonErr)
	}
}

func codeName(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	default:
		return "internal_error"
	}
}
