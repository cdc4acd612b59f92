package http

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"dispatch/internal/pkg/errs"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Error is the body of every non-2xx response.
type Error struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorHandler renders handler errors as Error bodies. Domain errors keep their
// message; anything unclassified becomes an opaque 500.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, message := classify(err)
		if code >= http.StatusInternalServerError {
			log.Error("unhandled error",
				zap.String("request_id", requestIDOf(c)),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}

		body := Error{Code: code, Message: message, RequestID: requestIDOf(c)}
		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(code)
		} else {
			writeErr = c.JSON(code, body)
		}
		if writeErr != nil {
			log.Warn("failed to write error response", zap.Error(writeErr))
		}
	}
}

func classify(err error) (int, string) {
	var bindErr *echo.BindingError
	var httpErr *echo.HTTPError

	switch {
	case errors.As(err, &bindErr):
		return http.StatusBadRequest, fmt.Sprintf("invalid value for %s", bindErr.Field)
	case errors.As(err, &httpErr):
		return httpErr.Code, fmt.Sprint(httpErr.Message)
	case errs.IsValidation(err):
		return http.StatusBadRequest, err.Error()
	case errs.IsNotFound(err):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, errs.ErrInvalidTransition), errs.IsConcurrentModification(err):
		return http.StatusConflict, err.Error()
	case errors.Is(err, errs.ErrInvalidState), errors.Is(err, errs.ErrDriverUnavailable):
		return http.StatusUnprocessableEntity, err.Error()
	default:
		return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
	}
}

// requestValidator plugs validator/v10 into echo.Context.Validate.
type requestValidator struct {
	validate *validator.Validate
}

func newRequestValidator() *requestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &requestValidator{validate: v}
}

func (v *requestValidator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return errs.NewValidationError("request", fmt.Sprintf("field %s failed the %q rule", fe.Field(), fe.Tag()))
	}
	return errs.NewValidationErrorWithCause("request", "malformed request", err)
}

// bind decodes and validates a request body.
func bind[T any](c echo.Context) (T, error) {
	var req T
	if err := c.Bind(&req); err != nil {
		return req, err
	}
	if err := c.Validate(&req); err != nil {
		return req, err
	}
	return req, nil
}
