// Package handler implements the JSON API surface of the register service.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/emberhall/vanir/internal/domain"
	"github.com/emberhall/vanir/internal/middleware"
	"github.com/emberhall/vanir/internal/telemetry"
)

// validate is the shared validator instance. Struct tag validation is
// stateless, so one instance serves every handler.
var validate = validator.New(validator.WithRequiredStructEnabled())

// RespondJSON writes a JSON response with the given status.
func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// RespondError writes a structured JSON error derived from the domain code.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.ErrorCode(err)
	message := domain.ErrorMessage(err)
	status := ErrorCodeToHTTPStatus(code)

	logger := middleware.GetLogger(r.Context())

	attrs := []any{
		"error", err.Error(),
		"code", code,
		"status", status,
	}
	if op := domain.ErrorOp(err); op != "" {
		attrs = append(attrs, "op", op)
	}

	if status >= 500 {
		logger.Error("request failed", attrs...)
		telemetry.CaptureErrorFromContext(r.Context(), err, map[string]interface{}{
			"op":     domain.ErrorOp(err),
			"path":   r.URL.Path,
			"method": r.Method,
		})
	} else {
		logger.Info("request rejected", attrs...)
	}

	body := map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	}

	if fields := domain.GetValidationFields(err); len(fields) > 0 {
		body["error"].(map[string]any)["fields"] = fields
	}

	RespondJSON(w, status, body)
}

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest // 400
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized // 401
	case domain.EPAYMENT:
		return http.StatusPaymentRequired // 402
	case domain.EFORBIDDEN:
		return http.StatusForbidden // 403
	case domain.ENOTFOUND:
		return http.StatusNotFound // 404
	case domain.ECONFLICT:
		return http.StatusConflict // 409
	case domain.ETOOLARGE:
		return http.StatusRequestEntityTooLarge // 413
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests // 429
	case domain.EINTERNAL:
		return http.StatusInternalServerError // 500
	case domain.ENOTIMPL:
		return http.StatusNotImplemented // 501
	default:
		return http.StatusInternalServerError // 500
	}
}

// DecodeAndValidate decodes the JSON body into dst and runs struct tag
// validation, converting failures into field-level validation errors.
func DecodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.Invalid("handler.decode", "Request body is not valid JSON")
	}

	if err := validate.Struct(dst); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return domain.WrapError(err, domain.EINTERNAL, "handler.validate", "Validation setup error")
		}

		var ve error
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				ve = domain.AddFieldError(ve, fe.Field(), validationMessage(fe))
			}
		}
		if ve == nil {
			ve = domain.Invalid("handler.validate", "Request failed validation")
		}
		return ve
	}

	return nil
}

// validationMessage renders one operator-readable message per failed tag.
func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "gt":
		return "Must be greater than " + fe.Param()
	case "gte":
		return "Must be at least " + fe.Param()
	case "lt":
		return "Must be less than " + fe.Param()
	case "ne":
		return "Must not equal " + fe.Param()
	default:
		return "Invalid value"
	}
}
