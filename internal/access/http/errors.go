package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/aussiebroadwan/tenantgate/internal/access/service"
	"github.com/aussiebroadwan/tenantgate/pkg/authsdk"
	"github.com/aussiebroadwan/tenantgate/pkg/httpx"
	"github.com/aussiebroadwan/tenantgate/pkg/slogx"
	"github.com/go-playground/validator/v10"
)

// writeError maps a service error onto its HTTP response. Only validation,
// permission, lookup and conflict messages reach the client verbatim, the
// rest get a fixed description.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := slogx.FromContext(r.Context())

	var locked *service.LockedError
	switch {
	case errors.As(err, &locked):
		apiErr := authsdk.NewAPIError(http.StatusTooManyRequests, authsdk.ErrorCodeAccountLocked, locked.Error())
		apiErr.RetryAfter = locked.RetryAfter()
		apiErr.WriteError(w)

	case errors.Is(err, service.ErrValidation):
		authsdk.ErrInvalidRequest.WithDescription(describe(err, service.ErrValidation)).WriteError(w)

	case errors.Is(err, service.ErrInvalidCredentials):
		authsdk.ErrInvalidCredentials.WriteError(w)

	case errors.Is(err, service.ErrUnauthorized):
		log.Warn("request unauthorized", slog.Any("err", err))
		authsdk.NewAPIError(http.StatusUnauthorized, authsdk.ErrorCodeInvalidCredentials, "authentication failed").WriteError(w)

	case errors.Is(err, service.ErrForbidden):
		authsdk.ErrForbidden.WithDescription(describe(err, service.ErrForbidden)).WriteError(w)

	case errors.Is(err, service.ErrNotFound):
		authsdk.ErrNotFound.WithDescription(describe(err, service.ErrNotFound)).WriteError(w)

	case errors.Is(err, service.ErrConflict):
		authsdk.NewAPIError(http.StatusConflict, authsdk.ErrorCodeConflict, describe(err, service.ErrConflict)).WriteError(w)

	case errors.Is(err, service.ErrRateLimited):
		authsdk.NewAPIError(http.StatusTooManyRequests, authsdk.ErrorCodeRateLimited, "too many attempts").WriteError(w)

	case errors.Is(err, service.ErrUpstream):
		log.Warn("upstream unavailable", slog.Any("err", err))
		authsdk.ErrUpstreamUnavailable.WriteError(w)

	default:
		log.Error("request failed", slog.Any("err", err))
		authsdk.ErrServerError.WriteError(w)
	}
}

// describe strips the kind prefix from a service error message.
func describe(err, kind error) string {
	msg := strings.TrimPrefix(err.Error(), kind.Error()+": ")
	if msg == kind.Error() {
		return strings.ReplaceAll(msg, "_", " ")
	}
	return msg
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeAndValidate reads the JSON body into dst and validates it. It writes
// the error response itself and reports whether the handler may go on. With
// optional set an empty body leaves dst at its zero value.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any, optional bool) bool {
	if err := httpx.DecodeJSON(w, r, dst); err != nil {
		if !optional || !errors.Is(err, httpx.ErrEmptyBody) {
			authsdk.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
			return false
		}
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			authsdk.ErrInvalidRequest.WriteError(w)
			return false
		}
		httpx.WriteJSON(w, http.StatusBadRequest, authsdk.ValidationErrorResponse{
			Code:    authsdk.ErrorCodeValidation,
			Message: "request validation failed",
			Details: formatValidationErrors(verrs),
		})
		return false
	}
	return true
}

func formatValidationErrors(verrs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = validationMessage(fe)
	}
	return details
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "numeric":
		return "must contain only digits"
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}
