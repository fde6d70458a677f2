package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/marginalia/internal/api/shared"
	"github.com/phrazzld/marginalia/internal/domain"
	"github.com/phrazzld/marginalia/internal/service"
	"github.com/phrazzld/marginalia/internal/service/auth"
	"github.com/phrazzld/marginalia/internal/store"
)

// domainValidationErrors are the domain errors that mean the client sent bad input.
var domainValidationErrors = []error{
	domain.ErrInvalidUserID,
	domain.ErrEmptyUsername,
	domain.ErrInvalidUsername,
	domain.ErrEmptyEmail,
	domain.ErrEmptyAuthority,
	domain.ErrEmptyTargetURI,
	domain.ErrEmptyGroupName,
	domain.ErrInvalidGroupType,
	domain.ErrEmptyURI,
	domain.ErrInvalidTemplate,
	domain.ErrInvalidExpiration,
	store.ErrInvalidEntity,
}

func isValidationError(err error) bool {
	for _, target := range domainValidationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	var ve validator.ValidationErrors
	return errors.As(err, &ve)
}

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// exposing their types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized

	case errors.Is(err, service.ErrNotOwned),
		errors.Is(err, service.ErrGroupWriteDenied):
		return http.StatusForbidden

	case errors.Is(err, service.ErrParentNotFound):
		return http.StatusUnprocessableEntity

	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	case isValidationError(err):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"
	case errors.Is(err, service.ErrInvalidCredentials):
		return "Invalid username or password"

	case errors.Is(err, service.ErrNotOwned):
		return "You do not own this resource"
	case errors.Is(err, service.ErrGroupWriteDenied):
		return "You may not post to this group"
	case errors.Is(err, service.ErrParentNotFound):
		return "Parent annotation not found"

	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, store.ErrAnnotationNotFound):
		return "Annotation not found"
	case errors.Is(err, store.ErrGroupNotFound):
		return "Group not found"
	case errors.Is(err, store.ErrSubscriptionNotFound):
		return "Subscription not found"
	case errors.Is(err, store.ErrNotFound):
		return "Not found"

	case errors.Is(err, store.ErrUsernameExists):
		return "Username already taken"
	case errors.Is(err, store.ErrEmailExists):
		return "Email already registered"
	case errors.Is(err, store.ErrDuplicate):
		return "Already exists"

	case isValidationError(err):
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			return SanitizeValidationError(err)
		}
		// Domain validation messages are written for users.
		for _, target := range domainValidationErrors {
			if errors.Is(err, target) {
				return capitalize(target.Error())
			}
		}
		return "Validation error"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns validator output into a short message
// naming the first failing field.
func SanitizeValidationError(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		return fmt.Sprintf("Invalid %s: %s", strings.ToLower(fe.Field()), validationTagMessage(fe.Tag()))
	}
	return "Validation error"
}

func validationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "url", "uri":
		return "invalid url"
	default:
		return "validation failed"
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// HandleAPIError writes the mapped status and safe message for err, logging
// the redacted detail. Auth failures are logged at WARN.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		message = fallback
	}
	var opts []shared.ResponseOption
	if status == http.StatusUnauthorized {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}
