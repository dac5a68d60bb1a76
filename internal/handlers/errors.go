package handlers

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/lost-and-found-api/internal/auth"
	"github.com/yukikurage/lost-and-found-api/internal/authz"
	apierrors "github.com/yukikurage/lost-and-found-api/internal/errors"
	"github.com/yukikurage/lost-and-found-api/internal/services"
	"github.com/yukikurage/lost-and-found-api/internal/uploads"
)

// respondError maps service errors to JSON error responses. Anything not
// recognised is logged and reported as a bare 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUsernameTaken),
		errors.Is(err, services.ErrEmailTaken):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c)
	case errors.Is(err, auth.ErrInvalidToken):
		apierrors.Unauthorized(c, "Invalid or expired token")
	case errors.Is(err, authz.ErrNotOwner):
		apierrors.Forbidden(c, "You can only modify your own items")
	case errors.Is(err, services.ErrItemNotFound):
		apierrors.NotFound(c, "Item not found")
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, "User not found")
	case errors.Is(err, uploads.ErrUnsupportedMediaType):
		apierrors.UnsupportedMediaType(c, "File type not allowed")
	case errors.Is(err, uploads.ErrFileTooLarge):
		apierrors.BadRequest(c, "File too large")
	case errors.Is(err, uploads.ErrEmptyFile):
		apierrors.BadRequest(c, "File is empty")
	case isValidationError(err):
		apierrors.BadRequest(c, err.Error())
	default:
		slog.ErrorContext(c.Request.Context(), "unhandled error",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err,
		)
		apierrors.InternalError(c, "")
	}
}

func isValidationError(err error) bool {
	for _, target := range []error{
		services.ErrUsernameRequired,
		services.ErrUsernameTooLong,
		services.ErrPasswordRequired,
		services.ErrInvalidEmail,
		services.ErrTitleRequired,
		services.ErrTitleTooLong,
		services.ErrLocationTooLong,
		services.ErrInvalidStatus,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// flashMessage is the form-surface counterpart of respondError.
func flashMessage(c *gin.Context, err error) string {
	switch {
	case errors.Is(err, services.ErrUsernameTaken):
		return "Username already exists."
	case errors.Is(err, services.ErrEmailTaken):
		return "Email already registered."
	case errors.Is(err, services.ErrInvalidCredentials):
		return "Invalid username or password."
	case errors.Is(err, authz.ErrNotOwner):
		return "You can only modify your own items."
	case errors.Is(err, services.ErrItemNotFound):
		return "Item not found."
	case errors.Is(err, uploads.ErrUnsupportedMediaType):
		return "File type not allowed."
	case errors.Is(err, uploads.ErrFileTooLarge):
		return "File too large."
	case errors.Is(err, uploads.ErrEmptyFile):
		return "File is empty."
	case isValidationError(err):
		msg := err.Error()
		return strings.ToUpper(msg[:1]) + msg[1:] + "."
	default:
		slog.ErrorContext(c.Request.Context(), "unhandled error",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err,
		)
		return "Something went wrong. Please try again."
	}
}
