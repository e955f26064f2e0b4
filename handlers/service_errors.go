package handlers

import (
	"errors"
	"net/http"
	"strings"
	"unicode"

	"github.com/upb/terrace/services"
	"github.com/upb/terrace/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses. Only the domain
// message is returned to the client, never the wrapped cause.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	var domainErr *services.DomainError
	if !errors.As(err, &domainErr) {
		// Unknown error type - log and return internal error
		logger.Error("unhandled error type", zap.Error(err))
		if err := utils.WriteInternalServerError(w, "An unexpected error occurred"); err != nil {
			logger.Error("failed to write internal error response", zap.Error(err))
		}
		return
	}

	message := publicMessage(domainErr.Message)
	details := services.GetErrorDetails(err)

	var writeErr error
	switch domainErr.Type {
	case services.ErrorTypeNotFound:
		writeErr = utils.WriteNotFound(w, message)
	case services.ErrorTypeValidation:
		writeErr = utils.WriteBadRequest(w, message, details)
	case services.ErrorTypeUnauthorized:
		writeErr = utils.WriteUnauthorized(w, message)
	case services.ErrorTypeForbidden:
		writeErr = utils.WriteForbidden(w, message)
	default:
		logger.Error("internal server error", zap.Error(err))
		writeErr = utils.WriteInternalServerError(w, message)
	}
	if writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}

	logger.Debug("handled service error",
		zap.String("type", string(domainErr.Type)),
		zap.String("message", domainErr.Message),
		zap.Any("details", domainErr.Details))
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var validationErr *utils.ValidationError
	if errors.As(err, &validationErr) {
		if err := utils.WriteBadRequest(w, validationErr.Message, validationErr.Details()); err != nil {
			logger.Error("failed to write validation error response", zap.Error(err))
		}
		return
	}

	// Generic validation error
	if err := utils.WriteBadRequest(w, err.Error(), nil); err != nil {
		logger.Error("failed to write validation error response", zap.Error(err))
	}
}

// publicMessage capitalizes a domain message for display
func publicMessage(msg string) string {
	if msg == "" {
		return ""
	}
	r := []rune(msg)
	return string(unicode.ToUpper(r[0])) + strings.TrimSpace(string(r[1:]))
}
