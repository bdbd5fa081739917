package server

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v3"

	"github.com/spigell/jobgenius/internal/service"
	"github.com/spigell/jobgenius/internal/storage"
)

// Envelope wraps every JSON answer of the API.
type Envelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

const (
	MessageOK                  = "ok"
	MessageCreated             = "created"
	MessageInternalServerError = "internal server error"
)

func success(c fiber.Ctx, status int, data any) error {
	message := MessageOK
	if status == fiber.StatusCreated {
		message = MessageCreated
	}
	return c.Status(status).JSON(Envelope{Status: status, Message: message, Data: data})
}

func failure(c fiber.Ctx, status int, message string, data any) error {
	if message == "" {
		message = defaultMessage(status)
	}
	return c.Status(status).JSON(Envelope{Status: status, Message: message, Data: data})
}

func defaultMessage(status int) string {
	if status >= fiber.StatusInternalServerError {
		return MessageInternalServerError
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "error"
}

// AppError is an error that knows how it should be presented to the client.
type AppError struct {
	StatusCode int
	Message    string
	Data       any
	Cause      error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func NewAppError(statusCode int, message string, data any, cause error) *AppError {
	return &AppError{StatusCode: statusCode, Message: message, Data: data, Cause: cause}
}

func badRequest(message string, cause error) *AppError {
	return NewAppError(fiber.StatusBadRequest, message, nil, cause)
}

// fromService maps service and storage errors onto HTTP statuses.
func fromService(err error, action string) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return NewAppError(fiber.StatusNotFound, "Not found", nil, err)
	case errors.Is(err, storage.ErrDuplicate):
		return NewAppError(fiber.StatusConflict, "Already exists", nil, err)
	case errors.Is(err, service.ErrInvalidInput):
		return NewAppError(fiber.StatusBadRequest, err.Error(), nil, err)
	default:
		return NewAppError(fiber.StatusInternalServerError, "Failed to "+action, nil, err)
	}
}

// normalize resolves the status, message and payload presented for err. 5xx details are never exposed.
func normalize(err error) (int, string, any) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		status := appErr.StatusCode
		if status <= 0 || status >= fiber.StatusInternalServerError {
			return fiber.StatusInternalServerError, MessageInternalServerError, nil
		}
		return status, appErr.Message, appErr.Data
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		status := fiberErr.Code
		if status <= 0 || status >= fiber.StatusInternalServerError {
			return fiber.StatusInternalServerError, MessageInternalServerError, nil
		}
		return status, fiberErr.Message, nil
	}

	return fiber.StatusInternalServerError, MessageInternalServerError, nil
}
