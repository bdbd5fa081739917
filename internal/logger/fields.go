package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Structured field keys shared across components.
const (
	FieldProvider  = "ai_provider"
	FieldModel     = "ai_model"
	FieldRequestID = "request_id"
	FieldUserID    = "user_id"
	FieldSource    = "job_source"
)

// with tags logger with key/value pairs. Pairs with a blank key or value are skipped,
// and a nil logger becomes a no-op one.
func with(logger *zap.Logger, pairs ...string) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	fields := make([]zap.Field, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		key, value := strings.TrimSpace(pairs[i]), strings.TrimSpace(pairs[i+1])
		if key == "" || value == "" {
			continue
		}
		fields = append(fields, zap.String(key, value))
	}

	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}

// WithCommonFields tags a generator logger with its provider and model.
func WithCommonFields(logger *zap.Logger, provider, model string) *zap.Logger {
	return with(logger, FieldProvider, provider, FieldModel, model)
}

// WithRequest tags a logger with the request id and, when known, the user the request acts for.
func WithRequest(logger *zap.Logger, requestID, userID string) *zap.Logger {
	return with(logger, FieldRequestID, requestID, FieldUserID, userID)
}

// WithSource tags a logger with the job source name.
func WithSource(logger *zap.Logger, source string) *zap.Logger {
	return with(logger, FieldSource, source)
}
