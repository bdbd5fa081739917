package server

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/jobgenius/internal/logger"
)

const (
	headerRequestID = "X-Request-ID"

	localRequestID = "request_id"
	localUserID    = "user_id"
)

// errorMiddleware renders handler errors and recovered panics as envelopes.
func errorMiddleware(log *zap.Logger) fiber.Handler {
	return func(c fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				requestLogger(c, log).Error("panic recovered", zap.String("panic", fmt.Sprint(r)))
				err = failure(c, fiber.StatusInternalServerError, MessageInternalServerError, nil)
			}
		}()

		err = c.Next()
		if err == nil {
			return nil
		}

		status, message, data := normalize(err)
		if status >= fiber.StatusInternalServerError {
			requestLogger(c, log).Error("request failed", zap.Error(err))
		} else {
			requestLogger(c, log).Debug("request rejected", zap.Int("status", status), zap.Error(err))
		}
		return failure(c, status, message, data)
	}
}

// accessLog assigns a request ID and logs one line per request.
func accessLog(log *zap.Logger) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		rid := c.Get(headerRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(headerRequestID, rid)
		c.Locals(localRequestID, rid)

		err := c.Next()

		requestLogger(c, log).Info("http access",
			zap.String("method", c.Method()),
			zap.String("path", c.OriginalURL()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.IP()),
			zap.String("user_agent", c.Get(fiber.HeaderUserAgent)),
		)

		return err
	}
}

func requestLogger(c fiber.Ctx, log *zap.Logger) *zap.Logger {
	rid, _ := c.Locals(localRequestID).(string)
	user := ""
	if id, ok := c.Locals(localUserID).(int64); ok {
		user = strconv.FormatInt(id, 10)
	}
	return logger.WithRequest(log, rid, user)
}
