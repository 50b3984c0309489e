package observability

import (
	"context"

	"go.uber.org/zap"
)

// EventBus publishes structured application events. Events are emitted as
// log records so the dashboard and the log pipeline see the same stream.
type EventBus struct {
	logger *zap.Logger
}

// NewEventBus creates a new event bus.
func NewEventBus(logger *zap.Logger) *EventBus {
	return &EventBus{
		logger: logger,
	}
}

// Publish publishes an event with the given type and data.
func (e *EventBus) Publish(ctx context.Context, eventType string, data map[string]interface{}) {
	logger := e.logger
	if logger == nil {
		logger = FromContext(ctx)
	}

	fields := make([]zap.Field, 0, len(data))
	for k, v := range data {
		fields = append(fields, zap.Any(k, v))
	}

	logger.Info(eventType, fields...)
}
