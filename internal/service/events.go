package service

import (
	"context"

	"github.com/buildtalk/forum/internal/broker"
	"github.com/buildtalk/forum/pkg/logger"
	"go.uber.org/zap"
)

// publish sends an event to the live feed. Failures never fail the
// mutation that produced the event.
func publish(ctx context.Context, b broker.EventBroker, eventType string, data interface{}) {
	if b == nil {
		return
	}

	event, err := broker.NewEvent(eventType, data)
	if err != nil {
		logger.Log.Error("Failed to encode event", zap.String("event_type", eventType), zap.Error(err))
		return
	}

	if err := b.Publish(context.WithoutCancel(ctx), event); err != nil {
		logger.Log.Warn("Failed to publish event", zap.String("event_type", eventType), zap.Error(err))
	}
}
