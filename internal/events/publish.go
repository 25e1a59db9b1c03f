package events

import (
	"context"
	"time"

	"github.com/Skotchmaster/shopping_app/internal/logging"
)

const publishTimeout = 5 * time.Second

// Publish writes the event synchronously, bounded by publishTimeout. Failures are logged, never returned.
func Publish(ctx context.Context, p Publisher, topic, key string, event map[string]any) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := p.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_error", "topic", topic, "type", event["type"], "error", err)
	}
}
