package events

import (
	"context"
	"fmt"

	"github.com/moviemania/frontend/config"
)

// NewFromConfig builds the configured publisher. It returns nil, nil when
// events are disabled.
func NewFromConfig(ctx context.Context, cfg config.Config) (*Publisher, error) {
	var (
		backend Backend
		err     error
	)
	switch cfg.Events.Backend {
	case "", "none":
		return nil, nil
	case "rabbitmq":
		backend, err = NewRabbitMQClient(cfg.RabbitMQ)
	case "pubsub":
		backend, err = NewPubSubClient(ctx, cfg.PubSub)
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Events.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("events backend %s: %w", cfg.Events.Backend, err)
	}
	return NewPublisher(backend, cfg.Events.Channel), nil
}
