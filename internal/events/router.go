package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

type RouterConfig struct {
	// HandlerTimeout bounds the processing of a single message.
	HandlerTimeout time.Duration

	// PoisonPublisher receives messages whose payload cannot be decoded.
	// When nil, malformed messages are nacked like any other failure.
	PoisonPublisher message.Publisher
}

func NewRouter(cfg RouterConfig, logger watermill.LoggerAdapter) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create router: %w", err)
	}

	router.AddMiddleware(middleware.Recoverer)

	if cfg.PoisonPublisher != nil {
		poisonQueue, err := middleware.PoisonQueueWithFilter(
			cfg.PoisonPublisher,
			PoisonTopic,
			func(err error) bool {
				return errors.Is(err, ErrMalformedEvent)
			},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create poison queue: %w", err)
		}

		router.AddMiddleware(poisonQueue)
	}

	if cfg.HandlerTimeout > 0 {
		router.AddMiddleware(middleware.Timeout(cfg.HandlerTimeout))
	}

	return router, nil
}
