package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
)

// This marshaler converts events to Watermill messages and vice versa.
// The payload stays plain JSON, the event name travels in metadata.
var CQRSMarshaler = cqrs.JSONMarshaler{
	GenerateName: cqrs.StructName,
}

type Publisher struct {
	eventBus *cqrs.EventBus
}

func NewPublisher(pub message.Publisher, logger watermill.LoggerAdapter) (*Publisher, error) {
	eventBus, err := cqrs.NewEventBusWithConfig(
		pub,
		cqrs.EventBusConfig{
			GeneratePublishTopic: func(params cqrs.GenerateEventPublishTopicParams) (string, error) {
				return UserChangedTopic, nil
			},
			Marshaler: CQRSMarshaler,
			Logger:    logger,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create event bus: %w", err)
	}

	return &Publisher{eventBus: eventBus}, nil
}

func (p *Publisher) PublishUserChanged(ctx context.Context, event UserChanged) error {
	if err := p.eventBus.Publish(ctx, &event); err != nil {
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}

	return nil
}
