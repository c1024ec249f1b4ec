package order

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/ordersync/ordersync/internal/events"
)

const userChangeHandlerName = "sync-order-user-snapshot"

// UserChangeHandler consumes UserChanged events and refreshes the user copy
// held by each order. It does not retry; a returned error nacks the message
// and redelivery is left to the event channel.
type UserChangeHandler struct {
	service *Service
}

func NewUserChangeHandler(service *Service) *UserChangeHandler {
	return &UserChangeHandler{service: service}
}

func (h *UserChangeHandler) Register(router *message.Router, sub message.Subscriber) {
	router.AddConsumerHandler(
		userChangeHandlerName,
		events.UserChangedTopic,
		sub,
		h.Handle,
	)
}

func (h *UserChangeHandler) Handle(msg *message.Message) error {
	event, err := events.UnmarshalUserChanged(msg.Payload)
	if err != nil {
		slog.Error("Malformed user change",
			slog.String("message_uuid", msg.UUID),
			slog.Any("error", err),
		)
		return err
	}

	updated, err := h.service.ApplyUserChange(msg.Context(), event)
	if err != nil {
		return err
	}

	slog.Debug("Applied user change to orders",
		slog.String("user_id", event.ID),
		slog.Int("orders", updated),
	)

	return nil
}
