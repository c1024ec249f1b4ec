package events

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	UserChangedTopic = "user-service-event"
	PoisonTopic      = UserChangedTopic + ".poison"
)

var (
	ErrMalformedEvent = errors.New("malformed event")
	ErrPublish        = errors.New("publish failed")
)

// UserChanged is emitted by the user service after a user update is stored.
type UserChanged struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func UnmarshalUserChanged(payload []byte) (UserChanged, error) {
	var event UserChanged
	if err := json.Unmarshal(payload, &event); err != nil {
		return UserChanged{}, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}

	if event.ID == "" {
		return UserChanged{}, fmt.Errorf("%w: missing user id", ErrMalformedEvent)
	}

	return event, nil
}
