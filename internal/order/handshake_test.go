package order_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ordersync/ordersync/internal/events"
	"github.com/ordersync/ordersync/internal/order"
	"github.com/ordersync/ordersync/internal/user"
)

// The whole path: user update -> event channel -> consumer -> orders.
func TestUserUpdatePropagatesToOrders(t *testing.T) {
	logger := watermill.NopLogger{}
	channel := events.NewMemoryChannel(logger)
	t.Cleanup(func() { _ = channel.Close() })

	publisher, err := events.NewPublisher(channel.Publisher, logger)
	require.NoError(t, err)

	users := user.NewService(user.NewMemoryStore(), publisher)
	orders := order.NewService(order.NewMemoryStore())

	router, err := events.NewRouter(events.RouterConfig{
		HandlerTimeout:  time.Second,
		PoisonPublisher: channel.Publisher,
	}, logger)
	require.NoError(t, err)
	order.NewUserChangeHandler(orders).Register(router, channel.Subscriber)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go func() {
		_ = router.Run(ctx)
	}()
	<-router.Running()

	ada, err := users.CreateUser(ctx, "ada@old.example.com")
	require.NoError(t, err)
	grace, err := users.CreateUser(ctx, "grace@example.com")
	require.NoError(t, err)

	for _, product := range []string{"keyboard", "mouse"} {
		_, err := orders.CreateOrder(ctx, order.PurchaseOrder{
			User:    order.UserSnapshot{ID: ada, Email: "ada@old.example.com"},
			Product: order.Product{ID: "p-" + product, Name: product},
			Price:   decimal.NewFromInt(10),
		})
		require.NoError(t, err)
	}
	_, err = orders.CreateOrder(ctx, order.PurchaseOrder{
		User:    order.UserSnapshot{ID: grace, Email: "grace@example.com"},
		Product: order.Product{ID: "p-monitor", Name: "monitor"},
		Price:   decimal.NewFromInt(200),
	})
	require.NoError(t, err)

	result, err := users.UpdateUser(ctx, ada, "ada@new.example.com")
	require.NoError(t, err)
	require.True(t, result.Found)
	require.NoError(t, result.PublishErr)

	assert.Eventually(t, func() bool {
		all, err := orders.ListOrders(ctx)
		if err != nil {
			return false
		}
		for _, o := range all {
			if o.User.ID == ada && o.User.Email != "ada@new.example.com" {
				return false
			}
		}
		return true
	}, 5*time.Second, 10*time.Millisecond)

	all, err := orders.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for _, o := range all {
		if o.User.ID == grace {
			assert.Equal(t, "grace@example.com", o.User.Email)
		}
	}

	require.NoError(t, router.Close())
}

func TestUnknownUserUpdatePublishesNothing(t *testing.T) {
	logger := watermill.NopLogger{}
	channel := events.NewMemoryChannel(logger)
	t.Cleanup(func() { _ = channel.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	messages, err := channel.Subscriber.Subscribe(ctx, events.UserChangedTopic)
	require.NoError(t, err)

	publisher, err := events.NewPublisher(channel.Publisher, logger)
	require.NoError(t, err)

	users := user.NewService(user.NewMemoryStore(), publisher)

	result, err := users.UpdateUser(ctx, "missing", "new@example.com")
	require.NoError(t, err)
	assert.False(t, result.Found)

	select {
	case msg := <-messages:
		t.Fatalf("unexpected event %s", msg.Payload)
	case <-time.After(100 * time.Millisecond):
	}
}
