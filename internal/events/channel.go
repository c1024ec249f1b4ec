package events

import (
	"errors"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	watermillSQL "github.com/ThreeDotsLabs/watermill-sql/v4/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/ordersync/ordersync/internal/config"
)

// This marshaler converts Watermill messages to Kafka messages and vice versa.
var KafkaMarshaler = kafka.DefaultMarshaler{}

// Channel is the publisher/subscriber pair of one event backend.
type Channel struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber

	closers []func() error
}

// NewChannel connects to the configured backend. db is only used by the
// postgres backend and may be nil otherwise.
func NewChannel(cfg config.EventsConfig, db *sqlx.DB, logger watermill.LoggerAdapter) (*Channel, error) {
	switch cfg.Backend {
	case config.EventBackendKafka:
		return newKafkaChannel(cfg, logger)
	case config.EventBackendRedis:
		return newRedisChannel(cfg, logger)
	case config.EventBackendPostgres:
		return newPostgresChannel(cfg, db, logger)
	case config.EventBackendMemory:
		return NewMemoryChannel(logger), nil
	default:
		return nil, fmt.Errorf("unknown event backend %q", cfg.Backend)
	}
}

// NewMemoryChannel keeps messages inside the process. Both services have to
// share it, so it only serves tests and single-process runs.
func NewMemoryChannel(logger watermill.LoggerAdapter) *Channel {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, logger)

	return &Channel{
		Publisher:  pubSub,
		Subscriber: pubSub,
		closers:    []func() error{pubSub.Close},
	}
}

func newKafkaChannel(cfg config.EventsConfig, logger watermill.LoggerAdapter) (*Channel, error) {
	pub, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   cfg.KafkaBrokers,
		Marshaler: KafkaMarshaler,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("error starting the kafka publisher: %w", err)
	}

	sub, err := kafka.NewSubscriber(kafka.SubscriberConfig{
		Brokers:               cfg.KafkaBrokers,
		Unmarshaler:           KafkaMarshaler,
		ConsumerGroup:         cfg.ConsumerGroup,
		OverwriteSaramaConfig: newSubscriberSaramaConfig(),
		InitializeTopicDetails: &sarama.TopicDetail{
			NumPartitions:     1,
			ReplicationFactor: 1,
		},
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("error starting the kafka subscriber: %w", err)
	}

	return &Channel{
		Publisher:  pub,
		Subscriber: sub,
		closers:    []func() error{sub.Close, pub.Close},
	}, nil
}

func newSubscriberSaramaConfig() *sarama.Config {
	cfg := kafka.DefaultSaramaSubscriberConfig()
	// Start from the oldest message on the first run, otherwise updates
	// published before the order service joined the group are skipped.
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	return cfg
}

func newRedisChannel(cfg config.EventsConfig, logger watermill.LoggerAdapter) (*Channel, error) {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})

	pub, err := redisstream.NewPublisher(redisstream.PublisherConfig{
		Client:     client,
		Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
	}, logger)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("error starting the redis publisher: %w", err)
	}

	sub, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
		Client:        client,
		Unmarshaller:  redisstream.DefaultMarshallerUnmarshaller{},
		ConsumerGroup: cfg.ConsumerGroup,
	}, logger)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("error starting the redis subscriber: %w", err)
	}

	return &Channel{
		Publisher:  pub,
		Subscriber: sub,
		closers:    []func() error{sub.Close, pub.Close, client.Close},
	}, nil
}

func newPostgresChannel(cfg config.EventsConfig, db *sqlx.DB, logger watermill.LoggerAdapter) (*Channel, error) {
	if db == nil {
		return nil, errors.New("postgres event backend needs a database connection")
	}

	pub, err := watermillSQL.NewPublisher(
		watermillSQL.BeginnerFromStdSQL(db.DB),
		watermillSQL.PublisherConfig{
			SchemaAdapter:        watermillSQL.DefaultPostgreSQLSchema{},
			AutoInitializeSchema: true,
		}, logger,
	)
	if err != nil {
		return nil, fmt.Errorf("error starting the sql publisher: %w", err)
	}

	sub, err := watermillSQL.NewSubscriber(
		watermillSQL.BeginnerFromStdSQL(db.DB),
		watermillSQL.SubscriberConfig{
			ConsumerGroup:    cfg.ConsumerGroup,
			InitializeSchema: true,
			SchemaAdapter:    watermillSQL.DefaultPostgreSQLSchema{},
			OffsetsAdapter:   watermillSQL.DefaultPostgreSQLOffsetsAdapter{},
		}, logger,
	)
	if err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("error starting the sql subscriber: %w", err)
	}

	return &Channel{
		Publisher:  pub,
		Subscriber: sub,
		closers:    []func() error{sub.Close, pub.Close},
	}, nil
}

func (c *Channel) Close() error {
	var errs []error
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
