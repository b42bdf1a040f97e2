package common

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Exchange string

type Queue string

type BindingKey string

type MessageProducer interface {
	Publish(ctx context.Context, msg []byte, key BindingKey, exchange Exchange) error
}

type MessageConsumer interface {
	Consume(key BindingKey, exchange Exchange, queue Queue) (<-chan amqp.Delivery, error)
}

const (
	AccountExchange     Exchange   = "account_exchange"
	AccountCreatedQueue Queue      = "account_created_queue"
	AccountCreatedKey   BindingKey = "account.created"

	FileExchange      Exchange   = "file_exchange"
	FileOrphanedQueue Queue      = "file_orphaned_queue"
	FileOrphanedKey   BindingKey = "file.orphaned"
)

type binding struct {
	exchange Exchange
	queue    Queue
	key      BindingKey
}

var bindings = []binding{
	{exchange: AccountExchange, queue: AccountCreatedQueue, key: AccountCreatedKey},
	{exchange: FileExchange, queue: FileOrphanedQueue, key: FileOrphanedKey},
}

type MessageBroker struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewMessageBroker(URI string) (*MessageBroker, error) {
	conn, ch, err := connectAMQP(URI)
	if err != nil {
		return nil, err
	}

	return &MessageBroker{
		conn: conn,
		ch:   ch,
	}, nil
}

func AMQPURI(user, password, host, port string) string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", user, password, host, port)
}

func connectAMQP(URI string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(URI)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("could not open channel: %w", err)
	}

	return conn, ch, nil
}

// Close closes the connection and channel of the message broker.
func (mb *MessageBroker) Close() error {
	err := mb.ch.Close()
	if err != nil {
		return err
	}

	return mb.conn.Close()
}

// SetupExchanges declares the durable exchanges and queues the services rely on.
func SetupExchanges(mb *MessageBroker) error {
	for _, b := range bindings {
		err := mb.ch.ExchangeDeclare(string(b.exchange), "direct", true, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("could not declare exchange %s: %w", b.exchange, err)
		}

		_, err = mb.ch.QueueDeclare(string(b.queue), true, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("could not declare queue %s: %w", b.queue, err)
		}

		err = mb.ch.QueueBind(string(b.queue), string(b.key), string(b.exchange), false, nil)
		if err != nil {
			return fmt.Errorf("could not bind queue %s: %w", b.queue, err)
		}
	}

	return nil
}

func (mb *MessageBroker) Publish(ctx context.Context, msg []byte, key BindingKey, exchange Exchange) error {
	err := mb.ch.PublishWithContext(ctx, string(exchange), string(key), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         msg,
	})
	if err != nil {
		return fmt.Errorf("could not publish message: %w", err)
	}

	return nil
}

func (mb *MessageBroker) Consume(key BindingKey, exchange Exchange, queue Queue) (<-chan amqp.Delivery, error) {
	msgs, err := mb.ch.Consume(string(queue), string(key), false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("could not consume message: %w", err)
	}

	return msgs, nil
}

// AccountCreatedMessage is published on AccountCreatedKey after sign-up.
type AccountCreatedMessage struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// FileOrphanedMessage is published on FileOrphanedKey once a file has no post
// referencing it.
type FileOrphanedMessage struct {
	FileID string `json:"file_id"`
	Reason string `json:"reason"`
}
