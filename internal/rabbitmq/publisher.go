package rabbitmq

import (
	"sync"
	"time"

	"github.com/streadway/amqp"
)

// Publisher publishes a message body to a fanout exchange.
type Publisher interface {
	Publish(exchange string, body []byte) error
}

type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	declared map[string]bool
}

// NewAMQPPublisher dials RabbitMQ and opens a single channel.
func NewAMQPPublisher(amqpURL string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &AMQPPublisher{conn: conn, channel: ch, declared: make(map[string]bool)}, nil
}

// Publish declares the exchange once per publisher and sends a persistent message.
// amqp channels are not safe for concurrent use, so calls are serialized.
func (p *AMQPPublisher) Publish(exchange string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.declared[exchange] {
		err := p.channel.ExchangeDeclare(
			exchange,
			"fanout",
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			return err
		}
		p.declared[exchange] = true
	}
	return p.channel.Publish(
		exchange,
		"",
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
}

func (p *AMQPPublisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
