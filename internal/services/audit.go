package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/saeid-a/CounselPracticeBack/internal/logger"
	"github.com/sirupsen/logrus"
)

const (
	DefaultAuditExchange  = "practice.audit"
	DefaultAuditQueueSize = 256
)

type AuditEvent struct {
	Type       string    `json:"type"`
	AccountID  string    `json:"account_id"`
	ActorID    string    `json:"actor_id,omitempty"`
	EntityID   string    `json:"entity_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

type rawPublisher interface {
	Publish(exchange string, body []byte) error
}

type auditMessage struct {
	entry *logrus.Entry
	body  []byte
}

// AuditLog fans lifecycle events out to a message exchange. Publishing never blocks
// or fails the request that produced the event. A nil *AuditLog is a no-op, and a
// log without a queue publishes synchronously.
type AuditLog struct {
	publisher rawPublisher
	exchange  string
	queue     chan auditMessage
	stop      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// NewAuditLog starts one publishing worker behind a bounded queue. Events recorded
// while the queue is full are dropped.
func NewAuditLog(publisher rawPublisher, exchange string) *AuditLog {
	return newAuditLog(publisher, exchange, DefaultAuditQueueSize)
}

func newAuditLog(publisher rawPublisher, exchange string, queueSize int) *AuditLog {
	if exchange == "" {
		exchange = DefaultAuditExchange
	}
	a := &AuditLog{publisher: publisher, exchange: exchange}
	if publisher == nil {
		return a
	}
	if queueSize <= 0 {
		queueSize = DefaultAuditQueueSize
	}
	a.queue = make(chan auditMessage, queueSize)
	a.stop = make(chan struct{})
	a.stopped = make(chan struct{})
	go a.run()
	return a
}

func (a *AuditLog) Record(event AuditEvent) {
	if a == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	entry := logger.Logger.WithFields(logrus.Fields{
		"event":      event.Type,
		"account_id": event.AccountID,
		"entity_id":  event.EntityID,
	})
	if a.publisher == nil {
		entry.Debug("audit event")
		return
	}

	body, err := json.Marshal(event)
	if err != nil {
		entry.WithError(err).Warn("audit event encode failed")
		return
	}
	msg := auditMessage{entry: entry, body: body}
	if a.queue == nil {
		a.publish(msg)
		return
	}
	select {
	case <-a.stop:
		entry.Warn("audit log closed, event dropped")
	case a.queue <- msg:
	default:
		entry.Warn("audit queue full, event dropped")
	}
}

// Close stops the worker after it has published the events already queued.
func (a *AuditLog) Close() {
	if a == nil || a.queue == nil {
		return
	}
	a.closeOnce.Do(func() { close(a.stop) })
	<-a.stopped
}

func (a *AuditLog) run() {
	defer close(a.stopped)
	for {
		select {
		case msg := <-a.queue:
			a.publish(msg)
		case <-a.stop:
			for {
				select {
				case msg := <-a.queue:
					a.publish(msg)
				default:
					return
				}
			}
		}
	}
}

func (a *AuditLog) publish(msg auditMessage) {
	if err := a.publisher.Publish(a.exchange, msg.body); err != nil {
		msg.entry.WithError(err).Warn("audit event publish failed")
	}
}
