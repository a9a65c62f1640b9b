package queue

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Publisher is the outbound side of the fact event bus. The sync stage
// publishes one AttemptIngested event per newly stored attempt.
type Publisher interface {
	Publish(topic string, payload any) error
}

// Queue adds in-process subscriptions on top of Publisher.
type Queue interface {
	Publisher
	Subscribe(topic string, handler func(payload any) error) error
}

// InMemoryQueue is an in-memory queue with retry, used when no AMQP broker
// is configured.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload any) error
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		handlers: make(map[string][]func(payload any) error),
	}
}

// JobPayload wraps a message payload with retry info
type JobPayload struct {
	Payload    any
	RetryCount int
	MaxRetries int
}

// Publish sends a message to all subscribers. Having no subscriber is not
// an error here: fact publishing is best-effort observability.
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return nil
	}

	job := JobPayload{
		Payload:    payload,
		RetryCount: 0,
		MaxRetries: 3,
	}

	for _, handler := range handlers {
		go q.processJob(handler, job)
	}

	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(handler func(payload any) error, job JobPayload) {
	for job.RetryCount <= job.MaxRetries {
		err := handler(job.Payload)
		if err == nil {
			return // ACK
		}

		job.RetryCount++
		log.Printf("Job failed (attempt %d/%d): %+v, error: %v\n", job.RetryCount, job.MaxRetries, job.Payload, err)

		if job.RetryCount > job.MaxRetries {
			log.Printf("Job permanently failed after %d attempts: %+v\n", job.MaxRetries, job.Payload)
			return // No requeue
		}

		// Backoff before retry
		time.Sleep(time.Duration(job.RetryCount*500) * time.Millisecond)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// StartAuditSubscriber logs every ingested attempt fact. Mirrors what
// cmd/worker does against RabbitMQ, for brokerless local runs.
func StartAuditSubscriber(q Queue) {
	err := q.Subscribe(TopicAttemptFacts, func(payload any) error {
		event, ok := payload.(AttemptIngested)
		if !ok {
			return fmt.Errorf("unexpected payload type %T on %s", payload, TopicAttemptFacts)
		}
		log.Printf("📩 Attempt fact %s: conversation=%s session=%s outcome=%q",
			event.EventID, event.ConversationID, event.CustomerSessionID, event.Outcome)
		return nil
	})
	if err != nil {
		log.Println("⚠️ Failed to start audit subscriber:", err)
	}
}

var _ Queue = (*InMemoryQueue)(nil)
