package rollover

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Job asks the worker to roll over to Session.
type Job struct {
	ID          string    `json:"id"`
	Session     string    `json:"session"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewJob returns a job for session; an empty session means the year of now.
func NewJob(session string, now time.Time) Job {
	if session == "" {
		session = strconv.Itoa(now.Year())
	}
	return Job{ID: uuid.New().String(), Session: session, RequestedAt: now.UTC()}
}

// Queue accepts rollover jobs.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
}

// ErrQueueFull is returned by MemoryQueue when its buffer is full.
var ErrQueueFull = errors.New("rollover: job queue is full")

// MemoryQueue is an in-process queue used when Kafka is not configured.
type MemoryQueue struct {
	jobs chan Job
}

// NewMemoryQueue returns a queue buffering up to size jobs.
func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 1
	}
	return &MemoryQueue{jobs: make(chan Job, size)}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, job Job) error {
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Consume passes queued jobs to handle until ctx is done.
func (q *MemoryQueue) Consume(ctx context.Context, handle func(context.Context, Job) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case job := <-q.jobs:
			_ = handle(ctx, job)
		}
	}
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaQueue publishes jobs to a Kafka topic consumed by the worker.
type KafkaQueue struct {
	writer messageWriter
}

// NewKafkaQueue returns a queue writing to topic. Call Close when shutting down.
func NewKafkaQueue(brokers []string, topic string) (*KafkaQueue, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, errors.New("rollover: kafka brokers and topic are required")
	}
	return &KafkaQueue{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireAll,
	}}, nil
}

func (q *KafkaQueue) Enqueue(ctx context.Context, job Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	// A single key keeps all jobs on one partition, in order.
	if err := q.writer.WriteMessages(writeCtx, kafka.Message{Key: []byte("rollover"), Value: payload}); err != nil {
		return fmt.Errorf("publish rollover job: %w", err)
	}
	return nil
}

// Close closes the Kafka writer.
func (q *KafkaQueue) Close() error {
	if q == nil || q.writer == nil {
		return nil
	}
	return q.writer.Close()
}

// DecodeJob parses a job published by KafkaQueue.
func DecodeJob(b []byte) (Job, error) {
	var job Job
	if err := json.Unmarshal(b, &job); err != nil {
		return Job{}, fmt.Errorf("decode rollover job: %w", err)
	}
	if job.Session == "" {
		return Job{}, ErrEmptySession
	}
	return job, nil
}
