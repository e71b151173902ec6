package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/wltrading/whitelabel-backend/shared/models"
	"github.com/wltrading/whitelabel-backend/shared/utils"
)

// activityEvent is the wire shape written to the activity stream.
type activityEvent struct {
	EventID       string    `json:"event_id"`
	TenantID      *uint     `json:"client_id,omitempty"`
	TokenID       *uint     `json:"token_id,omitempty"`
	ActionType    string    `json:"action_type"`
	ActionDetails string    `json:"action_details,omitempty"`
	IPAddress     string    `json:"ip_address,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// KafkaPublisher streams recorded activity events to a Kafka topic through a
// small worker pool. Publishing is fire-and-forget: a full queue drops the
// event, and broker failures trip a circuit breaker so request handling never
// waits on a dead broker.
type KafkaPublisher struct {
	writer   *kafka.Writer
	topic    string
	events   chan *models.ActivityLog
	breaker  *utils.CircuitBreaker
	shutdown chan struct{}
	wg       sync.WaitGroup
}

// NewKafkaPublisher creates a publisher for the given broker and topic.
func NewKafkaPublisher(broker, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(broker),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}

	kp := &KafkaPublisher{
		writer:   writer,
		topic:    topic,
		events:   make(chan *models.ActivityLog, 1000),
		breaker:  utils.NewCircuitBreaker(5, 30*time.Second),
		shutdown: make(chan struct{}),
	}

	for i := 0; i < 4; i++ {
		kp.wg.Add(1)
		go kp.worker()
	}
	return kp
}

// Publish queues an activity event without blocking.
func (kp *KafkaPublisher) Publish(_ context.Context, log *models.ActivityLog) error {
	select {
	case kp.events <- log:
		return nil
	default:
		return fmt.Errorf("activity event queue full, event dropped")
	}
}

func (kp *KafkaPublisher) worker() {
	defer kp.wg.Done()
	for {
		select {
		case log := <-kp.events:
			_ = kp.breaker.Call(func() error {
				return kp.write(log)
			})
		case <-kp.shutdown:
			return
		}
	}
}

func (kp *KafkaPublisher) write(log *models.ActivityLog) error {
	event := activityEvent{
		EventID:       uuid.NewString(),
		TenantID:      log.TenantID,
		TokenID:       log.TokenID,
		ActionType:    log.ActionType,
		ActionDetails: log.ActionDetails,
		IPAddress:     log.IPAddress,
		Timestamp:     log.Timestamp,
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal activity event: %w", err)
	}

	key := []byte("system")
	if log.TenantID != nil {
		key = []byte(strconv.FormatUint(uint64(*log.TenantID), 10))
	}

	msg := kafka.Message{
		Topic: kp.topic,
		Key:   key,
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(log.ActionType)},
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := kp.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write activity event: %w", err)
	}
	return nil
}

// Close drains the worker pool and closes the underlying writer.
func (kp *KafkaPublisher) Close() error {
	close(kp.shutdown)
	kp.wg.Wait()
	return kp.writer.Close()
}
