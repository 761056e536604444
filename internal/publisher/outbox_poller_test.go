package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/backend"
	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/domain"
	r "github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/repository"
)

type MockRepository struct {
	StuckSessions             []*r.CheckoutSession
	GetStuckSessionsErr       error
	CompleteCheckoutErr       error
	CompletedCheckoutIDs      []string
	CompletedOrderIDs         []string
	CompleteCheckoutCallCount int
	OutboxEvents              []*r.OutboxEvent
	ProcessedId               int
}

func (m *MockRepository) Close() error {
	return nil
}

func (m *MockRepository) RunMigrations(*r.Credentials) error {
	return nil
}

func (m *MockRepository) GetCheckoutSessionByIdempotencyKey(_ context.Context, _ string) (*string, *domain.CheckoutStatus, error) {
	return nil, nil, r.ErrIdempotencyKeyNotFound
}

func (m *MockRepository) GetCheckoutSession(_ context.Context, _ *string) (*r.CheckoutSession, error) {
	return nil, r.ErrSessionNotFound
}

func (m *MockRepository) CreateCheckoutSession(_ context.Context, _ *r.CheckoutSession) error {
	return nil
}

func (m *MockRepository) UpdateCheckoutSessionStatus(_ context.Context, _ *string, _ *domain.CheckoutStatus) error {
	return nil
}

func (m *MockRepository) SetPayment(_ context.Context, _ *string, _ *domain.CheckoutStatus, _ *domain.PaymentRefs) error {
	return nil
}

func (m *MockRepository) FailCheckoutSession(_ context.Context, _ *string, _ string) error {
	return nil
}

func (m *MockRepository) CompleteCheckoutSession(_ context.Context, id *string, orderID *string, _ []byte, _ *domain.CheckoutStatus) error {
	m.CompleteCheckoutCallCount++
	if m.CompleteCheckoutErr != nil {
		return m.CompleteCheckoutErr
	}
	m.CompletedCheckoutIDs = append(m.CompletedCheckoutIDs, *id)
	m.CompletedOrderIDs = append(m.CompletedOrderIDs, *orderID)
	return nil
}

func (m *MockRepository) GetUnprocessedEvents(context.Context, int) ([]*r.OutboxEvent, error) {
	if len(m.OutboxEvents) > 0 {
		ev := []*r.OutboxEvent{m.OutboxEvents[0]} // Return first event once
		m.OutboxEvents = []*r.OutboxEvent{}
		return ev, nil
	}
	return m.OutboxEvents, nil
}

func (m *MockRepository) MarkEventAsProcessed(_ context.Context, id int) error {
	m.ProcessedId = id
	return nil
}

func (m *MockRepository) GetStuckSessions(context.Context, time.Duration) ([]*r.CheckoutSession, error) {
	if m.GetStuckSessionsErr != nil {
		return nil, m.GetStuckSessionsErr
	}
	return m.StuckSessions, nil
}

type MockSubmitter struct {
	Ref       *backend.OrderRef
	Err       error
	CallCount int
	GotDraft  *domain.OrderDraft
	GotRefs   *domain.PaymentRefs
}

func (m *MockSubmitter) Submit(_ context.Context, draft *domain.OrderDraft, refs *domain.PaymentRefs) (*backend.OrderRef, error) {
	m.CallCount++
	m.GotDraft = draft
	m.GotRefs = refs
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Ref, nil
}

func setupKafka(t *testing.T) (string, func()) {
	ctx := context.Background()

	kafkaContainer, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers, "broker address should not be empty")

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	}

	return brokers[0], cleanup
}

func createTopic(t *testing.T, brokerAddr, topic string) {
	conn, err := kafkaGo.Dial("tcp", brokerAddr)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkaGo.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	require.NoError(t, err)
	defer controllerConn.Close()

	topicConfigs := []kafkaGo.TopicConfig{{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}}

	err = controllerConn.CreateTopics(topicConfigs...)
	if err != nil {
		t.Logf("topic creation error (may already exist): %v", err)
	}
}

func stuckSession(id string) *r.CheckoutSession {
	draft := &domain.OrderDraft{
		UserID:        "user-456",
		CustomerEmail: "jane@example.com",
		CustomerName:  "Jane Doe",
		Items: []domain.CartItem{
			{ProductID: 1, ProductName: "Olive Oil 1L", Price: 2500, Quantity: 2},
		},
		DeliveryMethod: domain.DeliveryMethodPickup,
		PaymentMethod:  domain.PaymentMethodCard,
		OrderFrequency: domain.OrderFrequencyOneTime,
		Currency:       "aed",
	}
	draftJSON, _ := json.Marshal(draft)
	return &r.CheckoutSession{
		ID:             id,
		UserID:         "user-456",
		IdempotencyKey: "key-" + id,
		Status:         domain.CheckoutStatusPaymentCompleted,
		OrderDraft:     draftJSON,
		TotalAmount:    5000,
		Currency:       "aed",
		PaymentRefs:    domain.PaymentRefs{PaymentIntentID: "pi_stuck"},
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now().Add(-10 * time.Minute),
	}
}

func TestOutboxPoller_PublishesEventsToKafka(t *testing.T) {
	brokerAddr, cleanup := setupKafka(t)
	defer cleanup()

	createTopic(t, brokerAddr, "checkout-outbox")

	// Give Kafka time to fully initialize the topic
	time.Sleep(5 * time.Second)

	mockRepo := &MockRepository{
		OutboxEvents: []*r.OutboxEvent{
			{
				ID:          1,
				AggregateId: "checkout-123",
				EventType:   "checkout-completed",
				Payload:     json.RawMessage(`{"checkout_id":"checkout-123","user_id":"user-456"}`),
				CreatedAt:   time.Now(),
			},
		},
		StuckSessions: []*r.CheckoutSession{},
	}

	writer := &kafkaGo.Writer{
		Addr:         kafkaGo.TCP(brokerAddr),
		Topic:        "checkout-outbox",
		Balancer:     &kafkaGo.LeastBytes{},
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}
	defer writer.Close()

	poller := &OutboxPoller{
		eventTick:    1 * time.Second,
		recoveryTick: 30 * time.Second,
		repo:         mockRepo,
		submitter:    &MockSubmitter{},
		writer:       writer,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	go poller.Run(ctx)

	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers:  []string{brokerAddr},
		Topic:    "checkout-outbox",
		GroupID:  "test-consumer",
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	msg, err := reader.ReadMessage(ctx)
	require.NoError(t, err)

	assert.Equal(t, "checkout-123", string(msg.Key))

	var payload map[string]interface{}
	err = json.Unmarshal(msg.Value, &payload)
	require.NoError(t, err)

	assert.Equal(t, "checkout-123", payload["checkout_id"])
	assert.Equal(t, "user-456", payload["user_id"])
	assert.Equal(t, mockRepo.ProcessedId, 1)
}

func TestRecoveringStuckSession_ResubmitsAndCompletes(t *testing.T) {
	mockRepo := &MockRepository{
		StuckSessions: []*r.CheckoutSession{stuckSession("checkout-id-1")},
	}
	sub := &MockSubmitter{
		Ref: &backend.OrderRef{OrderID: "order-99", OrderNumber: "PQF-0099", Status: "confirmed"},
	}

	poller := NewOutboxPoller(mockRepo, sub)
	poller.recoverStuckSessions(context.Background())

	require.Equal(t, 1, sub.CallCount)
	assert.Equal(t, "user-456", sub.GotDraft.UserID)
	assert.Equal(t, "pi_stuck", sub.GotRefs.PaymentIntentID)
	require.Len(t, mockRepo.CompletedCheckoutIDs, 1)
	assert.Equal(t, "checkout-id-1", mockRepo.CompletedCheckoutIDs[0])
	assert.Equal(t, "order-99", mockRepo.CompletedOrderIDs[0])
}

func TestRecoveringStuckSession_SubmitErrorSkipsCompletion(t *testing.T) {
	mockRepo := &MockRepository{
		StuckSessions: []*r.CheckoutSession{stuckSession("checkout-id-2")},
	}
	sub := &MockSubmitter{Err: errors.New("backend unavailable")}

	poller := NewOutboxPoller(mockRepo, sub)
	poller.recoverStuckSessions(context.Background())

	assert.Equal(t, 1, sub.CallCount)
	assert.Equal(t, 0, mockRepo.CompleteCheckoutCallCount)
}

func TestRecoveringStuckSession_GetStuckSessionsError(t *testing.T) {
	mockRepo := &MockRepository{
		GetStuckSessionsErr: errors.New("database connection error"),
	}
	sub := &MockSubmitter{}

	poller := NewOutboxPoller(mockRepo, sub)
	poller.recoverStuckSessions(context.Background())

	assert.Equal(t, 0, sub.CallCount)
	assert.Equal(t, 0, mockRepo.CompleteCheckoutCallCount)
}

func TestRecoveringStuckSession_InvalidDraftSkipped(t *testing.T) {
	session := stuckSession("checkout-bad-json")
	session.OrderDraft = []byte(`{invalid json here!`)

	mockRepo := &MockRepository{
		StuckSessions: []*r.CheckoutSession{session},
	}
	sub := &MockSubmitter{}

	poller := NewOutboxPoller(mockRepo, sub)
	poller.recoverStuckSessions(context.Background())

	assert.Equal(t, 0, sub.CallCount)
	assert.Equal(t, 0, mockRepo.CompleteCheckoutCallCount)
}
