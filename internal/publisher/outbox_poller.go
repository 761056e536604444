package publisher

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/backend"
	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/domain"
	r "github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/repository"
)

const stuckSessionThreshold = 5 * time.Minute

// OrderSubmitter re-runs the order submission for a session whose payment
// already went through.
type OrderSubmitter interface {
	Submit(ctx context.Context, draft *domain.OrderDraft, refs *domain.PaymentRefs) (*backend.OrderRef, error)
}

type OutboxPoller struct {
	eventTick    time.Duration
	recoveryTick time.Duration
	repo         r.RepoInterface
	submitter    OrderSubmitter
	writer       *kafka.Writer
}

func NewOutboxPoller(repo r.RepoInterface, submitter OrderSubmitter, brokers ...string) *OutboxPoller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  "checkout-outbox",
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &OutboxPoller{time.Second, time.Second * 30, repo, submitter, w}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.eventTick)
	recoveryTicker := time.NewTicker(p.recoveryTick)
	defer eventTicker.Stop()
	defer recoveryTicker.Stop()
	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedEvents(ctx)
		case <-recoveryTicker.C:
			p.recoverStuckSessions(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.repo.GetUnprocessedEvents(ctx, 100)
	if err != nil {
		log.Printf("failed to fetch events %v", err)
		return
	}

	for _, event := range events {
		errPublish := p.publishToKafka(ctx, event)
		if errPublish != nil {
			log.Printf("failed to publish event id = %v with error %v", event.ID, errPublish)
			continue
		}

		errMark := p.repo.MarkEventAsProcessed(ctx, event.ID)
		if errMark != nil {
			log.Printf("failed to mark event as processed id = %v with error %v", event.ID, errMark)
			continue
		}
	}
}

// recoverStuckSessions finishes checkouts that died between the gateway
// confirmation and the order submission. The payment refs and the draft were
// persisted before the crash, so the submission can be replayed; the backend
// deduplicates orders by payment intent.
func (p *OutboxPoller) recoverStuckSessions(ctx context.Context) {
	sessions, err := p.repo.GetStuckSessions(ctx, stuckSessionThreshold)
	if err != nil {
		log.Printf("failed to get stuck sessions: %v", err)
		return
	}
	for _, session := range sessions {
		log.Printf("recovering stuck session: %v", session.ID)

		var draft domain.OrderDraft
		if err := json.Unmarshal(session.OrderDraft, &draft); err != nil {
			log.Printf("failed to unmarshal order draft for session %v: %v", session.ID, err)
			continue
		}

		refs := session.PaymentRefs
		ref, err := p.submitter.Submit(ctx, &draft, &refs)
		if err != nil {
			log.Printf("failed to resubmit order for session %v: %v", session.ID, err)
			continue
		}

		payload := map[string]interface{}{
			"checkout_id":  session.ID,
			"user_id":      session.UserID,
			"order_id":     ref.OrderID,
			"total_amount": session.TotalAmount,
			"currency":     session.Currency,
			"completed_at": time.Now(),
		}

		payloadJSON, err := json.Marshal(payload)
		if err != nil {
			log.Printf("failed to marshal checkout payload in poller: %v", err)
			continue
		}

		completedStatus := domain.CheckoutStatusCompleted
		err = p.repo.CompleteCheckoutSession(ctx, &session.ID, &ref.OrderID, payloadJSON, &completedStatus)
		if err != nil {
			log.Printf("failed to complete checkout in poller: %v", err)
			continue
		}

		log.Printf("session recovered: %v", session.ID)
	}
}

func (p *OutboxPoller) publishToKafka(ctx context.Context, event *r.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateId), // checkout_id for ordering
		Value: event.Payload,             // Already JSON from database
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}

	err := p.writer.WriteMessages(ctx, msg)
	return err
}

func (p *OutboxPoller) Close() error {
	return p.writer.Close()
}
