package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/domain"
)

var (
	ErrIdempotencyKeyNotFound  = errors.New("idempotency key not found")
	ErrSessionNotFound         = errors.New("checkout session not found")
	ErrDuplicateIdempotencyKey = errors.New("idempotency key already in use")
)

type CheckoutSession struct {
	ID             string
	UserID         string
	IdempotencyKey string
	Status         domain.CheckoutStatus
	OrderDraft     []byte
	TotalAmount    int64
	Currency       string
	PaymentRefs    domain.PaymentRefs
	OrderID        *string
	FailureReason  *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type OutboxEvent struct {
	ID          int
	AggregateId string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

type RepoInterface interface {
	Close() error
	RunMigrations(*Credentials) error
	GetCheckoutSessionByIdempotencyKey(ctx context.Context, key string) (*string, *domain.CheckoutStatus, error)
	GetCheckoutSession(ctx context.Context, id *string) (*CheckoutSession, error)
	CreateCheckoutSession(ctx context.Context, session *CheckoutSession) error
	UpdateCheckoutSessionStatus(ctx context.Context, id *string, status *domain.CheckoutStatus) error
	SetPayment(ctx context.Context, id *string, status *domain.CheckoutStatus, refs *domain.PaymentRefs) error
	FailCheckoutSession(ctx context.Context, id *string, reason string) error
	CompleteCheckoutSession(ctx context.Context, id *string, orderID *string, payload []byte, status *domain.CheckoutStatus) error
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int) error
	GetStuckSessions(ctx context.Context, olderThan time.Duration) ([]*CheckoutSession, error)
}

func (r *Repository) GetCheckoutSessionByIdempotencyKey(
	ctx context.Context,
	key string) (*string, *domain.CheckoutStatus, error) {

	query := `SELECT id, status FROM checkout_sessions WHERE idempotency_key = $1`

	var id string
	var status domain.CheckoutStatus
	err := r.db.QueryRowContext(ctx, query, key).Scan(&id, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrIdempotencyKeyNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query checkout session: %w", err)
	}
	return &id, &status, nil
}

func (r *Repository) GetCheckoutSession(ctx context.Context, id *string) (*CheckoutSession, error) {
	query := `SELECT id, user_id, idempotency_key, status, order_draft, total_amount, currency,
	                 COALESCE(payment_intent_id, ''), COALESCE(setup_intent_id, ''),
	                 COALESCE(subscription_id, ''), COALESCE(payment_method_id, ''),
	                 order_id, failure_reason, created_at, updated_at
	          FROM checkout_sessions WHERE id = $1`

	s := &CheckoutSession{}
	err := r.db.QueryRowContext(ctx, query, *id).Scan(
		&s.ID, &s.UserID, &s.IdempotencyKey, &s.Status, &s.OrderDraft, &s.TotalAmount, &s.Currency,
		&s.PaymentRefs.PaymentIntentID, &s.PaymentRefs.SetupIntentID,
		&s.PaymentRefs.SubscriptionID, &s.PaymentRefs.PaymentMethodID,
		&s.OrderID, &s.FailureReason, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query checkout session: %w", err)
	}
	return s, nil
}

// CreateCheckoutSession inserts a new session. The status is always INITIATED
// regardless of what the caller put in the struct.
func (r *Repository) CreateCheckoutSession(ctx context.Context, session *CheckoutSession) error {
	query := `INSERT INTO checkout_sessions
	          (id, user_id, idempotency_key, status, order_draft, total_amount, currency, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())`

	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.IdempotencyKey,
		domain.CheckoutStatusInitiated,
		session.OrderDraft,
		session.TotalAmount,
		session.Currency)
	if err != nil {
		// a concurrent request with the same key won the insert race
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("failed to create checkout session: %w", err)
	}
	return nil
}

func (r *Repository) UpdateCheckoutSessionStatus(
	ctx context.Context,
	id *string,
	status *domain.CheckoutStatus) error {

	query := `UPDATE checkout_sessions SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, *status, *id)
	if err != nil {
		return fmt.Errorf("failed to update checkout session status: %w", err)
	}
	return nil
}

func (r *Repository) SetPayment(
	ctx context.Context,
	id *string,
	status *domain.CheckoutStatus,
	refs *domain.PaymentRefs) error {

	query := `UPDATE checkout_sessions
	          SET status = $1,
	              payment_intent_id = NULLIF($2, ''),
	              setup_intent_id = NULLIF($3, ''),
	              subscription_id = NULLIF($4, ''),
	              payment_method_id = NULLIF($5, ''),
	              updated_at = NOW()
	          WHERE id = $6`
	_, err := r.db.ExecContext(ctx, query,
		*status,
		refs.PaymentIntentID,
		refs.SetupIntentID,
		refs.SubscriptionID,
		refs.PaymentMethodID,
		*id)
	if err != nil {
		return fmt.Errorf("failed to set payment on checkout session: %w", err)
	}
	return nil
}

func (r *Repository) FailCheckoutSession(ctx context.Context, id *string, reason string) error {
	query := `UPDATE checkout_sessions
	          SET status = $1, failure_reason = $2, updated_at = NOW()
	          WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, domain.CheckoutStatusFailed, reason, *id)
	if err != nil {
		return fmt.Errorf("failed to mark checkout session failed: %w", err)
	}
	return nil
}

// CompleteCheckoutSession marks the session completed and records the outbox
// event in the same transaction, so an event exists iff the session completed.
func (r *Repository) CompleteCheckoutSession(
	ctx context.Context,
	id *string,
	orderID *string,
	payload []byte,
	status *domain.CheckoutStatus) error {

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	updateQuery := `UPDATE checkout_sessions
	                SET status = $1, order_id = $2, updated_at = NOW()
	                WHERE id = $3`
	if _, err = tx.ExecContext(ctx, updateQuery, *status, *orderID, *id); err != nil {
		return fmt.Errorf("failed to complete checkout session: %w", err)
	}

	outboxQuery := `INSERT INTO outbox_events (aggregate_id, event_type, payload, created_at)
	                VALUES ($1, $2, $3, NOW())`
	if _, err = tx.ExecContext(ctx, outboxQuery, *id, "checkout-completed", payload); err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit checkout completion: %w", err)
	}
	return nil
}

func (r *Repository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	query := `SELECT id, aggregate_id, event_type, payload, created_at
	          FROM outbox_events
	          WHERE NOT processed
	          ORDER BY id
	          LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		e := &OutboxEvent{}
		if err := rows.Scan(&e.ID, &e.AggregateId, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *Repository) MarkEventAsProcessed(ctx context.Context, id int) error {
	query := `UPDATE outbox_events SET processed = TRUE WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark event as processed: %w", err)
	}
	return nil
}

// GetStuckSessions returns sessions whose payment went through but which never
// reached a terminal status, typically because the process died between the
// gateway confirmation and the order submission.
func (r *Repository) GetStuckSessions(ctx context.Context, olderThan time.Duration) ([]*CheckoutSession, error) {
	query := `SELECT id, user_id, idempotency_key, status, order_draft, total_amount, currency,
	                 COALESCE(payment_intent_id, ''), COALESCE(setup_intent_id, ''),
	                 COALESCE(subscription_id, ''), COALESCE(payment_method_id, ''),
	                 order_id, failure_reason, created_at, updated_at
	          FROM checkout_sessions
	          WHERE status = $1 AND updated_at < NOW() - $2::interval`

	interval := fmt.Sprintf("%d seconds", int(olderThan.Seconds()))
	rows, err := r.db.QueryContext(ctx, query, domain.CheckoutStatusPaymentCompleted, interval)
	if err != nil {
		return nil, fmt.Errorf("failed to query stuck sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*CheckoutSession
	for rows.Next() {
		s := &CheckoutSession{}
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.IdempotencyKey, &s.Status, &s.OrderDraft, &s.TotalAmount, &s.Currency,
			&s.PaymentRefs.PaymentIntentID, &s.PaymentRefs.SetupIntentID,
			&s.PaymentRefs.SubscriptionID, &s.PaymentRefs.PaymentMethodID,
			&s.OrderID, &s.FailureReason, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stuck session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
