package service

import (
	"context"
	"time"

	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/backend"
	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/domain"
	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/orchestrator"
	r "github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/repository"
	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/validation"
)

// MockRepository implements r.RepoInterface for testing
type MockRepository struct {
	GetKey          *string
	GetStatus       *domain.CheckoutStatus
	GetErr          error
	// returned by the idempotency lookup once CreateCheckoutSession has been
	// called, simulating a concurrent request winning the insert race
	GetKeyAfterCreate    *string
	GetStatusAfterCreate *domain.CheckoutStatus
	createCalled         bool
	Session              *r.CheckoutSession
	CreateErr       error
	CreatedSession  *r.CheckoutSession // Captures the session passed to CreateCheckoutSession
	StatusUpdates   []domain.CheckoutStatus
	PaymentRefs     *domain.PaymentRefs
	PaymentStatus   *domain.CheckoutStatus
	FailedReason    string
	CompletedID     *string
	CompletedOrder  *string
	CompleteErr     error
	SetPaymentErr   error
	UpdateStatusErr error
}

func (m *MockRepository) Close() error {
	return nil
}

func (m *MockRepository) RunMigrations(*r.Credentials) error {
	return nil
}

func (m *MockRepository) GetCheckoutSessionByIdempotencyKey(_ context.Context, _ string) (*string, *domain.CheckoutStatus, error) {
	if m.createCalled && m.GetKeyAfterCreate != nil {
		return m.GetKeyAfterCreate, m.GetStatusAfterCreate, nil
	}
	return m.GetKey, m.GetStatus, m.GetErr
}

func (m *MockRepository) GetCheckoutSession(_ context.Context, _ *string) (*r.CheckoutSession, error) {
	if m.Session == nil {
		return nil, r.ErrSessionNotFound
	}
	return m.Session, nil
}

func (m *MockRepository) CreateCheckoutSession(_ context.Context, session *r.CheckoutSession) error {
	m.createCalled = true
	m.CreatedSession = session
	return m.CreateErr
}

func (m *MockRepository) UpdateCheckoutSessionStatus(_ context.Context, _ *string, status *domain.CheckoutStatus) error {
	if m.UpdateStatusErr != nil {
		return m.UpdateStatusErr
	}
	m.StatusUpdates = append(m.StatusUpdates, *status)
	return nil
}

func (m *MockRepository) SetPayment(_ context.Context, _ *string, status *domain.CheckoutStatus, refs *domain.PaymentRefs) error {
	if m.SetPaymentErr != nil {
		return m.SetPaymentErr
	}
	m.PaymentStatus = status
	m.PaymentRefs = refs
	return nil
}

func (m *MockRepository) FailCheckoutSession(_ context.Context, _ *string, reason string) error {
	m.FailedReason = reason
	return nil
}

func (m *MockRepository) CompleteCheckoutSession(_ context.Context, id *string, orderID *string, _ []byte, _ *domain.CheckoutStatus) error {
	if m.CompleteErr != nil {
		return m.CompleteErr
	}
	m.CompletedID = id
	m.CompletedOrder = orderID
	return nil
}

func (m *MockRepository) GetUnprocessedEvents(context.Context, int) ([]*r.OutboxEvent, error) {
	return nil, nil
}

func (m *MockRepository) MarkEventAsProcessed(_ context.Context, _ int) error {
	return nil
}

func (m *MockRepository) GetStuckSessions(context.Context, time.Duration) ([]*r.CheckoutSession, error) {
	return nil, nil
}

// MockCartProvider implements CartProvider for testing
type MockCartProvider struct {
	Cart         *domain.Cart
	GetErr       error
	ClearedUsers []string
	ClearErr     error
}

func (m *MockCartProvider) GetCart(_ context.Context, _ string) (*domain.Cart, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return m.Cart, nil
}

func (m *MockCartProvider) ClearCart(_ context.Context, userID string) error {
	if m.ClearErr != nil {
		return m.ClearErr
	}
	m.ClearedUsers = append(m.ClearedUsers, userID)
	return nil
}

// MockOrchestrator implements PaymentOrchestrator for testing
type MockOrchestrator struct {
	Refs       *domain.PaymentRefs
	Err        error
	CallCount  int
	GotRequest orchestrator.Request
}

func (m *MockOrchestrator) Confirm(_ context.Context, req orchestrator.Request) (*domain.PaymentRefs, error) {
	m.CallCount++
	m.GotRequest = req
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Refs, nil
}

// MockSubmitter implements OrderSubmitter for testing
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

// newTestCheckoutService creates a fully wired CheckoutServiceImpl for testing
func newTestCheckoutService(
	repo *MockRepository,
	carts *MockCartProvider,
	payments *MockOrchestrator,
	orders *MockSubmitter,
) *CheckoutServiceImpl {
	return NewCheckoutService(repo, carts, validation.New(), payments, orders)
}
