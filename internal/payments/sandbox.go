package payments

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"eventix/internal/shared/apperrors"
	"eventix/internal/shared/config"

	"github.com/google/uuid"
)

const (
	sandboxSessionPrefix = "cs_sandbox_"
	sandboxIntentPrefix  = "pi_sandbox_"
)

type sandboxSession struct {
	session  Session
	refunded bool
}

// SandboxGateway is an in-process provider for local development and tests.
// Sessions are paid as soon as they are created unless SetAutoPay(false) is called.
type SandboxGateway struct {
	mu            sync.Mutex
	sessions      map[string]*sandboxSession
	byIntent      map[string]string
	clientURL     string
	webhookSecret string
	autoPay       bool

	refundErr     error
	retrieveErr   error
	refundCalls   int
	retrieveCalls int
}

func NewSandboxGateway(cfg config.PaymentsConfig) *SandboxGateway {
	return &SandboxGateway{
		sessions:      make(map[string]*sandboxSession),
		byIntent:      make(map[string]string),
		clientURL:     strings.TrimRight(cfg.ClientURL, "/"),
		webhookSecret: cfg.WebhookSecret,
		autoPay:       true,
	}
}

func (g *SandboxGateway) CreateCheckoutSession(_ context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := sandboxSessionPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
	status := SessionUnpaid
	intentID := ""
	if g.autoPay {
		status = SessionPaid
		intentID = sandboxIntentPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
		g.byIntent[intentID] = id
	}

	g.sessions[id] = &sandboxSession{session: Session{
		ID:              id,
		PaymentStatus:   status,
		SettledAmount:   FromMinorUnits(ToMinorUnits(req.UnitPrice) * int64(req.Quantity)),
		PaymentIntentID: intentID,
		Metadata:        encodeMetadata(req),
	}}

	return &CheckoutSession{
		SessionID:   id,
		RedirectURL: fmt.Sprintf("%s/booking-success?session_id=%s", g.clientURL, id),
	}, nil
}

func (g *SandboxGateway) RetrieveSession(_ context.Context, sessionID string) (*Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.retrieveCalls++
	if g.retrieveErr != nil {
		return nil, g.retrieveErr
	}
	if !strings.HasPrefix(sessionID, "cs_") {
		return nil, ErrInvalidSessionID
	}
	s, ok := g.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := s.session
	copied.Metadata = make(map[string]string, len(s.session.Metadata))
	for k, v := range s.session.Metadata {
		copied.Metadata[k] = v
	}
	return &copied, nil
}

func (g *SandboxGateway) IssueRefund(_ context.Context, paymentIntentID, _ string) (*Refund, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.refundCalls++
	if g.refundErr != nil {
		return nil, apperrors.Upstream(g.refundErr, "Payment provider failed to issue refund")
	}

	sessionID, ok := g.byIntent[paymentIntentID]
	if !ok {
		return nil, apperrors.Upstream(fmt.Errorf("no such payment_intent: %s", paymentIntentID), "Payment provider failed to issue refund")
	}
	s := g.sessions[sessionID]
	if s.refunded {
		return nil, apperrors.Upstream(fmt.Errorf("charge for %s has already been refunded", paymentIntentID), "Payment provider failed to issue refund")
	}
	s.refunded = true

	return &Refund{
		ID:     "re_sandbox_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		Amount: s.session.SettledAmount,
	}, nil
}

func (g *SandboxGateway) VerifyWebhook(payload []byte, signatureHeader string) (*WebhookEvent, error) {
	return verifyStripeWebhook(payload, signatureHeader, g.webhookSecret)
}

// SetAutoPay controls whether new sessions start paid
func (g *SandboxGateway) SetAutoPay(enabled bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.autoPay = enabled
}

// CompletePayment marks an unpaid session as paid, as the hosted checkout page would
func (g *SandboxGateway) CompletePayment(sessionID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	if s.session.PaymentStatus == SessionPaid {
		return nil
	}
	intentID := sandboxIntentPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
	s.session.PaymentStatus = SessionPaid
	s.session.PaymentIntentID = intentID
	g.byIntent[intentID] = sessionID
	return nil
}

// FailRefunds makes every refund fail with err until called with nil
func (g *SandboxGateway) FailRefunds(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refundErr = err
}

// FailRetrievals makes every session lookup return err until called with nil
func (g *SandboxGateway) FailRetrievals(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.retrieveErr = err
}

func (g *SandboxGateway) RefundCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.refundCalls
}

func (g *SandboxGateway) RetrieveCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.retrieveCalls
}
