package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"eventix/internal/shared/apperrors"
	"eventix/internal/shared/config"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeGateway implements Gateway on top of Stripe Checkout
type StripeGateway struct {
	api           *client.API
	webhookSecret string
	currency      string
	clientURL     string
	retry         RetryPolicy
}

func NewStripeGateway(cfg config.PaymentsConfig) *StripeGateway {
	return NewStripeGatewayWithBackends(cfg, nil)
}

// NewStripeGatewayWithBackends lets callers point the client at a non-default API host
func NewStripeGatewayWithBackends(cfg config.PaymentsConfig, backends *stripe.Backends) *StripeGateway {
	currency := strings.ToLower(cfg.Currency)
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	return &StripeGateway{
		api:           client.New(cfg.SecretKey, backends),
		webhookSecret: cfg.WebhookSecret,
		currency:      currency,
		clientURL:     strings.TrimRight(cfg.ClientURL, "/"),
		retry:         DefaultRetryPolicy,
	}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(g.currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.EventTitle),
					},
					UnitAmount: stripe.Int64(ToMinorUnits(req.UnitPrice)),
				},
				Quantity: stripe.Int64(int64(req.Quantity)),
			},
		},
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(g.clientURL + "/booking-success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:         stripe.String(fmt.Sprintf("%s/events/%s", g.clientURL, req.EventID)),
		CustomerEmail:     stripe.String(req.Attendee.Email),
		ClientReferenceID: stripe.String(req.CallerID.String()),
	}
	if req.EventDescription != "" {
		params.LineItems[0].PriceData.ProductData.Description = stripe.String(req.EventDescription)
	}
	params.Context = ctx

	// the payment intent carries the same metadata so failure webhooks can reach the attendee
	metadata := encodeMetadata(req)
	params.PaymentIntentData = &stripe.CheckoutSessionPaymentIntentDataParams{Metadata: metadata}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, apperrors.Upstream(err, "Payment provider failed to create checkout session")
	}

	return &CheckoutSession{SessionID: sess.ID, RedirectURL: sess.URL}, nil
}

func (g *StripeGateway) RetrieveSession(ctx context.Context, sessionID string) (*Session, error) {
	if !strings.HasPrefix(sessionID, "cs_") {
		return nil, ErrInvalidSessionID
	}

	sess, err := retryRead(ctx, g.retry, "retrieve checkout session", func() (*stripe.CheckoutSession, error) {
		params := &stripe.CheckoutSessionParams{}
		params.Context = ctx
		sess, err := g.api.CheckoutSessions.Get(sessionID, params)
		if err != nil {
			return nil, translateRetrieveError(err)
		}
		return sess, nil
	})
	if err != nil {
		return nil, err
	}

	return sessionFromStripe(sess)
}

func (g *StripeGateway) IssueRefund(ctx context.Context, paymentIntentID, reason string) (*Refund, error) {
	if reason == "" {
		reason = RefundReasonRequestedByCustomer
	}
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
		Reason:        stripe.String(reason),
	}
	params.Context = ctx

	r, err := g.api.Refunds.New(params)
	if err != nil {
		return nil, apperrors.Upstream(err, "Payment provider failed to issue refund")
	}

	return &Refund{ID: r.ID, Amount: FromMinorUnits(r.Amount)}, nil
}

func (g *StripeGateway) VerifyWebhook(payload []byte, signatureHeader string) (*WebhookEvent, error) {
	return verifyStripeWebhook(payload, signatureHeader, g.webhookSecret)
}

// verifyStripeWebhook fails closed: an empty secret rejects every payload
func verifyStripeWebhook(payload []byte, signatureHeader, secret string) (*WebhookEvent, error) {
	if secret == "" {
		return nil, apperrors.SignatureInvalid(errors.New("webhook secret is not configured"))
	}

	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, apperrors.SignatureInvalid(err)
	}

	out := &WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if event.Data == nil {
		return out, nil
	}

	switch out.Type {
	case EventCheckoutSessionCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err == nil {
			out.SessionID = sess.ID
			out.Metadata = sess.Metadata
			if sess.PaymentIntent != nil {
				out.PaymentIntentID = sess.PaymentIntent.ID
			}
		}
	case EventPaymentIntentPaymentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err == nil {
			out.PaymentIntentID = pi.ID
			out.Metadata = pi.Metadata
		}
	}

	return out, nil
}

func sessionFromStripe(sess *stripe.CheckoutSession) (*Session, error) {
	out := &Session{
		ID:            sess.ID,
		PaymentStatus: PaymentStatus(sess.PaymentStatus),
		SettledAmount: FromMinorUnits(sess.AmountTotal),
		Metadata:      sess.Metadata,
	}
	if sess.PaymentIntent != nil {
		out.PaymentIntentID = sess.PaymentIntent.ID
	}
	return out, nil
}

// translateRetrieveError separates client mistakes from provider failures
func translateRetrieveError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch {
		case stripeErr.Code == stripe.ErrorCodeResourceMissing || stripeErr.HTTPStatusCode == http.StatusNotFound:
			return ErrSessionNotFound
		case stripeErr.Type == stripe.ErrorTypeInvalidRequest:
			return apperrors.Wrap(apperrors.KindInvalidArgument, err, "Payment provider rejected the request")
		}
	}
	return apperrors.Upstream(err, "Payment provider failed to retrieve checkout session")
}
