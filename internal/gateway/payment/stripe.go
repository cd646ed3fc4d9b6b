package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"
)

var ErrNotConfigured = errors.New("payment provider not configured")

type IntentStatus string

const (
	IntentSucceeded  IntentStatus = "succeeded"
	IntentProcessing IntentStatus = "processing"
	IntentOpen       IntentStatus = "open"
	IntentCanceled   IntentStatus = "canceled"
)

type Intent struct {
	ID           string
	ClientSecret string
	Amount       int64
	Currency     string
	Status       IntentStatus
	BookingID    string
}

// Gateway is the payment provider surface used by the booking services.
type Gateway interface {
	CreateIntent(ctx context.Context, amount float64, bookingID string) (*Intent, error)
	GetIntent(ctx context.Context, intentID string) (*Intent, error)
	CancelIntent(ctx context.Context, intentID string) error
	Currency() string
}

// intentAPI is the part of the stripe client we call.
type intentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Cancel(id string, params *stripe.PaymentIntentCancelParams) (*stripe.PaymentIntent, error)
}

type stripeGateway struct {
	intents  intentAPI
	currency string
	log      *zap.Logger
}

func NewStripeGateway(secretKey, currency string, log *zap.Logger) (Gateway, error) {
	if secretKey == "" {
		return nil, ErrNotConfigured
	}
	sc := client.New(secretKey, nil)
	return newStripeGateway(sc.PaymentIntents, currency, log), nil
}

func newStripeGateway(api intentAPI, currency string, log *zap.Logger) *stripeGateway {
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	return &stripeGateway{
		intents:  api,
		currency: strings.ToLower(currency),
		log:      log.With(zap.String("gateway", "stripe")),
	}
}

func (g *stripeGateway) Currency() string {
	return g.currency
}

// CreateIntent is idempotent per booking: Stripe returns the same intent for
// a repeated call with the same booking id.
func (g *stripeGateway) CreateIntent(ctx context.Context, amount float64, bookingID string) (*Intent, error) {
	minor := ToMinorUnits(amount)
	if minor <= 0 {
		return nil, fmt.Errorf("create payment intent: invalid amount %.2f", amount)
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(minor),
		Currency: stripe.String(g.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("booking_id", bookingID)
	params.SetIdempotencyKey("booking-" + bookingID)

	pi, err := g.intents.New(params)
	if err != nil {
		g.log.Error("Failed to create payment intent",
			zap.Error(err),
			zap.String("booking_id", bookingID),
			zap.Int64("amount", minor),
		)
		return nil, fmt.Errorf("create payment intent for booking %s: %w", bookingID, err)
	}

	g.log.Info("Payment intent created",
		zap.String("intent_id", pi.ID),
		zap.String("booking_id", bookingID),
	)
	return toIntent(pi), nil
}

func (g *stripeGateway) GetIntent(ctx context.Context, intentID string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.intents.Get(intentID, params)
	if err != nil {
		g.log.Error("Failed to retrieve payment intent",
			zap.Error(err),
			zap.String("intent_id", intentID),
		)
		return nil, fmt.Errorf("get payment intent %s: %w", intentID, err)
	}
	return toIntent(pi), nil
}

// CancelIntent treats an intent that is already canceled as success.
func (g *stripeGateway) CancelIntent(ctx context.Context, intentID string) error {
	params := &stripe.PaymentIntentCancelParams{
		CancellationReason: stripe.String(string(stripe.PaymentIntentCancellationReasonAbandoned)),
	}
	params.Context = ctx

	_, err := g.intents.Cancel(intentID, params)
	if err != nil {
		var serr *stripe.Error
		if errors.As(err, &serr) && serr.Code == stripe.ErrorCodePaymentIntentUnexpectedState {
			g.log.Debug("Payment intent not cancelable", zap.String("intent_id", intentID))
			return nil
		}
		return fmt.Errorf("cancel payment intent %s: %w", intentID, err)
	}

	g.log.Info("Payment intent cancelled", zap.String("intent_id", intentID))
	return nil
}

func toIntent(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Status:       mapStatus(pi.Status),
		BookingID:    pi.Metadata["booking_id"],
	}
}

func mapStatus(s stripe.PaymentIntentStatus) IntentStatus {
	switch s {
	case stripe.PaymentIntentStatusSucceeded:
		return IntentSucceeded
	case stripe.PaymentIntentStatusProcessing:
		return IntentProcessing
	case stripe.PaymentIntentStatusCanceled:
		return IntentCanceled
	default:
		return IntentOpen
	}
}

// ToMinorUnits converts a decimal amount to cents.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
