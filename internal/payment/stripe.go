package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// ErrNotConfigured is returned by API methods when no secret key was supplied.
// Callers must branch on Configured() and take the fallback path instead of
// reaching the processor.
var ErrNotConfigured = errors.New("payment processor not configured")

// CheckoutParams describes the single line item of a course purchase.
type CheckoutParams struct {
	CourseTitle       string
	CourseDescription string
	CourseImageURL    string
	AmountMinor       int64
	CustomerEmail     string
	SuccessURL        string
	CancelURL         string
	Metadata          map[string]string
}

// CheckoutSession is the processor-issued session handle.
type CheckoutSession struct {
	ID  string
	URL string
}

// SessionStatus is the authoritative payment state of a session.
type SessionStatus struct {
	ID            string
	Paid          bool
	PaymentStatus string
	AmountTotal   int64
	Currency      string
	CustomerEmail string
}

// Receipt aggregates the session and charge data needed to render a receipt.
type Receipt struct {
	SessionID     string
	ReceiptURL    string
	AmountTotal   int64
	Currency      string
	CustomerEmail string
	CustomerName  string
	Created       int64
	PaymentStatus string
}

// Client wraps the Stripe API client. A Client constructed without a secret
// key reports Configured() == false and rejects all API calls.
type Client struct {
	api *client.API
}

// New initializes a Stripe client from the given secret key. An empty key
// yields an unconfigured client rather than an error so that development
// environments without credentials still boot.
func New(secretKey string) *Client {
	if secretKey == "" {
		return &Client{}
	}
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Client{api: api}
}

// Configured reports whether the client can reach the processor.
func (c *Client) Configured() bool {
	return c.api != nil
}

// CreateCheckoutSession creates a hosted checkout session with one line item.
func (c *Client) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name:        stripe.String(p.CourseTitle),
		Description: stripe.String(p.CourseDescription),
	}
	if p.CourseImageURL != "" {
		productData.Images = stripe.StringSlice([]string{p.CourseImageURL})
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripe.String(string(stripe.CurrencyUSD)),
					ProductData: productData,
					UnitAmount:  stripe.Int64(p.AmountMinor),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:                     stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:               stripe.String(p.SuccessURL),
		CancelURL:                stripe.String(p.CancelURL),
		AllowPromotionCodes:      stripe.Bool(true),
		BillingAddressCollection: stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionAuto)),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Description: stripe.String(fmt.Sprintf("Purchase of %s course", p.CourseTitle)),
		},
	}
	params.Context = ctx
	if p.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(p.CustomerEmail)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
		params.PaymentIntentData.AddMetadata(k, v)
	}

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout session create: %w", err)
	}

	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// RetrieveSession fetches the authoritative session status by id.
func (c *Client) RetrieveSession(ctx context.Context, sessionID string) (*SessionStatus, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := c.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout session retrieve: %w", err)
	}

	status := &SessionStatus{
		ID:            sess.ID,
		Paid:          sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		PaymentStatus: string(sess.PaymentStatus),
		AmountTotal:   sess.AmountTotal,
		Currency:      string(sess.Currency),
	}
	if sess.CustomerDetails != nil {
		status.CustomerEmail = sess.CustomerDetails.Email
	}
	return status, nil
}

// RetrieveReceipt fetches session details plus the charge receipt URL.
func (c *Client) RetrieveReceipt(ctx context.Context, sessionID string) (*Receipt, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("line_items")
	params.AddExpand("payment_intent")

	sess, err := c.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout session retrieve: %w", err)
	}

	receipt := &Receipt{
		SessionID:     sess.ID,
		AmountTotal:   sess.AmountTotal,
		Currency:      string(sess.Currency),
		Created:       sess.Created,
		PaymentStatus: string(sess.PaymentStatus),
	}
	if sess.CustomerDetails != nil {
		receipt.CustomerEmail = sess.CustomerDetails.Email
		receipt.CustomerName = sess.CustomerDetails.Name
	}

	if sess.PaymentIntent != nil {
		listParams := &stripe.ChargeListParams{
			PaymentIntent: stripe.String(sess.PaymentIntent.ID),
		}
		listParams.Context = ctx
		iter := c.api.Charges.List(listParams)
		for iter.Next() {
			if url := iter.Charge().ReceiptURL; url != "" {
				receipt.ReceiptURL = url
				break
			}
		}
		// A missing receipt URL is not an error; render without it.
	}

	return receipt, nil
}
