package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"edupay/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Stripe events are small; anything larger is not a legitimate delivery.
const maxWebhookBody = 65536

// stripeWebhook processes payment processor events.
// POST /webhooks/stripe
func (h *Handler) stripeWebhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"})
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		util.WebhookEventsTotal.WithLabelValues("stripe", "rejected").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing stripe-signature header"})
		return
	}

	if h.cfg.StripeWebhookSecret == "" {
		// Cannot verify without a secret; acknowledge so the processor stops
		// redelivering in environments where billing is not wired up.
		log.Printf("Stripe webhook skipped: webhook secret not configured")
		c.JSON(http.StatusOK, gin.H{"status": "webhook setup incomplete"})
		return
	}

	event, err := webhook.ConstructEventWithOptions(body, signature, h.cfg.StripeWebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		log.Printf("Stripe webhook signature verification failed: %v", err)
		util.WebhookEventsTotal.WithLabelValues("stripe", "rejected").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "Webhook signature verification failed"})
		return
	}

	log.Printf("Stripe webhook received: type=%s id=%s", event.Type, event.ID)

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			log.Printf("Failed to unmarshal checkout session: %v", err)
			util.WebhookEventsTotal.WithLabelValues("stripe", "error").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed event payload"})
			return
		}

		if err := h.reconciler.HandleCheckoutCompleted(c.Request.Context(), sess.ID); err != nil {
			log.Printf("Error confirming purchase for session %s: %v", sess.ID, err)
			util.WebhookEventsTotal.WithLabelValues("stripe", "error").Inc()
			// 500 so the processor's retry policy redelivers the event.
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to confirm purchase"})
			return
		}
		util.WebhookEventsTotal.WithLabelValues("stripe", "processed").Inc()

	default:
		log.Printf("Unhandled Stripe event type: %s", event.Type)
		util.WebhookEventsTotal.WithLabelValues("stripe", "ignored").Inc()
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// identityEvent is the identity provider's webhook envelope.
type identityEvent struct {
	Type string `json:"type"`
	Data struct {
		ID             string `json:"id"`
		FirstName      string `json:"first_name"`
		LastName       string `json:"last_name"`
		EmailAddresses []struct {
			EmailAddress string `json:"email_address"`
		} `json:"email_addresses"`
	} `json:"data"`
}

// handleIdentityWebhook ingests signed identity-provider events; "user
// created" upserts the user directory.
// POST /webhooks/identity
func (h *Handler) handleIdentityWebhook(c *gin.Context) {
	if h.identityWebhook == nil {
		log.Printf("Identity webhook rejected: webhook secret not configured")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Identity webhook not configured"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"})
		return
	}

	if err := h.identityWebhook.Verify(body, c.Request.Header); err != nil {
		log.Printf("Identity webhook signature verification failed: %v", err)
		util.WebhookEventsTotal.WithLabelValues("identity", "rejected").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "Webhook signature verification failed"})
		return
	}

	var event identityEvent
	if err := json.Unmarshal(body, &event); err != nil {
		util.WebhookEventsTotal.WithLabelValues("identity", "rejected").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed event payload"})
		return
	}

	if event.Type != "user.created" {
		log.Printf("Unhandled identity event type: %s", event.Type)
		util.WebhookEventsTotal.WithLabelValues("identity", "ignored").Inc()
		c.JSON(http.StatusOK, gin.H{"status": "success"})
		return
	}

	var email string
	if len(event.Data.EmailAddresses) > 0 {
		email = event.Data.EmailAddresses[0].EmailAddress
	}
	name := strings.TrimSpace(event.Data.FirstName + " " + event.Data.LastName)

	if _, err := h.users.UpsertFromIdentityEvent(c.Request.Context(), event.Data.ID, email, name); err != nil {
		log.Printf("Error creating user from identity event: %v", err)
		util.WebhookEventsTotal.WithLabelValues("identity", "error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	util.WebhookEventsTotal.WithLabelValues("identity", "processed").Inc()
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
