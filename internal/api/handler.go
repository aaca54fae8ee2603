package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"edupay/internal/models"
	"edupay/internal/payment"
	"edupay/internal/service"
	"edupay/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	svix "github.com/svix/svix-webhooks/go"
)

// HandlerConfig carries the webhook and token-verification secrets.
type HandlerConfig struct {
	StripeWebhookSecret   string
	IdentityWebhookSecret string
	JWTPublicKey          string
}

// Handler contains HTTP handlers
type Handler struct {
	cfg        HandlerConfig
	checkout   *service.CheckoutService
	reconciler *service.Reconciler
	access     *service.AccessService
	catalog    *service.CatalogService
	users      *service.UserService
	payments   service.PaymentProvider

	identityWebhook *svix.Webhook
}

// NewHandler creates a new HTTP handler
func NewHandler(
	cfg HandlerConfig,
	checkout *service.CheckoutService,
	reconciler *service.Reconciler,
	access *service.AccessService,
	catalog *service.CatalogService,
	users *service.UserService,
	payments service.PaymentProvider,
) *Handler {
	h := &Handler{
		cfg:        cfg,
		checkout:   checkout,
		reconciler: reconciler,
		access:     access,
		catalog:    catalog,
		users:      users,
		payments:   payments,
	}
	if cfg.IdentityWebhookSecret != "" {
		wh, err := svix.NewWebhook(cfg.IdentityWebhookSecret)
		if err == nil {
			h.identityWebhook = wh
		}
	}
	return h
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/webhooks/stripe", h.stripeWebhook)
	router.POST("/webhooks/identity", h.handleIdentityWebhook)

	v1 := router.Group("/api/v1")
	v1.Use(authMiddleware(h.cfg.JWTPublicKey))
	{
		v1.GET("/courses", h.listCourses)
		v1.GET("/courses/:id", h.getCourse)
		v1.GET("/courses/:id/access", h.courseAccess)
		v1.POST("/checkout", h.createCheckout)
		v1.POST("/checkout/verify", h.verifyCheckout)
		v1.GET("/me/purchases", h.myPurchases)
		v1.GET("/receipts/:session_id", h.getReceipt)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// listCourses handles the catalog listing
func (h *Handler) listCourses(c *gin.Context) {
	courses, err := h.catalog.ListCourses(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list courses"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

// getCourse handles get course by ID
func (h *Handler) getCourse(c *gin.Context) {
	courseID, ok := courseIDParam(c)
	if !ok {
		return
	}

	course, err := h.catalog.GetCourse(c.Request.Context(), courseID)
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load course"})
		return
	}
	c.JSON(http.StatusOK, course)
}

// courseAccess answers whether the caller may view the course content.
// Unauthenticated callers get false, not an error.
func (h *Handler) courseAccess(c *gin.Context) {
	courseID, ok := courseIDParam(c)
	if !ok {
		return
	}

	hasAccess, err := h.access.HasAccessBySubject(c.Request.Context(), subjectFrom(c), courseID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check access"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"has_access": hasAccess})
}

type checkoutRequest struct {
	CourseID int64 `json:"course_id" binding:"required"`
}

// createCheckout handles checkout session creation
func (h *Handler) createCheckout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	result, err := h.checkout.CreateCheckout(c.Request.Context(), subjectFrom(c), req.CourseID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthenticated):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "You must be logged in to purchase a course"})
		case errors.Is(err, service.ErrCourseNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
		case errors.Is(err, service.ErrCheckoutFailed):
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to create checkout session"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create checkout session"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

type verifyRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// verifyCheckout is the browser-redirect confirmation path
func (h *Handler) verifyCheckout(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	paid, err := h.reconciler.VerifySession(c.Request.Context(), req.SessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify payment session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"paid": paid})
}

// myPurchases lists the caller's purchases with course details
func (h *Handler) myPurchases(c *gin.Context) {
	purchases, err := h.access.ListPurchases(c.Request.Context(), subjectFrom(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list purchases"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"purchases": purchases})
}

// getReceipt returns the processor receipt for a checkout session
func (h *Handler) getReceipt(c *gin.Context) {
	sessionID := c.Param("session_id")

	if strings.HasPrefix(sessionID, models.MockSessionPrefix) {
		c.JSON(http.StatusOK, gin.H{
			"receipt_url": nil,
			"receipt": payment.Receipt{
				SessionID:     sessionID,
				AmountTotal:   9900,
				Currency:      "usd",
				CustomerEmail: "test@example.com",
				CustomerName:  "Test User",
				Created:       time.Now().Unix(),
				PaymentStatus: "paid",
			},
		})
		return
	}

	receipt, err := h.payments.RetrieveReceipt(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, payment.ErrNotConfigured) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Payment processor not configured"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve receipt"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"receipt_url": receipt.ReceiptURL,
		"receipt":     receipt,
	})
}

func courseIDParam(c *gin.Context) (int64, bool) {
	courseID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid course ID"})
		return 0, false
	}
	return courseID, true
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
