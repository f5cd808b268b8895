// Package httpapi is the gin transport in front of the reservation engine.
package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mannat244/AstroApp/internal/catalog"
	"github.com/mannat244/AstroApp/internal/domain"
	"github.com/mannat244/AstroApp/internal/payu"
	"github.com/mannat244/AstroApp/internal/repository"
	"github.com/mannat244/AstroApp/internal/service"
	"github.com/mannat244/AstroApp/internal/slot"
)

// LiveOptions bounds the live status stream: at most MaxPolls reads of the
// record, with a manual processor verify every VerifyEvery polls while the
// record is still initiated. Never an unbounded hot loop.
type LiveOptions struct {
	PollInterval time.Duration
	MaxPolls     int
	VerifyEvery  int
}

func DefaultLiveOptions() LiveOptions {
	return LiveOptions{PollInterval: 3 * time.Second, MaxPolls: 20, VerifyEvery: 3}
}

type Handler struct {
	bookings *service.BookingSvc
	confirm  *service.ConfirmSvc
	secret   []byte
	live     LiveOptions
}

func NewHandler(bookings *service.BookingSvc, confirm *service.ConfirmSvc, jwtSecret []byte, live LiveOptions) *Handler {
	if live.PollInterval <= 0 {
		live = DefaultLiveOptions()
	}
	return &Handler{bookings: bookings, confirm: confirm, secret: jwtSecret, live: live}
}

func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	v1 := r.Group("/v1")
	{
		v1.GET("/services", h.Services)
		v1.GET("/slots", h.Slots)

		// Processor callback: authenticated by its hash, not by a session.
		v1.POST("/payu/webhook", h.Webhook)

		secured := v1.Group("")
		secured.Use(JWTAuth(h.secret))
		{
			secured.POST("/bookings", h.Reserve)
			secured.GET("/bookings", h.ListMine)
			secured.GET("/bookings/:id", h.Get)
			secured.POST("/bookings/:id/checkout", h.Checkout)
			secured.POST("/bookings/:id/verify", h.Verify)
			secured.GET("/bookings/:id/live", h.Live)
		}
	}
	return r
}

// GET /v1/services
func (h *Handler) Services(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": catalog.Categories()})
}

// GET /v1/slots?date=YYYY-MM-DD
func (h *Handler) Slots(c *gin.Context) {
	date := c.Query("date")
	slots, err := h.bookings.Availability(c.Request.Context(), date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "slots": slots})
}

type reserveRequest struct {
	Date            string         `json:"date" binding:"required"`
	TimeLabel       string         `json:"time_label" binding:"required"`
	ServiceCategory string         `json:"service_category" binding:"required"`
	ServiceID       string         `json:"service_id" binding:"required"`
	Mode            string         `json:"mode"`
	Details         domain.Details `json:"details"`
}

// POST /v1/bookings
func (h *Handler) Reserve(c *gin.Context) {
	var in reserveRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, name, email := requester(c)

	b, err := h.bookings.Reserve(c.Request.Context(), service.Requester{ID: id, Name: name, Email: email}, service.ReserveInput{
		Date:            in.Date,
		TimeLabel:       in.TimeLabel,
		ServiceCategory: in.ServiceCategory,
		ServiceID:       in.ServiceID,
		Mode:            in.Mode,
		Details:         in.Details,
	})
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, gin.H{"booking": b})
	case errors.Is(err, repository.ErrSlotTaken):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "slot_taken",
			"message": "This slot has just been taken by another user. Please choose a different time.",
		})
	case errors.Is(err, service.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	case errors.Is(err, slot.ErrBadDate), errors.Is(err, slot.ErrBadLabel), errors.Is(err, catalog.ErrUnknownService):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reservation failed"})
	}
}

// GET /v1/bookings
func (h *Handler) ListMine(c *gin.Context) {
	id, _, _ := requester(c)
	list, err := h.bookings.ListMine(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": list})
}

// GET /v1/bookings/:id
func (h *Handler) Get(c *gin.Context) {
	uid, _, _ := requester(c)
	b, err := h.bookings.Get(c.Request.Context(), c.Param("id"), uid)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"booking": b})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "not your booking"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// POST /v1/bookings/:id/checkout
func (h *Handler) Checkout(c *gin.Context) {
	uid, _, _ := requester(c)
	p, err := h.bookings.Checkout(c.Request.Context(), c.Param("id"), uid)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"checkout": p})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "not your booking"})
	case errors.Is(err, service.ErrNotPayable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// POST /v1/payu/webhook is form-encoded, at-least-once, authenticated by hash.
func (h *Handler) Webhook(c *gin.Context) {
	n := service.WebhookNotice{
		Status:      c.PostForm("status"),
		TxnID:       c.PostForm("txnid"),
		Amount:      c.PostForm("amount"),
		ProductInfo: c.PostForm("productinfo"),
		FirstName:   c.PostForm("firstname"),
		Email:       c.PostForm("email"),
		Hash:        c.PostForm("hash"),
		MihPayID:    c.PostForm("mihpayid"),
		Mode:        c.PostForm("mode"),
		ErrorMsg:    c.PostForm("error_Message"),
	}

	b, applied, err := h.confirm.HandleWebhook(c.Request.Context(), n)
	switch {
	case err == nil && applied:
		c.JSON(http.StatusOK, gin.H{"message": "Webhook received"})
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Already processed", "status": b.Status})
	case errors.Is(err, service.ErrHashMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Hash"})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
	default:
		// Non-2xx so the processor retries the delivery.
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// POST /v1/bookings/:id/verify is the manual poll channel.
func (h *Handler) Verify(c *gin.Context) {
	uid, _, _ := requester(c)
	id := c.Param("id")

	// Ownership check before touching the processor.
	if _, err := h.bookings.Get(c.Request.Context(), id, uid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
		} else if errors.Is(err, service.ErrForbidden) {
			c.JSON(http.StatusForbidden, gin.H{"error": "not your booking"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	b, applied, err := h.confirm.VerifyPending(c.Request.Context(), id)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"booking": b, "applied": applied})
	case errors.Is(err, payu.ErrVerifyUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "verification temporarily unavailable, retry shortly"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// GET /v1/bookings/:id/live streams the record status over SSE. Read-only on
// the record; while the status stays initiated it triggers the manual verify
// a bounded number of times, then closes.
func (h *Handler) Live(c *gin.Context) {
	uid, _, _ := requester(c)
	id := c.Param("id")

	if _, err := h.bookings.Get(c.Request.Context(), id, uid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
		} else {
			c.JSON(http.StatusForbidden, gin.H{"error": "not your booking"})
		}
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")

	ctx := c.Request.Context()
	for poll := 1; poll <= h.live.MaxPolls; poll++ {
		b, err := h.confirm.Status(ctx, id)
		if err != nil {
			c.SSEvent("error", gin.H{"error": err.Error()})
			c.Writer.Flush()
			return
		}
		c.SSEvent("status", gin.H{
			"status":            b.Status,
			"payment_reference": b.PaymentReference,
			"failure_reason":    b.FailureReason,
		})
		c.Writer.Flush()

		if b.Terminal() {
			return
		}
		if h.live.VerifyEvery > 0 && poll%h.live.VerifyEvery == 0 {
			// Best effort; a transient processor error just means we keep
			// waiting for the webhook.
			if _, _, err := h.confirm.VerifyPending(ctx, id); err != nil && !errors.Is(err, payu.ErrVerifyUnavailable) {
				c.SSEvent("error", gin.H{"error": err.Error()})
				c.Writer.Flush()
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(h.live.PollInterval):
		}
	}
	c.SSEvent("timeout", gin.H{"message": "still pending, check back from your bookings page"})
	c.Writer.Flush()
}
