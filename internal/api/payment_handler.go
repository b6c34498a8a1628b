package api

import (
	"errors"
	"net/http"

	"shopflow/internal/models"
	"shopflow/internal/service"

	"github.com/gin-gonic/gin"
)

// PaymentHandler exposes the direct payment path over HTTP.
type PaymentHandler struct {
	payments *service.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// SetupRoutes sets up HTTP routes
func (h *PaymentHandler) SetupRoutes(router *gin.Engine) {
	RegisterBase(router)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/payments", h.processPayment)
	}
}

// processPaymentRequest is the direct-payment body.
type processPaymentRequest struct {
	OrderID int64   `json:"orderId" binding:"required"`
	UserID  int64   `json:"userId" binding:"required"`
	Amount  float64 `json:"amount" binding:"required,gt=0"`
	Method  string  `json:"method"`
}

// processPayment handles the synchronous payment path
func (h *PaymentHandler) processPayment(c *gin.Context) {
	var req processPaymentRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	payment, err := h.payments.ProcessPayment(c.Request.Context(), req.OrderID, req.UserID, req.Amount, req.Method)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to process payment",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, payment)
}
