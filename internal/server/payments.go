package server

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	customerdomain "github.com/loomcommerce/paygate/internal/customer/domain"
	"github.com/loomcommerce/paygate/internal/gateway/domain"
)

type userPayload struct {
	ID    string `json:"id" binding:"required"`
	Email string `json:"email"`
}

type createPaymentRequest struct {
	OrderID         string       `json:"order_id" binding:"required"`
	Amount          float64      `json:"amount" binding:"required,gt=0"`
	Currency        string       `json:"currency" binding:"required,len=3"`
	PaymentMethodID string       `json:"payment_method_id"`
	Customer        string       `json:"customer"`
	User            *userPayload `json:"user"`
	Hash            string       `json:"hash"`
	Capture         bool         `json:"capture"`
}

// CreatePayment
// POST /api/payments
func (s *Server) CreatePayment(c *gin.Context) {
	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	tx := domain.Transaction{
		OrderID:  req.OrderID,
		Amount:   req.Amount,
		Currency: req.Currency,
		Hash:     req.Hash,
	}
	if tx.Hash == "" {
		tx.Hash = uuid.NewString()
	}
	form := domain.PaymentForm{
		PaymentMethodID: req.PaymentMethodID,
		Customer:        req.Customer,
	}
	var user *customerdomain.User
	if req.User != nil {
		user = &customerdomain.User{ID: req.User.ID, Email: req.User.Email}
	}

	resp, err := s.gatewaySvc.AuthorizeOrPurchase(c.Request.Context(), tx, form, user, req.Capture)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, resp)
}

type capturePaymentRequest struct {
	Hash string `json:"hash"`
}

// CapturePayment
// POST /api/payments/:reference/capture
func (s *Server) CapturePayment(c *gin.Context) {
	reference := c.Param("reference")
	if reference == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	var req capturePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	tx := domain.Transaction{Hash: req.Hash, Reference: reference}
	if tx.Hash == "" {
		tx.Hash = uuid.NewString()
	}

	resp, err := s.gatewaySvc.Capture(c.Request.Context(), tx, reference)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, resp)
}

type refundPaymentRequest struct {
	Amount   float64 `json:"amount" binding:"required,gt=0"`
	Currency string  `json:"currency" binding:"required,len=3"`
}

// RefundPayment
// POST /api/payments/:reference/refund
func (s *Server) RefundPayment(c *gin.Context) {
	reference := c.Param("reference")
	if reference == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	var req refundPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	tx := domain.Transaction{
		Reference: reference,
		Amount:    req.Amount,
		Currency:  req.Currency,
	}
	resp, err := s.gatewaySvc.Refund(c.Request.Context(), tx)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, resp)
}

// CompletePayment
// GET /api/payments/complete?payment_intent=pi_xxx
func (s *Server) CompletePayment(c *gin.Context) {
	reference := c.Query("payment_intent")
	if reference == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.gatewaySvc.CompletePayment(c.Request.Context(), domain.Transaction{Reference: reference})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, resp)
}
