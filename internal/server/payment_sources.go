package server

import (
	"github.com/gin-gonic/gin"
	customerdomain "github.com/loomcommerce/paygate/internal/customer/domain"
	"github.com/loomcommerce/paygate/internal/gateway/domain"
)

type createPaymentSourceRequest struct {
	PaymentMethodID string      `json:"payment_method_id" binding:"required"`
	User            userPayload `json:"user" binding:"required"`
}

// CreatePaymentSource
// POST /api/payment-sources
func (s *Server) CreatePaymentSource(c *gin.Context) {
	var req createPaymentSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	user := customerdomain.User{ID: req.User.ID, Email: req.User.Email}
	source, err := s.sourceSvc.Create(c.Request.Context(), user, domain.PaymentForm{
		PaymentMethodID: req.PaymentMethodID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, source)
}

// ListPaymentSources
// GET /api/payment-sources?user_id=xxx
func (s *Server) ListPaymentSources(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	sources, err := s.sourceSvc.ListByUser(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, sources)
}

// DeletePaymentSource
// DELETE /api/payment-sources/:token
func (s *Server) DeletePaymentSource(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.sourceSvc.Delete(c.Request.Context(), token); err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, gin.H{"deleted": true})
}
