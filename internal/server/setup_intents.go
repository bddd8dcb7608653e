package server

import (
	"github.com/gin-gonic/gin"
	customerdomain "github.com/loomcommerce/paygate/internal/customer/domain"
)

type createSetupIntentRequest struct {
	PaymentMethodID string      `json:"payment_method_id" binding:"required"`
	User            userPayload `json:"user" binding:"required"`
	ReturnURL       string      `json:"return_url"`
}

// CreateSetupIntent
// POST /api/setup-intents
func (s *Server) CreateSetupIntent(c *gin.Context) {
	var req createSetupIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	user := customerdomain.User{ID: req.User.ID, Email: req.User.Email}
	result, err := s.setupSvc.Create(c.Request.Context(), user, req.PaymentMethodID, req.ReturnURL)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, result)
}

// CompleteSetupIntent
// GET /api/setup-intents/complete?setup_intent=seti_xxx&user_id=xxx
func (s *Server) CompleteSetupIntent(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		AbortWithError(c, invalidRequestError())
		return
	}
	user := customerdomain.User{ID: userID}

	result, err := s.setupSvc.Confirm(c.Request.Context(), user, c.Query("setup_intent"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, result)
}
