package server

import (
	"github.com/gin-gonic/gin"
	customerdomain "github.com/loomcommerce/paygate/internal/customer/domain"
	"github.com/loomcommerce/paygate/internal/gateway/domain"
)

type createSubscriptionRequest struct {
	Plan      string      `json:"plan" binding:"required"`
	User      userPayload `json:"user" binding:"required"`
	TrialDays *int        `json:"trial_days" binding:"omitempty,gte=0"`
}

// CreateSubscription
// POST /api/subscriptions
func (s *Server) CreateSubscription(c *gin.Context) {
	var req createSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	user := customerdomain.User{ID: req.User.ID, Email: req.User.Email}
	plan := domain.Plan{Reference: req.Plan}
	form := domain.SubscriptionForm{TrialDays: req.TrialDays}

	resp, err := s.gatewaySvc.Subscribe(c.Request.Context(), user, plan, form)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, resp)
}
