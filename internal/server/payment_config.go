package server

import (
	"github.com/gin-gonic/gin"
)

// GetPaymentConfig
// GET /api/payment-config
//
// Hands the storefront what it needs to tokenize cards client-side. The
// secret key never appears here.
func (s *Server) GetPaymentConfig(c *gin.Context) {
	respondData(c, gin.H{
		"publishable_key": s.cfg.Processor.PublishableKey,
		"gateway_id":      s.cfg.Gateway.ID,
	})
}
