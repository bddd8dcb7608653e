package server

import (
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

// GetCustomer
// GET /api/customers/:reference
func (s *Server) GetCustomer(c *gin.Context) {
	reference := c.Param("reference")
	if reference == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	customer, err := s.customers.ByReference(c.Request.Context(), reference)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if customer == nil {
		AbortWithError(c, ErrNotFound)
		return
	}
	respondData(c, customer)
}

// DeleteCustomer
// DELETE /api/customers/:id
func (s *Server) DeleteCustomer(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.customers.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, gin.H{"deleted": true})
}
