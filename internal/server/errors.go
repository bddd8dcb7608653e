package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	customerdomain "github.com/loomcommerce/paygate/internal/customer/domain"
	gatewaydomain "github.com/loomcommerce/paygate/internal/gateway/domain"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("not found")
)

func invalidRequestError() error { return ErrInvalidRequest }

// AbortWithError maps domain errors onto HTTP statuses. Anything unmapped is
// a 500 with a generic body so internals never leak.
func AbortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, ErrInvalidRequest):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, ErrNotFound), errors.Is(err, customerdomain.ErrNotFound):
		status = http.StatusNotFound
		message = "not found"
	case errors.Is(err, gatewaydomain.ErrUnsupportedCurrency):
		status = http.StatusUnprocessableEntity
		message = err.Error()
	case errors.Is(err, gatewaydomain.ErrNoPaymentSource):
		status = http.StatusUnprocessableEntity
		message = err.Error()
	case errors.Is(err, gatewaydomain.ErrSubscription):
		status = http.StatusBadGateway
		message = err.Error()
	case errors.Is(err, gatewaydomain.ErrPaymentSource):
		status = http.StatusBadGateway
		message = gatewaydomain.ErrPaymentSource.Error()
	case errors.Is(err, customerdomain.ErrPersistence):
		status = http.StatusInternalServerError
		message = customerdomain.ErrPersistence.Error()
	}

	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
