package migration

import (
	customerdomain "github.com/loomcommerce/paygate/internal/customer/domain"
	gatewaydomain "github.com/loomcommerce/paygate/internal/gateway/domain"
	intentdomain "github.com/loomcommerce/paygate/internal/intent/domain"
	"gorm.io/gorm"
)

// Run creates or updates the gateway's local schema. The unique indexes on
// gateway_customers and gateway_payment_intents are part of the correctness
// contract, not an optimization: they are the guard against duplicate rows
// from concurrent find-or-create sequences.
func Run(db *gorm.DB) error {
	return db.AutoMigrate(
		&customerdomain.Customer{},
		&intentdomain.PaymentIntent{},
		&gatewaydomain.PaymentSource{},
	)
}
