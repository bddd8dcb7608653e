package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Directory resolves host users to processor-side customer records, creating
// them lazily on first use.
type Directory interface {
	Resolve(ctx context.Context, gatewayID snowflake.ID, user User) (*Customer, error)
	ByID(ctx context.Context, id snowflake.ID) (*Customer, error)
	ByReference(ctx context.Context, reference string) (*Customer, error)
	Delete(ctx context.Context, id snowflake.ID) error
}
