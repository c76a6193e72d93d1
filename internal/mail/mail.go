package mail

import (
	"context"
)

// Sender — граница доставки писем.
type Sender interface {
	SendPasswordResetCode(ctx context.Context, email, code string) error
}
