package invitations

import (
	"context"
	"log"

	"workhub/internal/models"
)

// Courier hands a persisted invitation to an outbound channel such as email.
type Courier interface {
	Deliver(ctx context.Context, mail *models.Mail, recipient *models.Account) error
}

// LogCourier only logs; outbound delivery is handled elsewhere.
type LogCourier struct{}

func (LogCourier) Deliver(_ context.Context, mail *models.Mail, recipient *models.Account) error {
	log.Printf("[invitations] invitation %s queued for %s: %s", mail.ID, recipient.Email, mail.Subject)
	return nil
}
