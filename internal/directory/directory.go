package directory

import (
	"context"

	"github.com/votewatch/election-alerts/internal/models"
)

// UserDirectory answers who should receive an alert when the alert carries no
// explicit recipient list. Backed by the observer roster.
type UserDirectory interface {
	UsersByRole(ctx context.Context, role models.Role) ([]models.Recipient, error)
	UsersByParish(ctx context.Context, parish string) ([]models.Recipient, error)
}
