package notify

import (
	"time"

	"github.com/google/uuid"

	"reservapp/backend/internal/domain"
)

const (
	KindCustomerConfirmation = "reservation.customer_confirmation"
	KindProviderNewRequest   = "reservation.provider_request"
	KindCustomerStatusUpdate = "reservation.status_update"
)

// Event is an ephemeral message intent produced by a lifecycle operation. It
// is owned by the dispatcher and discarded after the send attempt.
type Event struct {
	Kind           string
	RecipientEmail string
	CustomerName   string
	ProviderName   string
	ServiceName    string
	ReservationID  uuid.UUID
	Date           time.Time
	TimeOfDay      time.Time
	Status         domain.ReservationStatus
}
