package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"reservapp/backend/internal/domain"
)

// DirectoryRepository exposes the read-only customer and catalog records the
// reservation core resolves against. Their lifecycle is owned elsewhere.
type DirectoryRepository interface {
	FindUserByEmail(ctx context.Context, email string) (domain.User, error)
	FindServiceByID(ctx context.Context, serviceID uuid.UUID) (domain.Service, error)
}

type ReservationRepository interface {
	Create(ctx context.Context, res domain.Reservation) (domain.Reservation, error)
	ListByCustomer(ctx context.Context, customerEmail string) ([]domain.Reservation, error)
	ListByProvider(ctx context.Context, providerEmail string, status *domain.ReservationStatus) ([]domain.Reservation, error)

	// InReservationTx runs fn inside a transaction that serializes all
	// mutations of the given reservation.
	InReservationTx(ctx context.Context, reservationID uuid.UUID, fn func(ctx context.Context, tx ReservationTx) error) error
}

// ReservationTx is the mutation surface available inside InReservationTx.
// Gets load the Customer, Service and Service.Provider relations. Updates are
// conditional on the version loaded in the same transaction and fail with
// ErrConflict when the row moved underneath the caller.
type ReservationTx interface {
	GetByID(ctx context.Context, reservationID uuid.UUID) (domain.Reservation, error)
	GetByIDAndCustomer(ctx context.Context, reservationID uuid.UUID, customerEmail string) (domain.Reservation, error)
	UpdateSchedule(ctx context.Context, reservationID uuid.UUID, date, timeOfDay time.Time, version int64) error
	UpdateStatus(ctx context.Context, reservationID uuid.UUID, status domain.ReservationStatus, version int64) error
	Delete(ctx context.Context, reservationID uuid.UUID) error
}
