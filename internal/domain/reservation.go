package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "PENDING"
	ReservationStatusAccepted  ReservationStatus = "ACCEPTED"
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
)

// KnownReservationStatus reports whether s is one of the statuses this service
// assigns itself. Unknown values are still carried through notification
// rendering with a generic phrase.
func KnownReservationStatus(s ReservationStatus) bool {
	switch s {
	case ReservationStatusPending, ReservationStatusAccepted, ReservationStatusCancelled:
		return true
	}
	return false
}

type Reservation struct {
	bun.BaseModel `bun:"table:reservations"`

	ID         uuid.UUID         `bun:"id,pk,type:uuid"`
	CustomerID uuid.UUID         `bun:"customer_id,notnull,type:uuid"`
	ProviderID uuid.UUID         `bun:"provider_id,notnull,type:uuid"`
	ServiceID  uuid.UUID         `bun:"service_id,notnull,type:uuid"`
	Customer   *User             `bun:"rel:belongs-to,join:customer_id=id"`
	Provider   *User             `bun:"rel:belongs-to,join:provider_id=id"`
	Service    *Service          `bun:"rel:belongs-to,join:service_id=id"`
	Date       time.Time         `bun:"date,notnull,type:date"`
	TimeOfDay  time.Time         `bun:"time_of_day,notnull,type:time"`
	Status     ReservationStatus `bun:"status,notnull"`
	Version    int64             `bun:"version,notnull"`
	CreatedAt  time.Time         `bun:"created_at,notnull"`
	UpdatedAt  time.Time         `bun:"updated_at,notnull"`
}

func (r *Reservation) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if r.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			r.ID = id
		}
		if r.Status == "" {
			r.Status = ReservationStatusPending
		}
		if r.Version == 0 {
			r.Version = 1
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		r.UpdatedAt = now
	}
	return nil
}

// StartsAt combines the reservation's calendar date and time of day into a
// single wall-clock timestamp, used for provider-facing views.
func (r *Reservation) StartsAt() time.Time {
	return time.Date(
		r.Date.Year(), r.Date.Month(), r.Date.Day(),
		r.TimeOfDay.Hour(), r.TimeOfDay.Minute(), r.TimeOfDay.Second(), 0,
		time.UTC,
	)
}
