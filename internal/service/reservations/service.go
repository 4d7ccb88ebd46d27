package reservations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"reservapp/backend/internal/domain"
	"reservapp/backend/internal/notify"
	"reservapp/backend/internal/store"
)

// Notifier receives lifecycle events after the owning transaction has
// committed. Implementations must not block.
type Notifier interface {
	Enqueue(ev notify.Event)
}

type Service struct {
	directory store.DirectoryRepository
	repo      store.ReservationRepository
	notifier  Notifier
}

func NewService(directory store.DirectoryRepository, repo store.ReservationRepository, notifier Notifier) *Service {
	return &Service{directory: directory, repo: repo, notifier: notifier}
}

type CreateInput struct {
	CustomerEmail string
	ServiceID     uuid.UUID
	Date          time.Time
	TimeOfDay     time.Time
}

func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Reservation, error) {
	email := strings.TrimSpace(in.CustomerEmail)
	if email == "" {
		return domain.Reservation{}, validationError("customer email is required")
	}
	if in.ServiceID == uuid.Nil {
		return domain.Reservation{}, validationError("service_id is required")
	}
	if err := domain.ValidateTimeWindow(in.Date, in.TimeOfDay, time.Now()); err != nil {
		return domain.Reservation{}, validationError(err.Error())
	}

	customer, err := s.directory.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Reservation{}, fmt.Errorf("customer %w", err)
		}
		return domain.Reservation{}, err
	}
	svc, err := s.directory.FindServiceByID(ctx, in.ServiceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Reservation{}, fmt.Errorf("service %w", err)
		}
		return domain.Reservation{}, err
	}
	if svc.Status != domain.ServiceStatusActive {
		return domain.Reservation{}, stateError("the service is not active, unable to create a reservation")
	}

	created, err := s.repo.Create(ctx, domain.Reservation{
		CustomerID: customer.ID,
		ProviderID: svc.ProviderID,
		ServiceID:  svc.ID,
		Date:       in.Date,
		TimeOfDay:  in.TimeOfDay,
		Status:     domain.ReservationStatusPending,
	})
	if err != nil {
		return domain.Reservation{}, err
	}

	created.Customer = &customer
	created.Service = &svc
	created.Provider = svc.Provider

	providerName, providerEmail := "", ""
	if svc.Provider != nil {
		providerName = svc.Provider.Name
		providerEmail = svc.Provider.Email
	}

	s.notifier.Enqueue(notify.Event{
		Kind:           notify.KindCustomerConfirmation,
		RecipientEmail: customer.Email,
		CustomerName:   customer.Name,
		ProviderName:   providerName,
		ServiceName:    svc.Title,
		ReservationID:  created.ID,
		Date:           created.Date,
		TimeOfDay:      created.TimeOfDay,
		Status:         created.Status,
	})
	s.notifier.Enqueue(notify.Event{
		Kind:           notify.KindProviderNewRequest,
		RecipientEmail: providerEmail,
		CustomerName:   customer.Name,
		ProviderName:   providerName,
		ServiceName:    svc.Title,
		ReservationID:  created.ID,
		Date:           created.Date,
		TimeOfDay:      created.TimeOfDay,
		Status:         created.Status,
	})

	return created, nil
}

func (s *Service) ListMine(ctx context.Context, customerEmail string) ([]domain.Reservation, error) {
	email := strings.TrimSpace(customerEmail)
	if email == "" {
		return nil, validationError("customer email is required")
	}
	return s.repo.ListByCustomer(ctx, email)
}

func (s *Service) ListForProvider(ctx context.Context, providerEmail string, status *domain.ReservationStatus) ([]domain.Reservation, error) {
	email := strings.TrimSpace(providerEmail)
	if email == "" {
		return nil, validationError("provider email is required")
	}
	return s.repo.ListByProvider(ctx, email, status)
}

// Delete removes a reservation owned by the caller. Only pending
// reservations may be removed; no notification is emitted.
func (s *Service) Delete(ctx context.Context, reservationID uuid.UUID, customerEmail string) error {
	email := strings.TrimSpace(customerEmail)
	if email == "" {
		return validationError("customer email is required")
	}
	if reservationID == uuid.Nil {
		return validationError("reservation_id is required")
	}

	return s.repo.InReservationTx(ctx, reservationID, func(ctx context.Context, tx store.ReservationTx) error {
		r, err := tx.GetByIDAndCustomer(ctx, reservationID, email)
		if err != nil {
			return err
		}
		if r.Status != domain.ReservationStatusPending {
			return stateError("cannot delete a non-pending reservation")
		}
		return tx.Delete(ctx, reservationID)
	})
}

// Reschedule moves an owned pending reservation to a new date and time,
// subject to the same lead-time rule as creation.
func (s *Service) Reschedule(ctx context.Context, reservationID uuid.UUID, customerEmail string, newDate, newTime time.Time) (domain.Reservation, error) {
	email := strings.TrimSpace(customerEmail)
	if email == "" {
		return domain.Reservation{}, validationError("customer email is required")
	}
	if reservationID == uuid.Nil {
		return domain.Reservation{}, validationError("reservation_id is required")
	}

	var out domain.Reservation
	err := s.repo.InReservationTx(ctx, reservationID, func(ctx context.Context, tx store.ReservationTx) error {
		r, err := tx.GetByIDAndCustomer(ctx, reservationID, email)
		if err != nil {
			return err
		}
		if r.Status != domain.ReservationStatusPending {
			return stateError("cannot reschedule a non-pending reservation")
		}
		if err := domain.ValidateTimeWindow(newDate, newTime, time.Now()); err != nil {
			return validationError(err.Error())
		}
		if err := tx.UpdateSchedule(ctx, reservationID, newDate, newTime, r.Version); err != nil {
			return err
		}

		r.Date = newDate
		r.TimeOfDay = newTime
		r.Version++
		out = r
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return out, nil
}

// UpdateStatus is the provider-side transition. Any status value is accepted
// here; the transport rejects statuses it does not know about. The customer
// is notified after the transaction commits.
func (s *Service) UpdateStatus(ctx context.Context, reservationID uuid.UUID, newStatus domain.ReservationStatus, providerEmail string) error {
	email := strings.TrimSpace(providerEmail)
	if email == "" {
		return validationError("provider email is required")
	}
	if reservationID == uuid.Nil {
		return validationError("reservation_id is required")
	}
	if newStatus == "" {
		return validationError("status is required")
	}

	var ev notify.Event
	err := s.repo.InReservationTx(ctx, reservationID, func(ctx context.Context, tx store.ReservationTx) error {
		r, err := tx.GetByID(ctx, reservationID)
		if err != nil {
			return err
		}
		if !domain.IsServiceProvider(&r, email) {
			return authorizationError("provider email does not match the reservation's service provider")
		}
		if err := tx.UpdateStatus(ctx, reservationID, newStatus, r.Version); err != nil {
			return err
		}

		ev = notify.Event{
			Kind:           notify.KindCustomerStatusUpdate,
			RecipientEmail: r.Customer.Email,
			CustomerName:   r.Customer.Name,
			ProviderName:   r.Service.Provider.Name,
			ServiceName:    r.Service.Title,
			ReservationID:  r.ID,
			Date:           r.Date,
			TimeOfDay:      r.TimeOfDay,
			Status:         newStatus,
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.notifier.Enqueue(ev)
	return nil
}
