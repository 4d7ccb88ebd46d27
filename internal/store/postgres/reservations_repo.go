package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"reservapp/backend/internal/domain"
	"reservapp/backend/internal/store"
)

type ReservationRepo struct {
	db *bun.DB
}

func NewReservationRepo(db *bun.DB) *ReservationRepo {
	return &ReservationRepo{db: db}
}

type reservationTx struct {
	tx bun.Tx
}

func (r *ReservationRepo) FindUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var row domain.User
	err := r.db.NewSelect().
		Model(&row).
		Where("email = ?", email).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, store.ErrNotFound
		}
		return domain.User{}, err
	}
	return row, nil
}

func (r *ReservationRepo) FindServiceByID(ctx context.Context, serviceID uuid.UUID) (domain.Service, error) {
	var row domain.Service
	err := r.db.NewSelect().
		Model(&row).
		Relation("Provider").
		Where("service.id = ?", serviceID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Service{}, store.ErrNotFound
		}
		return domain.Service{}, err
	}
	return row, nil
}

func (r *ReservationRepo) Create(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	m := res
	if _, err := r.db.NewInsert().Model(&m).Exec(ctx); err != nil {
		return domain.Reservation{}, err
	}
	return m, nil
}

func (r *ReservationRepo) ListByCustomer(ctx context.Context, customerEmail string) ([]domain.Reservation, error) {
	var rows []domain.Reservation
	err := r.db.NewSelect().
		Model(&rows).
		Relation("Customer").
		Relation("Provider").
		Relation("Service").
		Where("customer.email = ?", customerEmail).
		OrderExpr("reservation.date ASC, reservation.time_of_day ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ReservationRepo) ListByProvider(ctx context.Context, providerEmail string, status *domain.ReservationStatus) ([]domain.Reservation, error) {
	var rows []domain.Reservation
	q := r.db.NewSelect().
		Model(&rows).
		Relation("Customer").
		Relation("Provider").
		Relation("Service").
		Where("provider.email = ?", providerEmail)
	if status != nil {
		q = q.Where("reservation.status = ?", *status)
	}

	err := q.OrderExpr("reservation.date ASC, reservation.time_of_day ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ReservationRepo) InReservationTx(ctx context.Context, reservationID uuid.UUID, fn func(ctx context.Context, tx store.ReservationTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockReservation(ctx, tx, reservationID); err != nil {
			return err
		}
		return fn(ctx, reservationTx{tx: tx})
	})
}

func lockReservation(ctx context.Context, tx bun.Tx, reservationID uuid.UUID) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", reservationID.String()).Exec(ctx)
	return err
}

func (t reservationTx) GetByID(ctx context.Context, reservationID uuid.UUID) (domain.Reservation, error) {
	return t.get(ctx, reservationID, "")
}

func (t reservationTx) GetByIDAndCustomer(ctx context.Context, reservationID uuid.UUID, customerEmail string) (domain.Reservation, error) {
	return t.get(ctx, reservationID, customerEmail)
}

func (t reservationTx) get(ctx context.Context, reservationID uuid.UUID, customerEmail string) (domain.Reservation, error) {
	var row domain.Reservation
	q := t.tx.NewSelect().
		Model(&row).
		Relation("Customer").
		Relation("Service").
		Relation("Service.Provider").
		Where("reservation.id = ?", reservationID)
	if customerEmail != "" {
		q = q.Where("customer.email = ?", customerEmail)
	}

	err := q.Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Reservation{}, store.ErrNotFound
		}
		return domain.Reservation{}, err
	}
	return row, nil
}

func (t reservationTx) UpdateSchedule(ctx context.Context, reservationID uuid.UUID, date, timeOfDay time.Time, version int64) error {
	res, err := t.tx.NewUpdate().
		Model((*domain.Reservation)(nil)).
		Set("date = ?", date).
		Set("time_of_day = ?", timeOfDay).
		Set("version = version + 1").
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", reservationID).
		Where("version = ?", version).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireOneRow(res, store.ErrConflict)
}

func (t reservationTx) UpdateStatus(ctx context.Context, reservationID uuid.UUID, status domain.ReservationStatus, version int64) error {
	res, err := t.tx.NewUpdate().
		Model((*domain.Reservation)(nil)).
		Set("status = ?", status).
		Set("version = version + 1").
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", reservationID).
		Where("version = ?", version).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireOneRow(res, store.ErrConflict)
}

func (t reservationTx) Delete(ctx context.Context, reservationID uuid.UUID) error {
	res, err := t.tx.NewDelete().
		Model((*domain.Reservation)(nil)).
		Where("id = ?", reservationID).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireOneRow(res, store.ErrNotFound)
}

func requireOneRow(res sql.Result, missing error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return missing
	}
	return nil
}
