package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"reservapp/backend/internal/domain"
	"reservapp/backend/internal/service/reservations"
	"reservapp/backend/internal/store"
)

type fakeReservationsService struct {
	createFn          func(ctx context.Context, in reservations.CreateInput) (domain.Reservation, error)
	listMineFn        func(ctx context.Context, customerEmail string) ([]domain.Reservation, error)
	listForProviderFn func(ctx context.Context, providerEmail string, status *domain.ReservationStatus) ([]domain.Reservation, error)
	deleteFn          func(ctx context.Context, reservationID uuid.UUID, customerEmail string) error
	rescheduleFn      func(ctx context.Context, reservationID uuid.UUID, customerEmail string, newDate, newTime time.Time) (domain.Reservation, error)
	updateStatusFn    func(ctx context.Context, reservationID uuid.UUID, newStatus domain.ReservationStatus, providerEmail string) error
}

func (f *fakeReservationsService) Create(ctx context.Context, in reservations.CreateInput) (domain.Reservation, error) {
	if f.createFn == nil {
		panic("Create not configured")
	}
	return f.createFn(ctx, in)
}

func (f *fakeReservationsService) ListMine(ctx context.Context, customerEmail string) ([]domain.Reservation, error) {
	if f.listMineFn == nil {
		panic("ListMine not configured")
	}
	return f.listMineFn(ctx, customerEmail)
}

func (f *fakeReservationsService) ListForProvider(ctx context.Context, providerEmail string, status *domain.ReservationStatus) ([]domain.Reservation, error) {
	if f.listForProviderFn == nil {
		panic("ListForProvider not configured")
	}
	return f.listForProviderFn(ctx, providerEmail, status)
}

func (f *fakeReservationsService) Delete(ctx context.Context, reservationID uuid.UUID, customerEmail string) error {
	if f.deleteFn == nil {
		panic("Delete not configured")
	}
	return f.deleteFn(ctx, reservationID, customerEmail)
}

func (f *fakeReservationsService) Reschedule(ctx context.Context, reservationID uuid.UUID, customerEmail string, newDate, newTime time.Time) (domain.Reservation, error) {
	if f.rescheduleFn == nil {
		panic("Reschedule not configured")
	}
	return f.rescheduleFn(ctx, reservationID, customerEmail, newDate, newTime)
}

func (f *fakeReservationsService) UpdateStatus(ctx context.Context, reservationID uuid.UUID, newStatus domain.ReservationStatus, providerEmail string) error {
	if f.updateStatusFn == nil {
		panic("UpdateStatus not configured")
	}
	return f.updateStatusFn(ctx, reservationID, newStatus, providerEmail)
}

var testReservationID = uuid.MustParse("00000000-0000-0000-0000-000000000002")

func sampleReservation() domain.Reservation {
	return domain.Reservation{
		ID:        testReservationID,
		Customer:  &domain.User{Name: "Alice", Email: "alice@x.com"},
		Provider:  &domain.User{Name: "Bob", Email: "bob@x.com"},
		Service:   &domain.Service{Title: "Haircut"},
		Date:      time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		TimeOfDay: time.Date(0, 1, 1, 14, 30, 0, 0, time.UTC),
		Status:    domain.ReservationStatusPending,
		Version:   1,
	}
}

func newTestServer(svc *fakeReservationsService) *httptest.Server {
	router := NewRouter(5 * time.Second)
	NewReservationsHandler(svc, nil, nil).Register(router)
	return httptest.NewServer(router)
}

func doRequest(t *testing.T, srv *httptest.Server, method, path, caller, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if caller != "" {
		req.Header.Set(CallerHeader, caller)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return out
}

func TestCreateReservation_Created(t *testing.T) {
	svc := &fakeReservationsService{
		createFn: func(ctx context.Context, in reservations.CreateInput) (domain.Reservation, error) {
			if in.CustomerEmail != "alice@x.com" {
				t.Fatalf("caller = %q", in.CustomerEmail)
			}
			if in.Date.Format("2006-01-02") != "2026-09-15" || in.TimeOfDay.Format("15:04") != "14:30" {
				t.Fatalf("schedule = %v %v", in.Date, in.TimeOfDay)
			}
			return sampleReservation(), nil
		},
	}
	srv := newTestServer(svc)
	defer srv.Close()

	resp := doRequest(t, srv, http.MethodPost, "/reservations", "alice@x.com",
		`{"service_id":"00000000-0000-0000-0000-000000000001","date":"2026-09-15","time":"14:30"}`)

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	got := decodeBody[map[string]any](t, resp)
	if got["id"] != testReservationID.String() || got["status"] != "PENDING" {
		t.Fatalf("body = %v", got)
	}
	if got["customer_name"] != "Alice" || got["provider_name"] != "Bob" || got["service_title"] != "Haircut" {
		t.Fatalf("body = %v", got)
	}
}

func TestCreateReservation_MissingCallerHeader(t *testing.T) {
	srv := newTestServer(&fakeReservationsService{})
	defer srv.Close()

	resp := doRequest(t, srv, http.MethodPost, "/reservations", "",
		`{"service_id":"00000000-0000-0000-0000-000000000001","date":"2026-09-15","time":"14:30"}`)

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestCreateReservation_BadDate(t *testing.T) {
	srv := newTestServer(&fakeReservationsService{})
	defer srv.Close()

	resp := doRequest(t, srv, http.MethodPost, "/reservations", "alice@x.com",
		`{"service_id":"00000000-0000-0000-0000-000000000001","date":"15/09/2026","time":"14:30"}`)

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	got := decodeBody[map[string]string](t, resp)
	if got["error"] != "date must be YYYY-MM-DD" {
		t.Fatalf("error = %q", got["error"])
	}
}

func TestCreateReservation_ErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"validation", &reservations.ValidationError{}, http.StatusBadRequest},
		{"state", &reservations.StateError{}, http.StatusConflict},
		{"not_found", store.ErrNotFound, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeReservationsService{
				createFn: func(ctx context.Context, in reservations.CreateInput) (domain.Reservation, error) {
					return domain.Reservation{}, tc.err
				},
			}
			srv := newTestServer(svc)
			defer srv.Close()

			resp := doRequest(t, srv, http.MethodPost, "/reservations", "alice@x.com",
				`{"service_id":"00000000-0000-0000-0000-000000000001","date":"2026-09-15","time":"14:30"}`)

			if resp.StatusCode != tc.wantCode {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.wantCode)
			}
		})
	}
}

func TestListMyReservations_OK(t *testing.T) {
	svc := &fakeReservationsService{
		listMineFn: func(ctx context.Context, customerEmail string) ([]domain.Reservation, error) {
			if customerEmail != "alice@x.com" {
				t.Fatalf("caller = %q", customerEmail)
			}
			return []domain.Reservation{sampleReservation()}, nil
		},
	}
	srv := newTestServer(svc)
	defer srv.Close()

	resp := doRequest(t, srv, http.MethodGet, "/reservations/me", "alice@x.com", "")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	got := decodeBody[[]map[string]any](t, resp)
	if len(got) != 1 {
		t.Fatalf("rows = %d, want 1", len(got))
	}
	if got[0]["date"] != "2026-09-15" || got[0]["time"] != "14:30" {
		t.Fatalf("row = %v", got[0])
	}
}

func TestListProviderReservations_StatusFilter(t *testing.T) {
	var gotStatus *domain.ReservationStatus
	svc := &fakeReservationsService{
		listForProviderFn: func(ctx context.Context, providerEmail string, status *domain.ReservationStatus) ([]domain.Reservation, error) {
			gotStatus = status
			return []domain.Reservation{sampleReservation()}, nil
		},
	}
	srv := newTestServer(svc)
	defer srv.Close()

	resp := doRequest(t, srv, http.MethodGet, "/reservations/provider?status=pending", "bob@x.com", "")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if gotStatus == nil || *gotStatus != domain.ReservationStatusPending {
		t.Fatalf("status filter = %v", gotStatus)
	}
	got := decodeBody[[]map[string]any](t, resp)
	if got[0]["customer_email"] != "alice@x.com" || got[0]["service_name"] != "Haircut" {
		t.Fatalf("row = %v", got[0])
	}
	if _, ok := got[0]["reservation_date_time"]; !ok {
		t.Fatalf("row missing reservation_date_time: %v", got[0])
	}
}

func TestListProviderReservations_UnknownStatusFilter(t *testing.T) {
	srv := newTestServer(&fakeReservationsService{})
	defer srv.Close()

	resp := doRequest(t, srv, http.MethodGet, "/reservations/provider?status=archived", "bob@x.com", "")

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestDeleteReservation_NoContent(t *testing.T) {
	var deletedID uuid.UUID
	svc := &fakeReservationsService{
		deleteFn: func(ctx context.Context, reservationID uuid.UUID, customerEmail string) error {
			deletedID = reservationID
			return nil
		},
	}
	srv := newTestServer(svc)
	defer srv.Close()

	resp := doRequest(t, srv, http.MethodDelete, "/reservations/"+testReservationID.String(), "alice@x.com", "")

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	if deletedID != testReservationID {
		t.Fatalf("deleted id = %s, want %s", deletedID, testReservationID)
	}
}

func TestDeleteReservation_InvalidID(t *testing.T) {
	srv := newTestServer(&fakeReservationsService{})
	defer srv.Close()

	resp := doRequest(t, srv, http.MethodDelete, "/reservations/not-a-uuid", "alice@x.com", "")

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestDeleteReservation_NonPendingConflict(t *testing.T) {
	svc := &fakeReservationsService{
		deleteFn: func(ctx context.Context, reservationID uuid.UUID, customerEmail string) error {
			return &reservations.StateError{}
		},
	}
	srv := newTestServer(svc)
	defer srv.Close()

	resp := doRequest(t, srv, http.MethodDelete, "/reservations/"+testReservationID.String(), "alice@x.com", "")

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}
}

func TestRescheduleReservation_OK(t *testing.T) {
	svc := &fakeReservationsService{
		rescheduleFn: func(ctx context.Context, reservationID uuid.UUID, customerEmail string, newDate, newTime time.Time) (domain.Reservation, error) {
			r := sampleReservation()
			r.Date = newDate
			r.TimeOfDay = newTime
			r.Version = 2
			return r, nil
		},
	}
	srv := newTestServer(svc)
	defer srv.Close()

	resp := doRequest(t, srv, http.MethodPatch, "/reservations/"+testReservationID.String()+"/schedule", "alice@x.com",
		`{"date":"2026-09-20","time":"16:00"}`)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	got := decodeBody[map[string]any](t, resp)
	if got["date"] != "2026-09-20" || got["time"] != "16:00" {
		t.Fatalf("body = %v", got)
	}
}

func TestUpdateReservationStatus_NoContent(t *testing.T) {
	var gotStatus domain.ReservationStatus
	svc := &fakeReservationsService{
		updateStatusFn: func(ctx context.Context, reservationID uuid.UUID, newStatus domain.ReservationStatus, providerEmail string) error {
			if providerEmail != "bob@x.com" {
				t.Fatalf("caller = %q", providerEmail)
			}
			gotStatus = newStatus
			return nil
		},
	}
	srv := newTestServer(svc)
	defer srv.Close()

	resp := doRequest(t, srv, http.MethodPatch, "/reservations/"+testReservationID.String()+"/status", "bob@x.com",
		`{"status":"accepted"}`)

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	if gotStatus != domain.ReservationStatusAccepted {
		t.Fatalf("status = %s, want %s", gotStatus, domain.ReservationStatusAccepted)
	}
}

func TestUpdateReservationStatus_UnknownStatus(t *testing.T) {
	srv := newTestServer(&fakeReservationsService{})
	defer srv.Close()

	resp := doRequest(t, srv, http.MethodPatch, "/reservations/"+testReservationID.String()+"/status", "bob@x.com",
		`{"status":"ARCHIVED"}`)

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestUpdateReservationStatus_ForeignProviderForbidden(t *testing.T) {
	svc := &fakeReservationsService{
		updateStatusFn: func(ctx context.Context, reservationID uuid.UUID, newStatus domain.ReservationStatus, providerEmail string) error {
			return &reservations.AuthorizationError{}
		},
	}
	srv := newTestServer(svc)
	defer srv.Close()

	resp := doRequest(t, srv, http.MethodPatch, "/reservations/"+testReservationID.String()+"/status", "mallory@x.com",
		`{"status":"CANCELLED"}`)

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusForbidden)
	}
}

func TestUpdateReservationStatus_LostRaceConflict(t *testing.T) {
	svc := &fakeReservationsService{
		updateStatusFn: func(ctx context.Context, reservationID uuid.UUID, newStatus domain.ReservationStatus, providerEmail string) error {
			return store.ErrConflict
		},
	}
	srv := newTestServer(svc)
	defer srv.Close()

	resp := doRequest(t, srv, http.MethodPatch, "/reservations/"+testReservationID.String()+"/status", "bob@x.com",
		`{"status":"ACCEPTED"}`)

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}
	got := decodeBody[map[string]string](t, resp)
	if got["error"] != "reservation was modified concurrently, try again" {
		t.Fatalf("error = %q", got["error"])
	}
}
