package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"reservapp/backend/internal/domain"
	"reservapp/backend/internal/redisx"
	"reservapp/backend/internal/service/reservations"
	"reservapp/backend/internal/store"
)

// CallerHeader carries the authenticated caller's email, set by the identity
// gateway in front of this service.
const CallerHeader = "X-User-Email"

type reservationsService interface {
	Create(ctx context.Context, in reservations.CreateInput) (domain.Reservation, error)
	ListMine(ctx context.Context, customerEmail string) ([]domain.Reservation, error)
	ListForProvider(ctx context.Context, providerEmail string, status *domain.ReservationStatus) ([]domain.Reservation, error)
	Delete(ctx context.Context, reservationID uuid.UUID, customerEmail string) error
	Reschedule(ctx context.Context, reservationID uuid.UUID, customerEmail string, newDate, newTime time.Time) (domain.Reservation, error)
	UpdateStatus(ctx context.Context, reservationID uuid.UUID, newStatus domain.ReservationStatus, providerEmail string) error
}

type ReservationsHandler struct {
	svc   reservationsService
	redis *redis.Client
	log   *slog.Logger
}

// NewReservationsHandler wires the lifecycle service behind the HTTP surface.
// rdb may be nil; the status cache is a best-effort side channel.
func NewReservationsHandler(svc reservationsService, rdb *redis.Client, log *slog.Logger) *ReservationsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ReservationsHandler{
		svc:   svc,
		redis: rdb,
		log:   log.With(slog.String("component", "http.reservations")),
	}
}

func (h *ReservationsHandler) Register(r *chi.Mux) {
	r.Post("/reservations", h.createReservation)
	r.Get("/reservations/me", h.listMyReservations)
	r.Get("/reservations/provider", h.listProviderReservations)
	r.Delete("/reservations/{id}", h.deleteReservation)
	r.Patch("/reservations/{id}/schedule", h.rescheduleReservation)
	r.Patch("/reservations/{id}/status", h.updateReservationStatus)
}

type createReservationRequest struct {
	ServiceID string `json:"service_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
}

type rescheduleRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type reservationResponse struct {
	ID           string `json:"id"`
	CustomerName string `json:"customer_name"`
	ProviderName string `json:"provider_name"`
	ServiceTitle string `json:"service_title"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	Status       string `json:"status"`
}

type providerReservationResponse struct {
	ID                  string    `json:"id"`
	CustomerName        string    `json:"customer_name"`
	CustomerEmail       string    `json:"customer_email"`
	ServiceName         string    `json:"service_name"`
	ReservationDateTime time.Time `json:"reservation_date_time"`
	Status              string    `json:"status"`
}

func (h *ReservationsHandler) createReservation(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("handler", "CreateReservation"))

	caller, ok := h.caller(w, r, log)
	if !ok {
		return
	}

	var req createReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json"))
		return
	}
	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_service_id"), slog.String("caller", caller))
		writeJSON(w, http.StatusBadRequest, errorBody("service_id must be a UUID"))
		return
	}
	date, timeOfDay, err := parseDateTime(req.Date, req.Time)
	if err != nil {
		log.Warn("invalid request", slog.Any("err", err), slog.String("caller", caller))
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	res, err := h.svc.Create(r.Context(), reservations.CreateInput{
		CustomerEmail: caller,
		ServiceID:     serviceID,
		Date:          date,
		TimeOfDay:     timeOfDay,
	})
	if err != nil {
		h.writeError(w, log, err, slog.String("caller", caller))
		return
	}

	h.cacheStatus(r.Context(), res.ID, res.Status)

	log.Info("reservation created",
		slog.String("reservation_id", res.ID.String()),
		slog.String("caller", caller),
		slog.String("service_id", serviceID.String()),
	)
	writeJSON(w, http.StatusCreated, toReservationResponse(res))
}

func (h *ReservationsHandler) listMyReservations(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("handler", "ListMyReservations"))

	caller, ok := h.caller(w, r, log)
	if !ok {
		return
	}

	rows, err := h.svc.ListMine(r.Context(), caller)
	if err != nil {
		h.writeError(w, log, err, slog.String("caller", caller))
		return
	}

	out := make([]reservationResponse, 0, len(rows))
	for _, res := range rows {
		out = append(out, toReservationResponse(res))
	}

	log.Debug("reservations listed", slog.String("caller", caller), slog.Int("count", len(out)))
	writeJSON(w, http.StatusOK, out)
}

func (h *ReservationsHandler) listProviderReservations(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("handler", "ListProviderReservations"))

	caller, ok := h.caller(w, r, log)
	if !ok {
		return
	}

	var status *domain.ReservationStatus
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		s := domain.ReservationStatus(strings.ToUpper(raw))
		if !domain.KnownReservationStatus(s) {
			log.Warn("invalid request", slog.String("reason", "unknown_status"), slog.String("status", raw))
			writeJSON(w, http.StatusBadRequest, errorBody("unknown status filter"))
			return
		}
		status = &s
	}

	rows, err := h.svc.ListForProvider(r.Context(), caller, status)
	if err != nil {
		h.writeError(w, log, err, slog.String("caller", caller))
		return
	}

	out := make([]providerReservationResponse, 0, len(rows))
	for _, res := range rows {
		out = append(out, toProviderReservationResponse(res))
	}

	log.Debug("provider reservations listed", slog.String("caller", caller), slog.Int("count", len(out)))
	writeJSON(w, http.StatusOK, out)
}

func (h *ReservationsHandler) deleteReservation(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("handler", "DeleteReservation"))

	caller, ok := h.caller(w, r, log)
	if !ok {
		return
	}
	id, ok := h.reservationID(w, r, log)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id, caller); err != nil {
		h.writeError(w, log, err, slog.String("caller", caller), slog.String("reservation_id", id.String()))
		return
	}

	h.dropCachedStatus(r.Context(), id)

	log.Info("reservation deleted", slog.String("reservation_id", id.String()), slog.String("caller", caller))
	w.WriteHeader(http.StatusNoContent)
}

func (h *ReservationsHandler) rescheduleReservation(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("handler", "RescheduleReservation"))

	caller, ok := h.caller(w, r, log)
	if !ok {
		return
	}
	id, ok := h.reservationID(w, r, log)
	if !ok {
		return
	}

	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json"))
		return
	}
	date, timeOfDay, err := parseDateTime(req.Date, req.Time)
	if err != nil {
		log.Warn("invalid request", slog.Any("err", err), slog.String("caller", caller))
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	res, err := h.svc.Reschedule(r.Context(), id, caller, date, timeOfDay)
	if err != nil {
		h.writeError(w, log, err, slog.String("caller", caller), slog.String("reservation_id", id.String()))
		return
	}

	log.Info("reservation rescheduled", slog.String("reservation_id", id.String()), slog.String("caller", caller))
	writeJSON(w, http.StatusOK, toReservationResponse(res))
}

func (h *ReservationsHandler) updateReservationStatus(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("handler", "UpdateReservationStatus"))

	caller, ok := h.caller(w, r, log)
	if !ok {
		return
	}
	id, ok := h.reservationID(w, r, log)
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json"))
		return
	}
	status := domain.ReservationStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	if !domain.KnownReservationStatus(status) {
		log.Warn("invalid request", slog.String("reason", "unknown_status"), slog.String("status", req.Status))
		writeJSON(w, http.StatusBadRequest, errorBody("unknown status"))
		return
	}

	if err := h.svc.UpdateStatus(r.Context(), id, status, caller); err != nil {
		h.writeError(w, log, err, slog.String("caller", caller), slog.String("reservation_id", id.String()))
		return
	}

	h.cacheStatus(r.Context(), id, status)

	log.Info("reservation status updated",
		slog.String("reservation_id", id.String()),
		slog.String("caller", caller),
		slog.String("status", string(status)),
	)
	w.WriteHeader(http.StatusNoContent)
}

func (h *ReservationsHandler) caller(w http.ResponseWriter, r *http.Request, log *slog.Logger) (string, bool) {
	caller := strings.TrimSpace(r.Header.Get(CallerHeader))
	if caller == "" {
		log.Warn("invalid request", slog.String("reason", "missing_caller"))
		writeJSON(w, http.StatusUnauthorized, errorBody("caller identity is required"))
		return "", false
	}
	return caller, true
}

func (h *ReservationsHandler) reservationID(w http.ResponseWriter, r *http.Request, log *slog.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_uuid"))
		writeJSON(w, http.StatusBadRequest, errorBody("reservation id must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

func (h *ReservationsHandler) writeError(w http.ResponseWriter, log *slog.Logger, err error, args ...any) {
	var vErr *reservations.ValidationError
	var sErr *reservations.StateError
	var aErr *reservations.AuthorizationError

	switch {
	case errors.As(err, &vErr):
		log.Warn("invalid request", append([]any{slog.Any("err", err)}, args...)...)
		writeJSON(w, http.StatusBadRequest, errorBody(vErr.Error()))
	case errors.As(err, &sErr):
		log.Info("rejected by lifecycle state", append([]any{slog.Any("err", err)}, args...)...)
		writeJSON(w, http.StatusConflict, errorBody(sErr.Error()))
	case errors.As(err, &aErr):
		log.Warn("unauthorized", append([]any{slog.Any("err", err)}, args...)...)
		writeJSON(w, http.StatusForbidden, errorBody(aErr.Error()))
	case errors.Is(err, store.ErrNotFound):
		log.Info("not found", append([]any{slog.Any("err", err)}, args...)...)
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, store.ErrConflict):
		log.Info("concurrent modification", append([]any{slog.Any("err", err)}, args...)...)
		writeJSON(w, http.StatusConflict, errorBody("reservation was modified concurrently, try again"))
	default:
		log.Error("request failed", append([]any{slog.Any("err", err)}, args...)...)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

func (h *ReservationsHandler) cacheStatus(ctx context.Context, id uuid.UUID, status domain.ReservationStatus) {
	if h.redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyReservationStatus, id)
	if err := h.redis.Set(ctx, key, string(status), redisx.TTLStatusCache).Err(); err != nil {
		h.log.Debug("status cache write failed", slog.Any("err", err), slog.String("reservation_id", id.String()))
	}
}

func (h *ReservationsHandler) dropCachedStatus(ctx context.Context, id uuid.UUID) {
	if h.redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyReservationStatus, id)
	if err := h.redis.Del(ctx, key).Err(); err != nil {
		h.log.Debug("status cache delete failed", slog.Any("err", err), slog.String("reservation_id", id.String()))
	}
}

func toReservationResponse(res domain.Reservation) reservationResponse {
	out := reservationResponse{
		ID:     res.ID.String(),
		Date:   res.Date.Format("2006-01-02"),
		Time:   res.TimeOfDay.Format("15:04"),
		Status: string(res.Status),
	}
	if res.Customer != nil {
		out.CustomerName = res.Customer.Name
	}
	if res.Provider != nil {
		out.ProviderName = res.Provider.Name
	}
	if res.Service != nil {
		out.ServiceTitle = res.Service.Title
	}
	return out
}

func toProviderReservationResponse(res domain.Reservation) providerReservationResponse {
	out := providerReservationResponse{
		ID:                  res.ID.String(),
		ReservationDateTime: res.StartsAt(),
		Status:              string(res.Status),
	}
	if res.Customer != nil {
		out.CustomerName = res.Customer.Name
		out.CustomerEmail = res.Customer.Email
	}
	if res.Service != nil {
		out.ServiceName = res.Service.Title
	}
	return out
}

func parseDateTime(rawDate, rawTime string) (date, timeOfDay time.Time, err error) {
	date, err = time.Parse("2006-01-02", strings.TrimSpace(rawDate))
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("date must be YYYY-MM-DD")
	}
	raw := strings.TrimSpace(rawTime)
	timeOfDay, err = time.Parse("15:04", raw)
	if err != nil {
		timeOfDay, err = time.Parse("15:04:05", raw)
	}
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("time must be HH:MM or HH:MM:SS")
	}
	return date, timeOfDay, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}
