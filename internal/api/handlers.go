package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/hackgods/diagnostic-booking/internal/appointment"
	"github.com/hackgods/diagnostic-booking/internal/catalog"
	"github.com/hackgods/diagnostic-booking/internal/identity"
)

const maxBodyBytes = 1 << 16

type handlers struct {
	svc      BookingService
	catalog  catalog.Provider
	identity identity.Provider
	log      zerolog.Logger
}

// principal returns nil when the request carries none; the service answers
// that with ErrUnauthenticated.
func (h *handlers) principal(r *http.Request) *identity.Principal {
	p, ok := h.identity.CurrentPrincipal(r.Context())
	if !ok {
		return nil
	}
	return p
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return false
	}
	return true
}

func (h *handlers) listCenters(w http.ResponseWriter, r *http.Request) {
	centers, err := h.catalog.ListCenters(r.Context())
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, centers)
}

func (h *handlers) listTests(w http.ResponseWriter, r *http.Request) {
	centerID := chi.URLParam(r, "id")
	if _, err := h.catalog.GetCenter(r.Context(), centerID); err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}
	tests, err := h.catalog.ListTestsForCenter(r.Context(), centerID)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, tests)
}

func (h *handlers) availableSlots(w http.ResponseWriter, r *http.Request) {
	centerID := chi.URLParam(r, "id")
	date := r.URL.Query().Get("date")

	slots, err := h.svc.AvailableSlots(r.Context(), centerID, date)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	resp := SlotsResponse{CenterID: centerID, Date: date, Slots: make([]SlotResponse, len(slots))}
	for i, s := range slots {
		resp.Slots[i] = SlotResponse{Time: string(s.Time), Booked: s.Booked}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) createAppointment(w http.ResponseWriter, r *http.Request) {
	var req CreateAppointmentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	appt, err := h.svc.BookAppointment(r.Context(), h.principal(r), appointment.BookingRequest{
		CenterID: req.CenterID,
		TestID:   req.TestID,
		Date:     req.Date,
		Time:     req.Time,
		Notes:    req.Notes,
	})
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAppointmentResponse(*appt))
}

func (h *handlers) listAppointments(w http.ResponseWriter, r *http.Request) {
	details, err := h.svc.ListAppointments(r.Context(), h.principal(r))
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	resp := make([]AppointmentResponse, len(details))
	for i, d := range details {
		resp[i] = toDetailResponse(d)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) getAppointment(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.GetAppointment(r.Context(), h.principal(r), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toDetailResponse(*d))
}

func (h *handlers) changeStatus(w http.ResponseWriter, r *http.Request) {
	var req ChangeStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.transition(w, r, appointment.AppointmentStatus(req.Status))
}

func (h *handlers) transitionTo(status appointment.AppointmentStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.transition(w, r, status)
	}
}

func (h *handlers) transition(w http.ResponseWriter, r *http.Request, status appointment.AppointmentStatus) {
	appt, err := h.svc.Transition(r.Context(), h.principal(r), chi.URLParam(r, "id"), status)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(*appt))
}
