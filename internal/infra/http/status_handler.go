package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/salonops/salon-ledger/internal/completion"
	"github.com/salonops/salon-ledger/internal/domain/booking"
)

// StatusHandler applies an appointment status change and hands the transition
// to the completion coordinator. This is the pull-side equivalent of the old
// collection listener: whoever observes a status change posts it here.
type StatusHandler struct {
	log   *slog.Logger
	appts *booking.Repo
	coord *completion.Coordinator
}

func NewStatusHandler(log *slog.Logger, appts *booking.Repo, coord *completion.Coordinator) *StatusHandler {
	return &StatusHandler{log: log, appts: appts, coord: coord}
}

type statusChangeRequest struct {
	AppointmentID int64  `json:"appointment_id"`
	Status        string `json:"status"`
	Actor         string `json:"actor"`
}

type statusChangeResponse struct {
	AppointmentID int64  `json:"appointment_id"`
	Previous      string `json:"previous"`
	Current       string `json:"current"`
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req statusChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.AppointmentID <= 0 || !booking.Known(req.Status) {
		http.Error(w, "appointment_id and a known status are required", http.StatusBadRequest)
		return
	}

	appt, err := h.appts.GetByID(ctx, req.AppointmentID)
	if err != nil {
		h.log.Error("failed to load appointment", "appointment_id", req.AppointmentID, "err", err)
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}
	if appt == nil {
		http.Error(w, "appointment not found", http.StatusNotFound)
		return
	}

	prev := appt.Status
	next := booking.Normalize(req.Status)
	if err := h.appts.UpdateStatus(ctx, appt.ID, next); err != nil {
		h.log.Error("failed to update status", "appointment_id", appt.ID, "err", err)
		http.Error(w, "failed to update status", http.StatusInternalServerError)
		return
	}

	if err := h.coord.HandleStatusChange(ctx, completion.StatusChange{
		AppointmentID: appt.ID,
		From:          string(prev),
		To:            req.Status,
		Actor:         req.Actor,
	}); err != nil {
		// Status is already persisted; completion side effects can be
		// re-driven by posting the transition again.
		h.log.Error("completion handling failed", "appointment_id", appt.ID, "err", err)
		http.Error(w, "status updated, completion handling failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(statusChangeResponse{
		AppointmentID: appt.ID,
		Previous:      string(prev),
		Current:       string(next),
	})
}
