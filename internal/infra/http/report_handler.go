package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/salonops/salon-ledger/internal/domain/audit"
	"github.com/salonops/salon-ledger/internal/domain/booking"
	"github.com/salonops/salon-ledger/internal/report"
)

// ReportHandler serves the reconciliation workbook for a date range
// (?from=YYYY-MM-DD&to=YYYY-MM-DD, defaulting to the last 30 days).
type ReportHandler struct {
	log    *slog.Logger
	audits *audit.Repo
	appts  *booking.Repo
}

func NewReportHandler(log *slog.Logger, audits *audit.Repo, appts *booking.Repo) *ReportHandler {
	return &ReportHandler{log: log, audits: audits, appts: appts}
}

func (h *ReportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	to := time.Now()
	from := to.AddDate(0, 0, -30)
	if s := r.URL.Query().Get("from"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			http.Error(w, "invalid from date", http.StatusBadRequest)
			return
		}
		from = t
	}
	if s := r.URL.Query().Get("to"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			http.Error(w, "invalid to date", http.StatusBadRequest)
			return
		}
		// Inclusive end date.
		to = t.AddDate(0, 0, 1)
	}

	entries, err := h.audits.ListRange(ctx, from, to)
	if err != nil {
		h.log.Error("failed to load audit entries", "err", err)
		http.Error(w, "failed to load audit entries", http.StatusInternalServerError)
		return
	}
	unreconciled, err := h.appts.ListUnreconciled(ctx)
	if err != nil {
		h.log.Error("failed to load unreconciled appointments", "err", err)
		http.Error(w, "failed to load appointments", http.StatusInternalServerError)
		return
	}

	f, err := report.Build(entries, unreconciled)
	if err != nil {
		h.log.Error("failed to build report", "err", err)
		http.Error(w, "failed to build report", http.StatusInternalServerError)
		return
	}
	defer func() { _ = f.Close() }()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="adjustments.xlsx"`)
	if err := f.Write(w); err != nil {
		h.log.Error("failed to write report", "err", err)
	}
}
