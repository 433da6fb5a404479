package reportshandler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"timeoff/internal/domain/reports"
	"timeoff/internal/requestctx"
	"timeoff/internal/transport/http/api"
	"timeoff/internal/transport/http/middleware"
)

type Handler struct {
	Service *reports.Service
}

func NewHandler(service *reports.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Use(middleware.RequireAdmin)
		r.Get("/schedule", h.handleSchedule)
		r.Get("/schedule.csv", h.handleScheduleCSV)
		r.Get("/schedule.pdf", h.handleSchedulePDF)
	})
}

func (h *Handler) year(r *http.Request) int {
	if raw := r.URL.Query().Get("year"); raw != "" {
		if year, err := strconv.Atoi(raw); err == nil && year > 0 {
			return year
		}
	}
	return time.Now().UTC().Year()
}

func (h *Handler) handleSchedule(w http.ResponseWriter, r *http.Request) {
	year := h.year(r)
	rows, err := h.Service.Schedule(r.Context(), year)
	if err != nil {
		slog.Error("schedule report failed", "err", err, "year", year)
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build schedule report", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"year": year, "schedule": rows}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleScheduleCSV(w http.ResponseWriter, r *http.Request) {
	year := h.year(r)
	data, err := h.Service.ScheduleCSV(r.Context(), year)
	if err != nil {
		slog.Error("schedule csv failed", "err", err, "year", year)
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build schedule report", requestctx.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=vacation-schedule-%d.csv", year))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) handleSchedulePDF(w http.ResponseWriter, r *http.Request) {
	year := h.year(r)
	data, err := h.Service.SchedulePDF(r.Context(), year)
	if err != nil {
		slog.Error("schedule pdf failed", "err", err, "year", year)
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build schedule report", requestctx.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=vacation-schedule-%d.pdf", year))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
