package adminhandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"timeoff/internal/domain/audit"
	"timeoff/internal/domain/auth"
	"timeoff/internal/domain/balance"
	"timeoff/internal/domain/settings"
	"timeoff/internal/requestctx"
	"timeoff/internal/transport/http/api"
	"timeoff/internal/transport/http/middleware"
	"timeoff/internal/transport/http/shared"
)

type Handler struct {
	Users    *auth.Store
	Ledger   *balance.Ledger
	Settings *settings.Service
	Audit    *audit.Service
}

func NewHandler(users *auth.Store, ledger *balance.Ledger, settingsSvc *settings.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Users: users, Ledger: ledger, Settings: settingsSvc, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Use(middleware.RequireAdmin)

		r.Get("/users", h.handleListUsers)
		r.Put("/users/{userID}/balance", h.handleSetBalance)
		r.Post("/balances/reset", h.handleResetBalances)
		r.Get("/settings", h.handleGetSettings)
		r.Put("/settings", h.handleUpdateSettings)
		r.Get("/audit", h.handleListAudit)
	})
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.ListUsers(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "user_list_failed", "failed to list users", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"users": users, "total": len(users)}, requestctx.GetRequestID(r.Context()))
}

type setBalancePayload struct {
	VacationBalance *int `json:"vacationBalance"`
}

func (h *Handler) handleSetBalance(w http.ResponseWriter, r *http.Request) {
	actor, _ := requestctx.GetUser(r.Context())
	userID := chi.URLParam(r, "userID")

	var payload setBalancePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.VacationBalance == nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "vacationBalance is required", requestctx.GetRequestID(r.Context()))
		return
	}
	if *payload.VacationBalance < 0 {
		api.Fail(w, http.StatusBadRequest, "invalid_balance", "vacationBalance must not be negative", requestctx.GetRequestID(r.Context()))
		return
	}

	err := h.inTx(r.Context(), func(tx pgx.Tx) error {
		return h.Ledger.SetBalance(r.Context(), tx, userID, *payload.VacationBalance)
	})
	if err != nil {
		if errors.Is(err, balance.ErrUserNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "user not found", requestctx.GetRequestID(r.Context()))
			return
		}
		slog.Error("set balance failed", "err", err, "userId", userID)
		api.Fail(w, http.StatusInternalServerError, "balance_update_failed", "failed to update balance", requestctx.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), actor.UserID, "admin.balance.set", userID, requestctx.GetRequestID(r.Context()), shared.ClientIP(r), payload); err != nil {
		slog.Warn("audit admin.balance.set failed", "err", err)
	}
	api.Success(w, map[string]any{"userId": userID, "vacationBalance": *payload.VacationBalance}, requestctx.GetRequestID(r.Context()))
}

type resetBalancesPayload struct {
	VacationBalance *int `json:"vacationBalance"`
}

// handleResetBalances sets every user's balance in one shot, typically
// at the start of an accrual year. When the payload omits a value the
// configured default is used.
func (h *Handler) handleResetBalances(w http.ResponseWriter, r *http.Request) {
	actor, _ := requestctx.GetUser(r.Context())

	var payload resetBalancesPayload
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}

	value := -1
	if payload.VacationBalance != nil {
		value = *payload.VacationBalance
	}
	if value < 0 {
		current, err := h.Settings.Get(r.Context())
		if err != nil {
			api.Fail(w, http.StatusInternalServerError, "settings_lookup_failed", "failed to load settings", requestctx.GetRequestID(r.Context()))
			return
		}
		value = current.DefaultVacationBalance
	}

	var affected int
	err := h.inTx(r.Context(), func(tx pgx.Tx) error {
		var txErr error
		affected, txErr = h.Ledger.ResetAll(r.Context(), tx, value)
		return txErr
	})
	if err != nil {
		slog.Error("balance reset failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "balance_reset_failed", "failed to reset balances", requestctx.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), actor.UserID, "admin.balance.reset", "", requestctx.GetRequestID(r.Context()), shared.ClientIP(r), map[string]any{"vacationBalance": value, "affected": affected}); err != nil {
		slog.Warn("audit admin.balance.reset failed", "err", err)
	}
	api.Success(w, map[string]any{"vacationBalance": value, "affected": affected}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	current, err := h.Settings.Get(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "settings_lookup_failed", "failed to load settings", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, current, requestctx.GetRequestID(r.Context()))
}

type updateSettingsPayload struct {
	ExcludeWeekends        *bool          `json:"excludeWeekends"`
	ExcludedDays           []time.Weekday `json:"excludedDays"`
	DefaultVacationBalance *int           `json:"defaultVacationBalance"`
}

func (h *Handler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	actor, _ := requestctx.GetUser(r.Context())

	var payload updateSettingsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}

	current, err := h.Settings.Get(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "settings_lookup_failed", "failed to load settings", requestctx.GetRequestID(r.Context()))
		return
	}

	next := current
	if payload.ExcludeWeekends != nil {
		next.Policy.ExcludeWeekends = *payload.ExcludeWeekends
	}
	if payload.ExcludedDays != nil {
		next.Policy.ExcludedDays = payload.ExcludedDays
	}
	if payload.DefaultVacationBalance != nil {
		next.DefaultVacationBalance = *payload.DefaultVacationBalance
	}

	if err := h.Settings.Update(r.Context(), next); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_settings", err.Error(), requestctx.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), actor.UserID, "admin.settings.update", "", requestctx.GetRequestID(r.Context()), shared.ClientIP(r), payload); err != nil {
		slog.Warn("audit admin.settings.update failed", "err", err)
	}

	updated, err := h.Settings.Get(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "settings_lookup_failed", "failed to load settings", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, updated, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleListAudit(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	events, err := h.Audit.List(r.Context(), r.URL.Query().Get("action"), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "audit_list_failed", "failed to list audit events", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"events": events}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := h.Ledger.BeginTx(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			slog.Warn("transaction rollback failed", "err", rbErr)
		}
		return err
	}
	return tx.Commit(ctx)
}
