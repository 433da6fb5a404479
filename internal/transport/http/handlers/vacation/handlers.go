package vacationhandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"timeoff/internal/domain/audit"
	"timeoff/internal/domain/balance"
	"timeoff/internal/domain/notifications"
	"timeoff/internal/domain/vacation"
	"timeoff/internal/requestctx"
	"timeoff/internal/transport/http/api"
	"timeoff/internal/transport/http/middleware"
	"timeoff/internal/transport/http/shared"
)

type Handler struct {
	Service *vacation.Service
	Ledger  *balance.Ledger
	Notify  *notifications.Service
	Audit   *audit.Service
}

func NewHandler(service *vacation.Service, ledger *balance.Ledger, notify *notifications.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Ledger: ledger, Notify: notify, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/vacation", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/requests", h.handleListRequests)
		r.Post("/requests", h.handleCreateRequest)
		r.Get("/requests/{requestID}", h.handleGetRequest)
		r.Post("/requests/{requestID}/cancel", h.handleCancelRequest)
		r.Get("/balance", h.handleBalance)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Post("/requests/{requestID}/approve", h.handleApproveRequest)
			r.Post("/requests/{requestID}/reject", h.handleRejectRequest)
		})
	})
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	user, _ := requestctx.GetUser(r.Context())
	page := shared.ParsePagination(r, 25, 100)

	var result vacation.RequestListResult
	var err error
	if user.IsAdmin() {
		result, err = h.Service.ListAll(r.Context(), page.Limit, page.Offset)
	} else {
		result, err = h.Service.ListForUser(r.Context(), user.UserID, page.Limit, page.Offset)
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "request_list_failed", "failed to list vacation requests", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"requests": result.Requests, "total": result.Total}, requestctx.GetRequestID(r.Context()))
}

type createRequestPayload struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Reason    string `json:"reason"`
}

func (h *Handler) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	user, _ := requestctx.GetUser(r.Context())

	var payload createRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	startDate, _ := v.Date("startDate", payload.StartDate)
	endDate, _ := v.Date("endDate", payload.EndDate)
	v.DateOrder("startDate", startDate, "endDate", endDate)
	if v.Reject(w, requestctx.GetRequestID(r.Context())) {
		return
	}

	req, err := h.Service.Create(r.Context(), user.UserID, startDate, endDate, payload.Reason)
	if err != nil {
		h.failFromError(w, r, err, "request_create_failed", "failed to create vacation request")
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "vacation.request.create", req.ID, requestctx.GetRequestID(r.Context()), shared.ClientIP(r), payload); err != nil {
		slog.Warn("audit vacation.request.create failed", "err", err)
	}
	h.Notify.Notify(r.Context(), user.UserID, notifications.TypeRequestSubmitted,
		"Vacation request submitted",
		fmt.Sprintf("Your request for %s to %s (%d days) is pending review.",
			req.StartDate.Format("2006-01-02"), req.EndDate.Format("2006-01-02"), req.TotalDays))

	api.Created(w, req, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	user, _ := requestctx.GetUser(r.Context())
	requestID := chi.URLParam(r, "requestID")

	req, err := h.Service.Get(r.Context(), requestID)
	if err != nil {
		h.failFromError(w, r, err, "request_lookup_failed", "failed to load vacation request")
		return
	}
	if req.UserID != user.UserID && !user.IsAdmin() {
		api.Fail(w, http.StatusForbidden, "forbidden", "not your request", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, req, requestctx.GetRequestID(r.Context()))
}

type reviewPayload struct {
	RejectionReason string `json:"rejectionReason"`
}

func (h *Handler) handleApproveRequest(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, vacation.StatusApproved)
}

func (h *Handler) handleRejectRequest(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, vacation.StatusRejected)
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request, outcome vacation.Status) {
	user, _ := requestctx.GetUser(r.Context())
	requestID := chi.URLParam(r, "requestID")

	var payload reviewPayload
	if r.Body != nil {
		// rejection reason is optional; an empty body is fine
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}

	req, err := h.Service.Review(r.Context(), requestID, user.UserID, outcome, payload.RejectionReason)
	if err != nil {
		h.failFromError(w, r, err, "request_review_failed", "failed to review vacation request")
		return
	}

	action := "vacation.request.approve"
	ntype := notifications.TypeRequestApproved
	title := "Vacation request approved"
	body := fmt.Sprintf("Your request for %s to %s was approved; %d days were deducted from your balance.",
		req.StartDate.Format("2006-01-02"), req.EndDate.Format("2006-01-02"), req.TotalDays)
	if outcome == vacation.StatusRejected {
		action = "vacation.request.reject"
		ntype = notifications.TypeRequestRejected
		title = "Vacation request rejected"
		body = fmt.Sprintf("Your request for %s to %s was rejected.",
			req.StartDate.Format("2006-01-02"), req.EndDate.Format("2006-01-02"))
		if payload.RejectionReason != "" {
			body += " Reason: " + payload.RejectionReason
		}
	}

	if err := h.Audit.Record(r.Context(), user.UserID, action, req.ID, requestctx.GetRequestID(r.Context()), shared.ClientIP(r), payload); err != nil {
		slog.Warn("audit "+action+" failed", "err", err)
	}
	h.Notify.Notify(r.Context(), req.UserID, ntype, title, body)

	api.Success(w, req, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleCancelRequest(w http.ResponseWriter, r *http.Request) {
	user, _ := requestctx.GetUser(r.Context())
	requestID := chi.URLParam(r, "requestID")

	req, err := h.Service.Cancel(r.Context(), requestID, user.UserID)
	if err != nil {
		h.failFromError(w, r, err, "request_cancel_failed", "failed to cancel vacation request")
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "vacation.request.cancel", req.ID, requestctx.GetRequestID(r.Context()), shared.ClientIP(r), nil); err != nil {
		slog.Warn("audit vacation.request.cancel failed", "err", err)
	}
	h.Notify.Notify(r.Context(), req.UserID, notifications.TypeRequestCancelled,
		"Vacation request cancelled",
		fmt.Sprintf("Your request for %s to %s was cancelled.",
			req.StartDate.Format("2006-01-02"), req.EndDate.Format("2006-01-02")))

	api.Success(w, req, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	user, _ := requestctx.GetUser(r.Context())

	userID := user.UserID
	if requested := r.URL.Query().Get("userId"); requested != "" && requested != user.UserID {
		if !user.IsAdmin() {
			api.Fail(w, http.StatusForbidden, "forbidden", "admin role required to view other balances", requestctx.GetRequestID(r.Context()))
			return
		}
		userID = requested
	}

	current, err := h.Ledger.Balance(r.Context(), userID)
	if err != nil {
		h.failFromError(w, r, err, "balance_lookup_failed", "failed to load balance")
		return
	}
	api.Success(w, map[string]any{"userId": userID, "vacationBalance": current}, requestctx.GetRequestID(r.Context()))
}

// failFromError translates the domain error taxonomy into HTTP codes:
// validation 400, conflicts 409, authorization 403, missing rows 404,
// anything else an opaque 500.
func (h *Handler) failFromError(w http.ResponseWriter, r *http.Request, err error, fallbackCode, fallbackMessage string) {
	requestID := requestctx.GetRequestID(r.Context())
	switch {
	case errors.Is(err, vacation.ErrInvalidDateRange):
		api.Fail(w, http.StatusBadRequest, "invalid_date_range", "end date must not be before start date", requestID)
	case errors.Is(err, vacation.ErrDateInPast):
		api.Fail(w, http.StatusBadRequest, "date_in_past", "start date must not be in the past", requestID)
	case errors.Is(err, vacation.ErrOverlappingRequest):
		api.Fail(w, http.StatusConflict, "overlapping_request", "an overlapping request already exists", requestID)
	case errors.Is(err, vacation.ErrInvalidStatus):
		api.Fail(w, http.StatusConflict, "invalid_status", "request is no longer pending; re-fetch and try again", requestID)
	case errors.Is(err, balance.ErrInsufficientBalance):
		api.Fail(w, http.StatusConflict, "insufficient_balance", "user balance cannot cover the requested days", requestID)
	case errors.Is(err, vacation.ErrCannotCancelApproved):
		api.Fail(w, http.StatusConflict, "cannot_cancel_approved", "approved requests cannot be cancelled", requestID)
	case errors.Is(err, vacation.ErrCannotCancelRejected):
		api.Fail(w, http.StatusConflict, "cannot_cancel_rejected", "rejected requests cannot be cancelled", requestID)
	case errors.Is(err, vacation.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "you do not own this request", requestID)
	case errors.Is(err, vacation.ErrNotFound), errors.Is(err, balance.ErrUserNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "resource not found", requestID)
	default:
		slog.Error("vacation operation failed", "err", err, "path", r.URL.Path)
		api.Fail(w, http.StatusInternalServerError, fallbackCode, fallbackMessage, requestID)
	}
}
