package notificationshandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"timeoff/internal/domain/notifications"
	"timeoff/internal/requestctx"
	"timeoff/internal/transport/http/api"
	"timeoff/internal/transport/http/middleware"
	"timeoff/internal/transport/http/shared"
)

type Handler struct {
	Service *notifications.Service
}

func NewHandler(service *notifications.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleList)
		r.Get("/unread-count", h.handleUnreadCount)
		r.Post("/{notificationID}/read", h.handleMarkRead)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := requestctx.GetUser(r.Context())
	page := shared.ParsePagination(r, 25, 100)

	items, err := h.Service.List(r.Context(), user.UserID, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "notification_list_failed", "failed to list notifications", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"notifications": items}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	user, _ := requestctx.GetUser(r.Context())
	count, err := h.Service.CountUnread(r.Context(), user.UserID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "notification_count_failed", "failed to count notifications", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"unread": count}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	user, _ := requestctx.GetUser(r.Context())
	notificationID := chi.URLParam(r, "notificationID")

	if err := h.Service.MarkRead(r.Context(), user.UserID, notificationID); err != nil {
		api.Fail(w, http.StatusInternalServerError, "notification_update_failed", "failed to mark notification as read", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"id": notificationID, "read": true}, requestctx.GetRequestID(r.Context()))
}
