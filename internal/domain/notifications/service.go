package notifications

import (
	"context"
	"log/slog"
)

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type StoreAPI interface {
	CreateNotification(ctx context.Context, userID, ntype, title, body string) error
	ListNotifications(ctx context.Context, userID string, limit, offset int) ([]Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	UserEmail(ctx context.Context, userID string) (string, error)
}

// Service records in-app notifications and optionally mirrors them to
// email. It is informed, never consulted: every failure here is logged
// and swallowed so notification delivery can never roll back or block a
// lifecycle transition.
type Service struct {
	store        StoreAPI
	Mailer       Mailer
	EmailEnabled bool
	From         string
}

func New(store StoreAPI, mailer Mailer, emailEnabled bool, from string) *Service {
	return &Service{store: store, Mailer: mailer, EmailEnabled: emailEnabled, From: from}
}

// Notify is fire-and-forget by contract: the returned state of the
// lifecycle operation must not depend on it.
func (s *Service) Notify(ctx context.Context, userID, ntype, title, body string) {
	if err := s.store.CreateNotification(ctx, userID, ntype, title, body); err != nil {
		slog.Warn("notification create failed", "type", ntype, "err", err)
		return
	}

	if s.Mailer == nil || !s.EmailEnabled {
		return
	}
	email, err := s.store.UserEmail(ctx, userID)
	if err != nil {
		slog.Warn("notification email lookup failed", "err", err)
		return
	}
	if email == "" {
		return
	}
	if err := s.Mailer.Send(ctx, s.From, email, title, body); err != nil {
		slog.Warn("notification email send failed", "err", err)
	}
}

func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Notification, error) {
	return s.store.ListNotifications(ctx, userID, limit, offset)
}

func (s *Service) CountUnread(ctx context.Context, userID string) (int, error) {
	return s.store.CountUnread(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	return s.store.MarkRead(ctx, userID, notificationID)
}
