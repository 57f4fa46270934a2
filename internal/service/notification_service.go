package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/itops-hk/itpm-service/internal/model"
	"github.com/itops-hk/itpm-service/internal/repository"
)

type NotificationStore interface {
	List(ctx context.Context, filter repository.NotificationFilter) ([]model.Notification, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkAsRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
	MarkEmailSent(ctx context.Context, id uuid.UUID) error
}

// Mailer delivers a single email. Implemented by notify.Mailer over SMTP.
type Mailer interface {
	Send(to, subject, body string) error
}

// NotificationService serves the recipient's inbox and implements Notifier:
// after a workflow transaction commits, Dispatch emails the recipient
// best-effort. A failed send is logged and swallowed; the notification row is
// already committed and email_sent simply stays false.
type NotificationService struct {
	store   NotificationStore
	users   UserStore
	mailer  Mailer
	baseURL string
	log     zerolog.Logger
}

func NewNotificationService(store NotificationStore, users UserStore, mailer Mailer, baseURL string, log zerolog.Logger) *NotificationService {
	return &NotificationService{
		store:   store,
		users:   users,
		mailer:  mailer,
		baseURL: baseURL,
		log:     log,
	}
}

func (s *NotificationService) List(ctx context.Context, filter repository.NotificationFilter) ([]model.Notification, error) {
	return s.store.List(ctx, filter)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.store.UnreadCount(ctx, userID)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	err := s.store.MarkAsRead(ctx, id, principal.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound("找不到該通知")
	}
	return err
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, principal model.Principal) error {
	return s.store.MarkAllAsRead(ctx, principal.UserID)
}

func (s *NotificationService) Delete(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	err := s.store.Delete(ctx, id, principal.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound("找不到該通知")
	}
	return err
}

func (s *NotificationService) Dispatch(ctx context.Context, notification model.Notification) {
	if s.mailer == nil {
		return
	}

	recipient, err := s.users.Get(ctx, notification.UserID)
	if err != nil {
		s.log.Warn().Err(err).
			Str("notification_id", notification.ID.String()).
			Msg("notification email skipped: recipient lookup failed")
		return
	}

	body := fmt.Sprintf("%s\n\n%s%s", notification.Message, s.baseURL, notification.Link)
	if err := s.mailer.Send(recipient.Email, notification.Title, body); err != nil {
		s.log.Warn().Err(err).
			Str("notification_id", notification.ID.String()).
			Str("recipient", recipient.Email).
			Msg("notification email failed")
		return
	}

	if err := s.store.MarkEmailSent(ctx, notification.ID); err != nil {
		s.log.Warn().Err(err).
			Str("notification_id", notification.ID.String()).
			Msg("mark email sent failed")
	}
}
