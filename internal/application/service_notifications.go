package application

import (
	"context"

	"github.com/viralforge/partner-portal/internal/domain"
)

func (s *Service) ListNotifications(ctx context.Context, actor Actor, input ListInput) ([]domain.Notification, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	limit, offset := s.page(input.Limit, input.Offset)
	return s.notifications.List(ctx, actorRecipients(actor), input.UnreadOnly, limit, offset)
}

func (s *Service) MarkNotificationRead(ctx context.Context, actor Actor, notificationID string) (domain.Notification, error) {
	if err := requireActor(actor); err != nil {
		return domain.Notification{}, err
	}
	id, err := parseID("notification_id", notificationID)
	if err != nil {
		return domain.Notification{}, err
	}
	n, err := s.notifications.Get(ctx, id)
	if err != nil {
		return domain.Notification{}, err
	}
	owned := false
	for _, r := range actorRecipients(actor) {
		if r == n.RecipientID {
			owned = true
			break
		}
	}
	if !owned {
		return domain.Notification{}, domain.ErrNotFound
	}
	if !n.IsUnread() {
		return n, nil
	}
	return s.notifications.MarkRead(ctx, id, s.nowFn())
}
