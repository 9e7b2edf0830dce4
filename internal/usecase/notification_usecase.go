package usecase

import (
	"context"

	"dms/internal/domain/entity"
	"dms/internal/domain/repository"
	"dms/pkg/errors"
)

type NotificationUseCase struct {
	store  repository.Store
	locker repository.Locker
}

func NewNotificationUseCase(store repository.Store, locker repository.Locker) *NotificationUseCase {
	return &NotificationUseCase{
		store:  store,
		locker: locker,
	}
}

// recipients lists the addresses an actor reads: its holder and its role.
func recipients(actor *entity.Actor) []string {
	return []string{actor.Holder, actor.Role.Recipient()}
}

func addressedTo(n *entity.Notification, actor *entity.Actor) bool {
	for _, r := range recipients(actor) {
		if n.Recipient == r {
			return true
		}
	}
	return false
}

func (uc *NotificationUseCase) list(ctx context.Context, actor *entity.Actor, unreadOnly bool) ([]*entity.Notification, error) {
	if actor == nil {
		return nil, errors.Unauthorized("Authentication required", nil)
	}
	unreadBy := ""
	if unreadOnly {
		unreadBy = actor.ID
	}
	items, err := uc.store.ListNotifications(ctx, recipients(actor), unreadBy)
	if err != nil {
		return nil, err
	}
	for _, n := range items {
		n.Read = n.ReadByUser(actor.ID)
	}
	return items, nil
}

func (uc *NotificationUseCase) List(ctx context.Context, actor *entity.Actor, unreadOnly bool) ([]*entity.Notification, error) {
	return uc.list(ctx, actor, unreadOnly)
}

type UnreadCount struct {
	Unread int `json:"unread"`
}

func (uc *NotificationUseCase) UnreadCount(ctx context.Context, actor *entity.Actor) (*UnreadCount, error) {
	items, err := uc.list(ctx, actor, true)
	if err != nil {
		return nil, err
	}
	return &UnreadCount{Unread: len(items)}, nil
}

func (uc *NotificationUseCase) MarkRead(ctx context.Context, actor *entity.Actor, id string) (*entity.Notification, error) {
	if actor == nil {
		return nil, errors.Unauthorized("Authentication required", nil)
	}

	unlock, err := uc.locker.Lock(ctx, "notification:"+id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	n, err := uc.store.GetNotification(ctx, id)
	if err != nil {
		return nil, err
	}
	if !addressedTo(n, actor) {
		return nil, errors.NotFound("Notification", nil)
	}

	if n.MarkReadBy(actor.ID) {
		if err := uc.store.Apply(ctx, &repository.Changeset{Notifications: []*entity.Notification{n}}); err != nil {
			return nil, err
		}
	}
	n.Read = true
	return n, nil
}

type MarkAllResult struct {
	Marked int `json:"marked"`
}

// MarkAllRead marks every unread notification addressed to actor as read by
// it and returns how many changed.
func (uc *NotificationUseCase) MarkAllRead(ctx context.Context, actor *entity.Actor) (*MarkAllResult, error) {
	pending, err := uc.list(ctx, actor, true)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return &MarkAllResult{}, nil
	}

	keys := make([]string, len(pending))
	for i, n := range pending {
		keys[i] = "notification:" + n.ID
	}
	unlock, err := uc.locker.Lock(ctx, keys...)
	if err != nil {
		return nil, err
	}
	defer unlock()

	cs := &repository.Changeset{}
	for _, p := range pending {
		n, err := uc.store.GetNotification(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		if n.MarkReadBy(actor.ID) {
			cs.Notifications = append(cs.Notifications, n)
		}
	}
	if err := uc.store.Apply(ctx, cs); err != nil {
		return nil, err
	}
	return &MarkAllResult{Marked: len(cs.Notifications)}, nil
}
