package notification

import (
	"context"
	"fmt"
	"log"

	"washsync-backend/internal/model"
	"washsync-backend/internal/store"
)

// Dispatcher hands a persisted notification to a delivery channel.
type Dispatcher interface {
	Dispatch(ctx context.Context, n model.Notification)
}

// Center persists events as notifications and forwards them for delivery.
type Center struct {
	store      store.Store
	dispatcher Dispatcher
}

// NewCenter creates a Center. dispatcher may be nil, in which case
// notifications are stored but not pushed.
func NewCenter(s store.Store, dispatcher Dispatcher) *Center {
	return &Center{store: s, dispatcher: dispatcher}
}

// Emit stores one notification per event. Events addressed to users that no
// longer exist are dropped.
func (c *Center) Emit(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.UserID)
	}
	users, err := c.store.UsersByID(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to resolve notification recipients: %w", err)
	}

	rows := make([]model.Notification, 0, len(events))
	for _, e := range events {
		if _, ok := users[e.UserID]; !ok {
			log.Printf("[notify] dropping %s notification for unknown user %d", e.Category, e.UserID)
			continue
		}
		machineID := e.MachineID
		rows = append(rows, model.Notification{
			UserID:    e.UserID,
			MachineID: &machineID,
			Message:   e.Message,
			Type:      e.Category,
		})
	}

	if err := c.store.CreateNotifications(ctx, rows); err != nil {
		return err
	}

	if c.dispatcher != nil {
		for _, n := range rows {
			c.dispatcher.Dispatch(ctx, n)
		}
	}
	return nil
}
