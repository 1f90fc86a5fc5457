package notification

import (
	"context"

	"washsync-backend/internal/model"
)

// Event asks for one notification to be created for a user.
type Event struct {
	UserID    int64
	MachineID int64
	Category  model.NotificationType
	Message   string
}

// Emitter accepts notification events produced by machine state changes.
type Emitter interface {
	Emit(ctx context.Context, events []Event) error
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(ctx context.Context, events []Event) error

// Emit calls f.
func (f EmitterFunc) Emit(ctx context.Context, events []Event) error {
	return f(ctx, events)
}
