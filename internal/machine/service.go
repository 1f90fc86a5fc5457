package machine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"washsync-backend/internal/model"
	"washsync-backend/internal/notification"
	"washsync-backend/internal/parse"
	"washsync-backend/internal/store"
)

// maxAttempts bounds how often a transition is re-evaluated after losing a
// version race on the same machine.
const maxAttempts = 3

// ErrConcurrentUpdate is returned when every attempt lost a version race.
var ErrConcurrentUpdate = errors.New("machine is being updated by another request, please retry")

// Service runs machine state transitions against the store. Each transition
// is a single versioned write, so concurrent callers on one machine serialise.
type Service struct {
	store   store.Store
	emitter notification.Emitter
	now     func() time.Time
}

// NewService creates a Service. emitter may be nil.
func NewService(s store.Store, emitter notification.Emitter) *Service {
	return &Service{
		store:   s,
		emitter: emitter,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// transition mutates a freshly loaded machine and returns the events to emit
// once the change is committed.
type transition func(ctx context.Context, m *model.Machine) ([]notification.Event, error)

// apply loads machine id, runs fn and saves under the version guard. When
// another writer committed first the machine is reloaded and fn re-evaluated,
// so preconditions are always checked against the state that gets replaced.
func (s *Service) apply(ctx context.Context, id int64, fn transition) (*model.Machine, []notification.Event, error) {
	for attempt := 1; ; attempt++ {
		m, err := s.load(ctx, id)
		if err != nil {
			return nil, nil, err
		}

		events, err := fn(ctx, m)
		if err != nil {
			return nil, nil, err
		}

		err = s.store.SaveMachine(ctx, m)
		if err == nil {
			return m, events, nil
		}
		if !errors.Is(err, store.ErrConflict) {
			return nil, nil, err
		}
		if attempt == maxAttempts {
			return nil, nil, ErrConcurrentUpdate
		}
		log.Printf("[machine] version conflict on machine %d, retrying (attempt %d)", id, attempt)
	}
}

func (s *Service) load(ctx context.Context, id int64) (*model.Machine, error) {
	m, err := s.store.GetMachine(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load machine %d: %w", id, err)
	}
	return m, nil
}

// scope returns the machines the one-machine-per-user rules are checked
// against. The rules hold system-wide, so a user moved to another branch
// mid-wash still counts as using their old machine.
func (s *Service) scope(ctx context.Context) ([]model.Machine, error) {
	return s.store.ListMachines(ctx, store.MachineFilter{})
}

func (s *Service) emit(ctx context.Context, events []notification.Event) error {
	if s.emitter == nil || len(events) == 0 {
		return nil
	}
	return s.emitter.Emit(ctx, events)
}

// List returns the machines visible to id. Admins may pass branchID to filter;
// everyone else always sees their own branch.
func (s *Service) List(ctx context.Context, id Identity, branchID *int64) ([]model.Machine, error) {
	filter := store.MachineFilter{BranchID: branchID}
	if !id.IsAdmin {
		if id.BranchID == nil {
			return nil, ErrBranchUnassigned
		}
		filter.BranchID = id.BranchID
	}
	return s.store.ListMachines(ctx, filter)
}

// Get returns one machine if id may see it.
func (s *Service) Get(ctx context.Context, id Identity, machineID int64) (*model.Machine, error) {
	m, err := s.load(ctx, machineID)
	if err != nil {
		return nil, err
	}
	if err := checkBranch(m, id); err != nil {
		return nil, err
	}
	return m, nil
}

// Queue returns a machine for the public queue view.
func (s *Service) Queue(ctx context.Context, machineID int64) (*model.Machine, error) {
	return s.load(ctx, machineID)
}

// Occupy starts a wash of minutes on machineID for id.
func (s *Service) Occupy(ctx context.Context, id Identity, machineID int64, minutes int) (*model.Machine, error) {
	if minutes < MinDuration || minutes > MaxDuration {
		return nil, ErrInvalidDuration
	}
	m, _, err := s.apply(ctx, machineID, func(ctx context.Context, m *model.Machine) ([]notification.Event, error) {
		if err := checkBranch(m, id); err != nil {
			return nil, err
		}
		scope, err := s.scope(ctx)
		if err != nil {
			return nil, err
		}
		return nil, Occupy(m, scope, id, minutes, s.now())
	})
	return m, err
}

// Release ends id's session on machineID and notifies the next user in line.
func (s *Service) Release(ctx context.Context, id Identity, machineID int64) (*model.Machine, error) {
	m, events, err := s.apply(ctx, machineID, func(_ context.Context, m *model.Machine) ([]notification.Event, error) {
		return Release(m, id)
	})
	if err != nil {
		return nil, err
	}
	if err := s.emit(ctx, events); err != nil {
		log.Printf("[machine] failed to notify queue for machine %d: %v", machineID, err)
	}
	return m, nil
}

// JoinQueue adds id to the wait list of machineID and returns the position.
func (s *Service) JoinQueue(ctx context.Context, id Identity, machineID int64) (*model.Machine, int, error) {
	var position int
	m, _, err := s.apply(ctx, machineID, func(ctx context.Context, m *model.Machine) ([]notification.Event, error) {
		if err := checkBranch(m, id); err != nil {
			return nil, err
		}
		scope, err := s.scope(ctx)
		if err != nil {
			return nil, err
		}
		position, err = JoinQueue(m, scope, id, s.now())
		return nil, err
	})
	if err != nil {
		return nil, 0, err
	}
	return m, position, nil
}

// LeaveQueue removes id from the wait list of machineID.
func (s *Service) LeaveQueue(ctx context.Context, id Identity, machineID int64) (*model.Machine, error) {
	m, _, err := s.apply(ctx, machineID, func(_ context.Context, m *model.Machine) ([]notification.Event, error) {
		return nil, LeaveQueue(m, id)
	})
	return m, err
}

// Expire releases machineID if its timer ran out at now. It returns
// ErrNotExpired when there is nothing to do, which happens when a manual
// release won the race against the sweep. The state change is committed
// before notifications are emitted; an emit error is returned alongside the
// updated machine.
func (s *Service) Expire(ctx context.Context, machineID int64, now time.Time) (*model.Machine, error) {
	m, events, err := s.apply(ctx, machineID, func(_ context.Context, m *model.Machine) ([]notification.Event, error) {
		return Expire(m, now)
	})
	if err != nil {
		return nil, err
	}
	if err := s.emit(ctx, events); err != nil {
		return m, fmt.Errorf("machine %d released but notification failed: %w", machineID, err)
	}
	return m, nil
}

// SetStatus applies an admin status change with the rules of the package-level SetStatus.
func (s *Service) SetStatus(ctx context.Context, machineID int64, status model.MachineStatus) (*model.Machine, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	m, _, err := s.apply(ctx, machineID, func(_ context.Context, m *model.Machine) ([]notification.Event, error) {
		return nil, SetStatus(m, status)
	})
	return m, err
}

// Override force-releases machineID without promoting its queue.
func (s *Service) Override(ctx context.Context, machineID int64) (*model.Machine, error) {
	m, _, err := s.apply(ctx, machineID, func(_ context.Context, m *model.Machine) ([]notification.Event, error) {
		Override(m)
		return nil, nil
	})
	return m, err
}

// Create adds an Available machine named name to branchID.
func (s *Service) Create(ctx context.Context, branchID int64, name string) (*model.Machine, error) {
	name, err := parse.MachineName(name)
	if err != nil {
		return nil, ErrInvalidName
	}
	if _, err := s.store.GetBranch(ctx, branchID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrBranchNotFound
		}
		return nil, err
	}

	taken, err := s.store.MachineNameTaken(ctx, branchID, name)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateName
	}

	m := &model.Machine{BranchID: branchID, Name: name}
	if err := s.store.CreateMachine(ctx, m); err != nil {
		return nil, err
	}
	log.Printf("[machine] created machine %d %q in branch %d", m.ID, m.Name, branchID)
	return m, nil
}

// Delete removes a machine unconditionally.
func (s *Service) Delete(ctx context.Context, machineID int64) error {
	err := s.store.DeleteMachine(ctx, machineID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
