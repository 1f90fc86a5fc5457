package api

import (
	"context"
	"time"

	"washsync-backend/internal/model"
)

type userRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type queueEntryView struct {
	Position int       `json:"position"`
	User     userRef   `json:"user"`
	JoinedAt time.Time `json:"joinedAt"`
}

type machineView struct {
	ID               int64               `json:"id"`
	Name             string              `json:"name"`
	BranchID         int64               `json:"branchId"`
	Status           model.MachineStatus `json:"status"`
	CurrentUser      *userRef            `json:"currentUser"`
	TimerStart       *time.Time          `json:"timerStart"`
	TimerEnd         *time.Time          `json:"timerEnd"`
	Duration         *int                `json:"duration"`
	RemainingSeconds int                 `json:"remainingSeconds"`
	Queue            []queueEntryView    `json:"queue"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}

type branchView struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Code     string `json:"code"`
}

type userView struct {
	ID       int64       `json:"id"`
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	IsAdmin  bool        `json:"isAdmin"`
	BranchID *int64      `json:"branchId"`
	Branch   *branchView `json:"branch,omitempty"`
}

func newBranchView(b model.Branch) branchView {
	return branchView{ID: b.ID, Name: b.Name, Location: b.Location, Code: b.Code}
}

func newUserView(u model.User) userView {
	v := userView{ID: u.ID, Name: u.Name, Email: u.Email, IsAdmin: u.IsAdmin, BranchID: u.BranchID}
	if u.Branch != nil {
		b := newBranchView(*u.Branch)
		v.Branch = &b
	}
	return v
}

// machineViews renders machines with occupant and queue names resolved in a
// single user lookup.
func (h *Handler) machineViews(ctx context.Context, machines []model.Machine) ([]machineView, error) {
	var ids []int64
	for _, m := range machines {
		if m.CurrentUserID != nil {
			ids = append(ids, *m.CurrentUserID)
		}
		for _, e := range m.Queue {
			ids = append(ids, e.UserID)
		}
	}

	users := map[int64]model.User{}
	if len(ids) > 0 {
		var err error
		if users, err = h.store.UsersByID(ctx, ids); err != nil {
			return nil, err
		}
	}
	ref := func(id int64) userRef {
		return userRef{ID: id, Name: users[id].Name}
	}

	now := time.Now().UTC()
	views := make([]machineView, 0, len(machines))
	for _, m := range machines {
		v := machineView{
			ID:               m.ID,
			Name:             m.Name,
			BranchID:         m.BranchID,
			Status:           m.Status,
			TimerStart:       m.TimerStart,
			TimerEnd:         m.TimerEnd,
			Duration:         m.Duration,
			RemainingSeconds: m.RemainingSeconds(now),
			Queue:            make([]queueEntryView, 0, len(m.Queue)),
			UpdatedAt:        m.UpdatedAt,
		}
		if m.CurrentUserID != nil {
			r := ref(*m.CurrentUserID)
			v.CurrentUser = &r
		}
		for i, e := range m.Queue {
			v.Queue = append(v.Queue, queueEntryView{Position: i + 1, User: ref(e.UserID), JoinedAt: e.JoinedAt})
		}
		views = append(views, v)
	}
	return views, nil
}

func (h *Handler) machineView(ctx context.Context, m *model.Machine) (machineView, error) {
	views, err := h.machineViews(ctx, []model.Machine{*m})
	if err != nil {
		return machineView{}, err
	}
	return views[0], nil
}
