// Package collection keeps the client's local copy of the users collection
// and synchronises it with the server after every mutation.
package collection

import (
	"context"
	"slices"
	"sync"

	"github.com/dmitrijs2005/userdesk/internal/client/client"
	"github.com/dmitrijs2005/userdesk/internal/client/models"
	"github.com/dmitrijs2005/userdesk/internal/client/task"
	"github.com/dmitrijs2005/userdesk/internal/logging"
)

const (
	FetchFailed  = "failed to fetch users"
	AddFailed    = "failed to add user"
	UpdateFailed = "failed to update user"
	RemoveFailed = "failed to remove user"
)

// UsersAPI is the part of client.Client the collection needs.
type UsersAPI interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, in models.UserInput) (*models.User, error)
	UpdateUser(ctx context.Context, id string, in models.UserInput) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// State is a point-in-time copy of the collection.
type State struct {
	Items   []models.User
	Loading bool
	Error   string
}

// Users is the users collection. Loading is true while at least one
// operation is in flight. Operations with the same key (fetch, add,
// update:<id>, remove:<id>) supersede each other; a superseded operation
// returns task.ErrSuperseded and leaves the state alone.
type Users struct {
	api   UsersAPI
	log   logging.Logger
	tasks task.Group

	mu       sync.Mutex
	items    []models.User
	inFlight int
	err      string

	// seq stamps every published state; delivered is the newest stamp
	// handed to subscribers, older ones are dropped.
	seq       uint64
	notifyMu  sync.Mutex
	delivered uint64

	subMu   sync.Mutex
	subs    map[int]func(State)
	nextSub int
}

type stamped struct {
	State
	seq uint64
}

func NewUsers(api UsersAPI, log logging.Logger) *Users {
	return &Users{
		api:   api,
		log:   log.With("component", "users"),
		items: []models.User{},
		subs:  make(map[int]func(State)),
	}
}

func (u *Users) Snapshot() State {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.snapshotLocked()
}

func (u *Users) snapshotLocked() State {
	return State{
		Items:   slices.Clone(u.items),
		Loading: u.inFlight > 0,
		Error:   u.err,
	}
}

// Subscribe registers fn to receive the state after every change, in the
// order the changes happened. fn runs synchronously and must not start
// collection operations. The returned func removes it.
func (u *Users) Subscribe(fn func(State)) (cancel func()) {
	u.subMu.Lock()
	id := u.nextSub
	u.nextSub++
	u.subs[id] = fn
	u.subMu.Unlock()

	return func() {
		u.subMu.Lock()
		delete(u.subs, id)
		u.subMu.Unlock()
	}
}

// publishLocked snapshots the state for notify. u.mu must be held.
func (u *Users) publishLocked() stamped {
	u.seq++
	return stamped{State: u.snapshotLocked(), seq: u.seq}
}

func (u *Users) notify(s stamped) {
	u.notifyMu.Lock()
	defer u.notifyMu.Unlock()
	if s.seq <= u.delivered {
		return
	}
	u.delivered = s.seq

	u.subMu.Lock()
	fns := make([]func(State), 0, len(u.subs))
	for _, fn := range u.subs {
		fns = append(fns, fn)
	}
	u.subMu.Unlock()

	for _, fn := range fns {
		fn(s.State)
	}
}

// begin marks an operation in flight and clears the error. The returned
// done must be deferred.
func (u *Users) begin(ctx context.Context, key string) (context.Context, func()) {
	ctx, finish := u.tasks.Start(ctx, key)

	u.mu.Lock()
	u.inFlight++
	u.err = ""
	s := u.publishLocked()
	u.mu.Unlock()
	u.notify(s)

	return ctx, func() {
		u.mu.Lock()
		u.inFlight--
		s := u.publishLocked()
		u.mu.Unlock()
		u.notify(s)
		finish()
	}
}

// commit applies fn unless the task owning ctx has been superseded.
func (u *Users) commit(ctx context.Context, fn func()) bool {
	u.mu.Lock()
	if task.Superseded(ctx) {
		u.mu.Unlock()
		return false
	}
	fn()
	s := u.publishLocked()
	u.mu.Unlock()
	u.notify(s)
	return true
}

// fail records err (or fallback when the server sent no message) and logs it.
func (u *Users) fail(ctx context.Context, op, fallback string, err error) error {
	msg := fallback
	if m, ok := client.ServerMessage(err); ok {
		msg = m
	}
	if !u.commit(ctx, func() { u.err = msg }) {
		return task.ErrSuperseded
	}
	u.log.Error(ctx, op+" failed", "error", err)
	return err
}

// FetchUsers replaces the items with the server's list. Failures are
// recorded in State.Error and logged, never returned.
func (u *Users) FetchUsers(ctx context.Context) {
	ctx, done := u.begin(ctx, "fetch")
	defer done()

	u.fetch(ctx)
}

func (u *Users) fetch(ctx context.Context) {
	users, err := u.api.ListUsers(ctx)
	if err != nil {
		_ = u.fail(ctx, "fetch users", FetchFailed, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	u.commit(ctx, func() { u.items = slices.Clone(users) })
}

// AddUser creates a user. The server's echo is appended; without an echo the
// list is fetched again.
func (u *Users) AddUser(ctx context.Context, in models.UserInput) error {
	ctx, done := u.begin(ctx, "add")
	defer done()

	created, err := u.api.CreateUser(ctx, in)
	if err != nil {
		return u.fail(ctx, "add user", AddFailed, err)
	}

	if created == nil {
		u.fetch(ctx)
	} else {
		u.commit(ctx, func() { u.items = append(u.items, *created) })
	}
	if task.Superseded(ctx) {
		return task.ErrSuperseded
	}
	return nil
}

// UpdateUser changes user id. The echo replaces the matching item in place;
// without an echo, or when id is not held locally, the list is fetched again.
func (u *Users) UpdateUser(ctx context.Context, id string, in models.UserInput) error {
	ctx, done := u.begin(ctx, "update:"+id)
	defer done()

	updated, err := u.api.UpdateUser(ctx, id, in)
	if err != nil {
		return u.fail(ctx, "update user", UpdateFailed, err)
	}

	replaced := false
	if updated != nil {
		u.commit(ctx, func() {
			if i := slices.IndexFunc(u.items, func(x models.User) bool { return x.ID == id }); i >= 0 {
				u.items[i] = *updated
				replaced = true
			}
		})
	}
	if !replaced && !task.Superseded(ctx) {
		u.fetch(ctx)
	}
	if task.Superseded(ctx) {
		return task.ErrSuperseded
	}
	return nil
}

// RemoveUser deletes user id and drops it from the items, keeping the order
// of the rest.
func (u *Users) RemoveUser(ctx context.Context, id string) error {
	ctx, done := u.begin(ctx, "remove:"+id)
	defer done()

	if err := u.api.DeleteUser(ctx, id); err != nil {
		return u.fail(ctx, "remove user", RemoveFailed, err)
	}

	if !u.commit(ctx, func() {
		u.items = slices.DeleteFunc(u.items, func(x models.User) bool { return x.ID == id })
	}) {
		return task.ErrSuperseded
	}
	return nil
}

// Reset empties the collection, used on logout. Running operations are
// superseded.
func (u *Users) Reset() {
	u.tasks.CancelAll()

	u.mu.Lock()
	u.items = []models.User{}
	u.err = ""
	s := u.publishLocked()
	u.mu.Unlock()
	u.notify(s)
}

// Find returns the locally held user with id.
func (u *Users) Find(id string) (models.User, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	i := slices.IndexFunc(u.items, func(x models.User) bool { return x.ID == id })
	if i < 0 {
		return models.User{}, false
	}
	return u.items[i], true
}
