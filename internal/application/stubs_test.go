package application

import (
	"context"
	"sort"
	"sync"
)

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) record(call string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.calls = append(l.calls, call)
	l.mu.Unlock()
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.calls))
	copy(out, l.calls)
	return out
}

type roomRepoStub struct {
	log *callLog

	createErr error
	created   Room

	getRoom Room
	getErr  error

	updateErr error
	updated   Room

	deleteErr error
	deletedID string

	list    []Room
	listErr error
}

func (r *roomRepoStub) CreateRoom(ctx context.Context, room Room) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.created = room
	return nil
}

func (r *roomRepoStub) GetRoom(ctx context.Context, id string) (Room, error) {
	if r.getErr != nil {
		return Room{}, r.getErr
	}
	if r.getRoom.ID == "" || r.getRoom.ID != id {
		return Room{}, ErrNotFound
	}
	return r.getRoom, nil
}

func (r *roomRepoStub) UpdateRoom(ctx context.Context, room Room) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.updated = room
	return nil
}

func (r *roomRepoStub) DeleteRoom(ctx context.Context, id string) error {
	r.log.record("room:" + id)
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.deletedID = id
	return nil
}

func (r *roomRepoStub) ListRooms(ctx context.Context) ([]Room, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]Room, len(r.list))
	copy(out, r.list)
	return out, nil
}

type bookingRepoStub struct {
	log *callLog

	mu         sync.Mutex
	bookings   map[string]Booking
	deleteErrs map[string]error
	listErr    error
	updateErr  error

	created Booking
	changes BookingChanges
}

func newBookingRepoStub(bookings ...Booking) *bookingRepoStub {
	stub := &bookingRepoStub{bookings: make(map[string]Booking), deleteErrs: make(map[string]error)}
	for _, b := range bookings {
		stub.bookings[b.ID] = b
	}
	return stub
}

func (r *bookingRepoStub) CreateBooking(ctx context.Context, booking Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = booking
	r.bookings[booking.ID] = booking
	return nil
}

func (r *bookingRepoStub) UpdateBooking(ctx context.Context, id string, changes BookingChanges) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = changes
	return nil
}

func (r *bookingRepoStub) GetBooking(ctx context.Context, id string) (Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[id]
	if !ok {
		return Booking{}, ErrNotFound
	}
	return booking, nil
}

func (r *bookingRepoStub) ListBookingsForRoom(ctx context.Context, roomID string) ([]Booking, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Booking
	for _, b := range r.bookings {
		if b.RoomID == roomID {
			out = append(out, b)
		}
	}
	// Reverse id order so callers cannot rely on store ordering.
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *bookingRepoStub) DeleteBooking(ctx context.Context, id string) error {
	r.log.record("booking:" + id)
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.deleteErrs[id]; err != nil {
		return err
	}
	delete(r.bookings, id)
	return nil
}

func (r *bookingRepoStub) remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bookings)
}

type userRepoStub struct {
	mu        sync.Mutex
	users     map[string]User
	createErr error
	getErr    error
	creates   int
}

func newUserRepoStub(users ...User) *userRepoStub {
	stub := &userRepoStub{users: make(map[string]User)}
	for _, u := range users {
		stub.users[u.ID] = u
	}
	return stub
}

func (r *userRepoStub) CreateUser(ctx context.Context, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if _, ok := r.users[user.ID]; ok {
		return ErrAlreadyExists
	}
	r.creates++
	r.users[user.ID] = user
	return nil
}

func (r *userRepoStub) GetUser(ctx context.Context, id string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return User{}, r.getErr
	}
	user, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (r *userRepoStub) ListUsers(ctx context.Context) ([]User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

type cascadeObserverStub struct {
	outcomes []string
}

func (o *cascadeObserverStub) ObserveCascade(outcome string) {
	o.outcomes = append(o.outcomes, outcome)
}
