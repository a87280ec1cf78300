package testfixtures

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/roombooking/internal/application"
	"github.com/example/roombooking/internal/persistence"
	"github.com/example/roombooking/internal/persistence/docstore"
	"github.com/example/roombooking/internal/storeadapter"
)

// ServiceFactory builds application services with deterministic identifiers
// and a controllable clock.
type ServiceFactory struct {
	Clock *Clock
	IDs   *IDSequence
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock: NewClock(time.Time{}),
		IDs:   NewIDSequence(),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDs == nil {
		factory.IDs = NewIDSequence()
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDSequence overrides the identifier sequence used by the factory.
func WithIDSequence(ids *IDSequence) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDs = ids
	}
}

// ServiceDeps selects the stores behind the services. Nil repositories are
// replaced by a shared in-memory document store.
type ServiceDeps struct {
	Users    persistence.UserRepository
	Rooms    persistence.RoomRepository
	Bookings persistence.BookingRepository
	Logger   *slog.Logger
}

// Services groups the wired room, booking and user services.
type Services struct {
	Users    *application.UserService
	Rooms    *application.RoomService
	Bookings *application.BookingService
}

// NewServices wires the user, booking and room services the way the server
// does: room deletion purges bookings through the booking service. Rooms are
// numbered "room-N" and bookings "booking-N".
func (f *ServiceFactory) NewServices(deps ServiceDeps) Services {
	if deps.Users == nil || deps.Rooms == nil || deps.Bookings == nil {
		memory := docstore.NewRepository(docstore.NewMemoryStore())
		if deps.Users == nil {
			deps.Users = memory
		}
		if deps.Rooms == nil {
			deps.Rooms = memory
		}
		if deps.Bookings == nil {
			deps.Bookings = memory
		}
	}

	now := f.Clock.NowFunc()
	userRepo := storeadapter.NewUserRepository(deps.Users)
	roomRepo := storeadapter.NewRoomRepository(deps.Rooms)

	users := application.NewUserServiceWithLogger(userRepo, now, deps.Logger)
	bookings := application.NewBookingServiceWithLogger(
		storeadapter.NewBookingRepository(deps.Bookings),
		roomRepo,
		userRepo,
		f.IDs.Func("booking"),
		now,
		deps.Logger,
	)
	rooms := application.NewRoomServiceWithLogger(roomRepo, bookings, f.IDs.Func("room"), now, deps.Logger)

	return Services{Users: users, Rooms: rooms, Bookings: bookings}
}

// SeedUsers stores profiles for the given fixtures.
func (s Services) SeedUsers(ctx context.Context, users ...UserFixture) error {
	for _, user := range users {
		if _, err := s.Users.CreateProfile(ctx, user.Application()); err != nil {
			return err
		}
	}
	return nil
}
