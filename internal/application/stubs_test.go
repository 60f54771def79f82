package application

import (
	"context"
	"sync"
	"time"

	"github.com/example/community-hub/internal/persistence"
)

type stubMemberRepo struct {
	getMember        func(ctx context.Context, id string) (persistence.Member, error)
	getMemberByEmail func(ctx context.Context, email string) (persistence.Member, error)
	createMember     func(ctx context.Context, member persistence.Member) error
	listMembers      func(ctx context.Context) ([]persistence.Member, error)
	updateMember     func(ctx context.Context, member persistence.Member) error
}

func (s *stubMemberRepo) CreateMember(ctx context.Context, member persistence.Member) error {
	if s.createMember == nil {
		return nil
	}
	return s.createMember(ctx, member)
}

func (s *stubMemberRepo) GetMember(ctx context.Context, id string) (persistence.Member, error) {
	if s.getMember == nil {
		return persistence.Member{}, persistence.ErrNotFound
	}
	return s.getMember(ctx, id)
}

func (s *stubMemberRepo) GetMemberByEmail(ctx context.Context, email string) (persistence.Member, error) {
	if s.getMemberByEmail == nil {
		return persistence.Member{}, persistence.ErrNotFound
	}
	return s.getMemberByEmail(ctx, email)
}

func (s *stubMemberRepo) ListMembers(ctx context.Context) ([]persistence.Member, error) {
	if s.listMembers == nil {
		return nil, nil
	}
	return s.listMembers(ctx)
}

func (s *stubMemberRepo) UpdateMember(ctx context.Context, member persistence.Member) error {
	if s.updateMember == nil {
		return nil
	}
	return s.updateMember(ctx, member)
}

type stubSessionRepo struct {
	createSession         func(ctx context.Context, session persistence.Session) error
	getSession            func(ctx context.Context, token string) (persistence.Session, error)
	revokeSession         func(ctx context.Context, token string, revokedAt time.Time) error
	deleteExpiredSessions func(ctx context.Context, reference time.Time) error
}

func (s *stubSessionRepo) CreateSession(ctx context.Context, session persistence.Session) error {
	if s.createSession == nil {
		return nil
	}
	return s.createSession(ctx, session)
}

func (s *stubSessionRepo) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	if s.getSession == nil {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return s.getSession(ctx, token)
}

func (s *stubSessionRepo) RevokeSession(ctx context.Context, token string, revokedAt time.Time) error {
	if s.revokeSession == nil {
		return nil
	}
	return s.revokeSession(ctx, token, revokedAt)
}

func (s *stubSessionRepo) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	if s.deleteExpiredSessions == nil {
		return nil
	}
	return s.deleteExpiredSessions(ctx, reference)
}

type stubEventRepo struct {
	createEvent      func(ctx context.Context, event persistence.Event) error
	getEvent         func(ctx context.Context, id string) (persistence.Event, error)
	listEvents       func(ctx context.Context, filter persistence.EventFilter) ([]persistence.Event, error)
	transitionStatus func(ctx context.Context, id, from, to string, now time.Time) error
}

func (s *stubEventRepo) CreateEvent(ctx context.Context, event persistence.Event) error {
	if s.createEvent == nil {
		return nil
	}
	return s.createEvent(ctx, event)
}

func (s *stubEventRepo) GetEvent(ctx context.Context, id string) (persistence.Event, error) {
	if s.getEvent == nil {
		return persistence.Event{}, persistence.ErrNotFound
	}
	return s.getEvent(ctx, id)
}

func (s *stubEventRepo) ListEvents(ctx context.Context, filter persistence.EventFilter) ([]persistence.Event, error) {
	if s.listEvents == nil {
		return nil, nil
	}
	return s.listEvents(ctx, filter)
}

func (s *stubEventRepo) TransitionEventStatus(ctx context.Context, id, from, to string, now time.Time) error {
	if s.transitionStatus == nil {
		return nil
	}
	return s.transitionStatus(ctx, id, from, to, now)
}

type stubLedger struct {
	admit            func(ctx context.Context, reg persistence.Registration) error
	getRegistration  func(ctx context.Context, id string) (persistence.Registration, error)
	listByEvent      func(ctx context.Context, eventID string) ([]persistence.Registration, error)
	cancelAndRelease func(ctx context.Context, id string, now time.Time) (persistence.Registration, error)
	checkIn          func(ctx context.Context, entryToken string, now time.Time) (persistence.Registration, error)
}

func (s *stubLedger) Admit(ctx context.Context, reg persistence.Registration) error {
	if s.admit == nil {
		return nil
	}
	return s.admit(ctx, reg)
}

func (s *stubLedger) GetRegistration(ctx context.Context, id string) (persistence.Registration, error) {
	if s.getRegistration == nil {
		return persistence.Registration{}, persistence.ErrNotFound
	}
	return s.getRegistration(ctx, id)
}

func (s *stubLedger) ListRegistrationsByEvent(ctx context.Context, eventID string) ([]persistence.Registration, error) {
	if s.listByEvent == nil {
		return nil, nil
	}
	return s.listByEvent(ctx, eventID)
}

func (s *stubLedger) CancelAndRelease(ctx context.Context, id string, now time.Time) (persistence.Registration, error) {
	if s.cancelAndRelease == nil {
		return persistence.Registration{}, persistence.ErrNotFound
	}
	return s.cancelAndRelease(ctx, id, now)
}

func (s *stubLedger) CheckIn(ctx context.Context, entryToken string, now time.Time) (persistence.Registration, error) {
	if s.checkIn == nil {
		return persistence.Registration{}, persistence.ErrNotFound
	}
	return s.checkIn(ctx, entryToken, now)
}

type stubResourceRepo struct {
	createResource func(ctx context.Context, resource persistence.Resource) error
	getResource    func(ctx context.Context, id string) (persistence.Resource, error)
	listResources  func(ctx context.Context) ([]persistence.Resource, error)
}

func (s *stubResourceRepo) CreateResource(ctx context.Context, resource persistence.Resource) error {
	if s.createResource == nil {
		return nil
	}
	return s.createResource(ctx, resource)
}

func (s *stubResourceRepo) GetResource(ctx context.Context, id string) (persistence.Resource, error) {
	if s.getResource == nil {
		return persistence.Resource{}, persistence.ErrNotFound
	}
	return s.getResource(ctx, id)
}

func (s *stubResourceRepo) ListResources(ctx context.Context) ([]persistence.Resource, error) {
	if s.listResources == nil {
		return nil, nil
	}
	return s.listResources(ctx)
}

type stubReservationRepo struct {
	createReservation func(ctx context.Context, reservation persistence.Reservation) error
	getReservation    func(ctx context.Context, id string) (persistence.Reservation, error)
	listReservations  func(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error)
	transitionStatus  func(ctx context.Context, id, from, to string, now time.Time) error
}

func (s *stubReservationRepo) CreateReservation(ctx context.Context, reservation persistence.Reservation) error {
	if s.createReservation == nil {
		return nil
	}
	return s.createReservation(ctx, reservation)
}

func (s *stubReservationRepo) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	if s.getReservation == nil {
		return persistence.Reservation{}, persistence.ErrNotFound
	}
	return s.getReservation(ctx, id)
}

func (s *stubReservationRepo) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error) {
	if s.listReservations == nil {
		return nil, nil
	}
	return s.listReservations(ctx, filter)
}

func (s *stubReservationRepo) TransitionReservationStatus(ctx context.Context, id, from, to string, now time.Time) error {
	if s.transitionStatus == nil {
		return nil
	}
	return s.transitionStatus(ctx, id, from, to, now)
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []Notification
}

func (n *recordingNotifier) Notify(_ context.Context, message Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) all() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notification, len(n.messages))
	copy(out, n.messages)
	return out
}

func activeMemberRepo(id string) *stubMemberRepo {
	return &stubMemberRepo{
		getMember: func(_ context.Context, got string) (persistence.Member, error) {
			if got != id {
				return persistence.Member{}, persistence.ErrNotFound
			}
			return persistence.Member{ID: id, Email: id + "@example.com", Status: "ACTIVE"}, nil
		},
	}
}

func openEventRepo(id string, capacity *int) *stubEventRepo {
	return &stubEventRepo{
		getEvent: func(_ context.Context, got string) (persistence.Event, error) {
			if got != id {
				return persistence.Event{}, persistence.ErrNotFound
			}
			return persistence.Event{ID: id, Title: "Event", Status: "OPEN", Capacity: capacity, TokenPrefix: "EVT"}, nil
		},
	}
}
