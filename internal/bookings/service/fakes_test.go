package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	bookingserrors "gymcore/internal/bookings/errors"
	"gymcore/pkg/config"
	mongotx "gymcore/pkg/db/mongo"
	"gymcore/pkg/logger"
	"gymcore/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	trainer1 = "65f1a2b3c4d5e6f708192a01"
	trainer2 = "65f1a2b3c4d5e6f708192a02"
	trainer3 = "65f1a2b3c4d5e6f708192a03"
	memberA  = "65f1a2b3c4d5e6f708192b01"
	memberB  = "65f1a2b3c4d5e6f708192b02"
	service1 = "65f1a2b3c4d5e6f708192c01"
)

// monday returns 2026-03-02 (a Monday) at hh:mm UTC.
func monday(hh, mm int) time.Time {
	return time.Date(2026, 3, 2, hh, mm, 0, 0, time.UTC)
}

func testConfig() *config.Config {
	return &config.Config{
		Log:             logger.NewNop(),
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		BookingLockTTL:  10 * time.Second,
		BookingLockWait: 5 * time.Second,
	}
}

// ────────────────────────────────────────────────
// Booking store
// ────────────────────────────────────────────────

type fakeBookingRepo struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	bookings map[string]*model.Booking
	nextID   int
	reads    int

	createErr error
	findErr   error
	updateErr error
	loadErr   error
}

func newFakeBookingRepo(existing ...*model.Booking) *fakeBookingRepo {
	r := &fakeBookingRepo{bookings: map[string]*model.Booking{}}
	for _, b := range existing {
		r.put(b)
	}
	return r
}

func (r *fakeBookingRepo) put(b *model.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.ID == "" {
		r.nextID++
		b.ID = fmt.Sprintf("%024x", r.nextID)
	}
	if b.EndTime.IsZero() {
		b.EndTime = b.StartTime.Add(time.Duration(b.DurationMinutes) * time.Minute)
	}
	cp := *b
	r.bookings[b.ID] = &cp
}

func (r *fakeBookingRepo) get(id string) *model.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil
	}
	cp := *b
	return &cp
}

func (r *fakeBookingRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bookings)
}

func (r *fakeBookingRepo) readCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reads
}

func (r *fakeBookingRepo) Create(ctx context.Context, booking *model.Booking) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.put(booking)
	return nil
}

func (r *fakeBookingRepo) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	r.mu.Lock()
	r.reads++
	r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	if !primitive.IsValidObjectID(id) {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}
	b := r.get(id)
	if b == nil {
		return nil, bookingserrors.ErrNotFound
	}
	return b, nil
}

func (r *fakeBookingRepo) Update(ctx context.Context, booking *model.Booking) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	if r.get(booking.ID) == nil {
		return bookingserrors.ErrNotFound
	}
	r.put(booking)
	return nil
}

func (r *fakeBookingRepo) LoadActiveForTrainer(ctx context.Context, trainerID string) ([]*model.Booking, error) {
	return r.loadActive(func(b *model.Booking) bool { return b.TrainerID == trainerID })
}

func (r *fakeBookingRepo) LoadActiveForMember(ctx context.Context, memberID string) ([]*model.Booking, error) {
	return r.loadActive(func(b *model.Booking) bool { return b.MemberID == memberID })
}

func (r *fakeBookingRepo) loadActive(match func(b *model.Booking) bool) ([]*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	if r.loadErr != nil {
		return nil, r.loadErr
	}

	out := []*model.Booking{}
	for _, b := range r.bookings {
		if match(b) && b.IsActive && !b.Status.IsTerminal() {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (r *fakeBookingRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	return fn(ctx)
}

// ────────────────────────────────────────────────
// Availability windows and qualifications
// ────────────────────────────────────────────────

type fakeWindowRepo struct {
	mu      sync.Mutex
	windows map[string][]*model.AvailabilityWindow
	calls   int
	err     error
	errFor  map[string]error
}

func newFakeWindowRepo() *fakeWindowRepo {
	return &fakeWindowRepo{
		windows: map[string][]*model.AvailabilityWindow{},
		errFor:  map[string]error{},
	}
}

func (r *fakeWindowRepo) add(trainerID string, day time.Weekday, start, end string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.windows[trainerID] = append(r.windows[trainerID], &model.AvailabilityWindow{
		ID:        fmt.Sprintf("w%d", len(r.windows[trainerID])+1),
		TrainerID: trainerID,
		DayOfWeek: int(day),
		StartTime: start,
		EndTime:   end,
		IsActive:  true,
	})
}

func (r *fakeWindowRepo) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func (r *fakeWindowRepo) LoadActiveWindows(ctx context.Context, trainerID string, day time.Weekday) ([]*model.AvailabilityWindow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	if err := r.errFor[trainerID]; err != nil {
		return nil, err
	}

	out := []*model.AvailabilityWindow{}
	for _, w := range r.windows[trainerID] {
		if w.IsActive && w.DayOfWeek == int(day) {
			cp := *w
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeQualificationRepo struct {
	trainers map[string][]string
	err      error
}

func (r *fakeQualificationRepo) LoadQualifiedTrainerIDs(ctx context.Context, serviceID string) ([]string, error) {
	if r.err != nil {
		return nil, r.err
	}
	return append([]string(nil), r.trainers[serviceID]...), nil
}

// ────────────────────────────────────────────────
// Locks and events
// ────────────────────────────────────────────────

type fakeLockRepo struct {
	mu         sync.Mutex
	held       map[string]string // key -> owner
	acquired   int
	acquireErr error
}

func newFakeLockRepo() *fakeLockRepo {
	return &fakeLockRepo{held: map[string]string{}}
}

func (r *fakeLockRepo) Acquire(ctx context.Context, key, owner string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.acquireErr != nil {
		return r.acquireErr
	}
	if _, ok := r.held[key]; ok {
		return bookingserrors.ErrLockHeld
	}
	r.held[key] = owner
	r.acquired++
	return nil
}

func (r *fakeLockRepo) Release(ctx context.Context, key, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.held[key] != owner {
		return bookingserrors.ErrLockNotOwned
	}
	delete(r.held, key)
	return nil
}

// hold takes key for a request other than the ones under test.
func (r *fakeLockRepo) hold(key, owner string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.held[key] = owner
}

func (r *fakeLockRepo) drop(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.held, key)
}

func (r *fakeLockRepo) holder(key string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	owner, ok := r.held[key]
	return owner, ok
}

func (r *fakeLockRepo) heldCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.held)
}

type publishedEvent struct {
	eventType string
	booking   model.Booking
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, eventType string, b *model.Booking) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{eventType: eventType, booking: *b})
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.eventType)
	}
	return out
}

func confirmedBooking(trainerID, memberID string, start time.Time, minutes int) *model.Booking {
	return &model.Booking{
		TrainerID:       trainerID,
		MemberID:        memberID,
		ServiceID:       service1,
		StartTime:       start,
		DurationMinutes: minutes,
		Status:          model.StatusConfirmed,
		IsActive:        true,
	}
}
