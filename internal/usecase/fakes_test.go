package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"atlas-booking/internal/data/entity"
	"atlas-booking/internal/data/repository"
	"atlas-booking/internal/gateway/mailer"
	"atlas-booking/internal/gateway/payment"

	"github.com/google/uuid"
)

type fakeUsers struct {
	repository.UserRepository
	users map[uuid.UUID]*entity.User
}

func (f *fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	return f.users[id], nil
}

type fakeExperiences struct {
	repository.ExperienceRepository
	items map[uuid.UUID]*entity.Experience
}

func (f *fakeExperiences) FindByID(_ context.Context, id uuid.UUID) (*entity.Experience, error) {
	return f.items[id], nil
}

type fakeBookings struct {
	repository.BookingRepository
	mu      sync.Mutex
	byID    map[uuid.UUID]*entity.Booking
	created int
}

func (f *fakeBookings) Create(_ context.Context, b *entity.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.DraftID == b.DraftID && isOpen(existing) {
			return repository.ErrDuplicateDraft
		}
	}
	cp := *b
	f.byID[b.ID] = &cp
	f.created++
	return nil
}

func (f *fakeBookings) FindByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.byID[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeBookings) FindByDraftID(_ context.Context, draftID string) (*entity.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.byID {
		if b.DraftID == draftID && isOpen(b) {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func isOpen(b *entity.Booking) bool {
	return b.Status == entity.BookingStatusPending || b.Status == entity.BookingStatusConfirmed
}

func (f *fakeBookings) Confirm(_ context.Context, id uuid.UUID, _ string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	b.Status = entity.BookingStatusConfirmed
	b.ConfirmedAt = &at
	return nil
}

func (f *fakeBookings) ExpirePending(_ context.Context, before time.Time) ([]uuid.UUID, []string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []uuid.UUID
	for id, b := range f.byID {
		if b.Status == entity.BookingStatusPending && b.CreatedAt.Before(before) {
			b.Status = entity.BookingStatusExpired
			ids = append(ids, id)
		}
	}
	return ids, nil, nil
}

type fakePayments struct {
	repository.PaymentRepository
	mu       sync.Mutex
	byIntent map[string]*entity.Payment
}

func (f *fakePayments) Create(_ context.Context, p *entity.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byIntent[p.IntentID]; !ok {
		cp := *p
		f.byIntent[p.IntentID] = &cp
	}
	return nil
}

func (f *fakePayments) FindByIntentID(_ context.Context, intentID string) (*entity.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.byIntent[intentID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (f *fakePayments) UpdateStatus(_ context.Context, intentID string, status entity.PaymentStatus, _ *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byIntent[intentID]
	if !ok {
		return repository.ErrNotFound
	}
	p.Status = status
	return nil
}

// fakeGateway mimics Stripe: one intent per booking id.
type fakeGateway struct {
	mu       sync.Mutex
	intents  map[string]*payment.Intent
	creates  int
	statusOf payment.IntentStatus
}

func (g *fakeGateway) CreateIntent(_ context.Context, amount float64, bookingID string) (*payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.creates++
	for _, in := range g.intents {
		if in.BookingID == bookingID {
			return in, nil
		}
	}
	id := fmt.Sprintf("pi_%d", len(g.intents)+1)
	in := &payment.Intent{
		ID:           id,
		ClientSecret: id + "_secret",
		Amount:       payment.ToMinorUnits(amount),
		Currency:     "usd",
		Status:       payment.IntentOpen,
		BookingID:    bookingID,
	}
	g.intents[id] = in
	return in, nil
}

func (g *fakeGateway) GetIntent(_ context.Context, intentID string) (*payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	in, ok := g.intents[intentID]
	if !ok {
		return nil, fmt.Errorf("no such intent %s", intentID)
	}
	cp := *in
	cp.Status = g.statusOf
	return &cp, nil
}

func (g *fakeGateway) CancelIntent(context.Context, string) error { return nil }

func (g *fakeGateway) Currency() string { return "usd" }

type fakeMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (m *fakeMailer) Send(_ context.Context, msg mailer.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return "msg-1", nil
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}
