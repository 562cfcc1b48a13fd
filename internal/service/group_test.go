package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourvia/groupbooking-api/internal/domain"
	"github.com/tourvia/groupbooking-api/internal/group"
	"github.com/tourvia/groupbooking-api/internal/realtime"
)

type participantKey struct {
	offeringID uint
	userID     uint
}

type fakeGroupRepo struct {
	mu         sync.Mutex
	records    map[participantKey]domain.ParticipantRecord
	failCreate bool
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{records: make(map[participantKey]domain.ParticipantRecord)}
}

func (r *fakeGroupRepo) HasParticipant(_ context.Context, offeringID, userID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.records[participantKey{offeringID, userID}]
	return ok, nil
}

func (r *fakeGroupRepo) CreateParticipant(_ context.Context, record domain.ParticipantRecord) (domain.ParticipantRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return domain.ParticipantRecord{}, errors.New("db down")
	}
	r.records[participantKey{record.OfferingID, record.UserID}] = record
	return record, nil
}

func (r *fakeGroupRepo) DeleteParticipant(_ context.Context, offeringID, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, participantKey{offeringID, userID})
	return nil
}

func (r *fakeGroupRepo) UpdateCounter(_ context.Context, _ uint, _ int, _ domain.OfferingStatus) error {
	return nil
}

func (r *fakeGroupRepo) recordCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

type fakeProfiles struct {
	names map[uint]string
	err   error
}

func (p *fakeProfiles) DisplayName(_ context.Context, userID uint) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return p.names[userID], nil
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (p *capturingPublisher) Publish(_ uint, evt realtime.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func (p *capturingPublisher) snapshot() []realtime.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]realtime.Event, len(p.events))
	copy(out, p.events)
	return out
}

type fakeCheckout struct {
	ref string
	err error
}

func (c *fakeCheckout) CreateSession(_ context.Context, _, _ uint, _ float64) (string, error) {
	return c.ref, c.err
}

func testOffering(id uint, target int) domain.Offering {
	return domain.Offering{
		ID:                 id,
		TargetParticipants: target,
		Status:             domain.OfferingActive,
		BasePrice:          100,
		DiscountRules: []domain.DiscountRule{
			{Threshold: 3, DiscountPercent: 10},
			{Threshold: 5, DiscountPercent: 20},
		},
	}
}

func newTestGroupService(t *testing.T, repo *fakeGroupRepo, profiles *fakeProfiles, pub *capturingPublisher, offerings ...domain.Offering) (*GroupService, *group.Ledger) {
	t.Helper()

	ledger := group.NewLedger(100 * time.Millisecond)
	for _, o := range offerings {
		ledger.Register(o)
	}

	svc := NewGroupService(ledger, repo, profiles, &fakeCheckout{ref: "pi_test"}, pub)
	go svc.Run()
	t.Cleanup(svc.Close)

	return svc, ledger
}

func TestGroupService_Join(t *testing.T) {
	repo := newFakeGroupRepo()
	profiles := &fakeProfiles{names: map[uint]string{42: "Ada"}}
	pub := &capturingPublisher{}
	svc, _ := newTestGroupService(t, repo, profiles, pub, testOffering(1, 5))

	outcome, err := svc.Join(context.Background(), 1, 42)
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.NewCount)
	assert.Equal(t, 100.00, outcome.EffectivePrice)
	assert.Zero(t, outcome.DiscountPercent)
	assert.False(t, outcome.BecameFull)
	assert.Equal(t, "pi_test", outcome.CheckoutRef)

	rec := repo.records[participantKey{1, 42}]
	assert.Equal(t, 100.00, rec.PricePaid)

	require.Eventually(t, func() bool {
		return len(pub.snapshot()) == 1
	}, time.Second, 10*time.Millisecond)

	evt := pub.snapshot()[0]
	assert.Equal(t, realtime.EventParticipantJoined, evt.Type)
	assert.Equal(t, 1, evt.NewCount)
	assert.Equal(t, "Ada", evt.ParticipantName)
}

func TestGroupService_Join_DiscountAppliesToNewCount(t *testing.T) {
	repo := newFakeGroupRepo()
	pub := &capturingPublisher{}
	svc, _ := newTestGroupService(t, repo, &fakeProfiles{}, pub, testOffering(1, 10))

	var outcome domain.JoinOutcome
	var err error
	for userID := uint(1); userID <= 3; userID++ {
		outcome, err = svc.Join(context.Background(), 1, userID)
		require.NoError(t, err)
	}

	// The third join crosses the threshold and gets the discounted price.
	assert.Equal(t, 3, outcome.NewCount)
	assert.Equal(t, 10, outcome.DiscountPercent)
	assert.Equal(t, 90.00, outcome.EffectivePrice)
	assert.Equal(t, 100.00, outcome.OriginalPrice)

	// Earlier participants keep the price they joined at.
	assert.Equal(t, 100.00, repo.records[participantKey{1, 1}].PricePaid)
	assert.Equal(t, 90.00, repo.records[participantKey{1, 3}].PricePaid)
}

func TestGroupService_Join_AlreadyJoined(t *testing.T) {
	repo := newFakeGroupRepo()
	pub := &capturingPublisher{}
	svc, ledger := newTestGroupService(t, repo, &fakeProfiles{}, pub, testOffering(1, 5))

	_, err := svc.Join(context.Background(), 1, 42)
	require.NoError(t, err)

	_, err = svc.Join(context.Background(), 1, 42)
	assert.ErrorIs(t, err, ErrAlreadyJoined)

	assert.Equal(t, 1, repo.recordCount())
	snap, err := ledger.Snapshot(1)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Count)
}

func TestGroupService_Join_CapacityInvariant(t *testing.T) {
	const target = 5
	const attempts = 30

	repo := newFakeGroupRepo()
	pub := &capturingPublisher{}
	svc, _ := newTestGroupService(t, repo, &fakeProfiles{}, pub, testOffering(1, target))

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes, fulls := 0, 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()

			_, err := svc.Join(context.Background(), 1, userID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrOfferingFull):
				fulls++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(uint(i + 1))
	}
	wg.Wait()

	assert.Equal(t, target, successes)
	assert.Equal(t, attempts-target, fulls)
	assert.Equal(t, target, repo.recordCount())
}

func TestGroupService_Join_BecameFullPublishesStatusChange(t *testing.T) {
	repo := newFakeGroupRepo()
	pub := &capturingPublisher{}
	svc, _ := newTestGroupService(t, repo, &fakeProfiles{}, pub, testOffering(1, 2))

	_, err := svc.Join(context.Background(), 1, 1)
	require.NoError(t, err)
	outcome, err := svc.Join(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.True(t, outcome.BecameFull)

	require.Eventually(t, func() bool {
		return len(pub.snapshot()) == 3
	}, time.Second, 10*time.Millisecond)

	events := pub.snapshot()
	assert.Equal(t, realtime.EventParticipantJoined, events[0].Type)
	assert.Equal(t, 1, events[0].NewCount)
	assert.Equal(t, realtime.EventParticipantJoined, events[1].Type)
	assert.Equal(t, 2, events[1].NewCount)
	assert.Equal(t, realtime.EventStatusChanged, events[2].Type)
	assert.Equal(t, 2, events[2].NewCount)
}

func TestGroupService_Join_RollsBackOnPersistFailure(t *testing.T) {
	repo := newFakeGroupRepo()
	repo.failCreate = true
	pub := &capturingPublisher{}
	svc, ledger := newTestGroupService(t, repo, &fakeProfiles{}, pub, testOffering(1, 5))

	_, err := svc.Join(context.Background(), 1, 42)
	require.Error(t, err)

	snap, serr := ledger.Snapshot(1)
	require.NoError(t, serr)
	assert.Zero(t, snap.Count, "counter must be rolled back")
	assert.Zero(t, repo.recordCount())
	assert.Empty(t, pub.snapshot(), "no event for a failed join")
}

func TestGroupService_Join_BusyWhenLockHeld(t *testing.T) {
	repo := newFakeGroupRepo()
	pub := &capturingPublisher{}
	svc, ledger := newTestGroupService(t, repo, &fakeProfiles{}, pub, testOffering(1, 5))

	unlock, err := ledger.Lock(context.Background(), 1)
	require.NoError(t, err)
	defer unlock()

	_, err = svc.Join(context.Background(), 1, 42)
	assert.ErrorIs(t, err, ErrBusy)
}

func TestGroupService_Join_UnknownOffering(t *testing.T) {
	svc, _ := newTestGroupService(t, newFakeGroupRepo(), &fakeProfiles{}, &capturingPublisher{})

	_, err := svc.Join(context.Background(), 99, 42)
	assert.ErrorIs(t, err, ErrOfferingNotFound)
}

func TestGroupService_Join_NameFallback(t *testing.T) {
	repo := newFakeGroupRepo()
	profiles := &fakeProfiles{err: errors.New("profile service down")}
	pub := &capturingPublisher{}
	svc, _ := newTestGroupService(t, repo, profiles, pub, testOffering(1, 5))

	_, err := svc.Join(context.Background(), 1, 42)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(pub.snapshot()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "A traveler", pub.snapshot()[0].ParticipantName)
}

func TestGroupService_Join_CheckoutFailureDoesNotFailJoin(t *testing.T) {
	repo := newFakeGroupRepo()
	ledger := group.NewLedger(0)
	ledger.Register(testOffering(1, 5))
	pub := &capturingPublisher{}

	svc := NewGroupService(ledger, repo, &fakeProfiles{}, &fakeCheckout{err: errors.New("provider down")}, pub)
	go svc.Run()
	t.Cleanup(svc.Close)

	outcome, err := svc.Join(context.Background(), 1, 42)
	require.NoError(t, err)
	assert.Empty(t, outcome.CheckoutRef)
	assert.Equal(t, 1, repo.recordCount())
}

func TestGroupService_Leave(t *testing.T) {
	repo := newFakeGroupRepo()
	pub := &capturingPublisher{}
	svc, ledger := newTestGroupService(t, repo, &fakeProfiles{}, pub, testOffering(1, 2))

	_, err := svc.Join(context.Background(), 1, 1)
	require.NoError(t, err)
	_, err = svc.Join(context.Background(), 1, 2)
	require.NoError(t, err)

	snap, err := svc.Leave(context.Background(), 1, 2)
	require.NoError(t, err)

	assert.Equal(t, 1, snap.CurrentParticipants)
	assert.Equal(t, domain.OfferingActive, snap.Status)
	assert.Equal(t, 1, repo.recordCount())

	// The seat is joinable again.
	outcome, err := svc.Join(context.Background(), 1, 3)
	require.NoError(t, err)
	assert.True(t, outcome.BecameFull)

	lsnap, err := ledger.Snapshot(1)
	require.NoError(t, err)
	assert.Equal(t, domain.OfferingFull, lsnap.Status)
}

func TestGroupService_Leave_NotJoined(t *testing.T) {
	svc, _ := newTestGroupService(t, newFakeGroupRepo(), &fakeProfiles{}, &capturingPublisher{}, testOffering(1, 5))

	_, err := svc.Leave(context.Background(), 1, 42)
	assert.ErrorIs(t, err, ErrNotJoined)
}
