// Package group holds the authoritative in-process capacity state for
// group-bookable offerings: one atomic participant counter and status
// machine per offering, plus the per-offering critical section the join
// coordinator runs inside.
package group

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tourvia/groupbooking-api/internal/domain"
)

var (
	ErrOfferingNotFound    = errors.New("offering not found")
	ErrOfferingFull        = errors.New("offering is full")
	ErrOfferingNotJoinable = errors.New("offering is not accepting joins")
	ErrNoParticipants      = errors.New("offering has no participants")
	ErrBusy                = errors.New("offering is busy, retry later")
)

// Snapshot is a consistent view of one offering's group state. BecameFull
// is only meaningful on the snapshot returned by Increment.
type Snapshot struct {
	Count      int
	Target     int
	Status     domain.OfferingStatus
	BasePrice  float64
	Rules      []domain.DiscountRule
	BecameFull bool
}

// entry carries one offering's state. sem serializes whole join/leave
// transactions with a bounded wait; mu guards the fields so that count
// and status always change in one observable step.
type entry struct {
	sem chan struct{}

	mu     sync.Mutex
	count  int
	target int
	status domain.OfferingStatus

	// immutable after Register
	basePrice float64
	rules     []domain.DiscountRule
}

func (e *entry) snapshotLocked(becameFull bool) Snapshot {
	return Snapshot{
		Count:      e.count,
		Target:     e.target,
		Status:     e.status,
		BasePrice:  e.basePrice,
		Rules:      e.rules,
		BecameFull: becameFull,
	}
}

// Ledger is a keyed store of offering entries. The outer map is only ever
// read-locked on the hot path, so operations on different offerings never
// serialize against each other.
type Ledger struct {
	mu       sync.RWMutex
	entries  map[uint]*entry
	lockWait time.Duration
}

const DefaultLockWait = 2 * time.Second

func NewLedger(lockWait time.Duration) *Ledger {
	if lockWait <= 0 {
		lockWait = DefaultLockWait
	}

	return &Ledger{
		entries:  make(map[uint]*entry),
		lockWait: lockWait,
	}
}

// Register makes an offering known to the ledger, seeding count and status
// from the persisted offering. Called on creation and on warm-up after a
// restart. Re-registering replaces the entry.
func (l *Ledger) Register(o domain.Offering) {
	rules := make([]domain.DiscountRule, len(o.DiscountRules))
	copy(rules, o.DiscountRules)

	e := &entry{
		sem:       make(chan struct{}, 1),
		count:     o.CurrentParticipants,
		target:    o.TargetParticipants,
		status:    o.Status,
		basePrice: o.BasePrice,
		rules:     rules,
	}

	l.mu.Lock()
	l.entries[o.ID] = e
	l.mu.Unlock()
}

// Forget drops an offering, e.g. after archival by moderation.
func (l *Ledger) Forget(offeringID uint) {
	l.mu.Lock()
	delete(l.entries, offeringID)
	l.mu.Unlock()
}

func (l *Ledger) lookup(offeringID uint) (*entry, bool) {
	l.mu.RLock()
	e, ok := l.entries[offeringID]
	l.mu.RUnlock()

	return e, ok
}

// Lock acquires the offering's critical section. The wait is bounded: a
// caller that cannot get in within the configured window receives ErrBusy
// instead of queueing indefinitely. The returned func releases the lock.
func (l *Ledger) Lock(ctx context.Context, offeringID uint) (func(), error) {
	e, ok := l.lookup(offeringID)
	if !ok {
		return nil, ErrOfferingNotFound
	}

	timer := time.NewTimer(l.lockWait)
	defer timer.Stop()

	select {
	case e.sem <- struct{}{}:
		return func() { <-e.sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrBusy
	}
}

// Snapshot returns the offering's current state without entering the
// critical section. Used by the read model; may be stale by the time the
// caller looks at it.
func (l *Ledger) Snapshot(offeringID uint) (Snapshot, error) {
	e, ok := l.lookup(offeringID)
	if !ok {
		return Snapshot{}, ErrOfferingNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.snapshotLocked(false), nil
}

// Increment adds one participant. The count bump and the flip to full
// happen under one lock, so no observer ever sees count == target with
// status still active.
func (l *Ledger) Increment(offeringID uint) (Snapshot, error) {
	e, ok := l.lookup(offeringID)
	if !ok {
		return Snapshot{}, ErrOfferingNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.status {
	case domain.OfferingActive:
	case domain.OfferingFull:
		return Snapshot{}, ErrOfferingFull
	default:
		return Snapshot{}, ErrOfferingNotJoinable
	}
	if e.count >= e.target {
		return Snapshot{}, ErrOfferingFull
	}

	e.count++
	becameFull := e.count == e.target
	if becameFull {
		e.status = domain.OfferingFull
	}

	return e.snapshotLocked(becameFull), nil
}

// Decrement removes one participant (the leave/cancel path). A full group
// reopens to active in the same step; expired and completed offerings are
// terminal and reject the decrement.
func (l *Ledger) Decrement(offeringID uint) (Snapshot, error) {
	e, ok := l.lookup(offeringID)
	if !ok {
		return Snapshot{}, ErrOfferingNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != domain.OfferingActive && e.status != domain.OfferingFull {
		return Snapshot{}, ErrOfferingNotJoinable
	}
	if e.count == 0 {
		return Snapshot{}, ErrNoParticipants
	}

	e.count--
	if e.status == domain.OfferingFull {
		e.status = domain.OfferingActive
	}

	return e.snapshotLocked(false), nil
}
