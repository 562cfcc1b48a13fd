package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tourvia/groupbooking-api/internal/domain"
	"github.com/tourvia/groupbooking-api/internal/group"
	"github.com/tourvia/groupbooking-api/internal/payment"
	"github.com/tourvia/groupbooking-api/internal/pricing"
	"github.com/tourvia/groupbooking-api/internal/realtime"
	"github.com/tourvia/groupbooking-api/internal/repository"
)

var (
	ErrOfferingNotFound    = group.ErrOfferingNotFound
	ErrOfferingFull        = group.ErrOfferingFull
	ErrOfferingNotJoinable = group.ErrOfferingNotJoinable
	ErrBusy                = group.ErrBusy
	ErrAlreadyJoined       = errors.New("participant already joined this offering")
	ErrNotJoined           = errors.New("participant has not joined this offering")
)

// Shown in events when the profile lookup fails or comes back empty.
const fallbackParticipantName = "A traveler"

const eventQueueSize = 1024

type GroupRepository interface {
	HasParticipant(ctx context.Context, offeringID, userID uint) (bool, error)
	CreateParticipant(ctx context.Context, record domain.ParticipantRecord) (domain.ParticipantRecord, error)
	DeleteParticipant(ctx context.Context, offeringID, userID uint) error
	UpdateCounter(ctx context.Context, id uint, count int, status domain.OfferingStatus) error
}

// ProfileDirectory resolves a participant's display name for event
// payloads. Lookups happen outside the offering's critical section.
type ProfileDirectory interface {
	DisplayName(ctx context.Context, userID uint) (string, error)
}

type EventPublisher interface {
	Publish(offeringID uint, evt realtime.Event)
}

type pendingEvent struct {
	offeringID uint
	evt        realtime.Event
	joinerID   uint // non-zero when a display name must be resolved
}

// GroupService coordinates joins and leaves against the capacity ledger.
// Everything that must be serialized per offering happens between Lock and
// unlock; external I/O (profile lookup, checkout) happens after.
type GroupService struct {
	ledger   *group.Ledger
	repo     GroupRepository
	profiles ProfileDirectory
	checkout payment.Checkout
	pub      EventPublisher
	events   chan pendingEvent
}

func NewGroupService(ledger *group.Ledger, repo GroupRepository, profiles ProfileDirectory, checkout payment.Checkout, pub EventPublisher) *GroupService {
	return &GroupService{
		ledger:   ledger,
		repo:     repo,
		profiles: profiles,
		checkout: checkout,
		pub:      pub,
		events:   make(chan pendingEvent, eventQueueSize),
	}
}

// Run drains the event queue, resolves display names, and hands events to
// the fan-out. Events are enqueued inside the critical section, so a
// single drain goroutine preserves per-offering commit order even though
// the name lookup itself is slow external I/O.
func (s *GroupService) Run() {
	for pe := range s.events {
		if pe.joinerID != 0 {
			pe.evt.ParticipantName = s.displayName(pe.joinerID)
		}
		s.pub.Publish(pe.offeringID, pe.evt)
	}
}

// Close stops the Run loop once the queue is drained. Only call during
// shutdown; joins after Close will panic on enqueue.
func (s *GroupService) Close() {
	close(s.events)
}

func (s *GroupService) Join(ctx context.Context, offeringID, userID uint) (domain.JoinOutcome, error) {
	unlock, err := s.ledger.Lock(ctx, offeringID)
	if err != nil {
		return domain.JoinOutcome{}, translateLockErr(err)
	}

	has, err := s.repo.HasParticipant(ctx, offeringID, userID)
	if err != nil {
		unlock()
		return domain.JoinOutcome{}, fmt.Errorf("s.repo.HasParticipant -> %w", err)
	}
	if has {
		unlock()
		return domain.JoinOutcome{}, ErrAlreadyJoined
	}

	snap, err := s.ledger.Increment(offeringID)
	if err != nil {
		unlock()
		return domain.JoinOutcome{}, err
	}

	quote := pricing.Resolve(snap.Count, snap.BasePrice, snap.Rules)

	record := domain.ParticipantRecord{
		OfferingID: offeringID,
		UserID:     userID,
		PricePaid:  quote.EffectivePrice,
		JoinedAt:   time.Now().UTC(),
	}
	if _, err = s.repo.CreateParticipant(ctx, record); err != nil {
		// The join did not happen; put the counter back.
		if _, derr := s.ledger.Decrement(offeringID); derr != nil {
			zap.L().Error("failed to roll back increment",
				zap.Uint("offering_id", offeringID), zap.Error(derr))
		}
		unlock()
		if errors.Is(err, repository.ErrParticipantExists) {
			return domain.JoinOutcome{}, ErrAlreadyJoined
		}
		return domain.JoinOutcome{}, fmt.Errorf("s.repo.CreateParticipant -> %w", err)
	}

	s.writeThroughCounter(ctx, offeringID, snap)

	s.enqueue(pendingEvent{
		offeringID: offeringID,
		joinerID:   userID,
		evt: realtime.Event{
			Type:            realtime.EventParticipantJoined,
			OfferingID:      offeringID,
			NewCount:        snap.Count,
			EffectivePrice:  quote.EffectivePrice,
			DiscountPercent: quote.DiscountPercent,
		},
	})
	if snap.BecameFull {
		s.enqueue(pendingEvent{
			offeringID: offeringID,
			evt: realtime.Event{
				Type:            realtime.EventStatusChanged,
				OfferingID:      offeringID,
				NewCount:        snap.Count,
				EffectivePrice:  quote.EffectivePrice,
				DiscountPercent: quote.DiscountPercent,
			},
		})
	}
	unlock()

	outcome := domain.JoinOutcome{
		NewCount:        snap.Count,
		EffectivePrice:  quote.EffectivePrice,
		DiscountPercent: quote.DiscountPercent,
		OriginalPrice:   quote.OriginalPrice,
		BecameFull:      snap.BecameFull,
	}

	// Checkout happens outside the lock so a slow provider cannot block
	// other joins; its failure never un-joins the participant.
	if s.checkout != nil {
		ref, cerr := s.checkout.CreateSession(ctx, offeringID, userID, quote.EffectivePrice)
		if cerr != nil {
			zap.L().Warn("checkout session creation failed",
				zap.Uint("offering_id", offeringID),
				zap.Uint("user_id", userID),
				zap.Error(cerr))
		} else {
			outcome.CheckoutRef = ref
		}
	}

	return outcome, nil
}

// Leave is the symmetric operation to Join: the departure decrements the
// counter under the same per-offering lock and re-advertises the price for
// future joiners. Prices already paid are never re-evaluated.
func (s *GroupService) Leave(ctx context.Context, offeringID, userID uint) (domain.OfferingSnapshot, error) {
	unlock, err := s.ledger.Lock(ctx, offeringID)
	if err != nil {
		return domain.OfferingSnapshot{}, translateLockErr(err)
	}

	has, err := s.repo.HasParticipant(ctx, offeringID, userID)
	if err != nil {
		unlock()
		return domain.OfferingSnapshot{}, fmt.Errorf("s.repo.HasParticipant -> %w", err)
	}
	if !has {
		unlock()
		return domain.OfferingSnapshot{}, ErrNotJoined
	}

	snap, err := s.ledger.Decrement(offeringID)
	if err != nil {
		unlock()
		return domain.OfferingSnapshot{}, err
	}

	if err = s.repo.DeleteParticipant(ctx, offeringID, userID); err != nil {
		if _, rerr := s.ledger.Increment(offeringID); rerr != nil {
			zap.L().Error("failed to roll back decrement",
				zap.Uint("offering_id", offeringID), zap.Error(rerr))
		}
		unlock()
		return domain.OfferingSnapshot{}, fmt.Errorf("s.repo.DeleteParticipant -> %w", err)
	}

	s.writeThroughCounter(ctx, offeringID, snap)

	quote := pricing.Resolve(snap.Count, snap.BasePrice, snap.Rules)
	s.enqueue(pendingEvent{
		offeringID: offeringID,
		evt: realtime.Event{
			Type:            realtime.EventStatusChanged,
			OfferingID:      offeringID,
			NewCount:        snap.Count,
			EffectivePrice:  quote.EffectivePrice,
			DiscountPercent: quote.DiscountPercent,
		},
	})
	unlock()

	return domain.OfferingSnapshot{
		CurrentParticipants: snap.Count,
		TargetParticipants:  snap.Target,
		Status:              snap.Status,
		EffectivePrice:      quote.EffectivePrice,
		DiscountPercent:     quote.DiscountPercent,
	}, nil
}

func (s *GroupService) enqueue(pe pendingEvent) {
	select {
	case s.events <- pe:
	default:
		zap.L().Warn("event queue full, dropping notification",
			zap.Uint("offering_id", pe.offeringID),
			zap.String("event_type", string(pe.evt.Type)))
	}
}

func (s *GroupService) displayName(userID uint) string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	name, err := s.profiles.DisplayName(ctx, userID)
	if err != nil || name == "" {
		if err != nil {
			zap.L().Warn("display name lookup failed",
				zap.Uint("user_id", userID), zap.Error(err))
		}
		return fallbackParticipantName
	}

	return name
}

// writeThroughCounter persists the ledger-decided count and status. The
// ledger stays authoritative; a failed write is logged and repaired by the
// next successful one.
func (s *GroupService) writeThroughCounter(ctx context.Context, offeringID uint, snap group.Snapshot) {
	if err := s.repo.UpdateCounter(ctx, offeringID, snap.Count, snap.Status); err != nil {
		zap.L().Warn("offering counter write-through failed",
			zap.Uint("offering_id", offeringID), zap.Error(err))
	}
}

func translateLockErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("s.ledger.Lock -> %w", err)
	}

	return err
}
