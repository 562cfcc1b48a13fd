package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/tourvia/groupbooking-api/internal/domain"
	"github.com/tourvia/groupbooking-api/internal/group"
	"github.com/tourvia/groupbooking-api/internal/pricing"
	"github.com/tourvia/groupbooking-api/internal/repository"
)

type OfferingRepository interface {
	Create(ctx context.Context, offering domain.Offering) (domain.Offering, error)
	FindByID(ctx context.Context, id uint) (domain.Offering, error)
	FindAll(ctx context.Context) ([]domain.Offering, error)
	FindJoinable(ctx context.Context) ([]domain.Offering, error)
	FindParticipants(ctx context.Context, offeringID uint) ([]domain.ParticipantRecord, error)
}

type OfferingService struct {
	repo   OfferingRepository
	ledger *group.Ledger
}

func NewOfferingService(repo OfferingRepository, ledger *group.Ledger) *OfferingService {
	return &OfferingService{
		repo:   repo,
		ledger: ledger,
	}
}

// PrimeLedger seeds the capacity ledger from the persisted offerings.
// Called once on startup; the ledger is authoritative from then on.
func (s *OfferingService) PrimeLedger(ctx context.Context) error {
	offerings, err := s.repo.FindJoinable(ctx)
	if err != nil {
		return fmt.Errorf("s.repo.FindJoinable -> %w", err)
	}

	for _, o := range offerings {
		s.ledger.Register(o)
	}
	zap.L().Info("capacity ledger primed", zap.Int("offerings", len(offerings)))

	return nil
}

func (s *OfferingService) CreateOffering(ctx context.Context, offering domain.Offering) (domain.Offering, error) {
	offering.Status = domain.OfferingActive
	offering.CurrentParticipants = 0

	created, err := s.repo.Create(ctx, offering)
	if err != nil {
		return domain.Offering{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	s.ledger.Register(created)

	return created, nil
}

func (s *OfferingService) GetOffering(ctx context.Context, id uint) (domain.Offering, error) {
	offering, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOfferingNotFound) {
			return domain.Offering{}, ErrOfferingNotFound
		}

		return domain.Offering{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return s.overlayLiveState(offering), nil
}

func (s *OfferingService) ListOfferings(ctx context.Context) ([]domain.Offering, error) {
	offerings, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAll -> %w", err)
	}

	for i := range offerings {
		offerings[i] = s.overlayLiveState(offerings[i])
	}

	return offerings, nil
}

// Snapshot is the read model for the initial page render: live counter,
// status, and server-confirmed price. Callers should treat it as already
// stale and switch to the live channel once connected.
func (s *OfferingService) Snapshot(offeringID uint) (domain.OfferingSnapshot, error) {
	snap, err := s.ledger.Snapshot(offeringID)
	if err != nil {
		return domain.OfferingSnapshot{}, err
	}

	quote := pricing.Resolve(snap.Count, snap.BasePrice, snap.Rules)

	return domain.OfferingSnapshot{
		CurrentParticipants: snap.Count,
		TargetParticipants:  snap.Target,
		Status:              snap.Status,
		EffectivePrice:      quote.EffectivePrice,
		DiscountPercent:     quote.DiscountPercent,
	}, nil
}

func (s *OfferingService) GetParticipants(ctx context.Context, offeringID uint) ([]domain.ParticipantRecord, error) {
	if _, err := s.repo.FindByID(ctx, offeringID); err != nil {
		if errors.Is(err, repository.ErrOfferingNotFound) {
			return nil, ErrOfferingNotFound
		}

		return nil, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	records, err := s.repo.FindParticipants(ctx, offeringID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindParticipants -> %w", err)
	}

	return records, nil
}

// overlayLiveState replaces the persisted counter and status with the
// ledger's view when the offering is registered there.
func (s *OfferingService) overlayLiveState(offering domain.Offering) domain.Offering {
	snap, err := s.ledger.Snapshot(offering.ID)
	if err != nil {
		return offering
	}

	offering.CurrentParticipants = snap.Count
	offering.Status = snap.Status

	return offering
}
