package repository

import (
	"context"
	"fmt"

	"github.com/tourvia/groupbooking-api/internal/domain"
	"github.com/tourvia/groupbooking-api/internal/repository/dao"
)

var (
	ErrOfferingNotFound    = dao.ErrOfferingNotFound
	ErrParticipantExists   = dao.ErrParticipantExists
	ErrParticipantNotFound = dao.ErrParticipantNotFound
)

type OfferingDAO interface {
	Insert(ctx context.Context, offering dao.Offering) (dao.Offering, error)
	FindByID(ctx context.Context, id uint) (dao.Offering, error)
	FindAll(ctx context.Context) ([]dao.Offering, error)
	FindByStatuses(ctx context.Context, statuses []string) ([]dao.Offering, error)
	UpdateCounter(ctx context.Context, id uint, count int, status string) error
	InsertParticipant(ctx context.Context, record dao.ParticipantRecord) (dao.ParticipantRecord, error)
	DeleteParticipant(ctx context.Context, offeringID, userID uint) error
	HasParticipant(ctx context.Context, offeringID, userID uint) (bool, error)
	FindParticipants(ctx context.Context, offeringID uint) ([]dao.ParticipantRecord, error)
}

type OfferingRepository struct {
	dao OfferingDAO
}

func NewOfferingRepository(dao OfferingDAO) *OfferingRepository {
	return &OfferingRepository{
		dao: dao,
	}
}

func (r *OfferingRepository) Create(ctx context.Context, offering domain.Offering) (domain.Offering, error) {
	created, err := r.dao.Insert(ctx, r.domainToDao(offering))
	if err != nil {
		return domain.Offering{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *OfferingRepository) FindByID(ctx context.Context, id uint) (domain.Offering, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Offering{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *OfferingRepository) FindAll(ctx context.Context) ([]domain.Offering, error) {
	found, err := r.dao.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindAll -> %w", err)
	}

	return r.daosToDomain(found), nil
}

func (r *OfferingRepository) FindJoinable(ctx context.Context) ([]domain.Offering, error) {
	found, err := r.dao.FindByStatuses(ctx, []string{
		string(domain.OfferingActive),
		string(domain.OfferingFull),
	})
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByStatuses -> %w", err)
	}

	return r.daosToDomain(found), nil
}

func (r *OfferingRepository) UpdateCounter(ctx context.Context, id uint, count int, status domain.OfferingStatus) error {
	if err := r.dao.UpdateCounter(ctx, id, count, string(status)); err != nil {
		return fmt.Errorf("r.dao.UpdateCounter -> %w", err)
	}

	return nil
}

func (r *OfferingRepository) CreateParticipant(ctx context.Context, record domain.ParticipantRecord) (domain.ParticipantRecord, error) {
	created, err := r.dao.InsertParticipant(ctx, dao.ParticipantRecord{
		OfferingID: record.OfferingID,
		UserID:     record.UserID,
		PricePaid:  record.PricePaid,
		JoinedAt:   record.JoinedAt,
	})
	if err != nil {
		return domain.ParticipantRecord{}, fmt.Errorf("r.dao.InsertParticipant -> %w", err)
	}

	return r.participantDaoToDomain(created), nil
}

func (r *OfferingRepository) DeleteParticipant(ctx context.Context, offeringID, userID uint) error {
	if err := r.dao.DeleteParticipant(ctx, offeringID, userID); err != nil {
		return fmt.Errorf("r.dao.DeleteParticipant -> %w", err)
	}

	return nil
}

func (r *OfferingRepository) HasParticipant(ctx context.Context, offeringID, userID uint) (bool, error) {
	has, err := r.dao.HasParticipant(ctx, offeringID, userID)
	if err != nil {
		return false, fmt.Errorf("r.dao.HasParticipant -> %w", err)
	}

	return has, nil
}

func (r *OfferingRepository) FindParticipants(ctx context.Context, offeringID uint) ([]domain.ParticipantRecord, error) {
	found, err := r.dao.FindParticipants(ctx, offeringID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindParticipants -> %w", err)
	}

	records := make([]domain.ParticipantRecord, len(found))
	for i, rec := range found {
		records[i] = r.participantDaoToDomain(rec)
	}

	return records, nil
}

func (r *OfferingRepository) domainToDao(o domain.Offering) dao.Offering {
	rules := make([]dao.DiscountRule, len(o.DiscountRules))
	for i, rule := range o.DiscountRules {
		rules[i] = dao.DiscountRule{
			Threshold:       rule.Threshold,
			DiscountPercent: rule.DiscountPercent,
		}
	}

	return dao.Offering{
		ID:                  o.ID,
		GuideID:             o.GuideID,
		Title:               o.Title,
		Description:         o.Description,
		Location:            o.Location,
		Kind:                o.Kind,
		BasePrice:           o.BasePrice,
		TargetParticipants:  o.TargetParticipants,
		CurrentParticipants: o.CurrentParticipants,
		Status:              string(o.Status),
		DiscountRules:       rules,
		StartsAt:            o.StartsAt,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}
}

func (r *OfferingRepository) daoToDomain(o dao.Offering) domain.Offering {
	rules := make([]domain.DiscountRule, len(o.DiscountRules))
	for i, rule := range o.DiscountRules {
		rules[i] = domain.DiscountRule{
			Threshold:       rule.Threshold,
			DiscountPercent: rule.DiscountPercent,
		}
	}

	return domain.Offering{
		ID:                  o.ID,
		GuideID:             o.GuideID,
		Title:               o.Title,
		Description:         o.Description,
		Location:            o.Location,
		Kind:                o.Kind,
		BasePrice:           o.BasePrice,
		TargetParticipants:  o.TargetParticipants,
		CurrentParticipants: o.CurrentParticipants,
		Status:              domain.OfferingStatus(o.Status),
		DiscountRules:       rules,
		StartsAt:            o.StartsAt,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}
}

func (r *OfferingRepository) daosToDomain(offerings []dao.Offering) []domain.Offering {
	result := make([]domain.Offering, len(offerings))
	for i, o := range offerings {
		result[i] = r.daoToDomain(o)
	}

	return result
}

func (r *OfferingRepository) participantDaoToDomain(rec dao.ParticipantRecord) domain.ParticipantRecord {
	return domain.ParticipantRecord{
		ID:         rec.ID,
		OfferingID: rec.OfferingID,
		UserID:     rec.UserID,
		PricePaid:  rec.PricePaid,
		JoinedAt:   rec.JoinedAt,
	}
}
