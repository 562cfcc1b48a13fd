package dao

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrOfferingNotFound    = errors.New("offering not found")
	ErrParticipantExists   = errors.New("participant already recorded for this offering")
	ErrParticipantNotFound = errors.New("participant not recorded for this offering")
)

type Offering struct {
	ID                  uint    `gorm:"primaryKey"`
	GuideID             uint    `gorm:"not null;index"`
	Title               string  `gorm:"not null"`
	Description         string
	Location            string
	Kind                string  `gorm:"not null"` // "tour" or "service"
	BasePrice           float64 `gorm:"not null"`
	TargetParticipants  int     `gorm:"not null"`
	CurrentParticipants int     `gorm:"not null;default:0"`
	Status              string  `gorm:"not null;default:active;index"`
	DiscountRules       []DiscountRule `gorm:"foreignKey:OfferingID"`
	StartsAt            time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type DiscountRule struct {
	ID              uint `gorm:"primaryKey"`
	OfferingID      uint `gorm:"not null;index"`
	Threshold       int  `gorm:"not null"`
	DiscountPercent int  `gorm:"not null"`
}

type ParticipantRecord struct {
	ID         uint      `gorm:"primaryKey"`
	OfferingID uint      `gorm:"not null;uniqueIndex:idx_participant_offering_user"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_participant_offering_user"`
	PricePaid  float64   `gorm:"not null"`
	JoinedAt   time.Time `gorm:"not null"`
}

type OfferingDAO struct {
	db *gorm.DB
}

func NewOfferingDAO(db *gorm.DB) *OfferingDAO {
	return &OfferingDAO{
		db: db,
	}
}

func (d *OfferingDAO) Insert(ctx context.Context, offering Offering) (Offering, error) {
	result := d.db.WithContext(ctx).Create(&offering)
	if result.Error != nil {
		return Offering{}, result.Error
	}

	return offering, nil
}

func (d *OfferingDAO) FindByID(ctx context.Context, id uint) (Offering, error) {
	var offering Offering

	result := d.db.WithContext(ctx).Preload("DiscountRules").First(&offering, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Offering{}, ErrOfferingNotFound
		}

		return Offering{}, result.Error
	}

	return offering, nil
}

func (d *OfferingDAO) FindAll(ctx context.Context) ([]Offering, error) {
	var offerings []Offering

	result := d.db.WithContext(ctx).
		Preload("DiscountRules").
		Order("created_at DESC").
		Find(&offerings)
	if result.Error != nil {
		return nil, result.Error
	}

	return offerings, nil
}

// FindByStatuses is used to warm the capacity ledger after a restart.
func (d *OfferingDAO) FindByStatuses(ctx context.Context, statuses []string) ([]Offering, error) {
	var offerings []Offering

	result := d.db.WithContext(ctx).
		Preload("DiscountRules").
		Where("status IN ?", statuses).
		Find(&offerings)
	if result.Error != nil {
		return nil, result.Error
	}

	return offerings, nil
}

// UpdateCounter writes the ledger-decided count and status through to the
// persisted row.
func (d *OfferingDAO) UpdateCounter(ctx context.Context, id uint, count int, status string) error {
	result := d.db.WithContext(ctx).
		Model(&Offering{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"current_participants": count,
			"status":               status,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOfferingNotFound
	}

	return nil
}

func (d *OfferingDAO) InsertParticipant(ctx context.Context, record ParticipantRecord) (ParticipantRecord, error) {
	result := d.db.WithContext(ctx).Create(&record)
	if result.Error != nil {
		var err *pgconn.PgError
		if errors.As(result.Error, &err) && err.Code == pgerrcode.UniqueViolation {
			return ParticipantRecord{}, ErrParticipantExists
		}

		return ParticipantRecord{}, result.Error
	}

	return record, nil
}

func (d *OfferingDAO) DeleteParticipant(ctx context.Context, offeringID, userID uint) error {
	result := d.db.WithContext(ctx).
		Where("offering_id = ? AND user_id = ?", offeringID, userID).
		Delete(&ParticipantRecord{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrParticipantNotFound
	}

	return nil
}

func (d *OfferingDAO) HasParticipant(ctx context.Context, offeringID, userID uint) (bool, error) {
	var count int64

	result := d.db.WithContext(ctx).
		Model(&ParticipantRecord{}).
		Where("offering_id = ? AND user_id = ?", offeringID, userID).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}

	return count > 0, nil
}

func (d *OfferingDAO) FindParticipants(ctx context.Context, offeringID uint) ([]ParticipantRecord, error) {
	var records []ParticipantRecord

	result := d.db.WithContext(ctx).
		Where("offering_id = ?", offeringID).
		Order("joined_at ASC").
		Find(&records)
	if result.Error != nil {
		return nil, result.Error
	}

	return records, nil
}
