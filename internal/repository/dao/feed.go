package dao

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type FeedPost struct {
	ID        uint   `gorm:"primaryKey"`
	AuthorID  uint   `gorm:"not null;index"`
	Body      string `gorm:"not null"`
	CreatedAt time.Time
}

type FeedDAO struct {
	db *gorm.DB
}

func NewFeedDAO(db *gorm.DB) *FeedDAO {
	return &FeedDAO{
		db: db,
	}
}

func (d *FeedDAO) Insert(ctx context.Context, post FeedPost) (FeedPost, error) {
	result := d.db.WithContext(ctx).Create(&post)
	if result.Error != nil {
		return FeedPost{}, result.Error
	}

	return post, nil
}

func (d *FeedDAO) FindLatest(ctx context.Context, limit, offset int) ([]FeedPost, error) {
	var posts []FeedPost

	result := d.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts)
	if result.Error != nil {
		return nil, result.Error
	}

	return posts, nil
}
