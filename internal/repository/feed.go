package repository

import (
	"context"
	"fmt"

	"github.com/tourvia/groupbooking-api/internal/domain"
	"github.com/tourvia/groupbooking-api/internal/repository/dao"
)

type FeedDAO interface {
	Insert(ctx context.Context, post dao.FeedPost) (dao.FeedPost, error)
	FindLatest(ctx context.Context, limit, offset int) ([]dao.FeedPost, error)
}

type FeedRepository struct {
	dao FeedDAO
}

func NewFeedRepository(dao FeedDAO) *FeedRepository {
	return &FeedRepository{
		dao: dao,
	}
}

func (r *FeedRepository) Create(ctx context.Context, post domain.FeedPost) (domain.FeedPost, error) {
	created, err := r.dao.Insert(ctx, dao.FeedPost{
		AuthorID: post.AuthorID,
		Body:     post.Body,
	})
	if err != nil {
		return domain.FeedPost{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *FeedRepository) FindLatest(ctx context.Context, limit, offset int) ([]domain.FeedPost, error) {
	found, err := r.dao.FindLatest(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindLatest -> %w", err)
	}

	posts := make([]domain.FeedPost, len(found))
	for i, p := range found {
		posts[i] = r.daoToDomain(p)
	}

	return posts, nil
}

func (r *FeedRepository) daoToDomain(p dao.FeedPost) domain.FeedPost {
	return domain.FeedPost{
		ID:        p.ID,
		AuthorID:  p.AuthorID,
		Body:      p.Body,
		CreatedAt: p.CreatedAt,
	}
}
