package service

import (
	"context"
	"fmt"

	"github.com/tourvia/groupbooking-api/internal/domain"
)

type FeedRepository interface {
	Create(ctx context.Context, post domain.FeedPost) (domain.FeedPost, error)
	FindLatest(ctx context.Context, limit, offset int) ([]domain.FeedPost, error)
}

type FeedService struct {
	repo FeedRepository
}

func NewFeedService(repo FeedRepository) *FeedService {
	return &FeedService{
		repo: repo,
	}
}

func (s *FeedService) CreatePost(ctx context.Context, authorID uint, body string) (domain.FeedPost, error) {
	created, err := s.repo.Create(ctx, domain.FeedPost{
		AuthorID: authorID,
		Body:     body,
	})
	if err != nil {
		return domain.FeedPost{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *FeedService) ListPosts(ctx context.Context, limit, offset int) ([]domain.FeedPost, error) {
	posts, err := s.repo.FindLatest(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindLatest -> %w", err)
	}

	return posts, nil
}
