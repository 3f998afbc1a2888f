package service

import (
	"context"
	"fmt"

	"filevault/internal/repository"
)

// StatsResult holds the aggregate counts exposed by the stats endpoint.
type StatsResult struct {
	Users int `json:"users"`
	Files int `json:"files"`
}

// StatsService reports aggregate store counts.
type StatsService interface {
	Stats(ctx context.Context) (*StatsResult, error)
}

type statsService struct {
	users repository.UserRepository
	files repository.FileRepository
}

// NewStatsService constructs a StatsService over both repositories.
func NewStatsService(users repository.UserRepository, files repository.FileRepository) StatsService {
	return &statsService{users: users, files: files}
}

func (s *statsService) Stats(ctx context.Context) (*StatsResult, error) {
	users, err := s.users.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	files, err := s.files.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("count files: %w", err)
	}
	return &StatsResult{Users: users, Files: files}, nil
}
