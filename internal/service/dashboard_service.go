package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/codequestlab/codequest-backend/internal/model"
	"github.com/codequestlab/codequest-backend/internal/repository"
)

// Dashboard aggregates a learner's standing in one payload.
type Dashboard struct {
	User              model.User              `json:"user"`
	Rank              int                     `json:"rank"`
	CompletedTasks    int                     `json:"completed_tasks"`
	Achievements      []model.UserAchievement `json:"achievements"`
	Certificates      []model.Certificate     `json:"certificates"`
	RecentSubmissions []model.Submission      `json:"recent_submissions"`
}

// DashboardService builds the learner dashboard.
type DashboardService struct {
	store repository.Store
	log   zerolog.Logger
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(store repository.Store, log zerolog.Logger) *DashboardService {
	return &DashboardService{
		store: store,
		log:   log.With().Str("component", "dashboard_service").Logger(),
	}
}

// GetForUser assembles the dashboard for one learner.
func (s *DashboardService) GetForUser(ctx context.Context, userID int) (*Dashboard, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	rank, err := s.store.UserRankByXP(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve rank: %w", err)
	}

	completedTasks, err := s.store.CountCompletedTasks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count completed tasks: %w", err)
	}

	achievements, err := s.store.ListUserAchievements(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}

	certificates, err := s.store.ListCertificatesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}

	recent, err := s.store.ListSubmissionsByUser(ctx, userID, 10)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}

	return &Dashboard{
		User:              *user,
		Rank:              rank,
		CompletedTasks:    completedTasks,
		Achievements:      achievements,
		Certificates:      certificates,
		RecentSubmissions: recent,
	}, nil
}
