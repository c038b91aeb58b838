package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/codequestlab/codequest-backend/internal/model"
	"github.com/codequestlab/codequest-backend/internal/repository"
)

// AchievementService grants milestone badges against cumulative counters.
type AchievementService struct {
	store repository.Store
	log   zerolog.Logger
}

// NewAchievementService creates a new AchievementService.
func NewAchievementService(store repository.Store, log zerolog.Logger) *AchievementService {
	return &AchievementService{
		store: store,
		log:   log.With().Str("component", "achievement_service").Logger(),
	}
}

// EvaluateForUser re-checks every achievement of the given condition type
// against the user's current counter and grants any whose threshold has been
// reached. Granting is idempotent: a badge the user already holds is a
// no-op and credits no XP; only freshly inserted unlocks credit the badge's
// XP reward. Returns the newly unlocked achievements.
func (s *AchievementService) EvaluateForUser(ctx context.Context, userID int, ct model.ConditionType) ([]model.Achievement, error) {
	count, err := s.counterFor(ctx, userID, ct)
	if err != nil {
		return nil, err
	}

	achievements, err := s.store.ListAchievementsByCondition(ctx, ct)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}

	var unlocked []model.Achievement
	for _, a := range achievements {
		if count < a.Threshold {
			// Thresholds are sorted ascending, nothing further can match.
			break
		}

		granted, err := s.store.GrantAchievement(ctx, userID, a.ID)
		if err != nil {
			return unlocked, fmt.Errorf("grant achievement %d: %w", a.ID, err)
		}
		if !granted {
			continue
		}

		if a.XPReward > 0 {
			if err := s.store.AddUserXP(ctx, userID, a.XPReward); err != nil {
				return unlocked, fmt.Errorf("credit achievement xp: %w", err)
			}
		}

		s.log.Info().
			Int("user_id", userID).
			Str("achievement", a.Name).
			Int("threshold", a.Threshold).
			Msg("Achievement unlocked")
		unlocked = append(unlocked, a)
	}

	return unlocked, nil
}

// ListForUser returns the user's unlocked badges with definitions attached.
func (s *AchievementService) ListForUser(ctx context.Context, userID int) ([]model.UserAchievement, error) {
	return s.store.ListUserAchievements(ctx, userID)
}

// ListAll returns every badge definition.
func (s *AchievementService) ListAll(ctx context.Context) ([]model.Achievement, error) {
	return s.store.ListAchievements(ctx)
}

// Create defines a new badge (admin).
func (s *AchievementService) Create(ctx context.Context, a *model.Achievement) error {
	return s.store.CreateAchievement(ctx, a)
}

// Delete removes a badge definition (admin).
func (s *AchievementService) Delete(ctx context.Context, id int) error {
	return s.store.DeleteAchievement(ctx, id)
}

func (s *AchievementService) counterFor(ctx context.Context, userID int, ct model.ConditionType) (int, error) {
	switch ct {
	case model.ConditionTasksCompleted:
		return s.store.CountCompletedTasks(ctx, userID)
	case model.ConditionCoursesCompleted:
		return s.store.CountCertificates(ctx, userID)
	default:
		return 0, fmt.Errorf("unknown condition type %q", ct)
	}
}
