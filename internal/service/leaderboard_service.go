package service

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/codequestlab/codequest-backend/internal/config"
	"github.com/codequestlab/codequest-backend/internal/model"
	"github.com/codequestlab/codequest-backend/internal/repository"
)

// LeaderboardService reads the global XP ranking. The Redis sorted set is
// maintained by the leaderboard worker; when it is cold (empty or
// unreachable) the service falls back to Postgres ordered by users.xp.
type LeaderboardService struct {
	store repository.Store
	rdb   *redis.Client
	log   zerolog.Logger
}

// NewLeaderboardService creates a new LeaderboardService.
func NewLeaderboardService(store repository.Store, rdb *redis.Client, log zerolog.Logger) *LeaderboardService {
	return &LeaderboardService{
		store: store,
		rdb:   rdb,
		log:   log.With().Str("component", "leaderboard_service").Logger(),
	}
}

// Top returns the highest-XP learners, best first.
func (s *LeaderboardService) Top(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	entries, err := s.topFromRedis(ctx, limit)
	if err == nil && len(entries) > 0 {
		return entries, nil
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("Leaderboard cache read failed, falling back to Postgres")
	}

	return s.store.TopUsersByXP(ctx, limit)
}

func (s *LeaderboardService) topFromRedis(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	zs, err := s.rdb.ZRevRangeWithScores(ctx, config.CacheKey.LeaderboardKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]model.LeaderboardEntry, 0, len(zs))
	for i, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		userID, err := strconv.Atoi(member)
		if err != nil {
			continue
		}

		user, err := s.store.GetUserByID(ctx, userID)
		if err != nil {
			continue
		}

		entries = append(entries, model.LeaderboardEntry{
			Rank:   i + 1,
			UserID: userID,
			Name:   user.Name,
			XP:     int(z.Score),
		})
	}
	return entries, nil
}
