package worker

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/codequestlab/codequest-backend/internal/config"
	"github.com/codequestlab/codequest-backend/internal/model"
	"github.com/codequestlab/codequest-backend/internal/repository"
)

const (
	XPBatchSize    = 50
	XPBatchTimeout = 2 * time.Second
	XPPollTimeout  = 1 * time.Second
)

// LeaderboardWorker drains XP events from the Redis queue, appends them to
// the xp_events audit table in batches, and keeps the leaderboard sorted
// set in sync. The users.xp column is the source of truth (credited
// atomically by the services); everything here is derived state.
type LeaderboardWorker struct {
	store repository.Store
	rdb   *redis.Client
	log   zerolog.Logger
}

func NewLeaderboardWorker(store repository.Store, rdb *redis.Client, log zerolog.Logger) *LeaderboardWorker {
	return &LeaderboardWorker{
		store: store,
		rdb:   rdb,
		log:   log.With().Str("component", "leaderboard_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *LeaderboardWorker) Start(ctx context.Context) {
	w.log.Info().Msg("LeaderboardWorker started")

	batch := make([]model.XPEvent, 0, XPBatchSize)
	lastFlush := time.Now()

	for {
		// Should flush?
		if len(batch) > 0 &&
			(len(batch) >= XPBatchSize || time.Since(lastFlush) >= XPBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, XPPollTimeout, config.WorkerKey.XPEventsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var e model.XPEvent
			if err := json.Unmarshal([]byte(item[1]), &e); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, e)
		}
	}
}

// ----------------------------------------------------------------
// Batch flush
// ----------------------------------------------------------------

func (w *LeaderboardWorker) flushSafe(ctx context.Context, batch []model.XPEvent) {
	if len(batch) == 0 {
		return
	}

	if err := w.store.InsertXPEvents(ctx, batch); err != nil {
		w.log.Warn().Err(err).Msg("Bulk XP event insert failed, requeueing batch")
		for _, e := range batch {
			raw, _ := json.Marshal(e)
			w.rdb.RPush(ctx, config.WorkerKey.XPEventsQueue, raw)
		}
		return
	}

	// Audit trail persisted, now update the leaderboard cache.
	w.bumpLeaderboard(ctx, batch)
}

func (w *LeaderboardWorker) bumpLeaderboard(ctx context.Context, batch []model.XPEvent) {
	key := config.CacheKey.LeaderboardKey()
	pipe := w.rdb.Pipeline()
	for _, e := range batch {
		pipe.ZIncrBy(ctx, key, float64(e.Amount), strconv.Itoa(e.UserID))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		// The cache will be rebuilt lazily from users.xp; just log.
		w.log.Warn().Err(err).Msg("Leaderboard ZINCRBY pipeline failed")
	}
}
