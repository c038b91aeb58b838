package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key holding a learner's active JWT ID.
func (r *CacheKeyStruct) UserSessionKey(userID int) string {
	return fmt.Sprintf("session:%d", userID)
}

// LeaderboardKey returns the sorted-set key for the global XP leaderboard.
func (r *CacheKeyStruct) LeaderboardKey() string {
	return "leaderboard:global"
}

// ActivityFeedChannel returns the Redis PubSub channel for platform activity
// events (task completed, achievement unlocked, certificate issued).
func (r *CacheKeyStruct) ActivityFeedChannel() string {
	return "activity:feed"
}

var CacheKey = NewCacheKeyStruct()
