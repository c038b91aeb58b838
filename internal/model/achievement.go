package model

import "time"

// ConditionType identifies the counter an achievement threshold applies to.
type ConditionType string

const (
	ConditionTasksCompleted   ConditionType = "tasks_completed"
	ConditionCoursesCompleted ConditionType = "courses_completed"
)

// TaskMilestones are the fixed thresholds re-checked after every accepted
// submission, in ascending order.
var TaskMilestones = []int{1, 5, 10, 25, 50, 100}

// Achievement is a badge definition keyed by a structured condition rather
// than any naming convention: ConditionType names the counter, Threshold the
// value the counter must reach.
type Achievement struct {
	ID            int           `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Icon          string        `json:"icon"`
	XPReward      int           `json:"xp_reward"`
	ConditionType ConditionType `json:"condition_type"`
	Threshold     int           `json:"threshold"`
	CreatedAt     time.Time     `json:"created_at"`
}

// UserAchievement records one unlocked badge. (UserID, AchievementID) is
// unique; granting an already-held badge is a no-op.
type UserAchievement struct {
	ID            int       `json:"id"`
	UserID        int       `json:"user_id"`
	AchievementID int       `json:"achievement_id"`
	UnlockedAt    time.Time `json:"unlocked_at"`

	Achievement *Achievement `json:"achievement,omitempty"`
}

// CreateAchievementRequest is the admin payload for defining a badge.
type CreateAchievementRequest struct {
	Name          string        `json:"name" binding:"required,min=2,max=100"`
	Description   string        `json:"description" binding:"max=500"`
	Icon          string        `json:"icon" binding:"max=100"`
	XPReward      int           `json:"xp_reward" binding:"gte=0"`
	ConditionType ConditionType `json:"condition_type" binding:"required,oneof=tasks_completed courses_completed"`
	Threshold     int           `json:"threshold" binding:"required,gte=1"`
}
