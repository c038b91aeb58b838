package model

import "time"

// ProgressRecord marks a (user, course, module?, task?) tuple as completed.
// The unique key covers the full tuple; NULL module/task values distinguish
// course-level and module-level records rather than acting as wildcards.
// Records are upserted, never duplicated.
type ProgressRecord struct {
	ID          int       `json:"id"`
	UserID      int       `json:"user_id"`
	CourseID    int       `json:"course_id"`
	ModuleID    *int      `json:"module_id,omitempty"`
	TaskID      *int      `json:"task_id,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

// XPEvent is an audit entry for a single XP credit, also pushed to the
// leaderboard worker queue.
type XPEvent struct {
	UserID int    `json:"user_id"`
	Amount int    `json:"amount"`
	Reason string `json:"reason"`
}
