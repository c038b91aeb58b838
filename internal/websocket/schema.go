package websocket

// ─── Activity events (Server → Client) ──────────────────────────────

type ActivityType string

const (
	ActivityTaskCompleted       ActivityType = "task_completed"
	ActivityAchievementUnlocked ActivityType = "achievement_unlocked"
	ActivityCertificateIssued   ActivityType = "certificate_issued"
)

// ActivityEvent is broadcast on the Redis activity channel and forwarded
// verbatim to feed subscribers.
type ActivityEvent struct {
	Type      ActivityType `json:"type"`
	UserID    int          `json:"user_id"`
	Detail    string       `json:"detail"`
	XP        int          `json:"xp,omitempty"`
	Timestamp string       `json:"timestamp"`
}

// ─── Control messages (Client → Server) ─────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

type Event string

const (
	EventError Event = "error"
	EventPong  Event = "pong"
)

type PongResponse struct {
	Event Event `json:"event"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}
