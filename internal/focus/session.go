package focus

import "time"

// Status is the state-machine state of a user's focus tracking.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusWorking Status = "working"
	StatusBreak   Status = "break"
)

// SegmentType distinguishes work from break segments.
type SegmentType string

const (
	SegmentWork  SegmentType = "work"
	SegmentBreak SegmentType = "break"
)

// Stale-segment handling: an open segment older than StaleSegmentAge is
// closed with a capped duration instead of recorded verbatim.
const (
	StaleSegmentAge     = 2 * time.Hour
	StaleWorkCapMinutes = 120
	StaleBreakCapMin    = 30
)

// Session limits evaluated by the tick loop.
const (
	// MaxDurationFactor times the goal triggers the max-duration
	// auto-pause.
	MaxDurationFactor = 1.5
	// AbsoluteMaxDuration force-pauses regardless of goal and takes
	// precedence over the goal-based limit.
	AbsoluteMaxDuration = 8 * time.Hour
)

// Session is one continuous study session.
type Session struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`

	GoalMinutes       int     `json:"goal_minutes"`
	TotalWorkMinutes  float64 `json:"total_work_minutes"`
	TotalBreakMinutes float64 `json:"total_break_minutes"`
	AdherencePct      float64 `json:"adherence_percentage"`
	IsActive          bool    `json:"is_active"`
	IsIncomplete      bool    `json:"is_incomplete,omitempty"`
	PointsEarned      int     `json:"points_earned"`
	PointsPenalty     int     `json:"points_penalty"`
}

// Segment is one contiguous work or break interval within a session.
type Segment struct {
	ID              string      `json:"id"`
	SessionID       string      `json:"session_id"`
	Type            SegmentType `json:"segment_type"`
	StartedAt       time.Time   `json:"started_at"`
	EndedAt         *time.Time  `json:"ended_at,omitempty"`
	DurationMinutes float64     `json:"duration_minutes"`
}

// Summary is returned when a session ends, built from locally-held
// values so it is available even when persistence is unreachable.
type Summary struct {
	SessionID         string  `json:"session_id"`
	GoalMinutes       int     `json:"goal_minutes"`
	TotalWorkMinutes  float64 `json:"total_work_minutes"`
	TotalBreakMinutes float64 `json:"total_break_minutes"`
	AdherencePct      float64 `json:"adherence_percentage"`
	BasePoints        int     `json:"base_points"`
	Penalty           int     `json:"penalty"`
	NetPoints         int     `json:"net_points"`
	IsIncomplete      bool    `json:"is_incomplete"`
	RecommendedBreak  int     `json:"recommended_break_minutes"`
}

// RecoveredState is what LoadActive reconstructs from stored segments.
type RecoveredState struct {
	Status       Status  `json:"status"`
	WorkSeconds  float64 `json:"work_seconds"`
	BreakSeconds float64 `json:"break_seconds"`
	// NeedsPrompt is set when a stale segment was healed and the user
	// should decide between resume and discard.
	NeedsPrompt bool `json:"needs_prompt"`
}
