// Package session owns per-session mutable state and sequences trigger
// selection, scoring, and personality adjustment through the session
// lifecycle. All component errors are translated to the public kinds at
// this boundary; nothing internal leaks to the external interface.
package session

// #region imports
import (
	"errors"
	"sync"
	"time"

	"github.com/s86039924-byte/stress-dost-engine/internal/meter"
	"github.com/s86039924-byte/stress-dost-engine/internal/personality"
	"github.com/s86039924-byte/stress-dost-engine/internal/selector"
	"github.com/s86039924-byte/stress-dost-engine/internal/trigger"
)

// #endregion

// #region errors

var (
	// ErrSessionNotFound reports an unknown session id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionClosed reports any request against an ended session.
	ErrSessionClosed = errors.New("session closed")
	// ErrTriggerMismatch reports a response for a trigger other than the
	// last issued, unanswered one.
	ErrTriggerMismatch = errors.New("trigger mismatch")
	// ErrPendingPersonality reports a trigger request before the required
	// personality step completed.
	ErrPendingPersonality = errors.New("pending personality assessment")
	// ErrAlreadyFinalized reports a personality submission after the
	// session left awaiting_personality.
	ErrAlreadyFinalized = errors.New("personality already finalized")
	// ErrRequestInFlight reports a second trigger request while a
	// generation call is still outstanding for the session.
	ErrRequestInFlight = errors.New("trigger request in flight")
	// ErrUserRequired reports a session start without an owning taker.
	ErrUserRequired = errors.New("user_id required")
)

// #endregion

// #region state

// State is the session lifecycle state.
type State string

const (
	StateCreated             State = "created"
	StateAwaitingPersonality State = "awaiting_personality"
	StateActive              State = "active"
	StateEnded               State = "ended"
)

// #endregion

// #region session

// Session is one taker's run. All fields are guarded by mu; only this
// package mutates them.
type Session struct {
	mu sync.Mutex

	id     string
	userID string
	state  State

	meters     meter.Meters
	difficulty float64
	counts     selector.Counts
	shown      int // triggers issued, answered or not

	history      []trigger.Record
	seenTexts    map[string]bool
	repeatCounts map[string]int
	lastIssued   *trigger.Trigger
	lastNegative map[string]bool // trigger text -> last reaction chose the negative option

	questionIndex  int
	totalQuestions int
	pendingExtra   int // extra trigger presentations owed for wrong answers

	includePersonality bool
	vector             personality.Vector
	perf               []personality.Performance

	window    *meter.DifficultyWindow
	inFlight  bool
	startTime time.Time
}

// #endregion

// #region snapshot

// Snapshot is the read-only view of a session handed to clients and the
// log store.
type Snapshot struct {
	SessionID      string           `json:"session_id"`
	UserID         string           `json:"user_id"`
	State          State            `json:"state"`
	Meters         meter.Meters     `json:"meters"`
	Difficulty     float64          `json:"difficulty"`
	SourceCounts   selector.Counts  `json:"trigger_source_counts"`
	QuestionIndex  int              `json:"question_index"`
	TotalQuestions int              `json:"total_questions"`
	TriggersShown  int              `json:"triggers_shown"`
	Dominant       trigger.Category `json:"dominant_meter"`
	Severity       string           `json:"severity"`
	Personality    bool             `json:"personality_completed"`
	PendingExtra   int              `json:"pending_extra_triggers"`
	Threshold      bool             `json:"threshold_reached"`
	StartedAt      time.Time        `json:"started_at"`
}

// snapshotLocked builds a Snapshot. Caller holds s.mu.
func (s *Session) snapshotLocked(thresholdAt float64) Snapshot {
	dominant, _ := s.meters.Dominant()
	return Snapshot{
		SessionID:      s.id,
		UserID:         s.userID,
		State:          s.state,
		Meters:         s.meters,
		Difficulty:     s.difficulty,
		SourceCounts:   s.counts,
		QuestionIndex:  s.questionIndex,
		TotalQuestions: s.totalQuestions,
		TriggersShown:  s.shown,
		Dominant:       dominant,
		Severity:       s.meters.Severity(),
		Personality:    s.vector != nil,
		PendingExtra:   s.pendingExtra,
		Threshold:      s.meters.Max() >= thresholdAt,
		StartedAt:      s.startTime,
	}
}

// #endregion

// #region report

// Report is the final assessment derived from an ended session.
type Report struct {
	SessionID          string           `json:"session_id"`
	UserID             string           `json:"user_id"`
	FinalMeters        meter.Meters     `json:"final_meters"`
	AverageMeter       float64          `json:"average_meter"`
	Dominant           trigger.Category `json:"dominant_meter"`
	Severity           string           `json:"severity"`
	Duration           time.Duration    `json:"duration"`
	QuestionsAttempted int              `json:"questions_attempted"`
	TriggersShown      int              `json:"triggers_shown"`
	SourceCounts       selector.Counts  `json:"trigger_source_counts"`
	FinalDifficulty    float64          `json:"final_difficulty"`
	Responses          []trigger.Record `json:"responses"`
}

// #endregion
