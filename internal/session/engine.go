package session

// #region imports
import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/s86039924-byte/stress-dost-engine/internal/genai"
	"github.com/s86039924-byte/stress-dost-engine/internal/meter"
	"github.com/s86039924-byte/stress-dost-engine/internal/personality"
	"github.com/s86039924-byte/stress-dost-engine/internal/selector"
	"github.com/s86039924-byte/stress-dost-engine/internal/trigger"
)

// #endregion

// #region store

// Store is the append-only log contract. Writes are fire-and-forget: a
// failure is logged and the session continues.
type Store interface {
	AppendSnapshot(snap Snapshot) error
	AppendResponse(sessionID string, rec trigger.Record) error
}

// #endregion

// #region config

// Config tunes the engine. Zero values fall back to defaults.
type Config struct {
	Meter          meter.Config
	MeterThreshold float64 // snapshot flag when any meter crosses this
	WindowSize     int     // difficulty window length
	DriftEvery     int     // responses between personality drift passes
	PreviousLimit  int     // shown texts forwarded to the provider
}

// DefaultConfig returns the documented engine defaults.
func DefaultConfig() Config {
	return Config{
		Meter:          meter.DefaultConfig(),
		MeterThreshold: 0.8,
		WindowSize:     4,
		DriftEvery:     10,
		PreviousLimit:  5,
	}
}

// #endregion

// #region engine

// Engine owns all sessions and sequences every mutation through the
// per-session lock. Sessions are independent; only the registry map is
// shared.
type Engine struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	sel      *selector.Selector
	assessor *personality.Assessor
	store    Store // may be nil
	cfg      Config
}

// NewEngine wires the engine. assessor may be nil when no questionnaire is
// configured; store may be nil to disable durable logging.
func NewEngine(sel *selector.Selector, assessor *personality.Assessor, store Store, cfg Config) *Engine {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 4
	}
	if cfg.DriftEvery <= 0 {
		cfg.DriftEvery = 10
	}
	if cfg.PreviousLimit <= 0 {
		cfg.PreviousLimit = 5
	}
	if cfg.MeterThreshold <= 0 {
		cfg.MeterThreshold = 0.8
	}
	if cfg.Meter == (meter.Config{}) {
		cfg.Meter = meter.DefaultConfig()
	}
	return &Engine{
		sessions: make(map[string]*Session),
		sel:      sel,
		assessor: assessor,
		store:    store,
		cfg:      cfg,
	}
}

func (e *Engine) lookup(id string) (*Session, error) {
	e.mu.RLock()
	s, ok := e.sessions[id]
	e.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// #endregion

// #region start

// Start creates a session. With includePersonality the session waits in
// awaiting_personality and rejects trigger requests until the
// questionnaire is submitted; otherwise it activates immediately.
func (e *Engine) Start(userID string, totalQuestions int, includePersonality bool) (Snapshot, error) {
	if userID == "" {
		return Snapshot{}, ErrUserRequired
	}
	if totalQuestions <= 0 {
		totalQuestions = 5
	}
	if includePersonality && e.assessor == nil {
		return Snapshot{}, errors.New("personality requested but no questionnaire configured")
	}

	s := &Session{
		id:                 uuid.New().String(),
		userID:             userID,
		state:              StateActive,
		difficulty:         e.cfg.Meter.DifficultyBaseline,
		seenTexts:          map[string]bool{},
		repeatCounts:       map[string]int{},
		lastNegative:       map[string]bool{},
		totalQuestions:     totalQuestions,
		includePersonality: includePersonality,
		window:             meter.NewDifficultyWindow(e.cfg.WindowSize),
		startTime:          time.Now().UTC(),
	}
	if includePersonality {
		s.state = StateAwaitingPersonality
	}

	e.mu.Lock()
	e.sessions[s.id] = s
	e.mu.Unlock()

	s.mu.Lock()
	snap := s.snapshotLocked(e.cfg.MeterThreshold)
	s.mu.Unlock()

	log.Printf("[SESSION] start id=%s user=%s state=%s questions=%d", snap.SessionID, userID, snap.State, totalQuestions)
	e.appendSnapshot(snap)
	return snap, nil
}

// #endregion

// #region personality

// PersonalityQuestions returns the questionnaire items in order.
func (e *Engine) PersonalityQuestions() []personality.Question {
	if e.assessor == nil {
		return nil
	}
	return e.assessor.Questions()
}

// SubmitPersonality scores the questionnaire and activates the session.
// Scoring failures leave the session in awaiting_personality so the taker
// can resubmit; a submission after activation fails with AlreadyFinalized.
func (e *Engine) SubmitPersonality(sessionID string, answers []personality.Answer) (Snapshot, error) {
	s, err := e.lookup(sessionID)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateEnded:
		return Snapshot{}, ErrSessionClosed
	case StateAwaitingPersonality:
	default:
		return Snapshot{}, ErrAlreadyFinalized
	}

	vec, err := e.assessor.Score(answers)
	if err != nil {
		return Snapshot{}, fmt.Errorf("score personality: %w", err)
	}
	s.vector = vec
	s.state = StateActive

	snap := s.snapshotLocked(e.cfg.MeterThreshold)
	log.Printf("[SESSION] personality finalized id=%s traits=%d", sessionID, len(vec))
	e.appendSnapshot(snap)
	return snap, nil
}

// #endregion

// #region get

// Get returns the current snapshot.
func (e *Engine) Get(sessionID string) (Snapshot, error) {
	s, err := e.lookup(sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(e.cfg.MeterThreshold), nil
}

// History returns a copy of the session's response records.
func (e *Engine) History(sessionID string) ([]trigger.Record, error) {
	s, err := e.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]trigger.Record, len(s.history))
	copy(out, s.history)
	return out, nil
}

// #endregion

// #region request-trigger

// Offer is one trigger presentation handed to the client.
type Offer struct {
	Trigger  trigger.Trigger `json:"trigger"`
	Source   trigger.Source  `json:"source"`
	Snapshot Snapshot        `json:"session"`
}

// RequestTrigger selects and issues the next trigger. The session lock is
// released around the generation call; a result arriving after session end
// is discarded without mutating state.
func (e *Engine) RequestTrigger(ctx context.Context, sessionID string, questionIndex int, label trigger.Category) (Offer, error) {
	s, err := e.lookup(sessionID)
	if err != nil {
		return Offer{}, err
	}

	s.mu.Lock()
	switch s.state {
	case StateEnded:
		s.mu.Unlock()
		return Offer{}, ErrSessionClosed
	case StateAwaitingPersonality:
		s.mu.Unlock()
		return Offer{}, ErrPendingPersonality
	}
	if s.inFlight {
		s.mu.Unlock()
		return Offer{}, ErrRequestInFlight
	}
	if questionIndex > s.questionIndex {
		s.questionIndex = questionIndex
	}

	var kindFilter trigger.Kind
	needsOptions := (s.shown+1)%2 == 0 // every second presentation probes with options
	if needsOptions {
		kindFilter = trigger.KindOptionBased
	}

	var trg trigger.Trigger
	var source trigger.Source

	if e.sel.Preferred(s.counts) == trigger.SourceGenerated {
		req := genai.Request{
			Meters:           s.meters,
			Difficulty:       s.difficulty,
			Category:         label,
			Previous:         s.recentTextsLocked(e.cfg.PreviousLimit),
			ForceOptionBased: needsOptions,
		}
		s.inFlight = true
		s.mu.Unlock()

		generated, genErr := e.sel.Generate(ctx, req)

		s.mu.Lock()
		s.inFlight = false
		if s.state == StateEnded {
			// Session ended while the call was outstanding; discard.
			s.mu.Unlock()
			return Offer{}, ErrSessionClosed
		}
		if genErr != nil {
			log.Printf("[SELECT] generation unavailable, substituting dataset trigger: %v", genErr)
			trg, err = e.sel.FromDataset(label, kindFilter, s.seenTexts)
			if err != nil {
				s.mu.Unlock()
				return Offer{}, err
			}
			source = trigger.SourceDataset
			s.counts.Dataset++
		} else {
			trg = generated
			source = trigger.SourceGenerated
			s.counts.Generated++
		}
	} else {
		trg, err = e.sel.FromDataset(label, kindFilter, s.seenTexts)
		if err != nil {
			s.mu.Unlock()
			return Offer{}, err
		}
		source = trigger.SourceDataset
		s.counts.Dataset++
	}

	issued := trg
	issued.Source = source
	issued.Value = round3(trg.Value * s.difficulty * s.window.Multiplier())

	s.seenTexts[trg.Text] = true
	s.shown++
	if s.pendingExtra > 0 {
		s.pendingExtra--
	}
	s.lastIssued = &issued

	snap := s.snapshotLocked(e.cfg.MeterThreshold)
	s.mu.Unlock()

	e.appendSnapshot(snap)
	return Offer{Trigger: issued, Source: source, Snapshot: snap}, nil
}

// recentTextsLocked returns up to limit of the most recently shown texts.
// Caller holds s.mu.
func (s *Session) recentTextsLocked(limit int) []string {
	start := len(s.history) - limit
	if start < 0 {
		start = 0
	}
	var out []string
	for _, rec := range s.history[start:] {
		out = append(out, rec.Trigger.Text)
	}
	return out
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// #endregion

// #region submit-response

// SubmitResponse scores the taker's reaction to the last issued trigger,
// updates meters and difficulty, and appends the audit record. A response
// for any other trigger is rejected without mutating state.
func (e *Engine) SubmitResponse(sessionID string, issued trigger.Trigger, resp trigger.Response) (Snapshot, error) {
	s, err := e.lookup(sessionID)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	switch s.state {
	case StateEnded:
		s.mu.Unlock()
		return Snapshot{}, ErrSessionClosed
	case StateAwaitingPersonality:
		s.mu.Unlock()
		return Snapshot{}, ErrPendingPersonality
	}
	if s.lastIssued == nil || !trigger.Same(*s.lastIssued, issued) {
		s.mu.Unlock()
		return Snapshot{}, ErrTriggerMismatch
	}
	// Score the server's issued snapshot, never the client echo: the echo
	// could carry rewritten option tones.
	issued = *s.lastIssued

	impact, err := meter.Score(e.cfg.Meter, issued, resp)
	if err != nil {
		s.mu.Unlock()
		return Snapshot{}, err
	}

	repeat := s.repeatCounts[issued.Text]
	impact = meter.RepeatModifier(e.cfg.Meter, impact, repeat, s.lastNegative[issued.Text])
	impact = meter.PerformanceModifier(e.cfg.Meter, impact, resp.QuestionTime, resp.AnswerCorrect)

	bias := 1.0
	if s.vector != nil {
		bias = meter.ClampBias(e.cfg.Meter, s.vector.Bias(issued.Category, e.cfg.Meter.BiasFloor, e.cfg.Meter.BiasCeil))
	}
	delta := impact * bias

	s.meters = meter.Apply(e.cfg.Meter, s.meters, issued.Category, delta)
	s.repeatCounts[issued.Text] = repeat + 1
	s.lastNegative[issued.Text] = resp.SelectedOption != nil &&
		issued.Kind == trigger.KindOptionBased &&
		*resp.SelectedOption >= 0 && *resp.SelectedOption < len(issued.Options) &&
		issued.Options[*resp.SelectedOption].Tone == trigger.ToneNegative

	s.difficulty = meter.AdjustDifficulty(e.cfg.Meter, s.difficulty, resp.AnswerCorrect)
	s.window.Add(resp.AnswerCorrect, resp.QuestionTime)
	if !resp.AnswerCorrect {
		// One extra psychological probe before the next question.
		s.pendingExtra++
	}

	rec := trigger.Record{
		QuestionIndex:  s.questionIndex,
		Trigger:        issued,
		SelectedOption: resp.SelectedOption,
		TimeTaken:      resp.TimeTaken,
		AnswerCorrect:  resp.AnswerCorrect,
		MeterDelta:     delta,
		Timestamp:      time.Now().UTC(),
	}
	s.history = append(s.history, rec)
	s.lastIssued = nil

	s.perf = append(s.perf, personality.Performance{
		Correct:      resp.AnswerCorrect,
		ResponseTime: resp.QuestionTime,
		Category:     issued.Category,
	})
	if s.vector != nil && len(s.perf)%e.cfg.DriftEvery == 0 {
		recent := s.perf
		if len(recent) > e.cfg.DriftEvery {
			recent = recent[len(recent)-e.cfg.DriftEvery:]
		}
		s.vector = personality.Drift(s.vector, recent)
	}

	snap := s.snapshotLocked(e.cfg.MeterThreshold)
	s.mu.Unlock()

	e.appendResponse(sessionID, rec)
	e.appendSnapshot(snap)
	return snap, nil
}

// #endregion

// #region end

// End closes the session and derives the final report. Irreversible.
func (e *Engine) End(sessionID string) (Report, error) {
	s, err := e.lookup(sessionID)
	if err != nil {
		return Report{}, err
	}

	s.mu.Lock()
	if s.state == StateEnded {
		s.mu.Unlock()
		return Report{}, ErrSessionClosed
	}
	s.state = StateEnded
	s.lastIssued = nil

	dominant, _ := s.meters.Dominant()
	responses := make([]trigger.Record, len(s.history))
	copy(responses, s.history)

	report := Report{
		SessionID:          s.id,
		UserID:             s.userID,
		FinalMeters:        s.meters,
		AverageMeter:       round3(s.meters.Average()),
		Dominant:           dominant,
		Severity:           s.meters.Severity(),
		Duration:           time.Since(s.startTime),
		QuestionsAttempted: s.questionIndex,
		TriggersShown:      s.shown,
		SourceCounts:       s.counts,
		FinalDifficulty:    round3(s.difficulty),
		Responses:          responses,
	}
	snap := s.snapshotLocked(e.cfg.MeterThreshold)
	s.mu.Unlock()

	log.Printf("[SESSION] end id=%s triggers=%d dataset=%d generated=%d severity=%s",
		sessionID, report.TriggersShown, report.SourceCounts.Dataset, report.SourceCounts.Generated, report.Severity)
	e.appendSnapshot(snap)
	return report, nil
}

// #endregion

// #region log-store

func (e *Engine) appendSnapshot(snap Snapshot) {
	if e.store == nil {
		return
	}
	if err := e.store.AppendSnapshot(snap); err != nil {
		log.Printf("[LOG] snapshot append failed: %v", err)
	}
}

func (e *Engine) appendResponse(sessionID string, rec trigger.Record) {
	if e.store == nil {
		return
	}
	if err := e.store.AppendResponse(sessionID, rec); err != nil {
		log.Printf("[LOG] response append failed: %v", err)
	}
}

// #endregion
