package app

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"quiz-client/internal/domain"
)

// Session is the deadline-driven state machine for one test attempt. It owns
// the answer mapping, the question cursor and the pending selection, and
// guarantees that exactly one immutable snapshot is produced and handed to
// the finalize callback, no matter how many triggers race (deadline, user
// finish, abort).
//
// All state is guarded by one mutex; finalize performs its status
// check-and-set and snapshot capture inside the lock, before anything that
// can block. A trigger that loses the race observes a status other than
// InProgress and becomes a no-op.
type Session struct {
	test       domain.TestDefinition
	duration   time.Duration
	clock      clockwork.Clock
	logger     zerolog.Logger
	onFinalize func(domain.FinalizedSnapshot)

	mu        sync.Mutex
	status    domain.SessionStatus
	startedAt time.Time
	answers   map[int]int
	cursor    int
	pending   int // chosen choice ID for the current question, 0 = none
	snapshot  *domain.FinalizedSnapshot
}

// SessionOption customizes a session at construction time.
type SessionOption func(*Session)

// WithClock injects a clock for deterministic tests.
func WithClock(clock clockwork.Clock) SessionOption {
	return func(s *Session) { s.clock = clock }
}

// WithLogger attaches a logger to the session.
func WithLogger(logger zerolog.Logger) SessionOption {
	return func(s *Session) { s.logger = logger }
}

// OnFinalize registers the callback receiving the one finalized snapshot.
func OnFinalize(fn func(domain.FinalizedSnapshot)) SessionOption {
	return func(s *Session) { s.onFinalize = fn }
}

// NewSession creates a session in the Loading state. Start moves it to
// InProgress once the caller is ready to show the first question.
func NewSession(test domain.TestDefinition, duration time.Duration, opts ...SessionOption) *Session {
	s := &Session{
		test:     test,
		duration: duration,
		clock:    clockwork.NewRealClock(),
		logger:   zerolog.Nop(),
		status:   domain.StatusLoading,
		answers:  make(map[int]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the attempt: records the start instant and opens the session
// for answers. Calling it twice is a no-op.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.StatusLoading {
		return
	}
	s.startedAt = s.clock.Now()
	s.status = domain.StatusInProgress
	s.logger.Debug().Int("test_id", s.test.ID).Dur("duration", s.duration).Msg("attempt started")
}

// SelectChoice updates the pending selection for the currently displayed
// question without committing it to the answer mapping.
func (s *Session) SelectChoice(questionID, choiceID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.StatusInProgress {
		return domain.ErrNotInProgress
	}
	question, ok := s.questionAtLocked(s.cursor)
	if !ok || question.ID != questionID {
		return domain.ErrQuestionNotFound
	}
	for _, choice := range question.Choices {
		if choice.ID == choiceID {
			s.pending = choiceID
			return nil
		}
	}
	return domain.ErrChoiceNotFound
}

// Advance commits the pending selection for the current question and moves
// the cursor forward. On the last question it finalizes with reason
// completed instead.
func (s *Session) Advance() error {
	s.mu.Lock()
	if s.status != domain.StatusInProgress {
		s.mu.Unlock()
		return domain.ErrNotInProgress
	}
	s.commitPendingLocked()
	if s.cursor+1 < len(s.test.Questions) {
		s.cursor++
		s.mu.Unlock()
		return nil
	}
	s.finishAndUnlock(domain.FinishCompleted)
	return nil
}

// Tick recomputes the remaining time from the start instant, clamped at
// zero. Recomputing (rather than decrementing) tolerates missed intervals.
// Reaching zero while in progress finalizes with reason timeout.
func (s *Session) Tick() time.Duration {
	s.mu.Lock()
	if s.status != domain.StatusInProgress {
		s.mu.Unlock()
		return 0
	}
	remaining := s.duration - s.clock.Since(s.startedAt)
	if remaining > 0 {
		s.mu.Unlock()
		return remaining
	}
	s.finishAndUnlock(domain.FinishTimeout)
	return 0
}

// Abort is user-initiated early termination; current answers are kept.
func (s *Session) Abort() {
	s.Finalize(domain.FinishCompleted)
}

// Finalize freezes the session state and hands the snapshot off exactly
// once. Only the first call while the session is in progress has any
// effect; racing triggers are no-ops.
func (s *Session) Finalize(reason domain.FinishReason) {
	s.mu.Lock()
	if s.status != domain.StatusInProgress {
		s.mu.Unlock()
		return
	}
	s.finishAndUnlock(reason)
}

// finishAndUnlock captures the snapshot, then releases the lock before invoking
// the callback, so the handoff cannot deadlock against session reads. The
// status flip inside the lock is what makes racing triggers no-ops.
func (s *Session) finishAndUnlock(reason domain.FinishReason) {
	s.commitPendingLocked()
	snap := domain.FinalizedSnapshot{
		TestID:  s.test.ID,
		Reason:  reason,
		Answers: copyAnswers(s.answers),
	}
	s.snapshot = &snap
	s.status = domain.StatusFinalizing
	cb := s.onFinalize
	s.mu.Unlock()

	s.logger.Debug().Int("test_id", snap.TestID).Str("reason", string(reason)).
		Int("answered", len(snap.Answers)).Msg("attempt finalized")
	if cb != nil {
		cb(snap)
	}

	s.mu.Lock()
	s.status = domain.StatusFinalized
	s.mu.Unlock()
}

func (s *Session) commitPendingLocked() {
	if s.pending == 0 {
		return
	}
	if question, ok := s.questionAtLocked(s.cursor); ok {
		s.answers[question.ID] = s.pending
	}
	s.pending = 0
}

func (s *Session) questionAtLocked(idx int) (domain.Question, bool) {
	if idx < 0 || idx >= len(s.test.Questions) {
		return domain.Question{}, false
	}
	return s.test.Questions[idx], true
}

// Status returns the current lifecycle state.
func (s *Session) Status() domain.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Remaining reports the time left, clamped at zero, without side effects.
func (s *Session) Remaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == domain.StatusLoading {
		return s.duration
	}
	if s.status != domain.StatusInProgress {
		return 0
	}
	if remaining := s.duration - s.clock.Since(s.startedAt); remaining > 0 {
		return remaining
	}
	return 0
}

// CurrentQuestion returns the displayed question and its zero-based index.
func (s *Session) CurrentQuestion() (domain.Question, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	question, ok := s.questionAtLocked(s.cursor)
	return question, s.cursor, ok
}

// QuestionCount returns the number of questions in the definition.
func (s *Session) QuestionCount() int {
	return len(s.test.Questions)
}

// Snapshot returns the finalized snapshot, if one has been captured.
func (s *Session) Snapshot() (domain.FinalizedSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil {
		return domain.FinalizedSnapshot{}, false
	}
	return *s.snapshot, true
}

// Answers returns a copy of the committed answer mapping.
func (s *Session) Answers() map[int]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyAnswers(s.answers)
}

func copyAnswers(answers map[int]int) map[int]int {
	out := make(map[int]int, len(answers))
	for qid, cid := range answers {
		out[qid] = cid
	}
	return out
}
