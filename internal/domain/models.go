package domain

import "time"

// Choice is one selectable answer of a question.
type Choice struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// Question is a single-choice question. Immutable once fetched.
type Question struct {
	ID      int      `json:"id"`
	Text    string   `json:"text"`
	Choices []Choice `json:"choices"`
}

// TestDefinition is an ordered question set. Immutable once fetched.
type TestDefinition struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
}

// TestSummary is the catalog view of a test.
type TestSummary struct {
	ID             int    `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	QuestionsCount int    `json:"questions_count"`
}

// FinishReason says why an attempt ended. Values match the wire format.
type FinishReason string

const (
	FinishCompleted FinishReason = "completed"
	FinishTimeout   FinishReason = "timeout"
)

// SessionStatus is the lifecycle state of an attempt session.
// Transitions are monotonic: Loading -> InProgress -> Finalizing -> Finalized.
type SessionStatus int

const (
	StatusLoading SessionStatus = iota
	StatusInProgress
	StatusFinalizing
	StatusFinalized
)

func (s SessionStatus) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusInProgress:
		return "in_progress"
	case StatusFinalizing:
		return "finalizing"
	case StatusFinalized:
		return "finalized"
	}
	return "unknown"
}

// FinalizedSnapshot is the immutable answer state captured when a session
// finalizes. It, not the live session, is what gets submitted. Questions the
// user never reached are simply absent from Answers.
type FinalizedSnapshot struct {
	TestID  int
	Reason  FinishReason
	Answers map[int]int // question ID -> chosen choice ID
}

// SaveState tracks whether a finished attempt has been persisted server-side.
type SaveState int

const (
	SaveIdle SaveState = iota
	SaveGuest
	SaveSaving
	SaveSaved
	SaveError
)

func (s SaveState) String() string {
	switch s {
	case SaveIdle:
		return "idle"
	case SaveGuest:
		return "guest"
	case SaveSaving:
		return "saving"
	case SaveSaved:
		return "saved"
	case SaveError:
		return "error"
	}
	return "unknown"
}

// QuestionResult is the per-question breakdown of a scored attempt.
type QuestionResult struct {
	QuestionID       int  `json:"question_id"`
	SelectedChoiceID int  `json:"selected_choice_id"`
	CorrectChoiceID  int  `json:"correct_choice_id"`
	IsCorrect        bool `json:"is_correct"`
}

// AttemptResult is the scoring response for a submitted attempt. AttemptID is
// zero for guest previews, which are never persisted.
type AttemptResult struct {
	AttemptID      int              `json:"attempt_id"`
	TestID         int              `json:"test_id"`
	Score          int              `json:"score"`
	Total          int              `json:"total"`
	Percent        float64          `json:"percent"`
	FinishedReason FinishReason     `json:"finished_reason"`
	Results        []QuestionResult `json:"results"`
}

// AttemptSummary is one row of the authenticated user's attempt history.
type AttemptSummary struct {
	ID             int          `json:"id"`
	TestID         int          `json:"test"`
	TestTitle      string       `json:"test_title"`
	Score          int          `json:"score"`
	Total          int          `json:"total"`
	Percent        float64      `json:"percent"`
	FinishedReason FinishReason `json:"finished_reason"`
	StartedAt      time.Time    `json:"started_at"`
	FinishedAt     time.Time    `json:"finished_at"`
}

// User is the authenticated profile returned by the backend.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
