package api

import (
	"strconv"

	"github.com/go-playground/validator/v10"

	"quiz-client/internal/domain"
)

var validate = validator.New()

// AttemptPayload is the wire shape of a submission. The backend expects
// answer keys as strings, so the map is keyed by the decimal question ID.
type AttemptPayload struct {
	TestID         int                 `json:"test_id" validate:"required,gt=0"`
	FinishedReason domain.FinishReason `json:"finished_reason" validate:"required,oneof=completed timeout"`
	Answers        map[string]int      `json:"answers" validate:"dive,gt=0"`
}

// AnswerEntry is the historical list form of an answer pair, still accepted
// from older callers and normalized into the map form before dispatch.
type AnswerEntry struct {
	QuestionID int `json:"question_id"`
	ChoiceID   int `json:"choice_id"`
}

// NewAttemptPayload builds and validates a payload from a finalized answer
// mapping. An empty reason defaults to completed.
func NewAttemptPayload(testID int, reason domain.FinishReason, answers map[int]int) (AttemptPayload, error) {
	if reason == "" {
		reason = domain.FinishCompleted
	}
	wire := make(map[string]int, len(answers))
	for qid, cid := range answers {
		if qid <= 0 {
			return AttemptPayload{}, &domain.ValidationError{Field: "answers", Reason: "question id must be positive"}
		}
		wire[strconv.Itoa(qid)] = cid
	}
	p := AttemptPayload{TestID: testID, FinishedReason: reason, Answers: wire}
	if err := p.Validate(); err != nil {
		return AttemptPayload{}, err
	}
	return p, nil
}

// NewAttemptPayloadFromEntries normalizes the list form. Later entries for
// the same question win, matching the map-building order of older clients.
func NewAttemptPayloadFromEntries(testID int, reason domain.FinishReason, entries []AnswerEntry) (AttemptPayload, error) {
	answers := make(map[int]int, len(entries))
	for _, e := range entries {
		if e.QuestionID == 0 || e.ChoiceID == 0 {
			continue
		}
		answers[e.QuestionID] = e.ChoiceID
	}
	return NewAttemptPayload(testID, reason, answers)
}

// Validate checks the payload before any network call. An empty answers map
// is legal (a fully unanswered timeout), a missing one is not.
func (p AttemptPayload) Validate() error {
	if p.Answers == nil {
		return &domain.ValidationError{Field: "answers", Reason: "answers mapping is required"}
	}
	if err := validate.Struct(p); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			return &domain.ValidationError{
				Field:  errs[0].Field(),
				Reason: "failed " + errs[0].Tag() + " check",
			}
		}
		return &domain.ValidationError{Field: "payload", Reason: err.Error()}
	}
	for key := range p.Answers {
		if _, err := strconv.Atoi(key); err != nil {
			return &domain.ValidationError{Field: "answers", Reason: "question id must be numeric"}
		}
	}
	return nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

type tokenPairResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// attemptResponse tolerates both attempt_id and the plain id key some
// backend versions return for a persisted attempt.
type attemptResponse struct {
	domain.AttemptResult
	ID int `json:"id"`
}

func (r attemptResponse) result() domain.AttemptResult {
	res := r.AttemptResult
	if res.AttemptID == 0 {
		res.AttemptID = r.ID
	}
	return res
}
