package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"quiz-client/internal/api"
	"quiz-client/internal/domain"
)

// AttemptAPI is the slice of the API client the submitter needs.
type AttemptAPI interface {
	IsAuthenticated() bool
	PreviewAttempt(ctx context.Context, payload api.AttemptPayload) (domain.AttemptResult, error)
	CreateAttempt(ctx context.Context, payload api.AttemptPayload) (domain.AttemptResult, error)
}

// Outcome is the submitter's view of a finished submission.
type Outcome struct {
	State     domain.SaveState
	AttemptID int
	Result    domain.AttemptResult
}

// Submitter decides the guest vs. authenticated submission path for a
// finalized snapshot and tracks save status. It never retries on its own; a
// retry is always a new explicit Submit call, and a repeated Submit after a
// successful save returns the cached outcome unless forced.
type Submitter struct {
	api    AttemptAPI
	logger zerolog.Logger

	mu        sync.Mutex
	state     domain.SaveState
	attemptID int
	cached    *domain.AttemptResult
}

func NewSubmitter(client AttemptAPI, logger zerolog.Logger) *Submitter {
	return &Submitter{api: client, logger: logger, state: domain.SaveIdle}
}

// Submit scores the snapshot. Guests hit the preview endpoint and are never
// assigned an attempt ID; authenticated users hit the persisting endpoint.
// Any failure restores the pre-call state so a manual retry stays possible.
func (s *Submitter) Submit(ctx context.Context, snap domain.FinalizedSnapshot, force bool) (Outcome, error) {
	// A real snapshot always carries an answers map, even an empty one.
	if snap.Answers == nil {
		return Outcome{State: domain.SaveIdle}, domain.ErrNotFinalized
	}
	guest := !s.api.IsAuthenticated()

	s.mu.Lock()
	if s.state == domain.SaveSaved && s.cached != nil && !force {
		out := Outcome{State: s.state, AttemptID: s.attemptID, Result: *s.cached}
		s.mu.Unlock()
		s.logger.Debug().Int("attempt_id", out.AttemptID).Msg("already saved, returning cached outcome")
		return out, nil
	}
	baseline := s.state
	if guest {
		s.state = domain.SaveGuest
	} else {
		s.state = domain.SaveSaving
	}
	s.mu.Unlock()

	payload, err := api.NewAttemptPayload(snap.TestID, snap.Reason, snap.Answers)
	if err != nil {
		return s.fail(baseline, guest, err)
	}

	if guest {
		result, err := s.api.PreviewAttempt(ctx, payload)
		if err != nil {
			return s.fail(baseline, guest, err)
		}
		return s.succeed(domain.SaveGuest, 0, result), nil
	}

	result, err := s.api.CreateAttempt(ctx, payload)
	if err != nil {
		return s.fail(baseline, guest, err)
	}
	s.logger.Info().Int("attempt_id", result.AttemptID).Int("score", result.Score).Msg("attempt saved")
	return s.succeed(domain.SaveSaved, result.AttemptID, result), nil
}

// State returns the current save state and server attempt ID, if any.
func (s *Submitter) State() (domain.SaveState, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.attemptID
}

func (s *Submitter) succeed(state domain.SaveState, attemptID int, result domain.AttemptResult) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.attemptID = attemptID
	s.cached = &result
	return Outcome{State: state, AttemptID: attemptID, Result: result}
}

// fail restores the pre-call baseline so the state never sticks at Saving.
// A guest failure still reads Guest, matching what the user was shown.
func (s *Submitter) fail(baseline domain.SaveState, guest bool, err error) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if guest {
		s.state = domain.SaveGuest
	} else if baseline == domain.SaveSaved {
		s.state = baseline
	} else {
		s.state = domain.SaveIdle
	}
	s.logger.Debug().Err(err).Str("state", s.state.String()).Msg("submission failed")
	return Outcome{State: s.state, AttemptID: s.attemptID}, err
}
