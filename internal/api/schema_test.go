package api_test

import (
	"encoding/json"
	"errors"
	"testing"

	"quiz-client/internal/api"
	"quiz-client/internal/domain"
)

func TestNewAttemptPayload(t *testing.T) {
	payload, err := api.NewAttemptPayload(7, "", map[int]int{1: 12, 2: 21})
	if err != nil {
		t.Fatalf("build payload: %v", err)
	}
	if payload.FinishedReason != domain.FinishCompleted {
		t.Fatalf("empty reason must default to completed, got %q", payload.FinishedReason)
	}
	if payload.Answers["1"] != 12 || payload.Answers["2"] != 21 {
		t.Fatalf("answers not keyed by decimal question id: %v", payload.Answers)
	}
}

func TestNewAttemptPayloadRejectsBadInput(t *testing.T) {
	var verr *domain.ValidationError

	if _, err := api.NewAttemptPayload(0, domain.FinishCompleted, map[int]int{1: 2}); !errors.As(err, &verr) {
		t.Fatalf("expected validation error for missing test id, got %v", err)
	}
	if _, err := api.NewAttemptPayload(7, "abandoned", map[int]int{1: 2}); !errors.As(err, &verr) {
		t.Fatalf("expected validation error for unknown reason, got %v", err)
	}
	if _, err := api.NewAttemptPayload(7, domain.FinishCompleted, map[int]int{-1: 2}); !errors.As(err, &verr) {
		t.Fatalf("expected validation error for negative question id, got %v", err)
	}
}

func TestNewAttemptPayloadFromEntries(t *testing.T) {
	entries := []api.AnswerEntry{
		{QuestionID: 1, ChoiceID: 11},
		{QuestionID: 0, ChoiceID: 5}, // ignored
		{QuestionID: 1, ChoiceID: 12},
		{QuestionID: 2, ChoiceID: 21},
	}
	payload, err := api.NewAttemptPayloadFromEntries(7, domain.FinishTimeout, entries)
	if err != nil {
		t.Fatalf("build payload: %v", err)
	}
	if len(payload.Answers) != 2 {
		t.Fatalf("expected two answers, got %v", payload.Answers)
	}
	if payload.Answers["1"] != 12 {
		t.Fatalf("later entry for the same question must win, got %v", payload.Answers)
	}
}

func TestAttemptPayloadWireShape(t *testing.T) {
	payload, err := api.NewAttemptPayload(7, domain.FinishTimeout, map[int]int{3: 31})
	if err != nil {
		t.Fatalf("build payload: %v", err)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var wire map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wire); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(wire["test_id"]) != "7" {
		t.Fatalf("test_id must be numeric, got %s", wire["test_id"])
	}
	if string(wire["finished_reason"]) != `"timeout"` {
		t.Fatalf("unexpected reason: %s", wire["finished_reason"])
	}
	if string(wire["answers"]) != `{"3":31}` {
		t.Fatalf("unexpected answers: %s", wire["answers"])
	}
}
