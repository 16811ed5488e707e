package app_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"quiz-client/internal/app"
	"quiz-client/internal/domain"
)

func TestAdvanceCommitsPendingSelection(t *testing.T) {
	session := app.NewSession(threeQuestionTest(), 10*time.Minute)
	session.Start()

	if err := session.SelectChoice(1, 12); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if err := session.Advance(); err != nil {
		t.Fatalf("advance failed: %v", err)
	}

	answers := session.Answers()
	if answers[1] != 12 {
		t.Fatalf("expected answer 12 for question 1, got %v", answers)
	}
	if _, idx, _ := session.CurrentQuestion(); idx != 1 {
		t.Fatalf("expected cursor at question 1, got %d", idx)
	}
}

func TestSelectChoiceValidatesQuestionAndChoice(t *testing.T) {
	session := app.NewSession(threeQuestionTest(), 10*time.Minute)
	session.Start()

	if err := session.SelectChoice(2, 21); err != domain.ErrQuestionNotFound {
		t.Fatalf("expected question error for non-current question, got %v", err)
	}
	if err := session.SelectChoice(1, 99); err != domain.ErrChoiceNotFound {
		t.Fatalf("expected choice error, got %v", err)
	}
}

func TestLastAdvanceFinalizesCompleted(t *testing.T) {
	var snaps []domain.FinalizedSnapshot
	session := app.NewSession(threeQuestionTest(), 10*time.Minute,
		app.OnFinalize(func(s domain.FinalizedSnapshot) { snaps = append(snaps, s) }))
	session.Start()

	answer := func(qid, cid int) {
		t.Helper()
		if err := session.SelectChoice(qid, cid); err != nil {
			t.Fatalf("select q%d: %v", qid, err)
		}
		if err := session.Advance(); err != nil {
			t.Fatalf("advance q%d: %v", qid, err)
		}
	}
	answer(1, 11)
	answer(2, 22)
	answer(3, 31)

	if len(snaps) != 1 {
		t.Fatalf("expected exactly one snapshot, got %d", len(snaps))
	}
	if snaps[0].Reason != domain.FinishCompleted {
		t.Fatalf("expected completed, got %s", snaps[0].Reason)
	}
	if session.Status() != domain.StatusFinalized {
		t.Fatalf("expected finalized status, got %s", session.Status())
	}
}

func TestDeadlineCapturesPendingSelection(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var snap domain.FinalizedSnapshot
	session := app.NewSession(threeQuestionTest(), 10*time.Minute,
		app.WithClock(clock),
		app.OnFinalize(func(s domain.FinalizedSnapshot) { snap = s }))
	session.Start()

	if err := session.SelectChoice(1, 12); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if err := session.Advance(); err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	// Selected on question 2 but never advanced.
	if err := session.SelectChoice(2, 21); err != nil {
		t.Fatalf("select failed: %v", err)
	}

	clock.Advance(10*time.Minute + time.Second)
	if remaining := session.Tick(); remaining != 0 {
		t.Fatalf("expected zero remaining, got %v", remaining)
	}

	if snap.Reason != domain.FinishTimeout {
		t.Fatalf("expected timeout reason, got %q", snap.Reason)
	}
	want := map[int]int{1: 12, 2: 21}
	if len(snap.Answers) != len(want) {
		t.Fatalf("expected answers %v, got %v", want, snap.Answers)
	}
	for qid, cid := range want {
		if snap.Answers[qid] != cid {
			t.Fatalf("expected answers %v, got %v", want, snap.Answers)
		}
	}
	if _, ok := snap.Answers[3]; ok {
		t.Fatalf("unreached question must be absent, got %v", snap.Answers)
	}
}

func TestSnapshotImmutableAfterFinalize(t *testing.T) {
	var snap domain.FinalizedSnapshot
	session := app.NewSession(threeQuestionTest(), 10*time.Minute,
		app.OnFinalize(func(s domain.FinalizedSnapshot) { snap = s }))
	session.Start()

	_ = session.SelectChoice(1, 11)
	session.Abort()

	// Stray events after finalization must not reach the snapshot.
	if err := session.SelectChoice(1, 12); err != domain.ErrNotInProgress {
		t.Fatalf("expected no-op error after finalize, got %v", err)
	}
	if err := session.Advance(); err != domain.ErrNotInProgress {
		t.Fatalf("expected no-op error after finalize, got %v", err)
	}
	if snap.Answers[1] != 11 {
		t.Fatalf("snapshot changed after finalize: %v", snap.Answers)
	}
}

func TestConcurrentFinalizeTriggersSubmitOnce(t *testing.T) {
	for round := 0; round < 50; round++ {
		var calls atomic.Int32
		session := app.NewSession(threeQuestionTest(), 10*time.Minute,
			app.OnFinalize(func(domain.FinalizedSnapshot) { calls.Add(1) }))
		session.Start()

		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if i%2 == 0 {
					session.Finalize(domain.FinishTimeout)
				} else {
					session.Abort()
				}
			}(i)
		}
		wg.Wait()

		if got := calls.Load(); got != 1 {
			t.Fatalf("round %d: expected exactly one finalize handoff, got %d", round, got)
		}
	}
}

func TestTimerFinalizesOnDeadline(t *testing.T) {
	clock := clockwork.NewFakeClock()
	finalized := make(chan domain.FinalizedSnapshot, 1)
	session := app.NewSession(threeQuestionTest(), time.Second,
		app.WithClock(clock),
		app.OnFinalize(func(s domain.FinalizedSnapshot) { finalized <- s }))
	session.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ticks := make(chan time.Duration, 16)
	ran := make(chan struct{})
	go func() {
		app.NewTimer(session).Run(ctx, func(d time.Duration) { ticks <- d })
		close(ran)
	}()

	clock.BlockUntil(1)
	clock.Advance(app.DefaultTickInterval)
	if remaining := <-ticks; remaining != 750*time.Millisecond {
		t.Fatalf("expected 750ms remaining, got %v", remaining)
	}

	clock.Advance(time.Second)
	select {
	case snap := <-finalized:
		if snap.Reason != domain.FinishTimeout {
			t.Fatalf("expected timeout reason, got %q", snap.Reason)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("deadline never finalized the session")
	}

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not stop after the deadline")
	}
}

func TestTimerStopsOnCancel(t *testing.T) {
	clock := clockwork.NewFakeClock()
	session := app.NewSession(threeQuestionTest(), time.Minute, app.WithClock(clock))
	session.Start()

	ctx, cancel := context.WithCancel(context.Background())
	ran := make(chan struct{})
	go func() {
		app.NewTimer(session).Run(ctx, nil)
		close(ran)
	}()

	clock.BlockUntil(1)
	cancel()
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("timer kept running after teardown")
	}
	if session.Status() != domain.StatusInProgress {
		t.Fatalf("teardown must not finalize the session, got %s", session.Status())
	}
}

func threeQuestionTest() domain.TestDefinition {
	return domain.TestDefinition{
		ID:    7,
		Title: "Sample",
		Questions: []domain.Question{
			{ID: 1, Text: "first", Choices: []domain.Choice{{ID: 11, Text: "a"}, {ID: 12, Text: "b"}}},
			{ID: 2, Text: "second", Choices: []domain.Choice{{ID: 21, Text: "a"}, {ID: 22, Text: "b"}}},
			{ID: 3, Text: "third", Choices: []domain.Choice{{ID: 31, Text: "a"}, {ID: 32, Text: "b"}}},
		},
	}
}
