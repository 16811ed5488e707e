package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"quiz-client/internal/app"
	"quiz-client/internal/config"
	"quiz-client/internal/domain"
)

func newTakeCmd() *cobra.Command {
	var durationFlag string
	cmd := &cobra.Command{
		Use:   "take <test-id>",
		Short: "Take a test against the clock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("test id must be a number: %q", args[0])
			}
			return runTake(cmd.Context(), id, durationFlag)
		},
	}
	cmd.Flags().StringVar(&durationFlag, "duration", "", "attempt duration, e.g. 10m (default from config)")
	return cmd
}

type submitDone struct {
	outcome app.Outcome
	err     error
}

func runTake(ctx context.Context, id int, durationFlag string) error {
	client, cfg, logger, err := buildClient()
	if err != nil {
		return err
	}
	test, err := client.GetTest(ctx, id)
	if err != nil {
		return err
	}
	if len(test.Questions) == 0 {
		return fmt.Errorf("test %d has no questions", id)
	}

	duration := config.Duration(durationFlag, config.Duration(cfg.Quiz.Duration, 10*time.Minute))
	submitter := app.NewSubmitter(client, logger)
	done := make(chan submitDone, 1)

	session := app.NewSession(test, duration,
		app.WithLogger(logger),
		app.OnFinalize(func(snap domain.FinalizedSnapshot) {
			outcome, err := submitter.Submit(context.Background(), snap, false)
			done <- submitDone{outcome: outcome, err: err}
		}),
	)

	fmt.Printf("%s: %d questions in %s. Answer with the choice number, q to quit.\n",
		test.Title, len(test.Questions), duration)
	session.Start()

	timerCtx, stopTimer := context.WithCancel(ctx)
	defer stopTimer()
	go app.NewTimer(session).Run(timerCtx, nil)

	lines := readLines(os.Stdin)

	var result submitDone
	gotResult := false

prompt:
	for session.Status() == domain.StatusInProgress {
		question, idx, ok := session.CurrentQuestion()
		if !ok {
			break
		}
		fmt.Printf("\n[%s] %d/%d  %s\n", formatMMSS(session.Remaining()), idx+1, session.QuestionCount(), question.Text)
		for j, choice := range question.Choices {
			fmt.Printf("  %d) %s\n", j+1, choice.Text)
		}
		fmt.Print("> ")

		select {
		case result = <-done:
			gotResult = true
			fmt.Println("\nTime is up, answers recorded.")
			break prompt
		case line, open := <-lines:
			if !open {
				session.Abort()
				break prompt
			}
			line = strings.TrimSpace(line)
			switch line {
			case "":
				continue
			case "q", "Q":
				fmt.Print("Quit and record current answers? [y/N] ")
				if confirm, open := <-lines; open && strings.EqualFold(strings.TrimSpace(confirm), "y") {
					session.Abort()
					break prompt
				}
			default:
				n, err := strconv.Atoi(line)
				if err != nil || n < 1 || n > len(question.Choices) {
					fmt.Printf("Enter a number between 1 and %d, or q to quit.\n", len(question.Choices))
					continue
				}
				if err := session.SelectChoice(question.ID, question.Choices[n-1].ID); err != nil {
					break prompt // deadline won the race
				}
				if err := session.Advance(); err != nil {
					break prompt
				}
			}
		}
	}
	stopTimer()

	// Everything past the prompt loop finalizes; make sure a snapshot exists
	// even on unusual exits (closed stdin before any answer).
	session.Finalize(domain.FinishCompleted)
	if !gotResult {
		result = <-done
	}

	if result.err != nil {
		fmt.Printf("Could not submit the result: %v\n", result.err)
		result = retrySave(ctx, session, submitter, lines, result)
	}
	if result.err == nil {
		renderResult(test, result.outcome)
	}
	return nil
}

// retrySave lets the user retry a failed submission. Retries are explicit
// and forced, so a prior partial state never blocks them.
func retrySave(ctx context.Context, session *app.Session, submitter *app.Submitter, lines <-chan string, last submitDone) submitDone {
	snap, ok := session.Snapshot()
	if !ok {
		return last
	}
	for {
		fmt.Print("Retry submission? [y/N] ")
		line, open := <-lines
		if !open || !strings.EqualFold(strings.TrimSpace(line), "y") {
			return last
		}
		outcome, err := submitter.Submit(ctx, snap, true)
		if err == nil {
			return submitDone{outcome: outcome}
		}
		fmt.Printf("Submission failed again: %v\n", err)
		last = submitDone{outcome: outcome, err: err}
	}
}

func renderResult(test domain.TestDefinition, outcome app.Outcome) {
	res := outcome.Result
	reason := "completed"
	if res.FinishedReason == domain.FinishTimeout {
		reason = "time ran out"
	}
	fmt.Printf("\nScore: %d/%d (%.0f%%), %s\n", res.Score, res.Total, res.Percent, reason)

	switch outcome.State {
	case domain.SaveSaved:
		fmt.Printf("Saved to your account (attempt #%d).\n", outcome.AttemptID)
	case domain.SaveGuest:
		fmt.Println("Guest mode: result shown but not saved. Log in to keep your results.")
	}

	byQuestion := make(map[int]domain.QuestionResult, len(res.Results))
	for _, r := range res.Results {
		byQuestion[r.QuestionID] = r
	}
	fmt.Println()
	for i, q := range test.Questions {
		r, answered := byQuestion[q.ID]
		switch {
		case !answered:
			fmt.Printf("%2d. - skipped: %s\n", i+1, q.Text)
		case r.IsCorrect:
			fmt.Printf("%2d. + %s\n", i+1, q.Text)
		default:
			fmt.Printf("%2d. x %s (correct: %s)\n", i+1, q.Text, choiceText(q, r.CorrectChoiceID))
		}
	}
}

func choiceText(q domain.Question, choiceID int) string {
	for _, c := range q.Choices {
		if c.ID == choiceID {
			return c.Text
		}
	}
	return fmt.Sprintf("choice %d", choiceID)
}

// readLines forwards stdin lines to a channel so the prompt loop can select
// between user input and the deadline firing.
func readLines(r *os.File) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

func formatMMSS(d time.Duration) string {
	total := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
