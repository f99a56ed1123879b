package app_test

import (
	"context"
	"strings"
	"testing"

	"github.com/shyabid/rolevia/internal/domain"
	"github.com/shyabid/rolevia/internal/infra/memory"
)

// runQuiz answers every question of the quiz, the first `correct` of them
// correctly, and returns the final result.
func runQuiz(t *testing.T, f *fixture, quizID int64, takerID int64, total, correct int) *domain.Result {
	t.Helper()
	ctx := context.Background()

	sessionID, prompt, err := f.service.StartQuiz(ctx, testGuild, takerID, quizID)
	if err != nil {
		t.Fatalf("start quiz: %v", err)
	}
	if prompt.Index != 1 || prompt.Total != total {
		t.Fatalf("unexpected first prompt: %+v", prompt)
	}

	var result *domain.Result
	for i := 0; i < total; i++ {
		choice := 1 // correct
		if i >= correct {
			choice = 2
		}
		next, res, err := f.service.SubmitAnswer(ctx, sessionID, choice)
		if err != nil {
			t.Fatalf("answer %d: %v", i+1, err)
		}
		if i < total-1 {
			if next == nil || next.Index != i+2 {
				t.Fatalf("expected prompt for question %d, got %+v", i+2, next)
			}
		} else {
			result = res
		}
	}
	if result == nil {
		t.Fatalf("quiz did not resolve")
	}
	return result
}

func TestPassBoundary(t *testing.T) {
	f := newFixture(nil)
	quizID := seedQuiz(f, 10, 70)

	if result := runQuiz(t, f, quizID, 7, 10, 7); !result.Passed {
		t.Fatalf("7/10 at 70%% should pass, got %+v", result)
	}
	if result := runQuiz(t, f, quizID, 8, 10, 6); result.Passed {
		t.Fatalf("6/10 at 70%% should fail, got %+v", result)
	}
}

func TestFractionalThreshold(t *testing.T) {
	f := newFixture(nil)
	quizID := seedQuiz(f, 3, 50)

	// Required score is 1.5; real-valued comparison, no rounding.
	if result := runQuiz(t, f, quizID, 7, 3, 2); !result.Passed {
		t.Fatalf("2/3 at 50%% should pass, got %+v", result)
	}
	if result := runQuiz(t, f, quizID, 8, 3, 1); result.Passed {
		t.Fatalf("1/3 at 50%% should fail, got %+v", result)
	}
}

func TestMultiAnswerQuestion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)
	questions := []domain.Question{{
		Text:           "Pick 1 or 3",
		Options:        []string{"a", "b", "c"},
		CorrectAnswers: []int{1, 3},
	}}
	quizID, err := f.store.CreateQuiz(ctx, testGuild, questions, 100, 100)
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	for choice, wantPass := range map[int]bool{1: true, 2: false, 3: true} {
		sessionID, _, err := f.service.StartQuiz(ctx, testGuild, 7, quizID)
		if err != nil {
			t.Fatalf("start: %v", err)
		}
		_, result, err := f.service.SubmitAnswer(ctx, sessionID, choice)
		if err != nil {
			t.Fatalf("answer %d: %v", choice, err)
		}
		if result.Passed != wantPass {
			t.Fatalf("choice %d: expected passed=%v, got %+v", choice, wantPass, result)
		}
	}
}

func TestRoleGrantedOnPassOnly(t *testing.T) {
	f := newFixture(nil)
	quizID := seedQuiz(f, 2, 100)
	roles := f.roles.(*memory.StaticRoleManager)

	result := runQuiz(t, f, quizID, 7, 2, 2)
	if !result.Passed || !result.RoleGranted {
		t.Fatalf("expected pass with granted role, got %+v", result)
	}
	if granted := roles.GrantedRoles(7); len(granted) != 1 || granted[0] != 100 {
		t.Fatalf("expected role 100 granted, got %v", granted)
	}

	result = runQuiz(t, f, quizID, 8, 2, 1)
	if result.Passed || result.RoleGranted {
		t.Fatalf("expected fail without grant, got %+v", result)
	}
	if granted := roles.GrantedRoles(8); len(granted) != 0 {
		t.Fatalf("role granted on failure: %v", granted)
	}
}

func TestAttemptAlwaysLogged(t *testing.T) {
	ctx := context.Background()
	f := newFixture(newFailingRoleManager())
	quizID := seedQuiz(f, 2, 50)

	result := runQuiz(t, f, quizID, 7, 2, 2)
	if !result.Passed || result.RoleGranted {
		t.Fatalf("expected pass with failed grant, got %+v", result)
	}
	_ = runQuiz(t, f, quizID, 8, 2, 0)

	attempts, err := f.store.RecentAttempts(ctx, testGuild, 10)
	if err != nil {
		t.Fatalf("list attempts: %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("expected 2 attempt rows, got %d", len(attempts))
	}
	// Newest first.
	if attempts[0].UserID != 8 || attempts[0].Passed || attempts[0].Score != 0 {
		t.Fatalf("unexpected newest attempt: %+v", attempts[0])
	}
	if attempts[1].UserID != 7 || !attempts[1].Passed || attempts[1].Score != 2 {
		t.Fatalf("unexpected attempt: %+v", attempts[1])
	}
}

func TestLogChannelSummary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(newFailingRoleManager())
	quizID := seedQuiz(f, 1, 100)
	if err := f.service.SetLogChannel(ctx, testGuild, 555); err != nil {
		t.Fatalf("set log channel: %v", err)
	}

	_ = runQuiz(t, f, quizID, 7, 1, 1)

	sent := f.messenger.Sent()
	if len(sent) != 1 || sent[0].ChannelID != 555 {
		t.Fatalf("expected one summary on channel 555, got %+v", sent)
	}
	if !strings.Contains(sent[0].Embed.Description, "Role grant failed") {
		t.Fatalf("summary should mention grant failure: %q", sent[0].Embed.Description)
	}
}

func TestStaleSubmissionRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)
	quizID := seedQuiz(f, 1, 0)

	sessionID, _, err := f.service.StartQuiz(ctx, testGuild, 7, quizID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, _, err := f.service.SubmitAnswer(ctx, sessionID, 1); err != nil {
		t.Fatalf("answer: %v", err)
	}
	// The session resolved and was discarded; a replayed answer is rejected.
	if _, _, err := f.service.SubmitAnswer(ctx, sessionID, 1); err != domain.ErrSessionNotFound {
		t.Fatalf("expected session gone, got %v", err)
	}
}

func TestStartQuizFromMessage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)
	quizID := seedQuiz(f, 1, 0)
	if err := f.store.LinkMessage(ctx, 777, 10, testGuild, quizID); err != nil {
		t.Fatalf("link: %v", err)
	}

	_, prompt, err := f.service.StartQuizFromMessage(ctx, testGuild, 7, 777)
	if err != nil {
		t.Fatalf("start from message: %v", err)
	}
	if prompt.Total != 1 || len(prompt.Controls) != 2 {
		t.Fatalf("unexpected prompt: %+v", prompt)
	}

	if _, _, err := f.service.StartQuizFromMessage(ctx, testGuild, 7, 778); err != domain.ErrMessageNotLinked {
		t.Fatalf("expected unlinked error, got %v", err)
	}
}

func TestQuestionControlsNumberingRestarts(t *testing.T) {
	controls := domain.QuestionControls([]string{"alpha", "beta"})
	if len(controls) != 2 || controls[0].Label != "1. alpha" || controls[1].Tag != "2" {
		t.Fatalf("unexpected controls: %+v", controls)
	}
}
