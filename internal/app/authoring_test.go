package app_test

import (
	"context"
	"testing"

	"github.com/shyabid/rolevia/internal/domain"
)

func TestAuthoringFlowCreatesQuizOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)

	step, err := f.service.BeginAuthoring(ctx, testGuild, 42)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if step.Choice == nil || len(step.Choice.Options) != 20 {
		t.Fatalf("expected 20 count options, got %+v", step.Choice)
	}
	sessionID := step.SessionID

	step, err = f.service.SubmitChoice(ctx, sessionID, "2")
	if err != nil {
		t.Fatalf("select count: %v", err)
	}
	if step.Fields == nil || step.Fields.Title != "Question 1/2" {
		t.Fatalf("expected first question prompt, got %+v", step.Fields)
	}

	step, err = f.service.SubmitFields(ctx, sessionID, []string{"What is 2+2?", "3|4|5", "2", ""})
	if err != nil {
		t.Fatalf("submit question 1: %v", err)
	}
	if step.Fields == nil || step.Fields.Title != "Question 2/2" {
		t.Fatalf("expected second question prompt, got %+v", step.Fields)
	}

	step, err = f.service.SubmitFields(ctx, sessionID, []string{"Pick 1 or 3", "a|b|c", "1|3", "https://img.example/q.png"})
	if err != nil {
		t.Fatalf("submit question 2: %v", err)
	}
	if step.Choice == nil {
		t.Fatalf("expected role prompt, got %+v", step)
	}
	for _, opt := range step.Choice.Options {
		if opt.Label == "Bots" || opt.Label == "@everyone" {
			t.Fatalf("managed/everyone role offered: %+v", step.Choice.Options)
		}
	}

	step, err = f.service.SubmitChoice(ctx, sessionID, "100")
	if err != nil {
		t.Fatalf("select role: %v", err)
	}
	if step.Choice == nil || len(step.Choice.Options) != 11 {
		t.Fatalf("expected 11 percentage options, got %+v", step.Choice)
	}

	step, err = f.service.SubmitChoice(ctx, sessionID, "70")
	if err != nil {
		t.Fatalf("select percentage: %v", err)
	}
	if !step.Done || step.QuizID == 0 {
		t.Fatalf("expected completed wizard, got %+v", step)
	}
	if got := f.store.createCount(); got != 1 {
		t.Fatalf("expected exactly one create, got %d", got)
	}

	quiz, err := f.store.GetQuiz(ctx, step.QuizID)
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if quiz.RoleID != 100 || quiz.PassingPercentage != 70 || len(quiz.Questions) != 2 {
		t.Fatalf("unexpected record: %+v", quiz)
	}
	second := quiz.Questions[1]
	if len(second.CorrectAnswers) != 2 || second.CorrectAnswers[0] != 1 || second.CorrectAnswers[1] != 3 {
		t.Fatalf("expected answers {1,3}, got %v", second.CorrectAnswers)
	}
	if second.ImageURL != "https://img.example/q.png" {
		t.Fatalf("image url lost: %+v", second)
	}

	// Session is gone once the wizard completes.
	if _, err := f.service.SubmitChoice(ctx, sessionID, "70"); err != domain.ErrSessionNotFound {
		t.Fatalf("expected session gone, got %v", err)
	}
}

func TestQuestionValidationDoesNotAdvance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)

	step, _ := f.service.BeginAuthoring(ctx, testGuild, 42)
	sessionID := step.SessionID
	if _, err := f.service.SubmitChoice(ctx, sessionID, "1"); err != nil {
		t.Fatalf("select count: %v", err)
	}

	cases := [][]string{
		{"", "a|b", "1", ""},    // missing text
		{"q", "  |  ", "1", ""}, // empty options
		{"q", "a|b", "3", ""},   // answer out of range
		{"q", "a|b", "0", ""},   // answer below range
		{"q", "a|b", "two", ""}, // non-integer answer
		{"q", "a|b", "", ""},    // no answers
	}
	for _, values := range cases {
		if _, err := f.service.SubmitFields(ctx, sessionID, values); !domain.IsValidation(err) {
			t.Fatalf("expected validation error for %v, got %v", values, err)
		}
	}

	// The wizard is still on question 1 and accepts a valid submission.
	step, err := f.service.SubmitFields(ctx, sessionID, []string{"q", "a|b", "2", ""})
	if err != nil {
		t.Fatalf("valid submit rejected: %v", err)
	}
	if step.Choice == nil {
		t.Fatalf("expected role prompt after last question, got %+v", step)
	}
	if got := f.store.createCount(); got != 0 {
		t.Fatalf("store written before completion: %d", got)
	}
}

func TestAbandonedWizardWritesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)

	step, _ := f.service.BeginAuthoring(ctx, testGuild, 42)
	if _, err := f.service.SubmitChoice(ctx, step.SessionID, "3"); err != nil {
		t.Fatalf("select count: %v", err)
	}
	f.service.AbandonAuthoring(step.SessionID)

	if got := f.store.createCount(); got != 0 {
		t.Fatalf("abandoned wizard persisted a quiz: %d", got)
	}
	if _, err := f.service.SubmitFields(ctx, step.SessionID, []string{"q", "a", "1", ""}); err != domain.ErrSessionNotFound {
		t.Fatalf("expected session gone, got %v", err)
	}
}

func TestChoicesArriveInOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)

	step, _ := f.service.BeginAuthoring(ctx, testGuild, 42)
	sessionID := step.SessionID

	// A question submission before the count is chosen is rejected.
	if _, err := f.service.SubmitFields(ctx, sessionID, []string{"q", "a", "1", ""}); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := f.service.SubmitChoice(ctx, sessionID, "1"); err != nil {
		t.Fatalf("select count: %v", err)
	}
	// A second count selection is rejected; questions are still collected.
	if _, err := f.service.SubmitChoice(ctx, sessionID, "5"); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUnknownRoleRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)

	step, _ := f.service.BeginAuthoring(ctx, testGuild, 42)
	sessionID := step.SessionID
	_, _ = f.service.SubmitChoice(ctx, sessionID, "1")
	if _, err := f.service.SubmitFields(ctx, sessionID, []string{"q", "a|b", "1", ""}); err != nil {
		t.Fatalf("submit question: %v", err)
	}

	// Managed role id is filtered out of the assignable listing.
	if _, err := f.service.SubmitChoice(ctx, sessionID, "102"); err != domain.ErrRoleNotFound {
		t.Fatalf("expected role not found, got %v", err)
	}
	// The wizard still accepts a valid role afterwards.
	if _, err := f.service.SubmitChoice(ctx, sessionID, "101"); err != nil {
		t.Fatalf("valid role rejected: %v", err)
	}
}
