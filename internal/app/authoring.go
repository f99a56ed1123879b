package app

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shyabid/rolevia/internal/domain"
)

const (
	maxQuestions = 20
	maxOptions   = 20
)

type authoringState int

const (
	stateAwaitingCount authoringState = iota
	stateCollecting
	stateAwaitingRole
	stateAwaitingPercentage
	stateCompleted
)

// AuthoringSession is one live quiz-creation wizard. It is a strictly
// forward state machine: question count, then each question in order, then
// role, then passing percentage. Nothing is persisted until the final step.
type AuthoringSession struct {
	id       string
	guildID  int64
	authorID int64
	now      func() time.Time

	mu         sync.Mutex
	state      authoringState
	total      int
	questions  []domain.Question
	roleID     int64
	percentage int
	lastActive time.Time
}

func NewAuthoringSession(guildID, authorID int64) *AuthoringSession {
	return newAuthoringSessionWithClock(guildID, authorID, time.Now)
}

// newAuthoringSessionWithClock allows deterministic timestamps in tests.
func newAuthoringSessionWithClock(guildID, authorID int64, now func() time.Time) *AuthoringSession {
	return &AuthoringSession{
		id:         uuid.NewString(),
		guildID:    guildID,
		authorID:   authorID,
		now:        now,
		state:      stateAwaitingCount,
		lastActive: now(),
	}
}

func (s *AuthoringSession) ID() string      { return s.id }
func (s *AuthoringSession) GuildID() int64  { return s.guildID }
func (s *AuthoringSession) AuthorID() int64 { return s.authorID }

// LastActive returns the time of the most recent accepted interaction.
func (s *AuthoringSession) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Progress reports the 1-based cursor and total for the collection phase.
func (s *AuthoringSession) Progress() (current, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.questions), s.total
}

// CountPrompt asks how many questions the quiz will have.
func (s *AuthoringSession) CountPrompt() domain.ChoicePrompt {
	options := make([]domain.ChoiceOption, 0, maxQuestions)
	for i := 1; i <= maxQuestions; i++ {
		v := strconv.Itoa(i)
		options = append(options, domain.ChoiceOption{Label: v, Value: v})
	}
	return domain.ChoicePrompt{
		Message: "Select the number of questions:",
		Options: options,
		Min:     1,
		Max:     1,
	}
}

// SelectCount fixes the number of questions and returns the prompt for the
// first question.
func (s *AuthoringSession) SelectCount(value string) (domain.FieldPrompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateAwaitingCount {
		return domain.FieldPrompt{}, domain.Validationf("question count has already been chosen")
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 1 || n > maxQuestions {
		return domain.FieldPrompt{}, domain.Validationf("question count must be a number between 1 and %d", maxQuestions)
	}
	s.total = n
	s.state = stateCollecting
	s.lastActive = s.now()
	return s.questionPromptLocked(), nil
}

// SubmitQuestion validates and appends one question. On validation failure
// the cursor does not advance and the same prompt should be re-issued. The
// returned prompt is nil once all questions are collected.
func (s *AuthoringSession) SubmitQuestion(text, optionsRaw, answersRaw, imageURL string) (*domain.FieldPrompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateCollecting {
		return nil, domain.Validationf("not collecting questions right now")
	}

	question, err := parseQuestion(text, optionsRaw, answersRaw, imageURL)
	if err != nil {
		return nil, err
	}

	s.questions = append(s.questions, question)
	s.lastActive = s.now()
	if len(s.questions) < s.total {
		prompt := s.questionPromptLocked()
		return &prompt, nil
	}
	s.state = stateAwaitingRole
	return nil, nil
}

// RolePrompt builds the role selection from the guild's assignable roles.
// Managed roles and the everyone role are excluded by the caller's listing.
func (s *AuthoringSession) RolePrompt(roles []domain.Role) domain.ChoicePrompt {
	options := make([]domain.ChoiceOption, 0, len(roles))
	for _, role := range roles {
		options = append(options, domain.ChoiceOption{
			Label: role.Name,
			Value: strconv.FormatInt(role.ID, 10),
		})
	}
	return domain.ChoicePrompt{
		Message: "Select the role to assign upon quiz completion:",
		Options: options,
		Min:     1,
		Max:     1,
	}
}

// SelectRole records the role to grant and returns the percentage prompt.
func (s *AuthoringSession) SelectRole(roleID int64) (domain.ChoicePrompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateAwaitingRole {
		return domain.ChoicePrompt{}, domain.Validationf("not expecting a role selection right now")
	}
	s.roleID = roleID
	s.state = stateAwaitingPercentage
	s.lastActive = s.now()

	options := make([]domain.ChoiceOption, 0, 11)
	for pct := 0; pct <= 100; pct += 10 {
		options = append(options, domain.ChoiceOption{
			Label: fmt.Sprintf("%d%%", pct),
			Value: strconv.Itoa(pct),
		})
	}
	return domain.ChoicePrompt{
		Message: "Select the passing percentage:",
		Options: options,
		Min:     1,
		Max:     1,
	}, nil
}

// SelectPercentage records the passing bar and completes the wizard. The
// caller persists the snapshot; this session accepts no further input.
func (s *AuthoringSession) SelectPercentage(value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateAwaitingPercentage {
		return domain.Validationf("not expecting a passing percentage right now")
	}
	pct, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || pct < 0 || pct > 100 || pct%10 != 0 {
		return domain.Validationf("passing percentage must be a multiple of 10 between 0 and 100")
	}
	s.percentage = pct
	s.state = stateCompleted
	s.lastActive = s.now()
	return nil
}

// Snapshot returns the accumulated quiz definition once the wizard is done.
func (s *AuthoringSession) Snapshot() (questions []domain.Question, roleID int64, percentage int, completed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateCompleted {
		return nil, 0, 0, false
	}
	return s.questions, s.roleID, s.percentage, true
}

func (s *AuthoringSession) questionPromptLocked() domain.FieldPrompt {
	return domain.FieldPrompt{
		Title: fmt.Sprintf("Question %d/%d", len(s.questions)+1, s.total),
		Fields: []domain.FieldSpec{
			{Label: "Question:", Required: true},
			{Label: "Options (separated by |):", Required: true, MaxLength: 4000, Multiline: true},
			{Label: "Correct Answers (numbers):", Required: true},
			{Label: "Image Link:", Required: false},
		},
	}
}

// parseQuestion turns raw modal input into a validated question.
func parseQuestion(text, optionsRaw, answersRaw, imageURL string) (domain.Question, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Question{}, domain.Validationf("question text is required")
	}

	var options []string
	for _, opt := range strings.Split(optionsRaw, "|") {
		if opt = strings.TrimSpace(opt); opt != "" {
			options = append(options, opt)
		}
	}
	if len(options) == 0 {
		return domain.Question{}, domain.Validationf("at least one option is required")
	}
	if len(options) > maxOptions {
		return domain.Question{}, domain.Validationf("at most %d options are allowed", maxOptions)
	}

	var answers []int
	for _, raw := range strings.FieldsFunc(answersRaw, func(r rune) bool { return r == '|' || r == ',' }) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return domain.Question{}, domain.Validationf("correct answer %q is not a number", raw)
		}
		if n < 1 || n > len(options) {
			return domain.Question{}, domain.Validationf("correct answer %d is out of range 1-%d", n, len(options))
		}
		answers = append(answers, n)
	}
	if len(answers) == 0 {
		return domain.Question{}, domain.Validationf("at least one correct answer is required")
	}

	question := domain.Question{
		Text:           text,
		Options:        options,
		CorrectAnswers: answers,
		ImageURL:       strings.TrimSpace(imageURL),
	}
	question.NormalizeAnswers()
	return question, nil
}
