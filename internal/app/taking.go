package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shyabid/rolevia/internal/domain"
)

// TakingSession replays one quiz to one taker, a question at a time. Events
// arrive strictly ordered; once resolved, further submissions are rejected.
type TakingSession struct {
	id      string
	quiz    domain.Quiz
	takerID int64
	now     func() time.Time

	mu         sync.Mutex
	index      int
	correct    int
	resolved   bool
	lastActive time.Time
}

func NewTakingSession(quiz domain.Quiz, takerID int64) *TakingSession {
	return newTakingSessionWithClock(quiz, takerID, time.Now)
}

func newTakingSessionWithClock(quiz domain.Quiz, takerID int64, now func() time.Time) *TakingSession {
	return &TakingSession{
		id:         uuid.NewString(),
		quiz:       quiz,
		takerID:    takerID,
		now:        now,
		lastActive: now(),
	}
}

func (s *TakingSession) ID() string        { return s.id }
func (s *TakingSession) TakerID() int64    { return s.takerID }
func (s *TakingSession) Quiz() domain.Quiz { return s.quiz }

func (s *TakingSession) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// FirstPrompt presents the opening question.
func (s *TakingSession) FirstPrompt() domain.QuestionPrompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.promptLocked()
}

// Submit scores one answer and advances the cursor. Exactly one of the
// return values is set: the next prompt while questions remain, the result
// once the run resolves.
func (s *TakingSession) Submit(choice int) (*domain.QuestionPrompt, *domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resolved {
		return nil, nil, domain.ErrSessionResolved
	}

	question := s.quiz.Questions[s.index]
	if choice < 1 || choice > len(question.Options) {
		return nil, nil, domain.Validationf("answer must be between 1 and %d", len(question.Options))
	}
	if question.IsCorrect(choice) {
		s.correct++
	}
	s.index++
	s.lastActive = s.now()

	if s.index < len(s.quiz.Questions) {
		prompt := s.promptLocked()
		return &prompt, nil, nil
	}

	s.resolved = true
	total := len(s.quiz.Questions)
	// Original comparison: real-valued division, >=, no rounding up.
	passed := float64(s.correct) >= float64(total)*float64(s.quiz.PassingPercentage)/100
	return nil, &domain.Result{
		QuizID:     s.quiz.ID,
		TakerID:    s.takerID,
		Score:      s.correct,
		Total:      total,
		Percentage: float64(s.correct) / float64(total) * 100,
		Passed:     passed,
		RoleID:     s.quiz.RoleID,
	}, nil
}

func (s *TakingSession) promptLocked() domain.QuestionPrompt {
	question := s.quiz.Questions[s.index]
	return domain.QuestionPrompt{
		Index:    s.index + 1,
		Total:    len(s.quiz.Questions),
		Text:     question.Text,
		ImageURL: question.ImageURL,
		Controls: domain.QuestionControls(question.Options),
	}
}

// ResultEmbed renders a resolved run the way the result message shows it.
func ResultEmbed(result domain.Result, roleName string) domain.Embed {
	color := colorGreen
	outcome := fmt.Sprintf("You passed and received the %s role!", roleName)
	if !result.Passed {
		color = colorRed
		outcome = "You did not pass the quiz. Try again!"
	}
	return domain.Embed{
		Title:       "Quiz Results",
		Description: fmt.Sprintf("Score: %d/%d (%.2f%%)\n%s", result.Score, result.Total, result.Percentage, outcome),
		Color:       color,
	}
}

const (
	colorBlue  = 0x3498db
	colorGreen = 0x2ecc71
	colorRed   = 0xe74c3c
)
