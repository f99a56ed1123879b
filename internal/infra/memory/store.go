package memory

import (
	"context"
	"sync"
	"time"

	"github.com/shyabid/rolevia/internal/domain"
)

// Store is an in-memory implementation of app.Store, used in tests and when
// no Postgres URL is configured.
type Store struct {
	clock func() time.Time

	mu         sync.RWMutex
	nextQuizID int64
	nextLogID  int64
	quizzes    map[int64]domain.Quiz
	settings   map[int64]domain.GuildSettings
	attempts   []domain.AttemptLog
	messages   map[int64]int64 // message id -> quiz id
}

func NewStore() *Store {
	return newStoreWithClock(time.Now)
}

func newStoreWithClock(clock func() time.Time) *Store {
	return &Store{
		clock:    clock,
		quizzes:  make(map[int64]domain.Quiz),
		settings: make(map[int64]domain.GuildSettings),
		messages: make(map[int64]int64),
	}
}

func (s *Store) CreateQuiz(_ context.Context, guildID int64, questions []domain.Question, roleID int64, passingPercentage int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextQuizID++
	quiz := domain.Quiz{
		ID:                s.nextQuizID,
		GuildID:           guildID,
		Questions:         copyQuestions(questions),
		RoleID:            roleID,
		PassingPercentage: passingPercentage,
		CreatedAt:         s.clock(),
	}
	s.quizzes[quiz.ID] = quiz
	return quiz.ID, nil
}

func (s *Store) GetQuiz(_ context.Context, quizID int64) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	quiz.Questions = copyQuestions(quiz.Questions)
	return quiz, nil
}

func (s *Store) SetLogChannel(_ context.Context, guildID, channelID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings := s.settings[guildID]
	settings.GuildID = guildID
	settings.LogChannelID = channelID
	s.settings[guildID] = settings
	return nil
}

func (s *Store) GetLogChannel(_ context.Context, guildID int64) (int64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	settings, ok := s.settings[guildID]
	if !ok || settings.LogChannelID == 0 {
		return 0, false, nil
	}
	return settings.LogChannelID, true, nil
}

func (s *Store) SetWebhookURL(_ context.Context, guildID int64, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings := s.settings[guildID]
	settings.GuildID = guildID
	settings.WebhookURL = url
	s.settings[guildID] = settings
	return nil
}

func (s *Store) GetWebhookURL(_ context.Context, guildID int64) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	settings, ok := s.settings[guildID]
	if !ok || settings.WebhookURL == "" {
		return "", false, nil
	}
	return settings.WebhookURL, true, nil
}

func (s *Store) LogAttempt(_ context.Context, attempt domain.AttemptLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextLogID++
	attempt.ID = s.nextLogID
	attempt.Timestamp = s.clock()
	s.attempts = append(s.attempts, attempt)
	return nil
}

func (s *Store) RecentAttempts(_ context.Context, guildID int64, limit int) ([]domain.AttemptLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.AttemptLog
	for i := len(s.attempts) - 1; i >= 0 && len(out) < limit; i-- {
		if s.attempts[i].GuildID == guildID {
			out = append(out, s.attempts[i])
		}
	}
	return out, nil
}

func (s *Store) LinkMessage(_ context.Context, messageID, channelID, guildID, quizID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[messageID] = quizID
	return nil
}

func (s *Store) QuizFromMessage(_ context.Context, messageID int64) (int64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quizID, ok := s.messages[messageID]
	return quizID, ok, nil
}

// copyQuestions guards record immutability against caller mutation.
func copyQuestions(questions []domain.Question) []domain.Question {
	out := make([]domain.Question, len(questions))
	for i, q := range questions {
		q.Options = append([]string(nil), q.Options...)
		q.CorrectAnswers = append([]int(nil), q.CorrectAnswers...)
		out[i] = q
	}
	return out
}
