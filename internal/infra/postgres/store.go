package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/shyabid/rolevia/internal/domain"
)

// Store persists quiz records in Postgres. Questions are serialized as
// JSONB; the store round-trips them without interpreting their structure.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) CreateQuiz(ctx context.Context, guildID int64, questions []domain.Question, roleID int64, passingPercentage int) (int64, error) {
	data, err := json.Marshal(questions)
	if err != nil {
		return 0, fmt.Errorf("marshal questions: %w", err)
	}
	var quizID int64
	err = s.pool.QueryRow(ctx,
		`INSERT INTO quiz_data (guild_id, questions, role_id, passing_percentage) VALUES ($1, $2, $3, $4) RETURNING id`,
		guildID, data, roleID, passingPercentage).Scan(&quizID)
	if err != nil {
		return 0, fmt.Errorf("create quiz: %w", err)
	}
	return quizID, nil
}

func (s *Store) GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	var (
		quiz domain.Quiz
		raw  []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, guild_id, questions, role_id, passing_percentage, created_at FROM quiz_data WHERE id=$1`,
		quizID).Scan(&quiz.ID, &quiz.GuildID, &raw, &quiz.RoleID, &quiz.PassingPercentage, &quiz.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	if err := json.Unmarshal(raw, &quiz.Questions); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal questions: %w", err)
	}
	return quiz, nil
}

func (s *Store) SetLogChannel(ctx context.Context, guildID, channelID int64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO guild_settings (guild_id, log_channel_id, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (guild_id) DO UPDATE SET log_channel_id = EXCLUDED.log_channel_id, updated_at = now()`,
		guildID, channelID)
	if err != nil {
		return fmt.Errorf("set log channel: %w", err)
	}
	return nil
}

func (s *Store) GetLogChannel(ctx context.Context, guildID int64) (int64, bool, error) {
	var channelID *int64
	err := s.pool.QueryRow(ctx,
		`SELECT log_channel_id FROM guild_settings WHERE guild_id=$1`, guildID).Scan(&channelID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get log channel: %w", err)
	}
	if channelID == nil {
		return 0, false, nil
	}
	return *channelID, true, nil
}

func (s *Store) SetWebhookURL(ctx context.Context, guildID int64, url string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO guild_settings (guild_id, webhook_url, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (guild_id) DO UPDATE SET webhook_url = EXCLUDED.webhook_url, updated_at = now()`,
		guildID, url)
	if err != nil {
		return fmt.Errorf("set webhook url: %w", err)
	}
	return nil
}

func (s *Store) GetWebhookURL(ctx context.Context, guildID int64) (string, bool, error) {
	var url *string
	err := s.pool.QueryRow(ctx,
		`SELECT webhook_url FROM guild_settings WHERE guild_id=$1`, guildID).Scan(&url)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get webhook url: %w", err)
	}
	if url == nil || *url == "" {
		return "", false, nil
	}
	return *url, true, nil
}

func (s *Store) LogAttempt(ctx context.Context, attempt domain.AttemptLog) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO quiz_logs (guild_id, user_id, quiz_id, score, total_questions, passed)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		attempt.GuildID, attempt.UserID, attempt.QuizID, attempt.Score, attempt.TotalQuestions, attempt.Passed)
	if err != nil {
		return fmt.Errorf("log attempt: %w", err)
	}
	return nil
}

func (s *Store) RecentAttempts(ctx context.Context, guildID int64, limit int) ([]domain.AttemptLog, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, guild_id, user_id, quiz_id, score, total_questions, passed, timestamp
		FROM quiz_logs WHERE guild_id=$1 ORDER BY timestamp DESC LIMIT $2`,
		guildID, limit)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var attempts []domain.AttemptLog
	for rows.Next() {
		var attempt domain.AttemptLog
		if err := rows.Scan(&attempt.ID, &attempt.GuildID, &attempt.UserID, &attempt.QuizID,
			&attempt.Score, &attempt.TotalQuestions, &attempt.Passed, &attempt.Timestamp); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		attempts = append(attempts, attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return attempts, nil
}

func (s *Store) LinkMessage(ctx context.Context, messageID, channelID, guildID, quizID int64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO quiz_messages (message_id, channel_id, guild_id, quiz_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (message_id) DO UPDATE SET channel_id = EXCLUDED.channel_id, quiz_id = EXCLUDED.quiz_id`,
		messageID, channelID, guildID, quizID)
	if err != nil {
		return fmt.Errorf("link message: %w", err)
	}
	return nil
}

func (s *Store) QuizFromMessage(ctx context.Context, messageID int64) (int64, bool, error) {
	var quizID int64
	err := s.pool.QueryRow(ctx,
		`SELECT quiz_id FROM quiz_messages WHERE message_id=$1`, messageID).Scan(&quizID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("resolve quiz message: %w", err)
	}
	return quizID, true, nil
}
