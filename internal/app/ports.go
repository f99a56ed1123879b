package app

import (
	"context"

	"github.com/shyabid/rolevia/internal/domain"
)

// Store abstracts quiz record persistence (in-memory, Postgres, cached).
// Writes are atomic; partial rows are never visible to readers.
type Store interface {
	CreateQuiz(ctx context.Context, guildID int64, questions []domain.Question, roleID int64, passingPercentage int) (int64, error)
	GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
	SetLogChannel(ctx context.Context, guildID, channelID int64) error
	GetLogChannel(ctx context.Context, guildID int64) (int64, bool, error)
	SetWebhookURL(ctx context.Context, guildID int64, url string) error
	GetWebhookURL(ctx context.Context, guildID int64) (string, bool, error)
	LogAttempt(ctx context.Context, attempt domain.AttemptLog) error
	RecentAttempts(ctx context.Context, guildID int64, limit int) ([]domain.AttemptLog, error)
	LinkMessage(ctx context.Context, messageID, channelID, guildID, quizID int64) error
	QuizFromMessage(ctx context.Context, messageID int64) (int64, bool, error)
}

// RoleManager is the membership system the quiz core grants roles through.
type RoleManager interface {
	GrantRole(ctx context.Context, guildID, userID, roleID int64) error
	AssignableRoles(ctx context.Context, guildID int64) ([]domain.Role, error)
	GuildProfile(ctx context.Context, guildID int64) (domain.GuildProfile, error)
}

// Messenger delivers messages directly to a channel.
type Messenger interface {
	SendMessage(ctx context.Context, channelID int64, embed domain.Embed, controls []domain.Control) (int64, error)
}

// WebhookSender delivers a message through an external webhook relay,
// impersonating the given display identity.
type WebhookSender interface {
	Send(ctx context.Context, url string, embed domain.Embed, displayName, avatarURL string, controls []domain.Control) (int64, error)
}

// AuthoringRegistry tracks live wizard instances by session id.
type AuthoringRegistry interface {
	Put(s *AuthoringSession)
	Get(id string) (*AuthoringSession, bool)
	Delete(id string)
}

// TakingRegistry tracks live quiz runs by session id.
type TakingRegistry interface {
	Put(s *TakingSession)
	Get(id string) (*TakingSession, bool)
	Delete(id string)
}
