package domain

import (
	"sort"
	"time"
)

// Question models a single quiz question. CorrectAnswers holds 1-based
// indices into Options and is kept sorted and de-duplicated; a question may
// accept more than one option as correct.
type Question struct {
	Text           string   `json:"question"`
	Options        []string `json:"options"`
	CorrectAnswers []int    `json:"correct_answers"`
	ImageURL       string   `json:"imglink,omitempty"`
}

// IsCorrect reports whether the 1-based choice is one of the accepted answers.
func (q Question) IsCorrect(choice int) bool {
	for _, a := range q.CorrectAnswers {
		if a == choice {
			return true
		}
	}
	return false
}

// NormalizeAnswers sorts CorrectAnswers and removes duplicates so the field
// compares as a set.
func (q *Question) NormalizeAnswers() {
	sort.Ints(q.CorrectAnswers)
	deduped := q.CorrectAnswers[:0]
	for i, a := range q.CorrectAnswers {
		if i == 0 || a != q.CorrectAnswers[i-1] {
			deduped = append(deduped, a)
		}
	}
	q.CorrectAnswers = deduped
}

// Quiz is a persisted quiz definition. Records are immutable once created.
type Quiz struct {
	ID                int64      `json:"id"`
	GuildID           int64      `json:"guildId"`
	Questions         []Question `json:"questions"`
	RoleID            int64      `json:"roleId"`
	PassingPercentage int        `json:"passingPercentage"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// GuildSettings holds per-guild configuration. Zero values mean unset.
type GuildSettings struct {
	GuildID      int64
	LogChannelID int64
	WebhookURL   string
}

// AttemptLog is one append-only row per completed quiz run.
type AttemptLog struct {
	ID             int64     `json:"id"`
	GuildID        int64     `json:"guildId"`
	UserID         int64     `json:"userId"`
	QuizID         int64     `json:"quizId"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	Passed         bool      `json:"passed"`
	Timestamp      time.Time `json:"timestamp"`
}

// Role is a grantable guild role as reported by the membership system.
type Role struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Managed bool   `json:"managed"`
}

// GuildProfile carries the display identity used when impersonating the
// guild through a webhook relay.
type GuildProfile struct {
	Name    string
	IconURL string
}

// Result summarizes a resolved quiz run.
type Result struct {
	QuizID      int64   `json:"quizId"`
	TakerID     int64   `json:"takerId"`
	Score       int     `json:"score"`
	Total       int     `json:"total"`
	Percentage  float64 `json:"percentage"`
	Passed      bool    `json:"passed"`
	RoleID      int64   `json:"roleId"`
	RoleGranted bool    `json:"roleGranted"`
}
