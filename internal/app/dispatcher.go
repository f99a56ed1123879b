package app

import (
	"context"
	"fmt"
	"log"

	"github.com/shyabid/rolevia/internal/domain"
)

// Dispatcher posts the "quiz available" prompt to a channel. When the guild
// has a webhook relay configured, delivery goes through it first and falls
// back to a direct send on failure; the fallback is a warning, not an error.
type Dispatcher struct {
	store     Store
	roles     RoleManager
	messenger Messenger
	webhooks  WebhookSender
}

func NewDispatcher(store Store, roles RoleManager, messenger Messenger, webhooks WebhookSender) *Dispatcher {
	return &Dispatcher{store: store, roles: roles, messenger: messenger, webhooks: webhooks}
}

// LaunchTag is the persistent control tag for a quiz prompt. The quiz id is
// re-derived from the tag after a restart, not from in-memory state.
func LaunchTag(quizID int64) string {
	return fmt.Sprintf("start_quiz_%d", quizID)
}

// DeliverPrompt sends the launchable prompt and links the delivered message
// to the quiz. The returned string is a non-fatal warning, empty on a clean
// delivery.
func (d *Dispatcher) DeliverPrompt(ctx context.Context, quiz domain.Quiz, channelID int64, override *domain.Embed) (string, error) {
	embed := d.defaultEmbed(ctx, quiz)
	if override != nil {
		embed = *override
	}
	controls := []domain.Control{{Label: "Start Quiz", Tag: LaunchTag(quiz.ID)}}

	warning := ""
	messageID := int64(0)
	url, ok, err := d.store.GetWebhookURL(ctx, quiz.GuildID)
	if err != nil {
		return "", fmt.Errorf("load webhook url: %w", err)
	}
	if ok {
		profile, perr := d.roles.GuildProfile(ctx, quiz.GuildID)
		if perr != nil {
			log.Printf("guild profile for %d: %v", quiz.GuildID, perr)
		}
		messageID, err = d.webhooks.Send(ctx, url, embed, profile.Name, profile.IconURL, controls)
		if err != nil {
			warning = fmt.Sprintf("webhook delivery failed, sent directly instead: %v", err)
			messageID = 0
		}
	}
	if messageID == 0 {
		messageID, err = d.messenger.SendMessage(ctx, channelID, embed, controls)
		if err != nil {
			return "", fmt.Errorf("send quiz prompt: %w", err)
		}
	}

	if err := d.store.LinkMessage(ctx, messageID, channelID, quiz.GuildID, quiz.ID); err != nil {
		log.Printf("link message %d to quiz %d: %v", messageID, quiz.ID, err)
		if warning != "" {
			warning += "; "
		}
		warning += "prompt sent but not linked for restart recovery"
	}
	return warning, nil
}

func (d *Dispatcher) defaultEmbed(ctx context.Context, quiz domain.Quiz) domain.Embed {
	roleName := fmt.Sprintf("<@&%d>", quiz.RoleID)
	if roles, err := d.roles.AssignableRoles(ctx, quiz.GuildID); err == nil {
		for _, role := range roles {
			if role.ID == quiz.RoleID {
				roleName = role.Name
				break
			}
		}
	}
	return domain.Embed{
		Title:       "Quiz Available!",
		Description: fmt.Sprintf("Take this quiz to earn the %s role!\nPassing score: %d%%", roleName, quiz.PassingPercentage),
		Color:       colorBlue,
	}
}
