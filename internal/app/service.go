package app

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/shyabid/rolevia/internal/domain"
)

// Service wires the authoring flow, the taking engine, and their side
// effects to the store and the platform collaborators.
type Service struct {
	store         Store
	roles         RoleManager
	messenger     Messenger
	authoring     AuthoringRegistry
	taking        TakingRegistry
	dispatcher    *Dispatcher
	webhookPrefix string
}

func NewService(store Store, roles RoleManager, messenger Messenger, webhooks WebhookSender,
	authoring AuthoringRegistry, taking TakingRegistry, webhookPrefix string) *Service {
	return &Service{
		store:         store,
		roles:         roles,
		messenger:     messenger,
		authoring:     authoring,
		taking:        taking,
		dispatcher:    NewDispatcher(store, roles, messenger, webhooks),
		webhookPrefix: webhookPrefix,
	}
}

// AuthoringStep is the wizard's answer to one interaction: the next prompt
// to show, or the created quiz id once the flow completes.
type AuthoringStep struct {
	SessionID string
	Message   string
	Choice    *domain.ChoicePrompt
	Fields    *domain.FieldPrompt
	QuizID    int64
	Done      bool
}

// BeginAuthoring opens a wizard for an admin and returns the first prompt.
func (svc *Service) BeginAuthoring(ctx context.Context, guildID, authorID int64) (AuthoringStep, error) {
	session := NewAuthoringSession(guildID, authorID)
	svc.authoring.Put(session)
	prompt := session.CountPrompt()
	return AuthoringStep{
		SessionID: session.ID(),
		Choice:    &prompt,
	}, nil
}

// SubmitChoice feeds a selection into whichever wizard step expects one.
func (svc *Service) SubmitChoice(ctx context.Context, sessionID, value string) (AuthoringStep, error) {
	session, ok := svc.authoring.Get(sessionID)
	if !ok {
		return AuthoringStep{}, domain.ErrSessionNotFound
	}

	switch session.currentState() {
	case stateAwaitingCount:
		prompt, err := session.SelectCount(value)
		if err != nil {
			return AuthoringStep{}, err
		}
		_, total := session.Progress()
		return AuthoringStep{
			SessionID: sessionID,
			Message:   fmt.Sprintf("Selected %d questions", total),
			Fields:    &prompt,
		}, nil

	case stateAwaitingRole:
		roleID, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return AuthoringStep{}, domain.Validationf("role id %q is not a number", value)
		}
		role, err := svc.lookupAssignableRole(ctx, session.GuildID(), roleID)
		if err != nil {
			return AuthoringStep{}, err
		}
		prompt, err := session.SelectRole(roleID)
		if err != nil {
			return AuthoringStep{}, err
		}
		return AuthoringStep{
			SessionID: sessionID,
			Message:   fmt.Sprintf("Selected role: %s", role.Name),
			Choice:    &prompt,
		}, nil

	case stateAwaitingPercentage:
		if err := session.SelectPercentage(value); err != nil {
			return AuthoringStep{}, err
		}
		questions, roleID, percentage, _ := session.Snapshot()
		svc.authoring.Delete(sessionID)
		quizID, err := svc.store.CreateQuiz(ctx, session.GuildID(), questions, roleID, percentage)
		if err != nil {
			return AuthoringStep{}, fmt.Errorf("create quiz: %w", err)
		}
		return AuthoringStep{
			SessionID: sessionID,
			Message:   fmt.Sprintf("Quiz #%d created", quizID),
			QuizID:    quizID,
			Done:      true,
		}, nil

	default:
		return AuthoringStep{}, domain.Validationf("no selection is expected right now")
	}
}

// SubmitFields feeds one question modal submission into the wizard. Field
// order follows the modal: text, options, correct answers, image link.
func (svc *Service) SubmitFields(ctx context.Context, sessionID string, values []string) (AuthoringStep, error) {
	session, ok := svc.authoring.Get(sessionID)
	if !ok {
		return AuthoringStep{}, domain.ErrSessionNotFound
	}
	for len(values) < 4 {
		values = append(values, "")
	}

	next, err := session.SubmitQuestion(values[0], values[1], values[2], values[3])
	if err != nil {
		return AuthoringStep{}, err
	}
	if next != nil {
		return AuthoringStep{
			SessionID: sessionID,
			Message:   "Question saved!",
			Fields:    next,
		}, nil
	}

	roles, err := svc.assignableRoles(ctx, session.GuildID())
	if err != nil {
		return AuthoringStep{}, fmt.Errorf("list roles: %w", err)
	}
	prompt := session.RolePrompt(roles)
	return AuthoringStep{
		SessionID: sessionID,
		Message:   "Question saved!",
		Choice:    &prompt,
	}, nil
}

// AbandonAuthoring drops a wizard without persisting anything.
func (svc *Service) AbandonAuthoring(sessionID string) {
	svc.authoring.Delete(sessionID)
}

// StartQuiz opens a run of the given quiz for a taker.
func (svc *Service) StartQuiz(ctx context.Context, guildID, takerID, quizID int64) (string, domain.QuestionPrompt, error) {
	quiz, err := svc.store.GetQuiz(ctx, quizID)
	if err != nil {
		return "", domain.QuestionPrompt{}, err
	}
	if quiz.GuildID != guildID {
		return "", domain.QuestionPrompt{}, domain.ErrQuizNotFound
	}
	session := NewTakingSession(quiz, takerID)
	svc.taking.Put(session)
	return session.ID(), session.FirstPrompt(), nil
}

// StartQuizFromMessage resolves the quiz behind a previously delivered
// prompt message and starts a run. This is how launch controls keep working
// across process restarts.
func (svc *Service) StartQuizFromMessage(ctx context.Context, guildID, takerID, messageID int64) (string, domain.QuestionPrompt, error) {
	quizID, ok, err := svc.store.QuizFromMessage(ctx, messageID)
	if err != nil {
		return "", domain.QuestionPrompt{}, fmt.Errorf("resolve quiz message: %w", err)
	}
	if !ok {
		return "", domain.QuestionPrompt{}, domain.ErrMessageNotLinked
	}
	return svc.StartQuiz(ctx, guildID, takerID, quizID)
}

// SubmitAnswer scores one answer. When the run resolves it applies the role
// grant, writes the attempt log, and notifies the guild's log channel.
func (svc *Service) SubmitAnswer(ctx context.Context, sessionID string, choice int) (*domain.QuestionPrompt, *domain.Result, error) {
	session, ok := svc.taking.Get(sessionID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}

	next, result, err := session.Submit(choice)
	if err != nil {
		return nil, nil, err
	}
	if result == nil {
		return next, nil, nil
	}

	svc.taking.Delete(sessionID)
	svc.finishRun(ctx, session.Quiz(), result)
	return nil, result, nil
}

// finishRun applies completion side effects. The role grant and the log
// channel summary are best-effort; the attempt log write is not optional,
// but a storage failure there cannot retract an already resolved run.
func (svc *Service) finishRun(ctx context.Context, quiz domain.Quiz, result *domain.Result) {
	var grantErr error
	if result.Passed {
		grantErr = svc.roles.GrantRole(ctx, quiz.GuildID, result.TakerID, quiz.RoleID)
		if grantErr != nil {
			log.Printf("grant role %d to user %d: %v", quiz.RoleID, result.TakerID, grantErr)
		}
		result.RoleGranted = grantErr == nil
	}

	if err := svc.store.LogAttempt(ctx, domain.AttemptLog{
		GuildID:        quiz.GuildID,
		UserID:         result.TakerID,
		QuizID:         quiz.ID,
		Score:          result.Score,
		TotalQuestions: result.Total,
		Passed:         result.Passed,
	}); err != nil {
		log.Printf("log attempt for quiz %d: %v", quiz.ID, err)
	}

	channelID, ok, err := svc.store.GetLogChannel(ctx, quiz.GuildID)
	if err != nil || !ok {
		return
	}
	summary := attemptSummary(*result, grantErr)
	if _, err := svc.messenger.SendMessage(ctx, channelID, summary, nil); err != nil {
		log.Printf("send attempt summary to channel %d: %v", channelID, err)
	}
}

// SetLogChannel records where attempt summaries go.
func (svc *Service) SetLogChannel(ctx context.Context, guildID, channelID int64) error {
	return svc.store.SetLogChannel(ctx, guildID, channelID)
}

// SetWebhookURL validates and records the guild's relay endpoint.
func (svc *Service) SetWebhookURL(ctx context.Context, guildID int64, url string) error {
	if svc.webhookPrefix != "" && !strings.HasPrefix(url, svc.webhookPrefix) {
		return domain.Validationf("webhook url must start with %s", svc.webhookPrefix)
	}
	return svc.store.SetWebhookURL(ctx, guildID, url)
}

// RecentAttempts lists the newest attempt logs for a guild.
func (svc *Service) RecentAttempts(ctx context.Context, guildID int64, limit int) ([]domain.AttemptLog, error) {
	if limit <= 0 {
		limit = 50
	}
	return svc.store.RecentAttempts(ctx, guildID, limit)
}

// Deliver posts the launchable quiz prompt to a channel.
func (svc *Service) Deliver(ctx context.Context, guildID, channelID, quizID int64, override *domain.Embed) (string, error) {
	quiz, err := svc.store.GetQuiz(ctx, quizID)
	if err != nil {
		return "", err
	}
	if quiz.GuildID != guildID {
		return "", domain.ErrQuizNotFound
	}
	return svc.dispatcher.DeliverPrompt(ctx, quiz, channelID, override)
}

func (svc *Service) assignableRoles(ctx context.Context, guildID int64) ([]domain.Role, error) {
	all, err := svc.roles.AssignableRoles(ctx, guildID)
	if err != nil {
		return nil, err
	}
	roles := make([]domain.Role, 0, len(all))
	for _, role := range all {
		if role.Managed || role.Name == "@everyone" {
			continue
		}
		roles = append(roles, role)
	}
	return roles, nil
}

func (svc *Service) lookupAssignableRole(ctx context.Context, guildID, roleID int64) (domain.Role, error) {
	roles, err := svc.assignableRoles(ctx, guildID)
	if err != nil {
		return domain.Role{}, fmt.Errorf("list roles: %w", err)
	}
	for _, role := range roles {
		if role.ID == roleID {
			return role, nil
		}
	}
	return domain.Role{}, domain.ErrRoleNotFound
}

func (s *AuthoringSession) currentState() authoringState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// attemptSummary formats the log channel notification for one attempt.
func attemptSummary(result domain.Result, grantErr error) domain.Embed {
	color := colorGreen
	outcome := "passed"
	if !result.Passed {
		color = colorRed
		outcome = "failed"
	}
	description := fmt.Sprintf("User <@%d> %s quiz #%d with %d/%d (%.2f%%)",
		result.TakerID, outcome, result.QuizID, result.Score, result.Total, result.Percentage)
	if grantErr != nil {
		description += fmt.Sprintf("\nRole grant failed: %v", grantErr)
	}
	return domain.Embed{
		Title:       "Quiz Attempt",
		Description: description,
		Color:       color,
	}
}
