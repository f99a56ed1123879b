package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/shyabid/rolevia/internal/app"
	"github.com/shyabid/rolevia/internal/domain"
)

// WSHandler drives the authoring wizard and quiz runs over one websocket
// per user. Events on a connection are processed strictly in arrival order.
type WSHandler struct {
	service  *app.Service
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.Service) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type valuePayload struct {
	Value string `json:"value"`
}

type fieldsPayload struct {
	Values []string `json:"values"`
}

type channelPayload struct {
	ChannelID int64 `json:"channelId"`
}

type webhookPayload struct {
	URL string `json:"url"`
}

type sendPayload struct {
	QuizID      int64  `json:"quizId"`
	ChannelID   int64  `json:"channelId"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type logsPayload struct {
	Limit int `json:"limit"`
}

type startPayload struct {
	QuizID    int64 `json:"quizId"`
	MessageID int64 `json:"messageId"`
}

type answerPayload struct {
	Option int `json:"option"`
}

type ackPayload struct {
	Message string `json:"message"`
	Warning string `json:"warning,omitempty"`
}

// ServeWS upgrades the request and processes quiz interactions until the
// peer disconnects.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	guildID, err := strconv.ParseInt(r.URL.Query().Get("guildId"), 10, 64)
	if err != nil {
		http.Error(w, "missing or invalid guildId", http.StatusBadRequest)
		return
	}
	userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil {
		http.Error(w, "missing or invalid userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session := &wsSession{
		handler: h,
		conn:    conn,
		guildID: guildID,
		userID:  userID,
	}
	defer session.cleanup()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		session.dispatch(r, inbound)
	}
}

// wsSession is the per-connection interaction state: at most one live
// wizard and one live quiz run, owned exclusively by this connection.
type wsSession struct {
	handler     *WSHandler
	conn        *websocket.Conn
	guildID     int64
	userID      int64
	authoringID string
	takingID    string
}

func (s *wsSession) dispatch(r *http.Request, inbound inboundMessage) {
	ctx := r.Context()
	svc := s.handler.service

	switch inbound.Type {
	case "setup":
		step, err := svc.BeginAuthoring(ctx, s.guildID, s.userID)
		if err != nil {
			s.sendError(err)
			return
		}
		s.authoringID = step.SessionID
		s.sendStep(step)

	case "choice":
		var payload valuePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			s.sendError(domain.Validationf("invalid choice payload"))
			return
		}
		step, err := svc.SubmitChoice(ctx, s.authoringID, payload.Value)
		if err != nil {
			s.sendError(err)
			return
		}
		if step.Done {
			s.authoringID = ""
		}
		s.sendStep(step)

	case "fields":
		var payload fieldsPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			s.sendError(domain.Validationf("invalid fields payload"))
			return
		}
		step, err := svc.SubmitFields(ctx, s.authoringID, payload.Values)
		if err != nil {
			s.sendError(err)
			return
		}
		s.sendStep(step)

	case "logger":
		var payload channelPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.ChannelID == 0 {
			s.sendError(domain.Validationf("invalid logger payload"))
			return
		}
		if err := svc.SetLogChannel(ctx, s.guildID, payload.ChannelID); err != nil {
			s.sendError(err)
			return
		}
		s.send(outboundMessage{Type: "ack", Payload: ackPayload{Message: "Log channel updated"}})

	case "webhook":
		var payload webhookPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.URL == "" {
			s.sendError(domain.Validationf("invalid webhook payload"))
			return
		}
		if err := svc.SetWebhookURL(ctx, s.guildID, payload.URL); err != nil {
			s.sendError(err)
			return
		}
		s.send(outboundMessage{Type: "ack", Payload: ackPayload{Message: "Webhook updated"}})

	case "send":
		var payload sendPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.QuizID == 0 || payload.ChannelID == 0 {
			s.sendError(domain.Validationf("invalid send payload"))
			return
		}
		var override *domain.Embed
		if payload.Title != "" || payload.Description != "" {
			override = &domain.Embed{Title: payload.Title, Description: payload.Description, Color: 0x3498db}
		}
		warning, err := svc.Deliver(ctx, s.guildID, payload.ChannelID, payload.QuizID, override)
		if err != nil {
			s.sendError(err)
			return
		}
		s.send(outboundMessage{Type: "ack", Payload: ackPayload{Message: "Quiz prompt delivered", Warning: warning}})

	case "logs":
		var payload logsPayload
		_ = json.Unmarshal(inbound.Payload, &payload)
		attempts, err := svc.RecentAttempts(ctx, s.guildID, payload.Limit)
		if err != nil {
			s.sendError(err)
			return
		}
		s.send(outboundMessage{Type: "attempts", Payload: attempts})

	case "start":
		var payload startPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			s.sendError(domain.Validationf("invalid start payload"))
			return
		}
		var (
			sessionID string
			prompt    domain.QuestionPrompt
			err       error
		)
		if payload.QuizID != 0 {
			sessionID, prompt, err = svc.StartQuiz(ctx, s.guildID, s.userID, payload.QuizID)
		} else {
			sessionID, prompt, err = svc.StartQuizFromMessage(ctx, s.guildID, s.userID, payload.MessageID)
		}
		if err != nil {
			s.sendError(err)
			return
		}
		s.takingID = sessionID
		s.send(outboundMessage{Type: "question", Payload: prompt})

	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			s.sendError(domain.Validationf("invalid answer payload"))
			return
		}
		next, result, err := svc.SubmitAnswer(ctx, s.takingID, payload.Option)
		if err != nil {
			s.sendError(err)
			return
		}
		if next != nil {
			s.send(outboundMessage{Type: "question", Payload: next})
			return
		}
		s.takingID = ""
		s.send(outboundMessage{Type: "result", Payload: result})

	default:
		s.sendError(domain.Validationf("unsupported message type %q", inbound.Type))
	}
}

func (s *wsSession) sendStep(step app.AuthoringStep) {
	switch {
	case step.Done:
		s.send(outboundMessage{Type: "quizCreated", Payload: map[string]any{
			"quizId":  step.QuizID,
			"message": step.Message,
		}})
	case step.Fields != nil:
		s.send(outboundMessage{Type: "fieldPrompt", Payload: step.Fields})
	case step.Choice != nil:
		s.send(outboundMessage{Type: "choicePrompt", Payload: step.Choice})
	}
}

func (s *wsSession) send(msg outboundMessage) {
	if err := s.conn.WriteJSON(msg); err != nil {
		log.Printf("ws write error: %v", err)
	}
}

func (s *wsSession) sendError(err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		s.send(outboundMessage{Type: "error", Payload: errorPayload{Message: ve.Message}})
		return
	}
	switch {
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrSessionResolved),
		errors.Is(err, domain.ErrRoleNotFound),
		errors.Is(err, domain.ErrMessageNotLinked):
		s.send(outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}})
	default:
		log.Printf("ws request failed: %v", err)
		s.send(outboundMessage{Type: "error", Payload: errorPayload{Message: "something went wrong, try again"}})
	}
}

// cleanup abandons whatever this connection still owns. Nothing partial is
// ever persisted for an abandoned wizard.
func (s *wsSession) cleanup() {
	if s.authoringID != "" {
		s.handler.service.AbandonAuthoring(s.authoringID)
	}
}
