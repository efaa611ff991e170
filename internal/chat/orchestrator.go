// Package chat runs one assistant conversation turn: deterministic intent
// answers first, the language model otherwise.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/castlemilk/wealthportal/backend/internal/facts"
	"github.com/castlemilk/wealthportal/backend/internal/intent"
	"github.com/castlemilk/wealthportal/backend/internal/llm"
	"github.com/castlemilk/wealthportal/backend/internal/model"
	"github.com/castlemilk/wealthportal/backend/internal/store"
)

var (
	// ErrBusy is returned when the user already has a turn in flight.
	ErrBusy = errors.New("a chat response is already in progress")
	// ErrInvalidInput is returned for malformed chat requests.
	ErrInvalidInput = errors.New("invalid chat input")
)

// Event types sent to the client.
const (
	EventChunk = "chunk"
	EventDone  = "done"
	EventError = "error"
)

// Event is one server-pushed message of a chat turn. Every turn ends with
// exactly one done or error event unless the client went away.
type Event struct {
	Type    string     `json:"type"`
	Content string     `json:"content,omitempty"`
	Final   string     `json:"final,omitempty"`
	Usage   *llm.Usage `json:"usage,omitempty"`
	Message string     `json:"message,omitempty"`
	Intent  string     `json:"intent,omitempty"`
}

// Request is one chat turn as sent by the client.
type Request struct {
	UserID      string
	Role        model.Role
	Messages    []llm.Message
	Temperature *float32
	MaxTokens   int32
}

// FactsBuilder builds the facts used to ground answers.
type FactsBuilder interface {
	Build(ctx context.Context, subject facts.Subject) (*facts.Facts, error)
}

// Router answers questions deterministically when it can.
type Router interface {
	Route(question string, f *facts.Facts) *intent.Answer
}

// Config tunes the orchestrator.
type Config struct {
	MaxMessageChars int
	MaxHistory      int
	MaxTurnDuration time.Duration
	Logger          *slog.Logger
}

// Orchestrator coordinates facts, routing, the model and persistence for a
// chat turn, allowing one turn per user at a time.
type Orchestrator struct {
	facts    FactsBuilder
	router   Router
	streamer llm.Streamer
	store    store.ConversationStore
	active   *ActiveStreams
	cfg      Config
	logger   *slog.Logger
}

// NewOrchestrator creates a chat orchestrator.
func NewOrchestrator(fb FactsBuilder, router Router, streamer llm.Streamer, conv store.ConversationStore, cfg Config) *Orchestrator {
	if cfg.MaxMessageChars <= 0 {
		cfg.MaxMessageChars = 2000
	}
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = 20
	}
	if cfg.MaxTurnDuration <= 0 {
		cfg.MaxTurnDuration = 10 * time.Minute
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		facts:    fb,
		router:   router,
		streamer: streamer,
		store:    conv,
		active:   NewActiveStreams(cfg.MaxTurnDuration),
		cfg:      cfg,
		logger:   logger,
	}
}

// Active exposes the in-flight registry.
func (o *Orchestrator) Active() *ActiveStreams {
	return o.active
}

// Validate checks a request without side effects.
func (o *Orchestrator) Validate(req Request) error {
	if req.UserID == "" {
		return fmt.Errorf("%w: user is required", ErrInvalidInput)
	}
	if len(req.Messages) == 0 {
		return fmt.Errorf("%w: messages are required", ErrInvalidInput)
	}
	last := req.Messages[len(req.Messages)-1]
	if last.Role != model.MessageRoleUser {
		return fmt.Errorf("%w: last message must come from the user", ErrInvalidInput)
	}
	if strings.TrimSpace(last.Content) == "" {
		return fmt.Errorf("%w: message is empty", ErrInvalidInput)
	}
	if utf8.RuneCountInString(last.Content) > o.cfg.MaxMessageChars {
		return fmt.Errorf("%w: message exceeds %d characters", ErrInvalidInput, o.cfg.MaxMessageChars)
	}
	return nil
}

// Run executes one turn, sending events through emit. ErrInvalidInput and
// ErrBusy are returned before anything is emitted or stored. Upstream
// failures are reported as an error event and Run returns nil. If ctx is
// cancelled the turn stops quietly and nothing more is emitted.
func (o *Orchestrator) Run(ctx context.Context, req Request, emit func(Event) error) error {
	if err := o.Validate(req); err != nil {
		return err
	}
	question := SanitizeUserText(req.Messages[len(req.Messages)-1].Content)
	if question == "" {
		return fmt.Errorf("%w: message is empty", ErrInvalidInput)
	}
	if !o.active.Acquire(req.UserID) {
		o.logger.Warn("[chat] turn rejected, stream already active", "user_id", req.UserID)
		return ErrBusy
	}
	defer o.active.Release(req.UserID)

	log := o.logger.With("user_id", req.UserID)

	conv, err := o.store.GetOrCreateConversation(ctx, req.UserID)
	if err != nil {
		return o.fail(ctx, emit, log, "failed to open conversation", err)
	}
	if err := o.store.AppendMessage(ctx, &model.Message{
		ConversationID: conv.ID,
		UserID:         req.UserID,
		Role:           model.MessageRoleUser,
		Content:        question,
	}); err != nil {
		return o.fail(ctx, emit, log, "failed to store user message", err)
	}

	f, err := o.facts.Build(ctx, facts.Subject{UserID: req.UserID, Role: req.Role})
	if err != nil {
		return o.fail(ctx, emit, log, "failed to build facts", err)
	}

	if ans := o.router.Route(question, f); ans != nil {
		text := SanitizeAssistantText(ans.Text)
		log.Info("[chat] answered by intent router", "intent", ans.Intent)
		if err := emit(Event{Type: EventChunk, Content: text}); err != nil {
			return nil
		}
		o.persistAssistant(ctx, log, conv.ID, req.UserID, text)
		_ = emit(Event{Type: EventDone, Final: text, Usage: &llm.Usage{}, Intent: ans.Intent})
		return nil
	}

	messages := o.modelMessages(f, req.Messages, question)
	var buf strings.Builder
	usage, err := o.streamer.Stream(ctx, messages, llm.Options{
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}, func(text string) error {
		buf.WriteString(text)
		return emit(Event{Type: EventChunk, Content: text})
	})
	if err != nil {
		return o.fail(ctx, emit, log, "model stream failed", err)
	}

	final := SanitizeAssistantText(buf.String())
	o.persistAssistant(ctx, log, conv.ID, req.UserID, final)
	log.Info("[chat] model turn completed", "chars", len(final), "total_tokens", usage.TotalTokens)
	_ = emit(Event{Type: EventDone, Final: final, Usage: usage})
	return nil
}

// fail ends a turn. Cancellation is a clean abort; anything else becomes an
// error event.
func (o *Orchestrator) fail(ctx context.Context, emit func(Event) error, log *slog.Logger, msg string, err error) error {
	if ctx.Err() != nil {
		log.Info("[chat] turn cancelled by client")
		return nil
	}
	log.Error("[chat] "+msg, "error", err)
	_ = emit(Event{Type: EventError, Message: "No se pudo completar la respuesta. Intentalo de nuevo."})
	return nil
}

func (o *Orchestrator) persistAssistant(ctx context.Context, log *slog.Logger, convID, userID, text string) {
	err := o.store.AppendMessage(ctx, &model.Message{
		ConversationID: convID,
		UserID:         userID,
		Role:           model.MessageRoleAssistant,
		Content:        text,
	})
	if err != nil {
		log.Error("[chat] failed to store assistant message", "error", err)
	}
}

// modelMessages puts the instructions and facts first, then the recent
// client history with the sanitized question last. Client-supplied system
// messages are dropped.
func (o *Orchestrator) modelMessages(f *facts.Facts, history []llm.Message, question string) []llm.Message {
	out := []llm.Message{{Role: model.MessageRoleSystem, Content: SystemPrompt(f)}}

	prior := history[:len(history)-1]
	if len(prior) > o.cfg.MaxHistory {
		prior = prior[len(prior)-o.cfg.MaxHistory:]
	}
	for _, m := range prior {
		switch m.Role {
		case model.MessageRoleUser:
			out = append(out, llm.Message{Role: m.Role, Content: SanitizeUserText(m.Content)})
		case model.MessageRoleAssistant:
			out = append(out, llm.Message{Role: m.Role, Content: m.Content})
		}
	}
	return append(out, llm.Message{Role: model.MessageRoleUser, Content: question})
}
