package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/hazemkhaled/raggate/internal/auth"
	"github.com/hazemkhaled/raggate/internal/httpapi"
	"github.com/hazemkhaled/raggate/internal/inference"
)

const maxQuestionLen = 1000

// Answerer produces an answer for a question. The inference client
// implements it.
type Answerer interface {
	Query(ctx context.Context, q inference.QueryRequest) (*inference.QueryResult, error)
}

// TurnStore appends conversation turns.
type TurnStore interface {
	SaveTurn(ctx context.Context, t Turn) error
	ListTurns(ctx context.Context, chatID string) ([]Turn, error)
}

// Notifier pushes named events to a principal's delivery group.
type Notifier interface {
	Emit(userID, event string, payload any)
}

// Orchestrator drives one chat exchange: validate, notify, query, persist,
// deliver on both channels.
type Orchestrator struct {
	answerer Answerer
	turns    TurnStore
	notifier Notifier
	logger   *zap.Logger

	queryTimeout time.Duration
	now          func() time.Time
}

// NewOrchestrator wires the chat orchestrator. queryTimeout bounds the
// inference call.
func NewOrchestrator(answerer Answerer, turns TurnStore, notifier Notifier, queryTimeout time.Duration, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		answerer:     answerer,
		turns:        turns,
		notifier:     notifier,
		logger:       logger,
		queryTimeout: queryTimeout,
		now:          time.Now,
	}
}

// Ask runs one exchange for the given principal. The returned response and
// the "answer" push event are built from the same result.
//
// Ask is not idempotent: a retried request without a chat id derives a fresh
// id and persists a fresh exchange. Callers wanting idempotence supply their
// own chat id.
func (o *Orchestrator) Ask(ctx context.Context, principal *auth.Principal, req AskRequest) (*AskResponse, error) {
	start := o.now()

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, httpapi.InvalidRequest("question is required")
	}
	if utf8.RuneCountInString(question) > maxQuestionLen {
		return nil, httpapi.InvalidRequest("question too long (max 1000 characters)")
	}

	chatID := strings.TrimSpace(req.ChatID)
	if chatID == "" {
		// Time-based derivation is unique within a principal's stream but
		// not across clock collisions; kept for compatibility with stored
		// conversation ids.
		chatID = fmt.Sprintf("chat_%s_%d", principal.ID, o.now().UnixMilli())
	}

	o.logger.Info("chat query started",
		zap.String("user_id", principal.ID),
		zap.String("chat_id", chatID),
		zap.Int("question_length", len(question)))

	o.notifier.Emit(principal.ID, "typing", typingEvent{ChatID: chatID})

	// The upstream call and the persistence writes outlive a client
	// disconnect; only the query timeout bounds them.
	detached := context.WithoutCancel(ctx)
	qctx, cancel := context.WithTimeout(detached, o.queryTimeout)
	defer cancel()

	result, err := o.answerer.Query(qctx, inference.QueryRequest{
		Question: question,
		Roles:    principal.Roles,
		ChatID:   chatID,
		UserID:   principal.ID,
	})
	if err != nil {
		message := upstreamMessage(err)
		o.logger.Error("chat query failed",
			zap.String("user_id", principal.ID),
			zap.String("chat_id", chatID),
			zap.Duration("duration", o.now().Sub(start)),
			zap.Error(err))
		o.notifier.Emit(principal.ID, "error", errorEvent{ChatID: chatID, Error: message})
		return nil, httpapi.Upstream(message)
	}

	o.persistExchange(detached, principal, chatID, question, result)

	resp := &AskResponse{ChatID: chatID, Answer: result.Answer, Sources: result.Sources}
	o.notifier.Emit(principal.ID, "answer", resp)

	o.logger.Info("chat query completed",
		zap.String("user_id", principal.ID),
		zap.String("chat_id", chatID),
		zap.Duration("duration", o.now().Sub(start)))

	return resp, nil
}

// persistExchange writes the user and assistant turns. The two writes run
// concurrently and both are always attempted; a failed write is logged and
// never fails the exchange, since the caller already has the answer.
func (o *Orchestrator) persistExchange(ctx context.Context, principal *auth.Principal, chatID, question string, result *inference.QueryResult) {
	turns := []Turn{
		{ChatID: chatID, Role: RoleUser, Content: question, UserID: principal.ID, Roles: principal.Roles},
		{ChatID: chatID, Role: RoleAssistant, Content: result.Answer, Sources: result.Sources},
	}

	var wg sync.WaitGroup
	for _, t := range turns {
		wg.Add(1)
		go func(t Turn) {
			defer wg.Done()
			if err := o.turns.SaveTurn(ctx, t); err != nil {
				o.logger.Error("persisting chat turn",
					zap.String("chat_id", chatID),
					zap.String("role", string(t.Role)),
					zap.Error(err))
			}
		}(t)
	}
	wg.Wait()
}

// upstreamMessage picks the most specific failure text available: the
// downstream error body, else the transport error.
func upstreamMessage(err error) string {
	var statusErr *inference.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Message
	}
	return err.Error()
}
