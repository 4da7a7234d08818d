// Package agent runs the barista: an LLM-driven participant that converses
// over the room's data channel and streams order state back through
// attribute and metadata updates, the same contract the UI consumes.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/moonbeamcafe/barista/internal/config"
	openaiinfra "github.com/moonbeamcafe/barista/internal/infrastructure/openai"
	"github.com/moonbeamcafe/barista/internal/order"
	"github.com/moonbeamcafe/barista/internal/ordersync"
	"github.com/moonbeamcafe/barista/internal/room"
	"github.com/moonbeamcafe/barista/internal/services/orders"
	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
)

// maxToolSteps bounds how many completion rounds one customer turn may take.
const maxToolSteps = 5

const greeting = "Hi! Welcome to Moonbeam Coffee. I'm Luna, your barista today. What can I get started for you?"

// Service creates barista sessions. Nil when OpenAI is not configured.
type Service struct {
	client   *openai.Client
	model    string
	identity string
	orders   *orders.Service
}

func NewService(openaiService *openaiinfra.Service, ordersService *orders.Service) *Service {
	if openaiService == nil {
		return nil
	}

	return &Service{
		client:   openaiService.GetClient(),
		model:    config.GetAgentModel(),
		identity: config.GetAgentIdentity(),
		orders:   ordersService,
	}
}

// Identity returns the room identity the agent joins with.
func (s *Service) Identity() string {
	return s.identity
}

// roomConn is the slice of the room client a session needs. *room.Room
// satisfies it; tests substitute a fake.
type roomConn interface {
	PublishData(ctx context.Context, payload []byte) error
	SetAttributes(changed map[string]string) error
	SetMetadata(metadata string) error
}

// Session is one barista conversation bound to one room.
type Session struct {
	svc  *Service
	conn roomConn

	mu        sync.Mutex
	order     order.State
	finalized bool
	history   []openai.ChatCompletionMessage
}

// NewSession binds a conversation to a room connection.
func NewSession(svc *Service, conn roomConn) *Session {
	return &Session{
		svc:   svc,
		conn:  conn,
		order: order.Empty(),
	}
}

// Join connects the agent to a room, greets the customer and answers every
// inbound data message until the returned teardown is called or the room
// connection ends.
func (s *Service) Join(ctx context.Context, wsURL, token string) (*Session, func(), error) {
	r, err := room.Connect(ctx, wsURL, token)
	if err != nil {
		return nil, nil, fmt.Errorf("agent: joining room: %w", err)
	}

	sess := NewSession(s, r)

	off := r.OnDataReceived(func(payload []byte, p *room.Participant) {
		if p == nil || p.IsLocal() {
			return
		}
		go func() {
			if _, err := sess.Respond(context.Background(), string(payload)); err != nil {
				log.Error().Err(err).Str("identity", s.identity).Msg("Barista turn failed")
			}
		}()
	})

	if err := r.PublishData(ctx, []byte(greeting)); err != nil {
		log.Warn().Err(err).Msg("Failed to send greeting")
	}

	teardown := func() {
		off()
		r.Disconnect()
	}
	return sess, teardown, nil
}

// Order returns a copy of the agent's current view of the order.
func (sess *Session) Order() order.State {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.order.Clone()
}

// Finalized reports whether finalize_order has been executed.
func (sess *Session) Finalized() bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.finalized
}

// Respond runs one customer turn: feed the text to the model, execute any
// tool calls, publish the reply on the data channel and return it. Turns
// are serialized per session.
func (sess *Session) Respond(ctx context.Context, userText string) (string, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.history = append(sess.history, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userText,
	})

	messages := make([]openai.ChatCompletionMessage, 0, len(sess.history)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	messages = append(messages, sess.history...)

	for step := 0; step < maxToolSteps; step++ {
		resp, err := sess.svc.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    sess.svc.model,
			Messages: messages,
			Tools:    orderTools(),
		})
		if err != nil {
			return "", fmt.Errorf("agent: chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("agent: no response choices returned")
		}

		message := resp.Choices[0].Message

		if len(message.ToolCalls) > 0 {
			messages = append(messages, message)
			sess.history = append(sess.history, message)

			for _, call := range message.ToolCalls {
				result, err := sess.executeToolCall(ctx, call)
				if err != nil {
					return "", fmt.Errorf("agent: tool call %s: %w", call.Function.Name, err)
				}
				toolMsg := openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    result,
					ToolCallID: call.ID,
				}
				messages = append(messages, toolMsg)
				sess.history = append(sess.history, toolMsg)
			}
			continue
		}

		if message.Content != "" {
			sess.history = append(sess.history, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: message.Content,
			})
			if err := sess.conn.PublishData(ctx, []byte(message.Content)); err != nil {
				return "", fmt.Errorf("agent: publishing reply: %w", err)
			}
			return message.Content, nil
		}

		return "", fmt.Errorf("agent: empty assistant message")
	}

	return "", fmt.Errorf("agent: exceeded %d tool steps", maxToolSteps)
}

// executeToolCall applies one tool call and returns the result text the
// model sees. Caller holds sess.mu.
func (sess *Session) executeToolCall(ctx context.Context, call openai.ToolCall) (string, error) {
	log.Debug().Str("tool", call.Function.Name).Str("args", call.Function.Arguments).Msg("Executing barista tool")

	switch call.Function.Name {
	case ToolUpdateOrder:
		var partial order.Partial
		if err := json.Unmarshal([]byte(call.Function.Arguments), &partial); err != nil {
			return "", fmt.Errorf("invalid parameters: %w", err)
		}

		sess.order.Apply(partial)

		payload, err := json.Marshal(sess.order)
		if err != nil {
			return "", fmt.Errorf("encoding order: %w", err)
		}
		if err := sess.conn.SetAttributes(map[string]string{ordersync.AttrOrderUpdate: string(payload)}); err != nil {
			return "", fmt.Errorf("pushing order update: %w", err)
		}

		return fmt.Sprintf("Order updated. Current order: %s", payload), nil

	case ToolFinalizeOrder:
		var params struct {
			Order order.State `json:"order"`
		}
		if err := json.Unmarshal([]byte(call.Function.Arguments), &params); err != nil {
			return "", fmt.Errorf("invalid parameters: %w", err)
		}

		final := params.Order.Normalized()
		if !final.IsComplete() {
			// Guidance, not a failure: steer the model back to asking.
			return "The order is still missing required fields. Ask the customer for the missing details before finalizing.", nil
		}

		if sess.svc.orders != nil {
			if err := sess.svc.orders.Archive(ctx, final); err != nil {
				return "", fmt.Errorf("archiving order: %w", err)
			}
		}

		payload, err := json.Marshal(final)
		if err != nil {
			return "", fmt.Errorf("encoding final order: %w", err)
		}
		if err := sess.conn.SetAttributes(map[string]string{ordersync.AttrOrderFinal: string(payload)}); err != nil {
			return "", fmt.Errorf("pushing final order: %w", err)
		}

		metadata, err := json.Marshal(map[string]order.State{"final": final})
		if err != nil {
			return "", fmt.Errorf("encoding final metadata: %w", err)
		}
		if err := sess.conn.SetMetadata(string(metadata)); err != nil {
			return "", fmt.Errorf("pushing final metadata: %w", err)
		}

		sess.order = final
		sess.finalized = true

		return fmt.Sprintf("Your order is complete, %s! It has been sent to the counter.", final.Name), nil

	default:
		return "", fmt.Errorf("unknown function: %s", call.Function.Name)
	}
}
