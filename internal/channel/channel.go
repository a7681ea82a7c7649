// Package channel defines the message protocol between the request gateway
// and the enhancement service.
//
// A request is a Message; the reply is an EnhancementResult. Handlers are
// asynchronous: Handle returns immediately with a reply channel and
// computes the reply in the background.
//
// Reply channel lifetime:
//   - at most one value is ever sent;
//   - the channel is closed once the handler is done with it;
//   - a channel closed without a value means no reply will come.
//
// Handlers must buffer the reply channel so that an abandoned receiver does
// not leak the goroutine producing the reply.
package channel

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/hpn/hpn-prompt-enhancer/internal/domain"
)

// NameEnhance is the message name for enhancement requests.
const NameEnhance = "enhance"

var (
	// ErrUnavailable is returned when no channel to the service exists.
	ErrUnavailable = errors.New("channel: enhancement service unavailable")

	// ErrNoResponse is delivered when the reply channel closes without a value.
	ErrNoResponse = errors.New("channel: no response from enhancement service")
)

// Body is the payload of an enhance message.
type Body struct {
	Prompt string `json:"prompt"`
}

// Message is a request sent over the channel.
type Message struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Body Body   `json:"body"`
}

// NewEnhanceMessage builds an enhance message with a fresh ID.
func NewEnhanceMessage(prompt string) Message {
	return Message{
		ID:   uuid.NewString(),
		Name: NameEnhance,
		Body: Body{Prompt: prompt},
	}
}

// Handler processes messages on the service side.
type Handler interface {
	Handle(ctx context.Context, msg Message) <-chan domain.EnhancementResult
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, msg Message) <-chan domain.EnhancementResult

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, msg Message) <-chan domain.EnhancementResult {
	return f(ctx, msg)
}

// Async turns a synchronous function into a Handler that runs it on its own
// goroutine and delivers exactly one reply.
func Async(fn func(ctx context.Context, msg Message) domain.EnhancementResult) Handler {
	return HandlerFunc(func(ctx context.Context, msg Message) <-chan domain.EnhancementResult {
		reply := make(chan domain.EnhancementResult, 1)
		go func() {
			defer close(reply)
			reply <- fn(ctx, msg)
		}()
		return reply
	})
}

// closedReply returns a reply channel that will never carry a value.
func closedReply() <-chan domain.EnhancementResult {
	reply := make(chan domain.EnhancementResult)
	close(reply)
	return reply
}

// Mux routes messages to handlers by name.
type Mux struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	logger   *slog.Logger
}

// NewMux creates an empty Mux.
func NewMux(logger *slog.Logger) *Mux {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mux{
		handlers: make(map[string]Handler),
		logger:   logger,
	}
}

// Register binds a handler to a message name.
func (m *Mux) Register(name string, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[name] = h
}

// Handle implements Handler. Unknown names get no reply.
func (m *Mux) Handle(ctx context.Context, msg Message) <-chan domain.EnhancementResult {
	m.mu.RLock()
	h, ok := m.handlers[msg.Name]
	m.mu.RUnlock()

	if !ok {
		m.logger.Warn("unknown message",
			slog.String("name", msg.Name),
			slog.String("message_id", msg.ID),
		)
		return closedReply()
	}
	return h.Handle(ctx, msg)
}

// Reply is what a Sender delivers: a result, or the reason there is none.
type Reply struct {
	Result domain.EnhancementResult
	Err    error
}

// Sender is the gateway side of the channel.
type Sender interface {
	// Send dispatches msg. The returned channel delivers exactly one Reply
	// unless ctx is cancelled first. A non-nil error means the message was
	// never sent.
	Send(ctx context.Context, msg Message) (<-chan Reply, error)
}

// Local delivers messages to an in-process Handler.
type Local struct {
	handler Handler
}

// NewLocal creates a Local sender for h.
func NewLocal(h Handler) *Local {
	return &Local{handler: h}
}

// Send implements Sender.
func (l *Local) Send(ctx context.Context, msg Message) (<-chan Reply, error) {
	if l == nil || l.handler == nil {
		return nil, ErrUnavailable
	}

	results := l.handler.Handle(ctx, msg)
	out := make(chan Reply, 1)
	go func() {
		defer close(out)
		select {
		case res, ok := <-results:
			if !ok {
				out <- Reply{Err: ErrNoResponse}
				return
			}
			out <- Reply{Result: res}
		case <-ctx.Done():
			out <- Reply{Err: ctx.Err()}
		}
	}()
	return out, nil
}
