// Package gateway is the caller-side entry point for prompt enhancement.
//
// A Gateway allows one enhancement at a time. Calls that arrive while one is
// in flight are dropped: they return immediately with neither a result nor
// an error. Each call waits for the reply up to a timeout; on timeout the
// request context handed to the channel is cancelled, which aborts the
// remote work as well.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hpn/hpn-prompt-enhancer/internal/channel"
	"github.com/hpn/hpn-prompt-enhancer/internal/domain"
)

// DefaultTimeout is how long Enhance waits for a reply.
const DefaultTimeout = 30 * time.Second

// Gateway sends enhance messages over a channel. The zero value is not
// usable; create one with New. Separate Gateways do not share state.
type Gateway struct {
	sender  channel.Sender
	timeout time.Duration
	logger  *slog.Logger

	inFlight atomic.Bool
}

// Option is a functional option for configuring Gateway.
type Option func(*Gateway)

// WithTimeout sets the reply timeout.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// New creates a Gateway that talks through sender.
func New(sender channel.Sender, opts ...Option) *Gateway {
	g := &Gateway{
		sender:  sender,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// InFlight reports whether an enhancement is currently running.
func (g *Gateway) InFlight() bool {
	return g.inFlight.Load()
}

// Enhance requests an enhanced version of prompt.
//
// It returns (nil, nil) when another call is already in flight. Blank
// prompts are answered locally without touching the channel. Channel-level
// problems are returned as *Failure; everything else arrives as a result.
func (g *Gateway) Enhance(ctx context.Context, prompt string) (*domain.EnhancementResult, error) {
	if !g.inFlight.CompareAndSwap(false, true) {
		g.logger.Debug("enhancement already in flight, dropping call")
		return nil, nil
	}
	defer g.inFlight.Store(false)

	if (domain.EnhancementRequest{Prompt: prompt}).Blank() {
		res := domain.NoPromptResult(prompt)
		return &res, nil
	}

	sendCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	msg := channel.NewEnhanceMessage(prompt)
	log := g.logger.With(slog.String("message_id", msg.ID))

	replies, err := g.sender.Send(sendCtx, msg)
	if err != nil {
		return nil, g.fail(log, classify(err), err)
	}

	timer := time.NewTimer(g.timeout)
	defer timer.Stop()

	select {
	case r, ok := <-replies:
		if !ok {
			return nil, g.fail(log, KindNoResponse, channel.ErrNoResponse)
		}
		if r.Err != nil {
			return nil, g.fail(log, classify(r.Err), r.Err)
		}
		if r.Result.EnhancedPrompt == "" {
			return nil, g.fail(log, KindInvalidResponse, ErrEmptyEnhancement)
		}
		log.Debug("enhancement received", slog.Int("improvements", len(r.Result.Improvements)))
		return &r.Result, nil

	case <-timer.C:
		return nil, g.fail(log, KindTimeout, ErrTimeout)

	case <-ctx.Done():
		return nil, g.fail(log, KindGeneric, ctx.Err())
	}
}

func (g *Gateway) fail(log *slog.Logger, kind FailureKind, err error) *Failure {
	log.Warn("enhancement failed",
		slog.String("kind", string(kind)),
		slog.String("error", err.Error()),
	)
	return &Failure{Kind: kind, Err: err}
}

// classify maps channel errors onto failure kinds.
func classify(err error) FailureKind {
	switch {
	case errors.Is(err, channel.ErrUnavailable):
		return KindUnavailable
	case errors.Is(err, channel.ErrNoResponse):
		return KindNoResponse
	default:
		return KindGeneric
	}
}
