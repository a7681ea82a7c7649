// Package service implements the enhancement service: the boundary that
// turns a prompt into an EnhancementResult and never lets a failure escape.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hpn/hpn-prompt-enhancer/internal/adapter"
	"github.com/hpn/hpn-prompt-enhancer/internal/channel"
	"github.com/hpn/hpn-prompt-enhancer/internal/domain"
	"github.com/hpn/hpn-prompt-enhancer/internal/metrics"
	"github.com/hpn/hpn-prompt-enhancer/internal/recovery"
)

// Outcome labels recorded per enhancement.
const (
	OutcomeOK       = "ok"
	OutcomeInternal = "internal"
)

// CredentialSource supplies credentials. It is consulted on every request.
type CredentialSource interface {
	Load(ctx context.Context) (domain.Credentials, error)
}

// Service orchestrates validation, credential lookup, the provider call
// and response recovery.
type Service struct {
	creds     CredentialSource
	providers *adapter.Registry
	parser    *recovery.Parser
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// Option is a functional option for configuring Service.
type Option func(*Service)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithParser replaces the recovery parser.
func WithParser(p *recovery.Parser) Option {
	return func(s *Service) {
		s.parser = p
	}
}

// New creates a Service.
func New(creds CredentialSource, providers *adapter.Registry, opts ...Option) *Service {
	s := &Service{
		creds:     creds,
		providers: providers,
		parser:    recovery.NewParser(),
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Process enhances one prompt. It always returns a result; every failure is
// reported through the result's improvements with the original prompt echoed.
func (s *Service) Process(ctx context.Context, req domain.EnhancementRequest) (result domain.EnhancementResult) {
	start := time.Now()
	outcome := OutcomeOK

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic during enhancement", slog.Any("panic", r))
			result = domain.ErrorResult(req.Prompt, fmt.Errorf("internal error: %v", r))
			outcome = OutcomeInternal
		}
		s.metrics.RecordEnhancement(outcome)
		s.logger.Info("enhancement finished",
			slog.String("outcome", outcome),
			slog.Int("prompt_length", len(req.Prompt)),
			slog.Duration("latency", time.Since(start)),
		)
	}()

	if req.Blank() {
		outcome = string(domain.ClassValidation)
		return domain.NoPromptResult(req.Prompt)
	}

	creds, err := s.creds.Load(ctx)
	if err != nil {
		outcome = string(domain.ClassConfiguration)
		s.logger.Error("failed to load credentials", slog.String("error", err.Error()))
		return domain.ErrorResult(req.Prompt, err)
	}

	if !creds.Configured() {
		outcome = string(domain.ClassConfiguration)
		return domain.MissingKeyResult(req.Prompt)
	}

	provider, ok := s.providers.Lookup(creds.Provider)
	if !ok {
		outcome = string(domain.ClassConfiguration)
		s.logger.Warn("unsupported provider", slog.String("provider", creds.Provider))
		return domain.UnsupportedProviderResult(req.Prompt, creds.Provider)
	}

	callStart := time.Now()
	raw, err := provider.Complete(ctx, req.Prompt, creds)
	s.metrics.RecordProviderCall(provider.Name(), err == nil, time.Since(callStart))
	if err != nil {
		outcome = string(domain.Classify(err))
		s.logger.Warn("provider call failed",
			slog.String("provider", provider.Name()),
			slog.String("class", outcome),
			slog.String("error", err.Error()),
		)
		return domain.ErrorResult(req.Prompt, err)
	}

	result, strategy := s.parser.RecoverNamed(raw, req.Prompt)
	s.metrics.RecordStrategy(strategy)
	if strategy == recovery.StrategyTerminal {
		s.logger.Warn("provider reply could not be parsed", slog.String("content", raw))
	} else {
		s.logger.Debug("provider reply recovered", slog.String("strategy", strategy))
	}

	return result
}

// Handle implements channel.Handler for enhance messages.
func (s *Service) Handle(ctx context.Context, msg channel.Message) <-chan domain.EnhancementResult {
	return channel.Async(func(ctx context.Context, msg channel.Message) domain.EnhancementResult {
		return s.Process(ctx, domain.EnhancementRequest{Prompt: msg.Body.Prompt})
	}).Handle(ctx, msg)
}

// Register binds the service to the enhance message on mux.
func (s *Service) Register(mux *channel.Mux) {
	mux.Register(channel.NameEnhance, s)
}
