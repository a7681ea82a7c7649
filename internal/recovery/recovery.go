// Package recovery turns free-form provider replies into an EnhancementResult.
//
// A reply is run through an ordered list of independent strategies, from
// strict JSON down to a length heuristic. The first strategy that yields a
// candidate wins and the rest are never consulted. The last strategy always
// succeeds, so recovery never fails.
package recovery

import (
	"github.com/hpn/hpn-prompt-enhancer/internal/domain"
)

// Strategy extracts a result from a raw reply. It must be pure: the same
// inputs always produce the same output and nothing is mutated.
type Strategy func(raw, original string) (domain.EnhancementResult, bool)

// Chain composes strategies into one that returns the first success.
func Chain(strategies ...Strategy) Strategy {
	return func(raw, original string) (domain.EnhancementResult, bool) {
		for _, s := range strategies {
			if res, ok := s(raw, original); ok {
				return res, true
			}
		}
		return domain.EnhancementResult{}, false
	}
}

// NamedStrategy pairs a strategy with a stable name for logs and metrics.
type NamedStrategy struct {
	Name     string
	Strategy Strategy
}

// Strategy names in priority order.
const (
	StrategyWholeText    = "whole_text"
	StrategyFencedBlock  = "fenced_block"
	StrategyFirstObject  = "first_object"
	StrategyFieldLevel   = "field_level"
	StrategyLongestQuote = "longest_quote"
	StrategyTerminal     = "terminal"
)

// DefaultStrategies returns the cascade in descending order of confidence.
func DefaultStrategies() []NamedStrategy {
	return []NamedStrategy{
		{StrategyWholeText, WholeText},
		{StrategyFencedBlock, FencedBlock},
		{StrategyFirstObject, FirstObject},
		{StrategyFieldLevel, FieldLevel},
		{StrategyLongestQuote, LongestQuote},
		{StrategyTerminal, Terminal},
	}
}

// Parser runs a fixed cascade of strategies.
type Parser struct {
	strategies []NamedStrategy
}

// NewParser creates a Parser with the default cascade.
func NewParser() *Parser {
	return &Parser{strategies: DefaultStrategies()}
}

// Recover returns the first successful strategy's result.
func (p *Parser) Recover(raw, original string) domain.EnhancementResult {
	res, _ := p.RecoverNamed(raw, original)
	return res
}

// RecoverNamed is Recover that also reports which strategy produced the result.
func (p *Parser) RecoverNamed(raw, original string) (domain.EnhancementResult, string) {
	winner := StrategyTerminal
	steps := make([]Strategy, 0, len(p.strategies)+1)
	for _, s := range p.strategies {
		s := s
		steps = append(steps, func(raw, original string) (domain.EnhancementResult, bool) {
			res, ok := s.Strategy(raw, original)
			if ok {
				winner = s.Name
			}
			return res, ok
		})
	}
	// Terminal last so custom cascades stay total.
	steps = append(steps, Terminal)

	res, _ := Chain(steps...)(raw, original)
	return res, winner
}

// Recover runs the default cascade.
func Recover(raw, original string) domain.EnhancementResult {
	return defaultParser.Recover(raw, original)
}

var defaultParser = NewParser()
