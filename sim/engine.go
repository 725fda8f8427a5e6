// Package sim steps a broker and a strategy through business days.
package sim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/daybook/broker"
	"github.com/rustyeddy/daybook/censor"
	"github.com/rustyeddy/daybook/market"
	"go.uber.org/zap"
)

var ErrBadRange = errors.New("end date before start date")

type Engine struct {
	start    time.Time
	end      time.Time
	strategy Strategy
	broker   *broker.Broker
	other    *censor.Data
	log      *zap.Logger
	days     int
}

type Option func(*Engine)

// WithOtherData supplies contextual datasets. Their date advances at each
// pre-close phase.
func WithOtherData(d *censor.Data) Option {
	return func(e *Engine) {
		if d != nil {
			e.other = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func New(start, end time.Time, s Strategy, b *broker.Broker, opts ...Option) (*Engine, error) {
	if s == nil {
		return nil, errors.New("sim: nil strategy")
	}
	if b == nil {
		return nil, errors.New("sim: nil broker")
	}
	start, end = market.Day(start), market.Day(end)
	if end.Before(start) {
		return nil, fmt.Errorf("%s to %s: %w", start.Format(time.DateOnly), end.Format(time.DateOnly), ErrBadRange)
	}

	e := &Engine{
		start:    start,
		end:      end,
		strategy: s,
		broker:   b,
		other:    censor.NewData(),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// AddAsset registers an asset with the engine's broker.
func (e *Engine) AddAsset(a *market.Asset) error { return e.broker.AddAsset(a) }

func (e *Engine) Broker() *broker.Broker { return e.broker }

func (e *Engine) OtherData() *censor.Data { return e.other }

func (e *Engine) Start() time.Time { return e.start }

func (e *Engine) End() time.Time { return e.end }

// Days is the number of days simulated by the last Run.
func (e *Engine) Days() int { return e.days }

// Run simulates every business day from start to end inclusive.
func (e *Engine) Run(ctx context.Context) error {
	e.log.Info("simulation started",
		zap.Time("start", e.start),
		zap.Time("end", e.end),
		zap.Float64("cash", e.broker.Cash()))

	view := broker.NewView(e.broker)
	fills := newFillBuffer(e.broker)
	e.days = 0

	for d := FirstBusinessDay(e.start); !d.After(e.end); d = NextBusinessDay(d) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.runDay(d, view, fills); err != nil {
			return fmt.Errorf("%s: %w", d.Format(time.DateOnly), err)
		}
		e.days++
	}

	e.log.Info("simulation finished",
		zap.Int("days", e.days),
		zap.Int("trades", len(e.broker.Trades())),
		zap.Float64("cash", e.broker.Cash()))
	return nil
}

func (e *Engine) runDay(d time.Time, view *broker.View, fills *fillBuffer) error {
	if err := e.broker.ExecuteSplits(d); err != nil {
		return fmt.Errorf("splits: %w", err)
	}
	// The positions snapshot is taken before the day's dividends are paid.
	view.SetDate(d, broker.PreOpen)
	e.broker.ExecuteDividends(d)

	if err := e.strategy.PreOpen(d, view, fills.drain(), e.other); err != nil {
		return fmt.Errorf("pre-open: %w", err)
	}
	// A wrong-phase order aborts the run even if the strategy dropped the error.
	if err := view.Err(); err != nil {
		return fmt.Errorf("pre-open: %w", err)
	}

	view.SetDate(d, broker.PreClose)
	e.other.SetDate(d)

	if err := e.strategy.PreClose(d, view, fills.drain(), e.other); err != nil {
		return fmt.Errorf("pre-close: %w", err)
	}
	if err := view.Err(); err != nil {
		return fmt.Errorf("pre-close: %w", err)
	}

	e.broker.DayFinished(d)
	e.log.Debug("day finished", zap.Time("date", d), zap.Float64("cash", e.broker.Cash()))
	return nil
}
