// Package payout provides engine.Transferer implementations.
package payout

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/louisbranch/tollgate.space/internal/services/market/domain/market"
)

// ErrDestinationRequired indicates a transfer without a destination.
var ErrDestinationRequired = errors.New("destination is required")

// Func adapts a function to engine.Transferer.
type Func func(ctx context.Context, destination string, amount market.Amount) error

// Transfer calls f.
func (f Func) Transfer(ctx context.Context, destination string, amount market.Amount) error {
	return f(ctx, destination, amount)
}

// Logger records transfers in memory and logs each one. It stands in for a
// settlement rail when none is configured.
type Logger struct {
	mu     sync.Mutex
	logger *log.Logger
	totals map[string]market.Amount
	count  int
}

// NewLogger returns a Logger writing to logger, or to the standard logger
// when logger is nil.
func NewLogger(logger *log.Logger) *Logger {
	if logger == nil {
		logger = log.Default()
	}
	return &Logger{logger: logger, totals: make(map[string]market.Amount)}
}

// Transfer records amount as sent to destination.
func (l *Logger) Transfer(ctx context.Context, destination string, amount market.Amount) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return ErrDestinationRequired
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.totals[destination] += amount
	l.count++
	l.logger.Printf("payout: sent %s to %s", amount, destination)
	return nil
}

// Total returns the amount sent to destination so far.
func (l *Logger) Total(destination string) market.Amount {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totals[destination]
}

// Count returns the number of transfers recorded.
func (l *Logger) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}
