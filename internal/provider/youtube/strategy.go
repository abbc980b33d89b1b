package youtube

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chaptersplit/internal/services"
)

// Outcome is the output of a successful strategy.
type Outcome struct {
	Strategy string
	Stdout   []byte
}

// Strategy is one way of running a yt-dlp command.
type Strategy struct {
	Name string
	Run  func(ctx context.Context) (Outcome, error)
}

// AttemptError records why one strategy failed.
type AttemptError struct {
	Strategy string
	Err      error
}

func (e AttemptError) Error() string {
	return e.Strategy + ": " + e.Err.Error()
}

// ChainError is returned when every strategy of a chain failed.
type ChainError struct {
	Op       string
	Attempts []AttemptError
}

func (e *ChainError) Error() string {
	if len(e.Attempts) == 0 {
		return fmt.Sprintf("%s: no strategies to try", e.Op)
	}
	last := e.Attempts[len(e.Attempts)-1]
	return fmt.Sprintf("%s failed after %d attempts (last %s)", e.Op, len(e.Attempts), last.Error())
}

// Unwrap exposes services.ErrExternalTool plus every attempt error.
func (e *ChainError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts)+1)
	errs = append(errs, services.ErrExternalTool)
	for _, attempt := range e.Attempts {
		errs = append(errs, attempt.Err)
	}
	return errs
}

// Summary renders every attempt on its own line.
func (e *ChainError) Summary() string {
	lines := make([]string, 0, len(e.Attempts))
	for _, attempt := range e.Attempts {
		lines = append(lines, attempt.Error())
	}
	return strings.Join(lines, "\n")
}

// RunChain tries strategies in order and returns the first success. A
// cancelled context stops the chain immediately.
func RunChain(ctx context.Context, op string, strategies []Strategy) (Outcome, error) {
	chain := &ChainError{Op: op}
	for _, strategy := range strategies {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
		outcome, err := strategy.Run(ctx)
		if err == nil {
			outcome.Strategy = strategy.Name
			return outcome, nil
		}
		if errors.Is(err, context.Canceled) {
			return Outcome{}, err
		}
		chain.Attempts = append(chain.Attempts, AttemptError{Strategy: strategy.Name, Err: err})
	}
	return Outcome{}, chain
}
