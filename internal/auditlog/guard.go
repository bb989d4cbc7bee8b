package auditlog

import (
	"context"
	"errors"
	"log/slog"

	"aidledger/pkg/platform/circuit"
)

// Guarded wraps a Client with a circuit breaker. While the circuit is open,
// Submit fails fast with ErrUnavailable instead of queueing behind a dead
// broker; one probe per cooldown is let through. Only ErrUnavailable counts
// as a failure: a rejected payload says nothing about service health, and
// neither does a caller that went away. Deadlines still count.
type Guarded struct {
	next    Client
	breaker *circuit.Breaker
	logger  *slog.Logger
}

// NewGuarded wraps next with breaker.
func NewGuarded(next Client, breaker *circuit.Breaker, logger *slog.Logger) *Guarded {
	return &Guarded{next: next, breaker: breaker, logger: logger}
}

func (g *Guarded) Submit(ctx context.Context, event Event) (string, error) {
	if !g.breaker.Allow() {
		return "", Unavailable(nil, "audit log circuit open")
	}

	proof, err := g.next.Submit(ctx, event)
	if err != nil && callerCancelled(ctx, err) {
		return "", err
	}
	if err != nil && errors.Is(err, ErrUnavailable) {
		if _, change := g.breaker.RecordFailure(); change.Opened && g.logger != nil {
			g.logger.WarnContext(ctx, "audit log circuit opened",
				"breaker", g.breaker.Name(),
				"error", err,
			)
		}
		return "", err
	}

	if _, change := g.breaker.RecordSuccess(); change.Closed && g.logger != nil {
		g.logger.InfoContext(ctx, "audit log circuit closed", "breaker", g.breaker.Name())
	}
	return proof, err
}

func callerCancelled(ctx context.Context, err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled)
}
