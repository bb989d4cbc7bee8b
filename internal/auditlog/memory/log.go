// Package memory is an in-process audit log used by tests and local runs.
// Proofs mimic consensus transaction ids: "<operator>@<seconds>.<sequence>".
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"aidledger/internal/auditlog"
)

const defaultOperator = "0.0.1001"

// Log records submitted events in order.
type Log struct {
	mu sync.Mutex

	topic    string
	operator string
	now      func() time.Time
	delay    time.Duration

	seq      int64
	records  map[string]auditlog.Record
	order    []string
	proofs   []string
	failures []error
	failAll  error
	submits  int
}

// Option configures a Log.
type Option func(*Log)

// WithOperator sets the account prefix used in generated proofs.
func WithOperator(op string) Option {
	return func(l *Log) { l.operator = op }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

// WithDelay makes Submit block for d (or until ctx ends) before answering.
func WithDelay(d time.Duration) Option {
	return func(l *Log) { l.delay = d }
}

// New creates a Log writing to topic. An empty topic makes every Submit fail
// with ErrMisconfigured.
func New(topic string, opts ...Option) *Log {
	l := &Log{
		topic:    topic,
		operator: defaultOperator,
		now:      time.Now,
		records:  make(map[string]auditlog.Record),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// QueueProofs makes the next submissions return the given proofs in order.
func (l *Log) QueueProofs(proofs ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.proofs = append(l.proofs, proofs...)
}

// FailNext makes the next len(errs) submissions fail with errs in order.
func (l *Log) FailNext(errs ...error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures = append(l.failures, errs...)
}

// FailAll makes every submission fail with err until cleared with nil.
func (l *Log) FailAll(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failAll = err
}

// Submits returns how many times Submit was called.
func (l *Log) Submits() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.submits
}

// Records returns logged records in submission order.
func (l *Log) Records() []auditlog.Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]auditlog.Record, 0, len(l.order))
	for _, p := range l.order {
		out = append(out, l.records[p])
	}
	return out
}

func (l *Log) Submit(ctx context.Context, event auditlog.Event) (string, error) {
	l.mu.Lock()
	l.submits++
	l.mu.Unlock()

	if l.delay > 0 {
		select {
		case <-time.After(l.delay):
		case <-ctx.Done():
			return "", auditlog.Unavailable(ctx.Err(), "submit timed out")
		}
	}
	if err := ctx.Err(); err != nil {
		return "", auditlog.Unavailable(err, "submit cancelled")
	}
	if l.topic == "" {
		return "", auditlog.Misconfigured(nil, "no audit topic configured")
	}
	if err := event.Validate(); err != nil {
		return "", err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.failAll != nil {
		return "", l.failAll
	}
	if len(l.failures) > 0 {
		err := l.failures[0]
		l.failures = l.failures[1:]
		return "", err
	}

	now := l.now().UTC()
	l.seq++
	var proof string
	if len(l.proofs) > 0 {
		proof = l.proofs[0]
		l.proofs = l.proofs[1:]
	} else {
		proof = fmt.Sprintf("%s@%d.%09d", l.operator, now.Unix(), l.seq)
	}
	l.records[proof] = auditlog.Record{Proof: proof, Event: event, LoggedAt: now}
	l.order = append(l.order, proof)
	return proof, nil
}

func (l *Log) Verify(ctx context.Context, proof string) (*auditlog.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, auditlog.Unavailable(err, "verify cancelled")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.records[proof]
	if !ok {
		return nil, auditlog.ProofNotFound(proof)
	}
	return &rec, nil
}
