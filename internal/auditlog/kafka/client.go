// Package kafka submits audit events to a Kafka topic. The broker ack
// (partition and offset) is the proof of record.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"aidledger/internal/auditlog"
)

const (
	kindHeader           = "aidledger-kind"
	defaultVerifyTimeout = 5 * time.Second
)

// Producer is the subset of *kgo.Client used for submissions.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Client is an auditlog.Client and auditlog.Verifier backed by Kafka.
type Client struct {
	producer Producer
	topic    string
	seeds    []string
	logger   *slog.Logger

	verifyTimeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithSeeds sets the brokers dialled by Verify.
func WithSeeds(seeds ...string) Option {
	return func(c *Client) { c.seeds = seeds }
}

// WithVerifyTimeout bounds each Verify call, including the broker dial.
func WithVerifyTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.verifyTimeout = d
		}
	}
}

// New creates a Client producing to topic.
func New(producer Producer, topic string, opts ...Option) *Client {
	c := &Client{producer: producer, topic: topic, logger: slog.Default(), verifyTimeout: defaultVerifyTimeout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Submit(ctx context.Context, event auditlog.Event) (string, error) {
	if c.topic == "" {
		return "", auditlog.Misconfigured(nil, "no audit topic configured")
	}
	if err := event.Validate(); err != nil {
		return "", err
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return "", auditlog.Rejected(err, "encode event")
	}

	rec := &kgo.Record{
		Topic:     c.topic,
		Key:       []byte(uuid.NewString()),
		Value:     payload,
		Timestamp: event.Timestamp,
		Headers:   []kgo.RecordHeader{{Key: kindHeader, Value: []byte(event.Kind)}},
	}
	got, err := c.producer.ProduceSync(ctx, rec).First()
	if err != nil {
		return "", classify(err)
	}
	proof := FormatProof(got.Topic, got.Partition, got.Offset)
	c.logger.DebugContext(ctx, "audit record produced", "proof", proof, "kind", event.Kind)
	return proof, nil
}

// Verify fetches the record a proof points at. Each call assigns its own
// consumer to the proof's partition and offset; the producer client is not
// shared because direct partition assignment is fixed at construction.
func (c *Client) Verify(ctx context.Context, proof string) (*auditlog.Record, error) {
	topic, partition, offset, err := ParseProof(proof)
	if err != nil || topic != c.topic {
		return nil, auditlog.ProofNotFound(proof)
	}
	if len(c.seeds) == 0 {
		return nil, auditlog.Misconfigured(nil, "no brokers configured for verification")
	}

	ctx, cancel := context.WithTimeout(ctx, c.verifyTimeout)
	defer cancel()

	cl, err := kgo.NewClient(
		kgo.SeedBrokers(c.seeds...),
		kgo.ConsumePartitions(map[string]map[int32]kgo.Offset{
			topic: {partition: kgo.NewOffset().At(offset)},
		}),
	)
	if err != nil {
		return nil, auditlog.Unavailable(err, "create consumer")
	}
	defer cl.Close()

	ends, err := kadm.NewClient(cl).ListEndOffsets(ctx, topic)
	if err != nil {
		return nil, classify(err)
	}
	end, ok := ends.Lookup(topic, partition)
	if !ok || end.Err != nil || offset >= end.Offset {
		return nil, auditlog.ProofNotFound(proof)
	}

	for {
		fetches := cl.PollFetches(ctx)
		if err := ctx.Err(); err != nil {
			return nil, auditlog.Unavailable(err, "verify proof")
		}
		if errs := fetches.Errors(); len(errs) > 0 {
			return nil, classify(errs[0].Err)
		}

		var (
			found *kgo.Record
			past  bool
		)
		fetches.EachRecord(func(r *kgo.Record) {
			switch {
			case r.Offset == offset:
				found = r
			case r.Offset > offset:
				past = true
			}
		})
		if found != nil {
			return decode(proof, found)
		}
		if past {
			return nil, auditlog.ProofNotFound(proof)
		}
	}
}

func decode(proof string, r *kgo.Record) (*auditlog.Record, error) {
	var ev auditlog.Event
	if err := json.Unmarshal(r.Value, &ev); err != nil {
		return nil, fmt.Errorf("decode audit record %s: %w", proof, err)
	}
	return &auditlog.Record{Proof: proof, Event: ev, LoggedAt: r.Timestamp.UTC()}, nil
}

// FormatProof renders a broker position. Kafka topic names cannot contain
// ':' so the separator is unambiguous.
func FormatProof(topic string, partition int32, offset int64) string {
	return fmt.Sprintf("%s:%d:%d", topic, partition, offset)
}

// ParseProof reverses FormatProof.
func ParseProof(proof string) (topic string, partition int32, offset int64, err error) {
	parts := strings.Split(proof, ":")
	if len(parts) != 3 || parts[0] == "" {
		return "", 0, 0, fmt.Errorf("malformed proof %q", proof)
	}
	p, err := strconv.ParseInt(parts[1], 10, 32)
	if err != nil || p < 0 {
		return "", 0, 0, fmt.Errorf("malformed proof partition %q", proof)
	}
	o, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || o < 0 {
		return "", 0, 0, fmt.Errorf("malformed proof offset %q", proof)
	}
	return parts[0], int32(p), o, nil
}

// classify maps client and broker errors onto the audit taxonomy.
func classify(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return auditlog.Unavailable(err, "audit submit timed out")
	case errors.Is(err, kerr.UnknownTopicOrPartition),
		errors.Is(err, kerr.TopicAuthorizationFailed),
		errors.Is(err, kerr.InvalidTopicException):
		return auditlog.Misconfigured(err, "audit topic not provisioned")
	case errors.Is(err, kerr.MessageTooLarge),
		errors.Is(err, kerr.RecordListTooLarge),
		errors.Is(err, kerr.InvalidRecord),
		errors.Is(err, kerr.CorruptMessage),
		errors.Is(err, kerr.PolicyViolation):
		return auditlog.Rejected(err, "audit log refused event")
	default:
		return auditlog.Unavailable(err, "audit log unreachable")
	}
}
