// Package kafka builds franz-go clients for the audit topic.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Config holds broker connection settings.
type Config struct {
	Brokers  []string
	ClientID string
	// DeliveryTimeout bounds how long a produced record may wait for an ack
	// inside the client before it is failed.
	DeliveryTimeout time.Duration
}

// ProducerOpts returns the options used for audit submissions. Records are
// acked by all in-sync replicas and written idempotently, so an ack means the
// event is durable.
func (c Config) ProducerOpts() []kgo.Opt {
	opts := []kgo.Opt{
		kgo.SeedBrokers(c.Brokers...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(0),
	}
	if c.ClientID != "" {
		opts = append(opts, kgo.ClientID(c.ClientID))
	}
	if c.DeliveryTimeout > 0 {
		opts = append(opts, kgo.RecordDeliveryTimeout(c.DeliveryTimeout))
	}
	return opts
}

// NewClient creates a producer client and pings the cluster.
func NewClient(ctx context.Context, cfg Config) (*kgo.Client, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	cl, err := kgo.NewClient(cfg.ProducerOpts()...)
	if err != nil {
		return nil, fmt.Errorf("kafka: create client: %w", err)
	}
	if err := cl.Ping(ctx); err != nil {
		cl.Close()
		return nil, fmt.Errorf("kafka: ping brokers: %w", err)
	}
	return cl, nil
}

// EnsureTopic creates topic if it does not exist. It reports whether the
// topic was created by this call.
func EnsureTopic(ctx context.Context, adm *kadm.Client, topic string, partitions int32, replication int16) (bool, error) {
	if topic == "" {
		return false, errors.New("kafka: topic name is required")
	}
	resp, err := adm.CreateTopic(ctx, partitions, replication, nil, topic)
	if err == nil {
		err = resp.Err
	}
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, kerr.TopicAlreadyExists):
		return false, nil
	default:
		return false, fmt.Errorf("kafka: create topic %q: %w", topic, err)
	}
}

// TopicExists reports whether topic is known to the cluster.
func TopicExists(ctx context.Context, adm *kadm.Client, topic string) (bool, error) {
	details, err := adm.ListTopics(ctx, topic)
	if err != nil {
		return false, fmt.Errorf("kafka: list topics: %w", err)
	}
	d, ok := details[topic]
	if !ok {
		return false, nil
	}
	if d.Err != nil {
		if errors.Is(d.Err, kerr.UnknownTopicOrPartition) {
			return false, nil
		}
		return false, fmt.Errorf("kafka: describe topic %q: %w", topic, d.Err)
	}
	return true, nil
}
