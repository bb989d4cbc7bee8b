// Command init-topic provisions the audit topic once and prints the
// environment line that points the server at it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"

	"aidledger/internal/platform/config"
	"aidledger/internal/platform/kafka"
	"aidledger/internal/platform/logger"
)

const defaultTopic = "aidledger-audit"

func main() {
	topic := flag.String("topic", "", "topic name (defaults to AUDIT_TOPIC, then "+defaultTopic+")")
	timeout := flag.Duration("timeout", 30*time.Second, "overall timeout")
	flag.Parse()

	if err := run(*topic, *timeout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(topic string, timeout time.Duration) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	if !cfg.Audit.KafkaEnabled() {
		return fmt.Errorf("KAFKA_BROKERS must be set")
	}
	if topic == "" {
		topic = cfg.Audit.Topic
	}
	if topic == "" {
		topic = defaultTopic
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cl, err := kafka.NewClient(ctx, kafka.Config{Brokers: cfg.Audit.Brokers, ClientID: cfg.Audit.ClientID})
	if err != nil {
		return err
	}
	defer cl.Close()

	created, err := kafka.EnsureTopic(ctx, kadm.NewClient(cl), topic, cfg.Audit.Partitions, cfg.Audit.Replication)
	if err != nil {
		return err
	}
	if created {
		log.Info("audit topic created", "topic", topic, "partitions", cfg.Audit.Partitions)
	} else {
		log.Info("audit topic already exists", "topic", topic)
	}

	fmt.Printf("AUDIT_TOPIC=%s\n", topic)
	return nil
}
