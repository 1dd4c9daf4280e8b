// Package kafka wraps the franz-go client for the audit stream.
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

// Producer publishes keyed records to a single default topic.
type Producer struct {
	client *kgo.Client
	topic  string
}

// NewProducer connects to brokers and pings the cluster.
func NewProducer(ctx context.Context, brokers []string, topic string, opts ...kgo.Opt) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	base := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(5 * time.Millisecond),
	}
	client, err := kgo.NewClient(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("kafka: new client: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("kafka: ping: %w", err)
	}
	return &Producer{client: client, topic: topic}, nil
}

// EnsureTopic creates the producer topic when it does not exist yet.
func (p *Producer) EnsureTopic(ctx context.Context, partitions int32, replicationFactor int16) error {
	adm := kadm.NewClient(p.client)
	resp, err := adm.CreateTopic(ctx, partitions, replicationFactor, nil, p.topic)
	if err != nil {
		return fmt.Errorf("kafka: create topic %s: %w", p.topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("kafka: create topic %s: %w", p.topic, resp.Err)
	}
	return nil
}

// Publish synchronously produces one record and waits for the broker ack.
func (p *Producer) Publish(ctx context.Context, key, value []byte, headers map[string]string) error {
	rec := &kgo.Record{Topic: p.topic, Key: key, Value: value}
	for k, v := range headers {
		rec.Headers = append(rec.Headers, kgo.RecordHeader{Key: k, Value: []byte(v)})
	}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("kafka: produce to %s: %w", p.topic, err)
	}
	return nil
}

func (p *Producer) Topic() string {
	return p.topic
}

// Client exposes the underlying client, e.g. for consumers in tests.
func (p *Producer) Client() *kgo.Client {
	return p.client
}

func (p *Producer) Close() {
	p.client.Close()
}
