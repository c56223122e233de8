package repository

import (
	"context"
	"fmt"

	"LiveChart/internal/domain/models"
	"LiveChart/internal/domain/repository"
	pkgkafka "LiveChart/pkg/kafka"
)

// publisher is the part of pkgkafka.Producer the sink needs.
type publisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
}

var _ publisher = (*pkgkafka.Producer)(nil)

// KafkaSink publishes chart events keyed by symbol, so one symbol's events
// stay ordered on a hash-balanced topic.
type KafkaSink struct {
	producer publisher
	topic    string
	kinds    map[string]bool
}

// NewKafkaSink creates a sink on topic. With no kinds every event is
// published; otherwise only the listed kinds are.
func NewKafkaSink(producer *pkgkafka.Producer, topic string, kinds ...string) repository.EventSink {
	return newKafkaSink(producer, topic, kinds...)
}

func newKafkaSink(p publisher, topic string, kinds ...string) *KafkaSink {
	s := &KafkaSink{producer: p, topic: topic}
	if len(kinds) > 0 {
		s.kinds = make(map[string]bool, len(kinds))
		for _, k := range kinds {
			s.kinds[k] = true
		}
	}
	return s
}

func (s *KafkaSink) Publish(ctx context.Context, ev models.ChartEvent) error {
	if s.kinds != nil && !s.kinds[ev.Kind] {
		return nil
	}
	if err := s.producer.Publish(ctx, s.topic, []byte(ev.Identity.Symbol), ev); err != nil {
		return fmt.Errorf("publish %s event: %w", ev.Kind, err)
	}
	return nil
}

// Close leaves the producer open; it is shared with the log collector and
// closed by its owner.
func (s *KafkaSink) Close() error {
	return nil
}

// NoopSink drops every event. Used when Kafka is disabled.
type NoopSink struct{}

func (NoopSink) Publish(context.Context, models.ChartEvent) error { return nil }
func (NoopSink) Close() error { return nil }
