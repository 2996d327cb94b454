// internal/service/checkout/infrastructure/adapter/event_kafka_adapter.go
package adapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"storefront/internal/pkg/mq"
	"storefront/internal/service/checkout/domain"
)

// EventKafkaAdapter 实现了 port.EventPublisher 接口，两类事件写入不同的主题。
type EventKafkaAdapter struct {
	evaluatedWriter *kafka.Writer
	updatedWriter   *kafka.Writer
}

func NewEventKafkaAdapter(evaluatedWriter, updatedWriter *kafka.Writer) *EventKafkaAdapter {
	return &EventKafkaAdapter{evaluatedWriter: evaluatedWriter, updatedWriter: updatedWriter}
}

// PublishCheckoutEvaluated 以 EventID 为 key 发送，消息均匀分布在各分区。
func (a *EventKafkaAdapter) PublishCheckoutEvaluated(ctx context.Context, event *domain.CheckoutEvaluated) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal checkout evaluated event: %w", err)
	}
	return mq.ProduceMessage(ctx, a.evaluatedWriter, []byte(event.EventID), eventBytes)
}

// PublishFlowUpdated 以 FlowID 为 key 发送，同一流程的更新保持有序。
func (a *EventKafkaAdapter) PublishFlowUpdated(ctx context.Context, event *domain.FlowUpdated) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal flow updated event: %w", err)
	}
	return mq.ProduceMessage(ctx, a.updatedWriter, []byte(event.FlowID), eventBytes)
}

// Close 关闭底层的Kafka writer。
func (a *EventKafkaAdapter) Close() error {
	err1 := a.evaluatedWriter.Close()
	err2 := a.updatedWriter.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
