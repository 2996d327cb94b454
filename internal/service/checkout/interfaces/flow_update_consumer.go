// internal/service/checkout/interfaces/flow_update_consumer.go
package interfaces

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/mq"
	"storefront/internal/service/checkout/domain"
)

// FlowUpdateHandler 是消费者驱动的应用服务方法。
type FlowUpdateHandler interface {
	HandleFlowUpdated(ctx context.Context, event *domain.FlowUpdated) error
}

// MessageReader 是 kafka.Reader 中消费者用到的部分。
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// FlowUpdateConsumer 监听 FlowUpdated 事件并清理本实例的流程缓存。
type FlowUpdateConsumer struct {
	reader  MessageReader
	handler FlowUpdateHandler
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewFlowUpdateConsumer(reader MessageReader, handler FlowUpdateHandler) *FlowUpdateConsumer {
	return &FlowUpdateConsumer{reader: reader, handler: handler}
}

// Start 在后台开始消费，直到 Stop 被调用。
func (c *FlowUpdateConsumer) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		logger.Ctx(ctx).Info().Msg("Flow update consumer started")
		for {
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					logger.Ctx(ctx).Info().Msg("Flow update consumer shutting down")
					return
				}
				logger.Ctx(ctx).Error().Err(err).Msg("could not read message, retrying")
				select {
				case <-time.After(time.Second):
				case <-ctx.Done():
					return
				}
				continue
			}

			c.processMessage(ctx, msg)

			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				logger.Ctx(ctx).Error().Err(err).Msg("failed to commit message")
			}
		}
	}()
}

// Stop 优雅地停止消费者。
func (c *FlowUpdateConsumer) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	if err := c.reader.Close(); err != nil {
		logger.Ctx(context.Background()).Error().Err(err).Msg("failed to close kafka reader")
	}
}

// processMessage 反序列化消息并调用应用服务，坏消息只记录日志后跳过。
func (c *FlowUpdateConsumer) processMessage(parentCtx context.Context, msg kafka.Message) {
	carrier := mq.KafkaHeaderCarrier(msg.Headers)
	ctx := otel.GetTextMapPropagator().Extract(parentCtx, &carrier)

	var event domain.FlowUpdated
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		logger.Ctx(ctx).Error().Err(err).Int64("offset", msg.Offset).Msg("failed to unmarshal flow update")
		return
	}
	if err := c.handler.HandleFlowUpdated(ctx, &event); err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("flow_id", event.FlowID).Msg("failed to handle flow update")
	}
}
