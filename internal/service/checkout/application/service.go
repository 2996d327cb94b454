// internal/service/checkout/application/service.go
package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/metrics"
	"storefront/internal/pkg/tracing"
	"storefront/internal/service/checkout/domain"
	"storefront/internal/service/checkout/domain/port"
)

// lockTimeout 限制后台保存时等待编辑锁的时间。
const lockTimeout = 5 * time.Second

// CheckoutService 编排结账流程的读取、保存和资格计算。
type CheckoutService struct {
	repo      domain.FlowRepository
	evaluator *domain.Evaluator
	tracer    trace.Tracer

	publisher port.EventPublisher
	locker    port.FlowLocker
	cache     port.FlowCache
	metrics   *metrics.CheckoutMetrics
	now       func() time.Time
}

// Option 配置 CheckoutService 的可选依赖。
type Option func(*CheckoutService)

func WithPublisher(p port.EventPublisher) Option {
	return func(s *CheckoutService) { s.publisher = p }
}

func WithLocker(l port.FlowLocker) Option {
	return func(s *CheckoutService) { s.locker = l }
}

// WithCache 设置收到 FlowUpdated 事件时需要清理的缓存。
func WithCache(c port.FlowCache) Option {
	return func(s *CheckoutService) { s.cache = c }
}

func WithMetrics(m *metrics.CheckoutMetrics) Option {
	return func(s *CheckoutService) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *CheckoutService) { s.now = now }
}

// NewCheckoutService 创建结账应用服务。evaluator 为 nil 时使用不带表达式引擎的求值器。
func NewCheckoutService(repo domain.FlowRepository, evaluator *domain.Evaluator, tracer trace.Tracer, opts ...Option) *CheckoutService {
	if evaluator == nil {
		evaluator = domain.NewEvaluator(nil)
	}
	s := &CheckoutService{
		repo:      repo,
		evaluator: evaluator,
		tracer:    tracer,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetDefaultFlow 返回当前的默认流程。
func (s *CheckoutService) GetDefaultFlow(ctx context.Context) (*domain.FlowConfig, error) {
	ctx, span := s.tracer.Start(ctx, "app.GetDefaultFlow")
	defer span.End()

	flow, err := s.repo.FindDefault(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load default flow")
		return nil, err
	}
	span.SetAttributes(attribute.String("flow.id", flow.ID))
	return flow, nil
}

// GetFlow 按 ID 查找流程，不存在时返回 domain.ErrFlowNotFound。
func (s *CheckoutService) GetFlow(ctx context.Context, id string) (*domain.FlowConfig, error) {
	ctx, span := s.tracer.Start(ctx, "app.GetFlow")
	defer span.End()
	span.SetAttributes(attribute.String("flow.id", id))

	flow, err := s.repo.FindByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return flow, nil
}

func (s *CheckoutService) ListFlows(ctx context.Context) ([]domain.FlowConfig, error) {
	ctx, span := s.tracer.Start(ctx, "app.ListFlows")
	defer span.End()

	flows, err := s.repo.List(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("flow.count", len(flows)))
	return flows, nil
}

// SaveFlow 是后台修改流程配置的用例：校验、加锁、持久化、通知其他实例。
func (s *CheckoutService) SaveFlow(ctx context.Context, flow *domain.FlowConfig) (*SaveFlowResponse, error) {
	ctx, span := s.tracer.Start(ctx, "app.SaveFlow")
	defer span.End()

	if flow == nil {
		return nil, fmt.Errorf("%w: empty body", domain.ErrInvalidFlow)
	}
	span.SetAttributes(
		attribute.String("flow.id", flow.ID),
		attribute.Int("flow.steps", len(flow.Steps)),
		attribute.Int("flow.payment_rules", len(flow.PaymentRules)),
	)

	// 1. 校验结构和表达式语法
	if err := flow.Validate(); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if engine := s.evaluator.Engine(); engine != nil {
		for _, expr := range flow.Expressions() {
			if err := engine.Check(expr); err != nil {
				err = fmt.Errorf("%w: %q: %v", domain.ErrInvalidCondition, expr, err)
				span.RecordError(err)
				return nil, err
			}
		}
	}

	// 2. 同一流程同一时刻只允许一个管理员修改
	if s.locker != nil {
		lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
		unlock, err := s.locker.Lock(lockCtx, flow.ID)
		cancel()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to acquire flow lock")
			return nil, fmt.Errorf("%w: %v", domain.ErrFlowLocked, err)
		}
		defer func() {
			if err := unlock(); err != nil {
				logger.Ctx(ctx).Error().Err(err).Str("flow_id", flow.ID).Msg("failed to release flow lock")
			}
		}()
	}

	// 3. 切换默认流程时记下旧的默认流程，其他实例需要清理它的缓存
	var previousDefault string
	if flow.IsDefault {
		prev, err := s.repo.FindDefault(ctx)
		if err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("failed to look up previous default flow")
		} else if prev.ID != flow.ID {
			previousDefault = prev.ID
			span.SetAttributes(attribute.String("flow.previous_default", previousDefault))
		}
	}

	// 4. 持久化
	if err := s.repo.Save(ctx, flow); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to save flow")
		return nil, fmt.Errorf("failed to save flow %s: %w", flow.ID, err)
	}
	span.AddEvent("Flow saved")

	// 5. 通知其他实例，失败不影响保存结果
	if s.publisher != nil {
		event := &domain.FlowUpdated{
			EventID:           uuid.NewString(),
			FlowID:            flow.ID,
			PreviousDefaultID: previousDefault,
			UpdatedAt:         s.now(),
		}
		if err := s.publisher.PublishFlowUpdated(ctx, event); err != nil {
			s.recordPublishFailure()
			logger.Ctx(ctx).Warn().Err(err).Str("flow_id", flow.ID).Msg("failed to publish flow update")
		}
	}

	logger.Ctx(ctx).Info().Str("flow_id", flow.ID).Msg("Checkout flow saved")
	return &SaveFlowResponse{FlowID: flow.ID, Message: "Flow saved successfully"}, nil
}

// HandleFlowUpdated 清理被其他实例修改过的流程缓存。
func (s *CheckoutService) HandleFlowUpdated(ctx context.Context, event *domain.FlowUpdated) error {
	ctx, span := s.tracer.Start(ctx, "app.HandleFlowUpdated", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()
	span.SetAttributes(attribute.String("flow.id", event.FlowID))

	if s.cache == nil {
		return nil
	}
	keys := []string{event.FlowID, port.DefaultFlowKey}
	if event.PreviousDefaultID != "" && event.PreviousDefaultID != event.FlowID {
		keys = append(keys, event.PreviousDefaultID)
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to invalidate flow %s: %w", event.FlowID, err)
	}
	return nil
}

// Evaluate 计算一次结账的步骤和可用支付方式。
// 它从不返回错误：流程加载失败时退回默认流程，结账不能因为配置问题被阻断。
func (s *CheckoutService) Evaluate(ctx context.Context, req *EvaluateRequest) *EvaluateResponse {
	ctx, span := s.tracer.Start(ctx, "app.Evaluate")
	defer span.End()

	start := s.now()
	if req == nil {
		req = &EvaluateRequest{}
	}
	cc := req.Context

	flow, fallback := s.resolveFlow(ctx, req.FlowID)
	span.SetAttributes(
		attribute.String("flow.id", flow.ID),
		attribute.Bool("flow.fallback", fallback),
		attribute.Float64("checkout.total", cc.Total),
		attribute.String("checkout.destination_state", cc.DestinationState),
		attribute.Bool("checkout.is_guest", cc.IsGuest),
		attribute.Int("checkout.items", len(cc.Items)),
	)

	resp := &EvaluateResponse{
		EvaluationID:   uuid.NewString(),
		FlowID:         flow.ID,
		FallbackUsed:   fallback,
		Steps:          domain.OrderedSteps(*flow),
		ActiveSteps:    s.evaluator.ActiveSteps(*flow, cc),
		PaymentMethods: s.evaluator.EnabledPaymentMethods(*flow, cc),
	}
	methods := domain.Methods(resp.PaymentMethods)
	span.AddEvent("Checkout evaluated", trace.WithAttributes(attribute.Int("payment.methods", len(methods))))

	if s.metrics != nil {
		s.metrics.Evaluations.WithLabelValues(flow.ID).Inc()
		for _, m := range methods {
			s.metrics.MethodsOffered.WithLabelValues(string(m)).Inc()
		}
		if fallback {
			s.metrics.FlowFallbacks.Inc()
		}
		s.metrics.EvalDuration.Observe(s.now().Sub(start).Seconds())
	}

	if s.publisher != nil {
		event := &domain.CheckoutEvaluated{
			EventID:          resp.EvaluationID,
			TraceID:          tracing.GetTraceIDFromContext(ctx),
			FlowID:           flow.ID,
			Total:            cc.Total,
			DestinationState: cc.DestinationState,
			IsGuest:          cc.IsGuest,
			Methods:          methods,
			EvaluatedAt:      s.now(),
		}
		if err := s.publisher.PublishCheckoutEvaluated(ctx, event); err != nil {
			s.recordPublishFailure()
			logger.Ctx(ctx).Warn().Err(err).Str("evaluation_id", resp.EvaluationID).Msg("failed to publish checkout evaluation")
		}
	}

	logger.Ctx(ctx).Debug().
		Str("flow_id", flow.ID).
		Float64("total", cc.Total).
		Interface("methods", methods).
		Msg("Checkout evaluated")
	return resp
}

// resolveFlow 找到本次计算使用的流程，第二个返回值表示是否退回了默认流程。
func (s *CheckoutService) resolveFlow(ctx context.Context, id string) (*domain.FlowConfig, bool) {
	if id != "" {
		flow, err := s.repo.FindByID(ctx, id)
		if err == nil {
			return flow, false
		}
		logger.Ctx(ctx).Warn().Err(err).Str("flow_id", id).Msg("requested flow unavailable, using default")
	}

	flow, err := s.repo.FindDefault(ctx)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("failed to load default flow, using built-in default")
		def := domain.DefaultFlow()
		return &def, true
	}
	return flow, id != ""
}

func (s *CheckoutService) recordPublishFailure() {
	if s.metrics != nil {
		s.metrics.PublishFailures.Inc()
	}
}
