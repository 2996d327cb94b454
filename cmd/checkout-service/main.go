// cmd/checkout-service/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	zlog "github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"storefront/internal/pkg/bootstrap"
	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/metrics"
	"storefront/internal/pkg/mq"
	"storefront/internal/pkg/redis"
	"storefront/internal/pkg/zookeeper"
	"storefront/internal/service/checkout/application"
	"storefront/internal/service/checkout/domain"
	"storefront/internal/service/checkout/domain/port"
	"storefront/internal/service/checkout/infrastructure"
	"storefront/internal/service/checkout/infrastructure/adapter"
	"storefront/internal/service/checkout/infrastructure/rule"
	"storefront/internal/service/checkout/interfaces"
)

const serviceName = "checkout-service"

// main 函数是应用的"组装根" (Composition Root)
// 每个外部依赖都是可选的：没有配置时退回进程内实现，结账计算始终可用。
func main() {
	cfg, err := bootstrap.Init()
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger.Init(serviceName, cfg.App.LogLevel, cfg.App.LogPretty)

	var closers []func()
	addCloser := func(name string, fn func() error) {
		closers = append(closers, func() {
			if err := fn(); err != nil {
				zlog.Error().Err(err).Msgf("failed to close %s", name)
			}
		})
	}

	checkoutMetrics := metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer)
	ttl := time.Duration(cfg.App.FlowCacheTTLSeconds) * time.Second

	// 1. 持久化
	var repo domain.FlowRepository
	if cfg.Infra.MySQL.DSN != "" {
		db, err := infrastructure.OpenMySQL(cfg.Infra.MySQL.DSN)
		if err != nil {
			zlog.Fatal().Err(err).Msg("failed to open mysql")
		}
		repo = infrastructure.NewGormFlowRepository(db)
		if sqlDB, err := db.DB(); err == nil {
			addCloser("mysql", sqlDB.Close)
		}
	} else {
		zlog.Warn().Msg("MYSQL_DSN not set, using in-memory flow repository")
		repo = infrastructure.NewMemoryFlowRepository()
	}
	if cfg.App.FlowsFile != "" {
		if _, err := infrastructure.ImportFlows(context.Background(), repo, cfg.App.FlowsFile, cfg.App.OverwriteFlowsOnImport); err != nil {
			zlog.Fatal().Err(err).Msg("failed to import checkout flows")
		}
	}

	// 2. 缓存
	var cache port.FlowCache
	if cfg.Infra.Redis.Addrs != "" {
		redisClient, err := redis.NewClient(cfg.Infra.Redis.Addrs, cfg.Infra.Redis.Password)
		if err != nil {
			zlog.Fatal().Err(err).Msg("failed to connect to redis")
		}
		addCloser("redis", redisClient.Close)
		cache = adapter.NewFlowCacheRedisAdapter(redisClient, ttl)
	} else {
		cache = adapter.NewFlowCacheMemoryAdapter(ttl)
	}
	repo = infrastructure.NewCachedFlowRepository(repo, cache, checkoutMetrics)

	// 3. 表达式条件
	var engine domain.ExpressionEngine
	if cfg.App.EnableExpressionConditions {
		celEngine, err := rule.NewCELEngine()
		if err != nil {
			zlog.Fatal().Err(err).Msg("failed to create expression engine")
		}
		engine = celEngine
	}

	opts := []application.Option{
		application.WithCache(cache),
		application.WithMetrics(checkoutMetrics),
	}

	// 4. 事件
	var reader *kafka.Reader
	if cfg.Infra.Kafka.Brokers != "" {
		brokers := strings.Split(cfg.Infra.Kafka.Brokers, ",")
		publisher := adapter.NewEventKafkaAdapter(
			mq.NewKafkaWriter(brokers, cfg.Infra.Kafka.EvaluationTopic),
			mq.NewKafkaWriter(brokers, cfg.Infra.Kafka.FlowUpdateTopic),
		)
		addCloser("kafka writers", publisher.Close)
		opts = append(opts, application.WithPublisher(publisher))

		reader = kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			Topic:   cfg.Infra.Kafka.FlowUpdateTopic,
			GroupID: consumerGroupID(cfg.Infra.Kafka.FlowUpdateGroupID),
			// 新建的消费组只关心启动之后的更新
			StartOffset: kafka.LastOffset,
		})
	}

	// 5. 后台编辑锁
	if cfg.Infra.Zookeeper.Servers != "" {
		zkConn, err := zookeeper.Connect(cfg.Infra.Zookeeper.Servers, time.Duration(cfg.Infra.Zookeeper.SessionTimeoutSeconds)*time.Second)
		if err != nil {
			zlog.Fatal().Err(err).Msg("failed to connect to zookeeper")
		}
		addCloser("zookeeper", func() error { zkConn.Close(); return nil })
		opts = append(opts, application.WithLocker(adapter.NewFlowLockZkAdapter(zkConn)))
	}

	// otel.Tracer 返回的全局 tracer 会在 StartService 设置 TracerProvider 后生效
	svc := application.NewCheckoutService(repo, domain.NewEvaluator(engine), otel.Tracer(serviceName), opts...)

	var consumer *interfaces.FlowUpdateConsumer
	if reader != nil {
		consumer = interfaces.NewFlowUpdateConsumer(reader, svc)
	}

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        cfg.App.Port,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			if consumer != nil {
				consumer.Start(context.Background())
			}

			appCtx.Mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
			appCtx.Mux.Handle("/metrics", promhttp.Handler())
			interfaces.NewCheckoutHandler(svc).RegisterRoutes(appCtx.Mux)
		},
		Cleanup: func(ctx context.Context) {
			if consumer != nil {
				consumer.Stop()
			}
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		},
	})
}

// consumerGroupID 让每个实例使用独立的消费组，FlowUpdated 需要广播到所有实例。
// 同一主机上的多个进程和重启后的进程也不会共用消费组。
func consumerGroupID(base string) string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	return fmt.Sprintf("%s-%s-%d-%s", base, host, os.Getpid(), uuid.NewString()[:8])
}
