// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"os"
	"strconv"
	"sync/atomic"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config 是服务的全部配置，来自 YAML 文件并允许被环境变量覆盖。
type Config struct {
	App   AppConfig   `yaml:"app"`
	Infra InfraConfig `yaml:"infra"`
}

type AppConfig struct {
	Name      string `yaml:"name"`
	Port      int    `yaml:"port"`
	LogLevel  string `yaml:"logLevel"`
	LogPretty bool   `yaml:"logPretty"`
	// FlowsFile 是启动时导入的流程配置文件，可以为空。
	FlowsFile string `yaml:"flowsFile"`
	// OverwriteFlowsOnImport 为 true 时文件中的流程覆盖仓储中的同 ID 流程。
	OverwriteFlowsOnImport bool `yaml:"overwriteFlowsOnImport"`
	// FlowCacheTTLSeconds 是 Redis 中流程配置的过期时间。
	FlowCacheTTLSeconds int `yaml:"flowCacheTTLSeconds"`
	// EnableExpressionConditions 控制是否挂载 CEL 表达式引擎。
	EnableExpressionConditions bool `yaml:"enableExpressionConditions"`
}

type InfraConfig struct {
	Jaeger    JaegerConfig    `yaml:"jaeger"`
	MySQL     MySQLConfig     `yaml:"mysql"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Zookeeper ZookeeperConfig `yaml:"zookeeper"`
	Nacos     NacosConfig     `yaml:"nacos"`
}

type JaegerConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	SampleRatio float64 `yaml:"sampleRatio"`
}

type MySQLConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addrs    string `yaml:"addrs"`
	Password string `yaml:"password"`
}

type KafkaConfig struct {
	Brokers           string `yaml:"brokers"`
	EvaluationTopic   string `yaml:"evaluationTopic"`
	FlowUpdateTopic   string `yaml:"flowUpdateTopic"`
	FlowUpdateGroupID string `yaml:"flowUpdateGroupId"`
}

type ZookeeperConfig struct {
	Servers               string `yaml:"servers"`
	SessionTimeoutSeconds int    `yaml:"sessionTimeoutSeconds"`
}

type NacosConfig struct {
	ServerAddrs string `yaml:"serverAddrs"`
	Namespace   string `yaml:"namespace"`
	Group       string `yaml:"group"`
}

var currentConfig atomic.Pointer[Config]

// DefaultConfig 返回本地开发使用的默认配置，外部依赖全部关闭。
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:                "checkout-service",
			Port:                8088,
			LogLevel:            "info",
			FlowCacheTTLSeconds: 300,
		},
		Infra: InfraConfig{
			Jaeger: JaegerConfig{Endpoint: "http://localhost:14268/api/traces", SampleRatio: 1},
			Kafka: KafkaConfig{
				EvaluationTopic:   "checkout-evaluated",
				FlowUpdateTopic:   "checkout-flow-updated",
				FlowUpdateGroupID: "checkout-flow-cache",
			},
			Zookeeper: ZookeeperConfig{SessionTimeoutSeconds: 10},
			Nacos:     NacosConfig{Group: "DEFAULT_GROUP"},
		},
	}
}

// LoadConfig 读取 YAML 配置文件 (path 为空时只用默认值)，再应用环境变量覆盖。
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "failed to parse config file %s", path)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Init 加载配置并设置为当前配置，配置文件路径来自 CONFIG_FILE。
func Init() (*Config, error) {
	cfg, err := LoadConfig(getEnv("CONFIG_FILE", ""))
	if err != nil {
		return nil, err
	}
	SetCurrentConfig(cfg)
	return cfg, nil
}

// GetCurrentConfig 返回当前生效的配置，未初始化时返回默认配置。
func GetCurrentConfig() *Config {
	if cfg := currentConfig.Load(); cfg != nil {
		return cfg
	}
	return DefaultConfig()
}

func SetCurrentConfig(cfg *Config) {
	currentConfig.Store(cfg)
}

func applyEnvOverrides(cfg *Config) {
	cfg.App.Port = getEnvInt("PORT", cfg.App.Port)
	cfg.App.LogLevel = getEnv("LOG_LEVEL", cfg.App.LogLevel)
	cfg.App.FlowsFile = getEnv("FLOWS_FILE", cfg.App.FlowsFile)
	cfg.App.OverwriteFlowsOnImport = getEnvBool("OVERWRITE_FLOWS_ON_IMPORT", cfg.App.OverwriteFlowsOnImport)
	cfg.Infra.Jaeger.Endpoint = getEnv("JAEGER_ENDPOINT", cfg.Infra.Jaeger.Endpoint)
	cfg.Infra.MySQL.DSN = getEnv("MYSQL_DSN", cfg.Infra.MySQL.DSN)
	cfg.Infra.Redis.Addrs = getEnv("REDIS_ADDRS", cfg.Infra.Redis.Addrs)
	cfg.Infra.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Infra.Redis.Password)
	cfg.Infra.Kafka.Brokers = getEnv("KAFKA_BROKERS", cfg.Infra.Kafka.Brokers)
	cfg.Infra.Zookeeper.Servers = getEnv("ZOOKEEPER_SERVERS", cfg.Infra.Zookeeper.Servers)
	cfg.Infra.Nacos.ServerAddrs = getEnv("NACOS_SERVER_ADDRS", cfg.Infra.Nacos.ServerAddrs)
	cfg.Infra.Nacos.Namespace = getEnv("NACOS_NAMESPACE", cfg.Infra.Nacos.Namespace)
	cfg.Infra.Nacos.Group = getEnv("NACOS_GROUP", cfg.Infra.Nacos.Group)
}

// getEnv 从环境变量中读取配置，不存在时返回默认值。
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
