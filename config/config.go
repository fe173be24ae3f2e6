package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Fanout   FanoutConfig   `mapstructure:"fanout"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Log      LogConfig      `mapstructure:"log"`
	Sentry   SentryConfig   `mapstructure:"sentry"`
	Otel     OtelConfig     `mapstructure:"otel"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	Mode string `mapstructure:"mode"` // debug / release
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // sqlite / postgres
	DSN    string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// FanoutConfig 扇出参数
type FanoutConfig struct {
	BatchSize      int           `mapstructure:"batch_size"`      // 单批收件人数
	Workers        int           `mapstructure:"workers"`         // 后台任务并发
	QueueSize      int           `mapstructure:"queue_size"`      // 任务队列容量
	WhaleThreshold int64         `mapstructure:"whale_threshold"` // 高触达账号粉丝阈值
	PushRateLimit  float64       `mapstructure:"push_rate_limit"` // 每秒批量推送上限，0 不限
	PollInterval   time.Duration `mapstructure:"poll_interval"`
}

// NotifyConfig 通知参数
type NotifyConfig struct {
	EmailDelay      time.Duration `mapstructure:"email_delay"`
	PostmarkToken   string        `mapstructure:"postmark_token"`
	EmailFrom       string        `mapstructure:"email_from"`
	FollowerCacheTTL time.Duration `mapstructure:"follower_cache_ttl"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type SentryConfig struct {
	DSN string `mapstructure:"dsn"`
}

type OtelConfig struct {
	Endpoint string `mapstructure:"endpoint"` // OTLP HTTP endpoint，空则不上报
}

// Load 读取 config.yaml 并套用环境变量覆盖（前缀 TS_）
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvPrefix("TS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// 允许无配置文件，全部走默认值 + 环境变量
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file:truthsocial.db?cache=shared")
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("fanout.batch_size", 500)
	v.SetDefault("fanout.workers", 4)
	v.SetDefault("fanout.queue_size", 10000)
	v.SetDefault("fanout.whale_threshold", 100000)
	v.SetDefault("fanout.push_rate_limit", 0)
	v.SetDefault("fanout.poll_interval", 50*time.Millisecond)
	v.SetDefault("notify.email_delay", 2*time.Minute)
	v.SetDefault("notify.follower_cache_ttl", 10*time.Minute)
	v.SetDefault("log.level", "info")
}
