package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"weddingtimeline/pkg/config"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type LogConfig struct {
	Level string `yaml:"level"`
}

// TimelineConfig 模板目录、分类规则和激活调度
type TimelineConfig struct {
	Storage        string `yaml:"storage"`
	CatalogPath    string `yaml:"catalog_path"`
	CategoriesPath string `yaml:"categories_path"`
	ActivationCron string `yaml:"activation_cron"`
	// Redis 租约时长，防止多个调度实例同时激活同一客户
	LockTTL time.Duration `yaml:"lock_ttl"`
	// 只扫描婚期在未来 N 个月内的客户
	LookaheadMonths int `yaml:"lookahead_months"`
}

// NotifyConfig 通知派发熔断配置
type NotifyConfig struct {
	FailureThreshold    int           `yaml:"failure_threshold"`
	SuccessThreshold    int           `yaml:"success_threshold"`
	OpenTimeout         time.Duration `yaml:"open_timeout"`
	HalfOpenMaxRequests int           `yaml:"half_open_max_requests"`
}

type Config struct {
	Server   config.ServerConfig `yaml:"server"`
	Log      LogConfig           `yaml:"log"`
	DB       config.DBConfig     `yaml:"db"`
	MQ       config.MQConfig     `yaml:"mq"`
	Redis    config.RedisConfig  `yaml:"redis"`
	JWT      config.JWTConfig    `yaml:"jwt"`
	Timeline TimelineConfig      `yaml:"timeline"`
	Notify   NotifyConfig        `yaml:"notify"`
}

// Load 读取 CONFIG_DIR 下的分层配置（默认 config/，环境由 CONFIG_ENV 决定），再用环境变量覆盖
func Load() (*Config, error) {
	return LoadFrom(config.GetConfigEnv(), config.GetEnv("CONFIG_DIR", "config"))
}

func LoadFrom(env, dir string) (*Config, error) {
	var cfg Config
	if err := config.Decode(env, dir, &cfg); err != nil {
		return nil, err
	}

	// 环境变量覆盖
	config.OverrideDBFromEnv(&cfg.DB)
	config.OverrideMQFromEnv(&cfg.MQ)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideJWTFromEnv(&cfg.JWT)
	config.OverrideServerFromEnv(&cfg.Server)
	if storage := os.Getenv("TIMELINE_STORAGE"); storage != "" {
		cfg.Timeline.Storage = storage
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}

	// 未提供的密钥占位符视为空
	cfg.DB.Password = unresolved(cfg.DB.Password)
	cfg.Redis.Password = unresolved(cfg.Redis.Password)
	cfg.JWT.Secret = unresolved(cfg.JWT.Secret)

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = ":8080"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Timeline.Storage == "" {
		c.Timeline.Storage = StoragePostgres
	}
	if c.Timeline.ActivationCron == "" {
		c.Timeline.ActivationCron = "0 */15 * * * *"
	}
	if c.Timeline.LockTTL == 0 {
		c.Timeline.LockTTL = 5 * time.Minute
	}
	if c.Timeline.LookaheadMonths == 0 {
		c.Timeline.LookaheadMonths = 12
	}
	if c.Notify.FailureThreshold == 0 {
		c.Notify.FailureThreshold = 5
	}
	if c.Notify.SuccessThreshold == 0 {
		c.Notify.SuccessThreshold = 2
	}
	if c.Notify.OpenTimeout == 0 {
		c.Notify.OpenTimeout = 30 * time.Second
	}
	if c.Notify.HalfOpenMaxRequests == 0 {
		c.Notify.HalfOpenMaxRequests = 3
	}
}

func (c *Config) validate() error {
	switch c.Timeline.Storage {
	case StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("unknown timeline.storage %q", c.Timeline.Storage)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	return nil
}

func unresolved(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return ""
	}
	return s
}
