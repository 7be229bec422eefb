// Package config 负责进程配置：默认值 → 可选 yaml 文件 → 环境变量，逐层覆盖。
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar 可以通过该环境变量覆盖配置文件路径。
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfigPaths 按优先级列出配置文件的查找路径，取第一个存在的。
var defaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/recsys/config.yaml",
}

// Config 是全部进程配置。字段的环境变量名即 koanf tag 的大写形式，
// 例如 time_decay_window 对应 TIME_DECAY_WINDOW。
type Config struct {
	// --- 数据源 ---
	DBDSN string `koanf:"db_dsn"` // MySQL DSN

	// --- Redis ---
	RedisAddr          string `koanf:"redis_addr"`
	RedisDB            int    `koanf:"redis_db"`
	RedisKeyPrefix     string `koanf:"redis_key_prefix"`
	RedisExpireSeconds int    `koanf:"redis_expire_seconds"` // 推荐结果缓存过期时间

	// --- 推荐业务规则 ---
	RecHistoryCount   int `koanf:"rec_history_count"`   // 场景A: 常用工具展示数
	RecDiscoveryCount int `koanf:"rec_discovery_count"` // 场景B: 猜你喜欢展示数
	RecRelatedCount   int `koanf:"rec_related_count"`   // 场景C: 相关推荐展示数

	// --- 数据预处理 ---
	TimeDecayWindow int     `koanf:"time_decay_window"` // 仅计算最近 N 天的数据
	TimeDecayRate   float64 `koanf:"time_decay_rate"`   // 时间衰减系数，取值 (0,1)

	// --- ALS 模型超参数 ---
	ALSFactors        int     `koanf:"als_factors"` // 隐向量维度
	ALSRegularization float64 `koanf:"als_regularization"`
	ALSIterations     int     `koanf:"als_iterations"`
	ALSAlpha          float64 `koanf:"als_alpha"` // 置信度缩放系数
	ALSSeed           int64   `koanf:"als_seed"`  // 固定种子以便复现

	// --- 系统 ---
	HTTPAddr    string `koanf:"http_addr"` // 读侧 API 监听地址
	LogLevel    string `koanf:"log_level"`
	Concurrency int    `koanf:"concurrency"` // 批量计算推荐列表的并发度，0 表示 GOMAXPROCS
}

// Default 返回带默认值的配置。先加载默认值，再被文件和环境变量覆盖。
func Default() *Config {
	return &Config{
		DBDSN:              "root:mysqlroot@tcp(127.0.0.1:3306)/rec_sys?parseTime=true",
		RedisAddr:          "127.0.0.1:6379",
		RedisDB:            0,
		RedisKeyPrefix:     "rec:sys:",
		RedisExpireSeconds: 86400,
		RecHistoryCount:    4,
		RecDiscoveryCount:  8,
		RecRelatedCount:    5,
		TimeDecayWindow:    180,
		TimeDecayRate:      0.95,
		ALSFactors:         64,
		ALSRegularization:  0.05,
		ALSIterations:      20,
		ALSAlpha:           40.0,
		ALSSeed:            42,
		HTTPAddr:           ":8000",
		LogLevel:           "info",
		Concurrency:        0,
	}
}

// Load 合并三层配置：struct 默认值、可选 yaml 文件、环境变量（优先级最高）。
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// 环境变量名转 koanf 路径：TIME_DECAY_WINDOW -> time_decay_window
	envProvider := env.Provider("", ".", strings.ToLower)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile 返回第一个存在的配置文件路径；都不存在时返回空串（仅用默认值+环境变量）。
func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}
	for _, path := range defaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Validate 校验配置取值范围。
func (c *Config) Validate() error {
	if c.TimeDecayRate <= 0 || c.TimeDecayRate >= 1 {
		return fmt.Errorf("config: time_decay_rate must be in (0,1), got %v", c.TimeDecayRate)
	}
	if c.TimeDecayWindow <= 0 {
		return fmt.Errorf("config: time_decay_window must be positive, got %d", c.TimeDecayWindow)
	}
	if c.ALSFactors <= 0 {
		return fmt.Errorf("config: als_factors must be positive, got %d", c.ALSFactors)
	}
	if c.ALSIterations <= 0 {
		return fmt.Errorf("config: als_iterations must be positive, got %d", c.ALSIterations)
	}
	if c.ALSRegularization <= 0 {
		return fmt.Errorf("config: als_regularization must be positive, got %v", c.ALSRegularization)
	}
	if c.RecHistoryCount <= 0 || c.RecDiscoveryCount <= 0 || c.RecRelatedCount <= 0 {
		return fmt.Errorf("config: recommendation counts must be positive")
	}
	if c.RedisExpireSeconds <= 0 {
		return fmt.Errorf("config: redis_expire_seconds must be positive, got %d", c.RedisExpireSeconds)
	}
	return nil
}
