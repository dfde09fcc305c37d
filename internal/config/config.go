package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppCfg struct {
	Name      string `mapstructure:"name"`
	Env       string `mapstructure:"env"`
	Port      int    `mapstructure:"port"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

type MongoCfg struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

type RedisCfg struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type KafkaCfg struct {
	Brokers          []string `mapstructure:"brokers"`
	TopicMessageSent string   `mapstructure:"topic_message_sent"`
}

type DirectoryCfg struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type WSCfg struct {
	PingIntervalSeconds int   `mapstructure:"ping_interval_seconds"`
	WriteWaitSeconds    int   `mapstructure:"write_wait_seconds"`
	PongWaitSeconds     int   `mapstructure:"pong_wait_seconds"`
	MaxMessageBytes     int64 `mapstructure:"max_message_bytes"`
	SendBuffer          int   `mapstructure:"send_buffer"`
}

type Config struct {
	App       AppCfg       `mapstructure:"app"`
	Mongo     MongoCfg     `mapstructure:"mongo"`
	Redis     RedisCfg     `mapstructure:"redis"`
	Kafka     KafkaCfg     `mapstructure:"kafka"`
	Directory DirectoryCfg `mapstructure:"directory"`
	WS        WSCfg        `mapstructure:"ws"`
}

func (c *Config) IsDevelopment() bool { return c.App.Env == "development" }

func (w WSCfg) PingInterval() time.Duration {
	return time.Duration(w.PingIntervalSeconds) * time.Second
}

func (w WSCfg) WriteWait() time.Duration {
	return time.Duration(w.WriteWaitSeconds) * time.Second
}

func (w WSCfg) PongWait() time.Duration {
	return time.Duration(w.PongWaitSeconds) * time.Second
}

func (d DirectoryCfg) Timeout() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

// Load reads the YAML config file at path and applies APP_* environment
// overrides (APP_APP_PORT, APP_MONGO_URI, ...).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.name", "chat-service")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", 8080)
	v.SetDefault("mongo.database", "jobsite")
	v.SetDefault("mongo.collection", "conversations")
	v.SetDefault("redis.prefix", "chat")
	v.SetDefault("kafka.topic_message_sent", "chat.message.sent")
	v.SetDefault("directory.timeout_seconds", 5)
	v.SetDefault("ws.ping_interval_seconds", 30)
	v.SetDefault("ws.write_wait_seconds", 10)
	v.SetDefault("ws.pong_wait_seconds", 60)
	v.SetDefault("ws.max_message_bytes", 64*1024)
	v.SetDefault("ws.send_buffer", 256)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
