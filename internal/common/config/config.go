package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Router        RouterConfig            `mapstructure:"router"`
	Capability    CapabilityConfig        `mapstructure:"capability"`
	Data          DataConfig              `mapstructure:"data"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Observability ObservabilityConfig     `mapstructure:"observability"`
	Logging       LoggingConfig           `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// --- Router ---

const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

type RouterConfig struct {
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`
	SessionStore        string  `mapstructure:"session_store"`
	SessionTTL          int     `mapstructure:"session_ttl"` // seconds, redis only
	SessionKeyPrefix    string  `mapstructure:"session_key_prefix"`
}

// --- Capability ---

const (
	BackendGenAI     = "genai"
	BackendOpenAI    = "openai"
	BackendGroq      = "groq"
	BackendOllama    = "ollama"
	BackendAnthropic = "anthropic"
)

// CapabilityConfig selects and tunes the text-generation backend.
type CapabilityConfig struct {
	Backend        string                   `mapstructure:"backend"`
	RewriteEnabled bool                     `mapstructure:"rewrite_enabled"`
	CacheTTL       int                      `mapstructure:"cache_ttl"` // seconds, 0 disables the classification cache
	Backends       map[string]BackendConfig `mapstructure:"backends"`
}

type BackendConfig struct {
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Timeout     int     `mapstructure:"timeout"` // milliseconds
	MaxRetries  int     `mapstructure:"max_retries"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// Active returns the settings of the selected backend.
func (c CapabilityConfig) Active() BackendConfig {
	return c.Backends[c.Backend]
}

// --- Data sources ---

const (
	SourceFile          = "file"
	SourcePostgres      = "postgres"
	SourceElasticsearch = "elasticsearch"
)

type DataConfig struct {
	KnowledgeBase KnowledgeBaseConfig `mapstructure:"knowledge_base"`
	Orders        OrdersConfig        `mapstructure:"orders"`
	TestCasesPath string              `mapstructure:"test_cases_path"`
}

type KnowledgeBaseConfig struct {
	Source string `mapstructure:"source"`
	Path   string `mapstructure:"path"`
	Table  string `mapstructure:"table"`
	Index  string `mapstructure:"index"`
}

type OrdersConfig struct {
	Source string `mapstructure:"source"`
	Path   string `mapstructure:"path"`
	Table  string `mapstructure:"table"`
}

// --- Infrastructure ---

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the settings applicable to every job worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

// NotificationConfig controls escalation notifications.
type NotificationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
		ToEmail   string `mapstructure:"to_email"`
	} `mapstructure:"email"`
	SNS struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
}

func (n NotificationConfig) Enabled() bool {
	return n.Email.Enabled || n.SNS.Enabled
}

type ObservabilityConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
	HTTPAddress    string `mapstructure:"http_address"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
