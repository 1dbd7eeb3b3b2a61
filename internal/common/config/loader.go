package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on top and applies
// environment overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName("config." + env)
	_ = v.MergeInConfig() // optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory to the first go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			// unset variables expand to "" so the defaults and key fallbacks still apply
			if expanded := os.ExpandEnv(strVal); expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// backendKeyEnv lists the conventional API key variable per backend.
var backendKeyEnv = map[string]string{
	BackendGenAI:     "GENAI_API_KEY",
	BackendOpenAI:    "OPENAI_API_KEY",
	BackendGroq:      "GROQ_API_KEY",
	BackendAnthropic: "ANTHROPIC_API_KEY",
}

func overrideEmptyConfig(cfg *Config) {
	for name, envKey := range backendKeyEnv {
		b, ok := cfg.Capability.Backends[name]
		if !ok || b.APIKey != "" {
			continue
		}
		if val := os.Getenv(envKey); val != "" {
			b.APIKey = val
			cfg.Capability.Backends[name] = b
		}
	}

	if val := os.Getenv("ROUTER_CAPABILITY_API_KEY"); val != "" {
		b := cfg.Capability.Active()
		if b.APIKey == "" {
			b.APIKey = val
			cfg.Capability.Backends[cfg.Capability.Backend] = b
		}
	}

	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
}

// defaultBackends mirrors the providers the router ships with.
var defaultBackends = map[string]BackendConfig{
	BackendGenAI:     {BaseURL: "http://localhost:8000", Timeout: 30000, MaxRetries: 2, Temperature: 0.3, MaxTokens: 500},
	BackendOpenAI:    {BaseURL: "https://api.openai.com/v1", Model: "gpt-4o-mini", Timeout: 30000, MaxRetries: 2, Temperature: 0.3, MaxTokens: 500},
	BackendGroq:      {BaseURL: "https://api.groq.com/openai/v1", Model: "llama-3.1-8b-instant", Timeout: 30000, MaxRetries: 2, Temperature: 0.3, MaxTokens: 500},
	BackendOllama:    {BaseURL: "http://localhost:11434/v1", Model: "qwen2.5:3b", Timeout: 60000, MaxRetries: 1, Temperature: 0.3, MaxTokens: 500},
	BackendAnthropic: {Model: "claude-3-5-haiku-latest", Timeout: 30000, MaxRetries: 2, Temperature: 0.3, MaxTokens: 500},
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "support-router"
	}

	// Router defaults
	if cfg.Router.ConfidenceThreshold == 0 {
		cfg.Router.ConfidenceThreshold = 0.70
	}
	if cfg.Router.SessionStore == "" {
		cfg.Router.SessionStore = SessionStoreMemory
	}
	if cfg.Router.SessionTTL == 0 {
		cfg.Router.SessionTTL = 86400
	}
	if cfg.Router.SessionKeyPrefix == "" {
		cfg.Router.SessionKeyPrefix = "router:session:"
	}

	// Capability defaults, field by field so partial yaml blocks keep the rest
	if cfg.Capability.Backend == "" {
		cfg.Capability.Backend = BackendOpenAI
	}
	if cfg.Capability.Backends == nil {
		cfg.Capability.Backends = make(map[string]BackendConfig)
	}
	for name, def := range defaultBackends {
		b := cfg.Capability.Backends[name]
		if b.BaseURL == "" {
			b.BaseURL = def.BaseURL
		}
		if b.Model == "" {
			b.Model = def.Model
		}
		if b.Timeout == 0 {
			b.Timeout = def.Timeout
		}
		if b.MaxRetries == 0 {
			b.MaxRetries = def.MaxRetries
		}
		if b.Temperature == 0 {
			b.Temperature = def.Temperature
		}
		if b.MaxTokens == 0 {
			b.MaxTokens = def.MaxTokens
		}
		cfg.Capability.Backends[name] = b
	}

	// Data defaults
	if cfg.Data.KnowledgeBase.Source == "" {
		cfg.Data.KnowledgeBase.Source = SourceFile
	}
	if cfg.Data.KnowledgeBase.Path == "" {
		cfg.Data.KnowledgeBase.Path = "data/faq_knowledge_base.json"
	}
	if cfg.Data.KnowledgeBase.Table == "" {
		cfg.Data.KnowledgeBase.Table = "faq_topics"
	}
	if cfg.Data.KnowledgeBase.Index == "" {
		cfg.Data.KnowledgeBase.Index = "faq_topics"
	}
	if cfg.Data.Orders.Source == "" {
		cfg.Data.Orders.Source = SourceFile
	}
	if cfg.Data.Orders.Path == "" {
		cfg.Data.Orders.Path = "data/orders_database.json"
	}
	if cfg.Data.Orders.Table == "" {
		cfg.Data.Orders.Table = "orders"
	}
	if cfg.Data.TestCasesPath == "" {
		cfg.Data.TestCasesPath = "data/test_cases.json"
	}

	// Camunda defaults
	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	// Database defaults
	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	// Notification defaults
	if cfg.Notifications.AWS.Region == "" {
		cfg.Notifications.AWS.Region = "us-east-1"
	}

	// Observability defaults
	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = cfg.App.Name
	}
	if cfg.Observability.HTTPAddress == "" {
		cfg.Observability.HTTPAddress = ":8080"
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

// validateConfig only checks the infrastructure the selected components actually use.
func validateConfig(cfg *Config) error {
	if cfg.Router.ConfidenceThreshold < 0 || cfg.Router.ConfidenceThreshold > 1 {
		return fmt.Errorf("router.confidence_threshold must be within [0,1], got %v", cfg.Router.ConfidenceThreshold)
	}

	switch cfg.Router.SessionStore {
	case SessionStoreMemory:
	case SessionStoreRedis:
		if cfg.Database.Redis.Address == "" {
			return fmt.Errorf("database.redis.address is required for the redis session store")
		}
	default:
		return fmt.Errorf("unknown router.session_store %q", cfg.Router.SessionStore)
	}

	if _, ok := defaultBackends[cfg.Capability.Backend]; !ok {
		return fmt.Errorf("unknown capability.backend %q", cfg.Capability.Backend)
	}
	if cfg.Capability.CacheTTL > 0 && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required when capability.cache_ttl is set")
	}

	needsPostgres := cfg.Data.KnowledgeBase.Source == SourcePostgres || cfg.Data.Orders.Source == SourcePostgres
	if needsPostgres {
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required")
		}
		if cfg.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres.user is required")
		}
	}

	switch cfg.Data.KnowledgeBase.Source {
	case SourceFile, SourcePostgres:
	case SourceElasticsearch:
		if len(cfg.Database.Elasticsearch.Addresses) == 0 {
			return fmt.Errorf("database.elasticsearch.addresses is required")
		}
	default:
		return fmt.Errorf("unknown data.knowledge_base.source %q", cfg.Data.KnowledgeBase.Source)
	}

	switch cfg.Data.Orders.Source {
	case SourceFile, SourcePostgres:
	default:
		return fmt.Errorf("unknown data.orders.source %q", cfg.Data.Orders.Source)
	}

	if cfg.Notifications.Email.Enabled && (cfg.Notifications.Email.FromEmail == "" || cfg.Notifications.Email.ToEmail == "") {
		return fmt.Errorf("notifications.email.from_email and to_email are required")
	}
	if cfg.Notifications.SNS.Enabled && cfg.Notifications.SNS.TopicARN == "" {
		return fmt.Errorf("notifications.sns.topic_arn is required")
	}

	return nil
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}

	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}
