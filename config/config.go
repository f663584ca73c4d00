package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Minio    MinioConfig    `yaml:"minio"`
	Extractor ExtractorConfig `yaml:"extractor"`
	DeepSeek DeepSeekConfig `yaml:"deepseek"`
	Supabase SupabaseConfig `yaml:"supabase"`
	Auth     AuthConfig     `yaml:"auth"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Log      LogConfig      `yaml:"log"`
	Users    []User         `yaml:"users"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type MinioConfig struct {
	Endpoint   string `yaml:"endpoint"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	Bucket     string `yaml:"bucket"`
	UseSSL     bool   `yaml:"use_ssl"`
	ExpireDays int    `yaml:"expire_days"`
}

// ExtractorConfig configures the external text-extraction service.
type ExtractorConfig struct {
	APIURL           string `yaml:"api_url"`
	APIToken         string `yaml:"api_token"`
	PollIntervalSecs int    `yaml:"poll_interval_seconds"`
	MaxPollAttempts  int    `yaml:"max_poll_attempts"`
}

// DeepSeekConfig configures the chat-completion API used for analysis.
// APIKey is required; the process refuses to start without it.
type DeepSeekConfig struct {
	APIURL      string  `yaml:"api_url"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	TimeoutSecs int     `yaml:"timeout_seconds"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	TopP        float64 `yaml:"top_p"`
}

// SupabaseConfig configures the hosted record store (PostgREST wire format).
// When URL is empty the server falls back to the in-memory store.
type SupabaseConfig struct {
	URL        string `yaml:"url"`
	ServiceKey string `yaml:"service_key"`
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	TokenExpireHours int    `yaml:"token_expire_hours"`
}

// AnalysisConfig holds the pipeline tuning constants. The quality thresholds
// and scores have no documented derivation; they are kept configurable with
// the historical defaults rather than guessed at.
type AnalysisConfig struct {
	MinViableTextLength int `yaml:"min_viable_text_length"` // below this, extraction output is distrusted
	MinTextLength       int `yaml:"min_text_length"`        // absolute minimum for any analyzable text

	QualityExcellentThreshold float64 `yaml:"quality_excellent_threshold"`
	QualityGoodThreshold      float64 `yaml:"quality_good_threshold"`
	QualityFairThreshold      float64 `yaml:"quality_fair_threshold"`
	QualityScoreExcellent     float64 `yaml:"quality_score_excellent"`
	QualityScoreGood          float64 `yaml:"quality_score_good"`
	QualityScoreFair          float64 `yaml:"quality_score_fair"`
	QualityScorePoor          float64 `yaml:"quality_score_poor"`
	QualityScoreFallback      float64 `yaml:"quality_score_fallback"`

	TemplateCacheSize int `yaml:"template_cache_size"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type User struct {
	ID       string `yaml:"id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Load reads the YAML config file, applies environment overrides for
// secrets, and fills in defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	return &cfg, nil
}

// applyEnv lets environment variables override secrets and endpoints so the
// config file never has to contain credentials.
func (c *Config) applyEnv() {
	if v := os.Getenv("DEEPSEEK_API_KEY"); v != "" {
		c.DeepSeek.APIKey = v
	}
	if v := os.Getenv("DEEPSEEK_API_URL"); v != "" {
		c.DeepSeek.APIURL = v
	}
	if v := os.Getenv("DEEPSEEK_MODEL"); v != "" {
		c.DeepSeek.Model = v
	}
	if v := os.Getenv("SUPABASE_URL"); v != "" {
		c.Supabase.URL = v
	}
	if v := os.Getenv("SUPABASE_SERVICE_KEY"); v != "" {
		c.Supabase.ServiceKey = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Minio.ExpireDays == 0 {
		c.Minio.ExpireDays = 7
	}
	if c.Auth.TokenExpireHours == 0 {
		c.Auth.TokenExpireHours = 24
	}
	if c.DeepSeek.APIURL == "" {
		c.DeepSeek.APIURL = "https://api.deepseek.com/v1"
	}
	if c.DeepSeek.Model == "" {
		c.DeepSeek.Model = "deepseek-chat"
	}
	if c.DeepSeek.TimeoutSecs == 0 {
		c.DeepSeek.TimeoutSecs = 60
	}
	if c.DeepSeek.MaxTokens == 0 {
		c.DeepSeek.MaxTokens = 4000
	}
	if c.DeepSeek.Temperature == 0 {
		c.DeepSeek.Temperature = 0.7
	}
	if c.DeepSeek.TopP == 0 {
		c.DeepSeek.TopP = 0.9
	}
	if c.Extractor.PollIntervalSecs == 0 {
		c.Extractor.PollIntervalSecs = 2
	}
	if c.Extractor.MaxPollAttempts == 0 {
		c.Extractor.MaxPollAttempts = 30
	}

	a := &c.Analysis
	if a.MinViableTextLength == 0 {
		a.MinViableTextLength = 100
	}
	if a.MinTextLength == 0 {
		a.MinTextLength = 10
	}
	if a.QualityExcellentThreshold == 0 {
		a.QualityExcellentThreshold = 0.8
	}
	if a.QualityGoodThreshold == 0 {
		a.QualityGoodThreshold = 0.6
	}
	if a.QualityFairThreshold == 0 {
		a.QualityFairThreshold = 0.4
	}
	if a.QualityScoreExcellent == 0 {
		a.QualityScoreExcellent = 0.95
	}
	if a.QualityScoreGood == 0 {
		a.QualityScoreGood = 0.80
	}
	if a.QualityScoreFair == 0 {
		a.QualityScoreFair = 0.60
	}
	if a.QualityScorePoor == 0 {
		a.QualityScorePoor = 0.40
	}
	if a.QualityScoreFallback == 0 {
		a.QualityScoreFallback = 0.20
	}
	if a.TemplateCacheSize == 0 {
		a.TemplateCacheSize = 128
	}
}

// FindUser finds a config-declared user by username.
func (c *Config) FindUser(username string) *User {
	for i := range c.Users {
		if c.Users[i].Username == username {
			return &c.Users[i]
		}
	}
	return nil
}
