package config

import (
	"os"
	"testing"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })

	if _, err := tmpFile.WriteString(content); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	tmpFile.Close()
	return tmpFile.Name()
}

func TestLoad(t *testing.T) {
	configContent := `
server:
  port: 9090
minio:
  endpoint: "localhost:9000"
  access_key: "minioadmin"
  secret_key: "minioadmin"
  bucket: "test-bucket"
  use_ssl: false
  expire_days: 14
extractor:
  api_url: "https://extract.test"
  api_token: "extract-token"
  poll_interval_seconds: 3
  max_poll_attempts: 10
deepseek:
  api_url: "https://api.deepseek.test/v1"
  api_key: "sk-test"
  model: "deepseek-chat"
  timeout_seconds: 90
supabase:
  url: "https://project.supabase.test"
  service_key: "service-key"
auth:
  jwt_secret: "test-secret"
  token_expire_hours: 48
log:
  level: "debug"
  format: "json"
users:
  - id: "user-1"
    username: "testuser"
    password: "testpass"
`
	path := writeTempConfig(t, configContent)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Minio.Endpoint != "localhost:9000" {
		t.Errorf("Expected endpoint localhost:9000, got %s", cfg.Minio.Endpoint)
	}
	if cfg.Minio.ExpireDays != 14 {
		t.Errorf("Expected expire_days 14, got %d", cfg.Minio.ExpireDays)
	}
	if cfg.Extractor.PollIntervalSecs != 3 {
		t.Errorf("Expected poll_interval_seconds 3, got %d", cfg.Extractor.PollIntervalSecs)
	}
	if cfg.DeepSeek.APIKey != "sk-test" {
		t.Errorf("Expected API key sk-test, got %s", cfg.DeepSeek.APIKey)
	}
	if cfg.DeepSeek.TimeoutSecs != 90 {
		t.Errorf("Expected timeout_seconds 90, got %d", cfg.DeepSeek.TimeoutSecs)
	}
	if cfg.Supabase.URL != "https://project.supabase.test" {
		t.Errorf("Expected supabase url, got %s", cfg.Supabase.URL)
	}
	if cfg.Auth.TokenExpireHours != 48 {
		t.Errorf("Expected token_expire_hours 48, got %d", cfg.Auth.TokenExpireHours)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.Log.Level)
	}
	if len(cfg.Users) != 1 || cfg.Users[0].Username != "testuser" {
		t.Errorf("Expected one user testuser, got %+v", cfg.Users)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeTempConfig(t, `
auth:
  jwt_secret: "s"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.DeepSeek.APIURL != "https://api.deepseek.com/v1" {
		t.Errorf("Expected default DeepSeek URL, got %s", cfg.DeepSeek.APIURL)
	}
	if cfg.DeepSeek.Model != "deepseek-chat" {
		t.Errorf("Expected default model, got %s", cfg.DeepSeek.Model)
	}
	if cfg.DeepSeek.TimeoutSecs != 60 {
		t.Errorf("Expected default timeout 60, got %d", cfg.DeepSeek.TimeoutSecs)
	}
	if cfg.DeepSeek.MaxTokens != 4000 {
		t.Errorf("Expected default max_tokens 4000, got %d", cfg.DeepSeek.MaxTokens)
	}
	if cfg.Analysis.MinViableTextLength != 100 {
		t.Errorf("Expected default min_viable_text_length 100, got %d", cfg.Analysis.MinViableTextLength)
	}
	if cfg.Analysis.MinTextLength != 10 {
		t.Errorf("Expected default min_text_length 10, got %d", cfg.Analysis.MinTextLength)
	}
	if cfg.Analysis.QualityScoreFallback != 0.20 {
		t.Errorf("Expected default fallback quality 0.20, got %f", cfg.Analysis.QualityScoreFallback)
	}
	if cfg.Analysis.TemplateCacheSize != 128 {
		t.Errorf("Expected default template cache size 128, got %d", cfg.Analysis.TemplateCacheSize)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeTempConfig(t, `
deepseek:
  api_key: "from-file"
`)

	t.Setenv("DEEPSEEK_API_KEY", "from-env")
	t.Setenv("SUPABASE_URL", "https://env.supabase.test")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.DeepSeek.APIKey != "from-env" {
		t.Errorf("Expected env override for API key, got %s", cfg.DeepSeek.APIKey)
	}
	if cfg.Supabase.URL != "https://env.supabase.test" {
		t.Errorf("Expected env override for supabase url, got %s", cfg.Supabase.URL)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestFindUser(t *testing.T) {
	cfg := &Config{
		Users: []User{
			{ID: "u1", Username: "alice", Password: "pw1"},
			{ID: "u2", Username: "bob", Password: "pw2"},
		},
	}

	if u := cfg.FindUser("alice"); u == nil || u.ID != "u1" {
		t.Errorf("Expected to find alice, got %+v", u)
	}
	if u := cfg.FindUser("carol"); u != nil {
		t.Errorf("Expected nil for unknown user, got %+v", u)
	}
}
