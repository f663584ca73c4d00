package handler

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/contractmind/backend/config"
	"github.com/contractmind/backend/model"
	"github.com/contractmind/backend/service"
	"github.com/contractmind/backend/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const validAnalysisJSON = `{
	"risk_level": "high",
	"risk_score": 0.85,
	"summary": "Payment terms favor the counterparty.",
	"major_risks": [{"type": "payment", "description": "net-90 terms", "severity": "high"}],
	"compliance_issues": [],
	"missing_clauses": [],
	"key_terms": {}
}`

type fakeLLM struct {
	response string
	err      error
	calls    int
}

func (f *fakeLLM) SendMessage(ctx context.Context, message string, history []service.ChatMessage, opts *service.ChatOptions) (*service.ChatResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &service.ChatResult{Content: f.response}, nil
}

type fakeExtractor struct {
	text  string
	err   error
	calls int
}

func (f *fakeExtractor) ExtractText(ctx context.Context, documentURL, fileType string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

// fakeStorage doubles as DocumentStorage and service.ObjectURLSigner.
type fakeStorage struct {
	objects   map[string]int64
	uploadErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string]int64{}}
}

func (f *fakeStorage) UploadDocument(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.objects[objectName] = size
	return nil
}

func (f *fakeStorage) DeleteDocument(ctx context.Context, objectName string) error {
	delete(f.objects, objectName)
	return nil
}

func (f *fakeStorage) GetPresignedURL(ctx context.Context, objectName string) (string, error) {
	return "https://storage.local/" + objectName, nil
}

type testEnv struct {
	store     *store.MemoryStore
	llm       *fakeLLM
	extractor *fakeExtractor
	storage   *fakeStorage
	analyzer  *service.AnalysisService
	config    *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Auth: config.AuthConfig{JWTSecret: "test-secret", TokenExpireHours: 24},
		Analysis: config.AnalysisConfig{
			MinViableTextLength:       100,
			MinTextLength:             10,
			QualityExcellentThreshold: 0.8,
			QualityGoodThreshold:      0.6,
			QualityFairThreshold:      0.4,
			QualityScoreExcellent:     0.95,
			QualityScoreGood:          0.80,
			QualityScoreFair:          0.60,
			QualityScorePoor:          0.40,
			QualityScoreFallback:      0.20,
			TemplateCacheSize:         8,
		},
		Users: []config.User{
			{ID: "u1", Username: "alice", Password: "secret"},
		},
	}

	st := store.NewMemoryStore()
	llm := &fakeLLM{response: validAnalysisJSON}
	extractor := &fakeExtractor{}
	storage := newFakeStorage()
	cache := service.NewTextCache(st, &cfg.Analysis)

	return &testEnv{
		store:     st,
		llm:       llm,
		extractor: extractor,
		storage:   storage,
		analyzer:  service.NewAnalysisService(st, llm, extractor, storage, cache, &cfg.Analysis),
		config:    cfg,
	}
}

func newTestRouter() *gin.Engine {
	return gin.New()
}

// asUser wraps a handler so it runs with an authenticated identity, the way
// AuthMiddleware would set it up.
func asUser(userID string, h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("username", "alice")
		h(c)
	}
}

func (e *testEnv) seedContract(t *testing.T, c *model.Contract) *model.Contract {
	t.Helper()
	if c.Status == "" {
		c.Status = model.StatusUploaded
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now().UTC()
	}
	var saved model.Contract
	if err := e.store.Insert(context.Background(), service.TableContracts, c, &saved); err != nil {
		t.Fatalf("Failed to seed contract: %v", err)
	}
	return &saved
}

func analyzableContract(userID string) *model.Contract {
	return &model.Contract{
		UserID:         userID,
		Filename:       "msa.pdf",
		Title:          "Master Service Agreement",
		Counterparties: "Acme Corp; Globex Ltd",
		Amount:         "250000 USD",
		Category:       "services",
	}
}
