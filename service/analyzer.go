package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/contractmind/backend/config"
	"github.com/contractmind/backend/model"
	"github.com/contractmind/backend/pkg/logger"
	"github.com/contractmind/backend/store"
)

// Record store tables driven by the analysis pipeline.
const (
	TableContracts = "contracts"
	TableAnalysis  = "contract_analysis"
)

// Text sources reported by AcquireText.
const (
	TextSourceCache     = "cache"
	TextSourceExtractor = "extractor"
	TextSourceFallback  = "fallback"
)

// defaultConfidenceScore is used when the model supplies no usable
// risk_score.
const defaultConfidenceScore = 0.8

// AnalysisService drives the per-contract analysis lifecycle: acquire text,
// call the model, normalize the response, persist the result, and keep the
// contract's status machine consistent with rollback on failure.
//
// Nothing guards two concurrent RunAnalysis calls for the same contract;
// the status writes are read-then-write and the last writer wins.
type AnalysisService struct {
	store     store.Store
	llm       ChatCompleter
	extractor TextExtractor
	signer    ObjectURLSigner
	cache     *TextCache
	cfg       *config.AnalysisConfig
}

func NewAnalysisService(st store.Store, llm ChatCompleter, extractor TextExtractor, signer ObjectURLSigner, cache *TextCache, cfg *config.AnalysisConfig) *AnalysisService {
	return &AnalysisService{
		store:     st,
		llm:       llm,
		extractor: extractor,
		signer:    signer,
		cache:     cache,
		cfg:       cfg,
	}
}

// GetContract looks up a contract scoped to the requesting user. A contract
// owned by someone else reports ErrNotFound, never a permission error.
func (s *AnalysisService) GetContract(ctx context.Context, contractID, userID string) (*model.Contract, error) {
	var contracts []model.Contract
	filter := store.Filter{"id": contractID, "user_id": userID}
	if err := s.store.Select(ctx, TableContracts, filter, &store.QueryOptions{Limit: 1}, &contracts); err != nil {
		return nil, fmt.Errorf("failed to look up contract: %w", err)
	}
	if len(contracts) == 0 {
		return nil, ErrNotFound
	}
	return &contracts[0], nil
}

// RunAnalysis performs one full analysis attempt for a contract and returns
// the persisted result. On any failure after the contract was marked
// processing, the status is reverted to uploaded before the error surfaces.
func (s *AnalysisService) RunAnalysis(ctx context.Context, contractID, userID string) (*model.AnalysisResult, error) {
	contract, err := s.GetContract(ctx, contractID, userID)
	if err != nil {
		return nil, err
	}

	// Mark processing before any external call. A crash mid-analysis leaves
	// the contract visibly stuck in processing, which operators can sweep
	// for, rather than silently stale.
	startedAt := time.Now().UTC()
	patch := map[string]any{
		"status":              model.StatusProcessing,
		"analysis_started_at": startedAt.Format(time.RFC3339),
	}
	if err := s.store.Update(ctx, TableContracts, contract.ID, patch, nil); err != nil {
		return nil, fmt.Errorf("failed to mark contract processing: %w", err)
	}

	text, source, err := s.AcquireText(ctx, contract, false)
	if err != nil {
		s.rollback(ctx, contract.ID, err)
		return nil, err
	}

	logger.Info(ctx, "contract text acquired",
		"contract_id", contract.ID,
		"source", source,
		"length", len([]rune(text)),
	)

	completion, err := s.llm.SendMessage(ctx, RiskAnalysisPrompt(text), nil, nil)
	if err != nil {
		s.rollback(ctx, contract.ID, err)
		return nil, err
	}

	// The normalizer never fails; worst case it synthesizes a fallback
	// object flagged for manual review.
	normalized := Normalize(completion.Content)
	if normalized.Warning != "" {
		logger.Warn(ctx, "analysis response required repair",
			"contract_id", contract.ID,
			"fidelity", string(normalized.Fidelity),
		)
	}

	analysis := normalized.Data
	record := &model.AnalysisResult{
		ContractID:       contract.ID,
		UserID:           userID,
		Result:           analysis,
		ConfidenceScore:  floatField(analysis, "risk_score", defaultConfidenceScore),
		OverallRiskLevel: model.NormalizeRiskLevel(analysis["risk_level"]),
		RiskSummary:      stringField(analysis, "summary"),
		ComplianceStatus: len(sliceField(analysis, "compliance_issues")) == 0,
		ParseFidelity:    string(normalized.Fidelity),
		ParseWarning:     normalized.Warning,
		CreatedAt:        time.Now().UTC(),
	}

	var saved model.AnalysisResult
	if err := s.store.Insert(ctx, TableAnalysis, record, &saved); err != nil {
		wrapped := fmt.Errorf("failed to persist analysis result: %w", err)
		s.rollback(ctx, contract.ID, wrapped)
		return nil, wrapped
	}

	completedAt := time.Now().UTC()
	patch = map[string]any{
		"status":                model.StatusAnalyzed,
		"analysis_completed_at": completedAt.Format(time.RFC3339),
	}
	if err := s.store.Update(ctx, TableContracts, contract.ID, patch, nil); err != nil {
		wrapped := fmt.Errorf("failed to mark contract analyzed: %w", err)
		s.rollback(ctx, contract.ID, wrapped)
		return nil, wrapped
	}

	return &saved, nil
}

// AcquireText produces analyzable text for a contract: cached extraction if
// still fresh, a real extraction otherwise, and synthesized metadata text
// when extraction is unavailable or produced too little. Returns the text
// and which source it came from.
func (s *AnalysisService) AcquireText(ctx context.Context, contract *model.Contract, forceRefresh bool) (string, string, error) {
	text := ""
	source := TextSourceFallback

	if contract.HasFile() {
		if !forceRefresh && s.cache != nil {
			entry, err := s.cache.Get(ctx, contract.ID, contract.UpdatedAt)
			if err != nil {
				logger.Warn(ctx, "text cache lookup failed", "contract_id", contract.ID, "error", err)
			} else if entry != nil {
				// A cached entry must clear the same minimum-length gate as
				// freshly acquired text; a stale short entry never short-
				// circuits the pipeline into analyzing empty content.
				if len([]rune(entry.Content)) >= s.cfg.MinTextLength {
					return entry.Content, TextSourceCache, nil
				}
				logger.Warn(ctx, "cached text below minimum length, ignoring entry",
					"contract_id", contract.ID, "length", len([]rune(entry.Content)))
			}
		}

		extracted, err := s.extractFromStorage(ctx, contract)
		if err != nil {
			logger.Warn(ctx, "text extraction failed, falling back to contract metadata",
				"contract_id", contract.ID, "error", err)
			text = SynthesizeContractText(contract)
			s.cacheFallback(ctx, contract, text)
		} else if len([]rune(extracted)) < s.cfg.MinViableTextLength {
			logger.Warn(ctx, "extracted text too short, falling back to contract metadata",
				"contract_id", contract.ID, "length", len([]rune(extracted)))
			text = SynthesizeContractText(contract)
			s.cacheFallback(ctx, contract, text)
		} else {
			text = extracted
			source = TextSourceExtractor
			s.cachePut(ctx, contract, text, model.ExtractionAuto)
		}
	} else {
		text = SynthesizeContractText(contract)
	}

	if len([]rune(text)) < s.cfg.MinTextLength {
		return "", "", fmt.Errorf("%w: %d characters, minimum %d",
			ErrContentTooShort, len([]rune(text)), s.cfg.MinTextLength)
	}
	return text, source, nil
}

func (s *AnalysisService) extractFromStorage(ctx context.Context, contract *model.Contract) (string, error) {
	url, err := s.signer.GetPresignedURL(ctx, contract.FilePath)
	if err != nil {
		return "", fmt.Errorf("failed to sign document URL: %w", err)
	}
	return s.extractor.ExtractText(ctx, url, contract.FileType)
}

// cacheFallback stores synthesized metadata text only when it is long enough
// to be analyzable. Caching a too-short fallback would turn every later
// attempt into a cache hit on unusable content.
func (s *AnalysisService) cacheFallback(ctx context.Context, contract *model.Contract, text string) {
	if len([]rune(text)) < s.cfg.MinTextLength {
		return
	}
	s.cachePut(ctx, contract, text, model.ExtractionFallback)
}

func (s *AnalysisService) cachePut(ctx context.Context, contract *model.Contract, text, method string) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Put(ctx, contract.ID, text, contract.UpdatedAt, method); err != nil {
		logger.Warn(ctx, "failed to write text cache", "contract_id", contract.ID, "error", err)
	}
}

// rollback reverts a contract to uploaded and clears the analysis start
// timestamp after a failed attempt. Best effort: a rollback failure is
// logged but never masks the primary error.
func (s *AnalysisService) rollback(ctx context.Context, contractID string, cause error) {
	patch := map[string]any{
		"status":              model.StatusUploaded,
		"analysis_started_at": nil,
	}
	if err := s.store.Update(ctx, TableContracts, contractID, patch, nil); err != nil {
		logger.Error(ctx, "failed to revert contract status after analysis failure",
			"contract_id", contractID,
			"rollback_error", err,
			"cause", cause,
		)
	}
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func floatField(m map[string]any, key string, fallback float64) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func sliceField(m map[string]any, key string) []any {
	if v, ok := m[key].([]any); ok {
		return v
	}
	return nil
}
