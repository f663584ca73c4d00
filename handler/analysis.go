package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/contractmind/backend/middleware"
	"github.com/contractmind/backend/model"
	"github.com/contractmind/backend/pkg/logger"
	"github.com/contractmind/backend/service"
	"github.com/contractmind/backend/store"
)

type AnalysisHandler struct {
	analyzer *service.AnalysisService
	store    store.Store
}

func NewAnalysisHandler(analyzer *service.AnalysisService, st store.Store) *AnalysisHandler {
	return &AnalysisHandler{analyzer: analyzer, store: st}
}

// Analyze runs the analysis pipeline for a contract synchronously and
// returns the persisted result.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	userID := middleware.GetUserID(c)
	contractID := c.Param("id")

	result, err := h.analyzer.RunAnalysis(c.Request.Context(), contractID, userID)
	if err != nil {
		writeAnalysisError(c, err)
		return
	}

	logger.Info(c.Request.Context(), "contract analyzed",
		"contract_id", contractID,
		"risk_level", result.OverallRiskLevel,
		"fidelity", result.ParseFidelity,
	)

	c.JSON(http.StatusOK, result)
}

// GetAnalysis returns the most recent analysis result for a contract.
func (h *AnalysisHandler) GetAnalysis(c *gin.Context) {
	result, ok := h.latestResult(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, result)
}

// RiskReport returns a condensed risk view of the latest analysis.
func (h *AnalysisHandler) RiskReport(c *gin.Context) {
	result, ok := h.latestResult(c)
	if !ok {
		return
	}

	report := gin.H{
		"contract_id":        result.ContractID,
		"overall_risk_level": result.OverallRiskLevel,
		"risk_summary":       result.RiskSummary,
		"confidence_score":   result.ConfidenceScore,
		"compliance_status":  result.ComplianceStatus,
		"major_risks":        result.Result["major_risks"],
		"compliance_issues":  result.Result["compliance_issues"],
		"missing_clauses":    result.Result["missing_clauses"],
		"created_at":         result.CreatedAt,
	}
	if result.ParseWarning != "" {
		report["parse_warning"] = result.ParseWarning
	}

	c.JSON(http.StatusOK, report)
}

func (h *AnalysisHandler) latestResult(c *gin.Context) (*model.AnalysisResult, bool) {
	userID := middleware.GetUserID(c)
	contractID := c.Param("id")

	// Confirm the contract exists and belongs to the caller first, so a
	// missing analysis and a missing contract stay distinguishable.
	if _, err := h.analyzer.GetContract(c.Request.Context(), contractID, userID); err != nil {
		writeAnalysisError(c, err)
		return nil, false
	}

	var results []model.AnalysisResult
	filter := store.Filter{"contract_id": contractID, "user_id": userID}
	opts := &store.QueryOptions{Limit: 1, OrderBy: "created_at", Descending: true}
	if err := h.store.Select(c.Request.Context(), service.TableAnalysis, filter, opts, &results); err != nil {
		logger.Error(c.Request.Context(), "failed to load analysis results",
			"contract_id", contractID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load analysis"})
		return nil, false
	}
	if len(results) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract has not been analyzed yet"})
		return nil, false
	}
	return &results[0], true
}

// writeAnalysisError maps pipeline errors onto HTTP statuses. Unclassified
// errors are logged with their detail and answered with a generic message.
func writeAnalysisError(c *gin.Context, err error) {
	var aiErr *service.AIServiceError
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
	case errors.Is(err, service.ErrContentTooShort):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Contract has too little text to analyze"})
	case errors.As(err, &aiErr):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "AI service unavailable: " + aiErr.Message})
	default:
		logger.Error(c.Request.Context(), "analysis request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Analysis failed"})
	}
}
