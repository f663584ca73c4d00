package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/contractmind/backend/middleware"
	"github.com/contractmind/backend/model"
	"github.com/contractmind/backend/service"
	"github.com/contractmind/backend/store"
)

type DashboardHandler struct {
	store store.Store
}

func NewDashboardHandler(st store.Store) *DashboardHandler {
	return &DashboardHandler{store: st}
}

// Stats aggregates the caller's portfolio: status counts, risk distribution
// across analyzed contracts, and the most recent uploads.
func (h *DashboardHandler) Stats(c *gin.Context) {
	userID := middleware.GetUserID(c)
	ctx := c.Request.Context()

	var contracts []model.Contract
	if err := h.store.Select(ctx, service.TableContracts, store.Filter{"user_id": userID}, nil, &contracts); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load contracts: " + err.Error()})
		return
	}

	statusCounts := map[string]int{}
	for _, contract := range contracts {
		statusCounts[contract.Status]++
	}

	var analyses []model.AnalysisResult
	if err := h.store.Select(ctx, service.TableAnalysis, store.Filter{"user_id": userID}, nil, &analyses); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load analyses: " + err.Error()})
		return
	}

	// Risk distribution over the latest analysis per contract.
	latest := map[string]*model.AnalysisResult{}
	for i := range analyses {
		a := &analyses[i]
		if prev, ok := latest[a.ContractID]; !ok || a.CreatedAt.After(prev.CreatedAt) {
			latest[a.ContractID] = a
		}
	}
	riskCounts := map[string]int{model.RiskLow: 0, model.RiskMedium: 0, model.RiskHigh: 0}
	nonCompliant := 0
	for _, a := range latest {
		riskCounts[a.OverallRiskLevel]++
		if !a.ComplianceStatus {
			nonCompliant++
		}
	}

	var recent []model.Contract
	opts := &store.QueryOptions{Limit: 5, OrderBy: "created_at", Descending: true}
	if err := h.store.Select(ctx, service.TableContracts, store.Filter{"user_id": userID}, opts, &recent); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load recent contracts: " + err.Error()})
		return
	}
	if recent == nil {
		recent = []model.Contract{}
	}

	c.JSON(http.StatusOK, gin.H{
		"total_contracts":   len(contracts),
		"status_counts":     statusCounts,
		"risk_distribution": riskCounts,
		"non_compliant":     nonCompliant,
		"analyzed":          len(latest),
		"recent_contracts":  recent,
	})
}
