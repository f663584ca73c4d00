package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/contractmind/backend/middleware"
	"github.com/contractmind/backend/service"
)

type AIHandler struct {
	analyzer *service.AnalysisService
	llm      service.ChatCompleter
}

func NewAIHandler(analyzer *service.AnalysisService, llm service.ChatCompleter) *AIHandler {
	return &AIHandler{analyzer: analyzer, llm: llm}
}

type QARequest struct {
	Question string                `json:"question" binding:"required"`
	History  []service.ChatMessage `json:"history"`
}

// Ask answers a question about a contract, grounded on its extracted text.
func (h *AIHandler) Ask(c *gin.Context) {
	var req QARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Question is required"})
		return
	}

	text, ok := h.contractText(c)
	if !ok {
		return
	}

	result, err := h.llm.SendMessage(c.Request.Context(), service.ContractQAPrompt(req.Question, text), req.History, nil)
	if err != nil {
		writeAnalysisError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"contract_id": c.Param("id"),
		"question":    req.Question,
		"answer":      result.Content,
		"usage":       result.Usage,
	})
}

// Summarize produces a short free-text summary of a contract.
func (h *AIHandler) Summarize(c *gin.Context) {
	text, ok := h.contractText(c)
	if !ok {
		return
	}

	result, err := h.llm.SendMessage(c.Request.Context(), service.SummaryPrompt(text), nil, nil)
	if err != nil {
		writeAnalysisError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"contract_id": c.Param("id"),
		"summary":     result.Content,
		"usage":       result.Usage,
	})
}

// ExtractClauses pulls the structured clause list out of a contract.
func (h *AIHandler) ExtractClauses(c *gin.Context) {
	text, ok := h.contractText(c)
	if !ok {
		return
	}

	result, err := h.llm.SendMessage(c.Request.Context(), service.ClauseExtractionPrompt(text), nil, nil)
	if err != nil {
		writeAnalysisError(c, err)
		return
	}

	// The clause response goes through the same repair ladder as analysis.
	normalized := service.Normalize(result.Content)
	response := gin.H{
		"contract_id": c.Param("id"),
		"clauses":     normalized.Data["clauses"],
		"metadata":    normalized.Data["metadata"],
	}
	if normalized.Warning != "" {
		response["parse_warning"] = normalized.Warning
	}

	c.JSON(http.StatusOK, response)
}

func (h *AIHandler) contractText(c *gin.Context) (string, bool) {
	userID := middleware.GetUserID(c)
	contractID := c.Param("id")

	contract, err := h.analyzer.GetContract(c.Request.Context(), contractID, userID)
	if err != nil {
		writeAnalysisError(c, err)
		return "", false
	}

	text, _, err := h.analyzer.AcquireText(c.Request.Context(), contract, false)
	if err != nil {
		writeAnalysisError(c, err)
		return "", false
	}
	return text, true
}
