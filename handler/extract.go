package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/contractmind/backend/middleware"
	"github.com/contractmind/backend/service"
)

type ExtractHandler struct {
	analyzer *service.AnalysisService
}

func NewExtractHandler(analyzer *service.AnalysisService) *ExtractHandler {
	return &ExtractHandler{analyzer: analyzer}
}

// Extract returns the analyzable text for a contract, extracting it on
// demand. ?force=true bypasses the cache and re-extracts.
func (h *ExtractHandler) Extract(c *gin.Context) {
	userID := middleware.GetUserID(c)
	contractID := c.Param("id")
	force, _ := strconv.ParseBool(c.DefaultQuery("force", "false"))

	contract, err := h.analyzer.GetContract(c.Request.Context(), contractID, userID)
	if err != nil {
		writeAnalysisError(c, err)
		return
	}

	text, source, err := h.analyzer.AcquireText(c.Request.Context(), contract, force)
	if err != nil {
		writeAnalysisError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"contract_id": contractID,
		"content":     text,
		"length":      len([]rune(text)),
		"source":      source,
	})
}

// SupportedFormats lists the document types the extraction path accepts.
func (h *ExtractHandler) SupportedFormats(c *gin.Context) {
	formats := make([]string, 0, len(allowedExtensions))
	for ext := range allowedExtensions {
		formats = append(formats, ext)
	}
	c.JSON(http.StatusOK, gin.H{"formats": formats, "max_size_bytes": maxUploadSize})
}
