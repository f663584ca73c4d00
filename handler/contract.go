package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/contractmind/backend/middleware"
	"github.com/contractmind/backend/model"
	"github.com/contractmind/backend/pkg/logger"
	"github.com/contractmind/backend/service"
	"github.com/contractmind/backend/store"
)

// maxUploadSize bounds contract document uploads.
const maxUploadSize = 10 << 20 // 10 MB

var allowedExtensions = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain",
}

// DocumentStorage is the slice of object storage the contract handler needs.
type DocumentStorage interface {
	UploadDocument(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	DeleteDocument(ctx context.Context, objectName string) error
}

type ContractHandler struct {
	store   store.Store
	storage DocumentStorage
}

func NewContractHandler(st store.Store, storage DocumentStorage) *ContractHandler {
	return &ContractHandler{store: st, storage: storage}
}

// Upload handles contract file upload
func (h *ContractHandler) Upload(c *gin.Context) {
	userID := middleware.GetUserID(c)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File exceeds the 10MB limit"})
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	contentType, ok := allowedExtensions[ext]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only PDF, DOC, DOCX and TXT files are allowed"})
		return
	}

	contractID := uuid.New().String()
	objectName := fmt.Sprintf("%s/%s/%s", userID, contractID, header.Filename)

	if err := h.storage.UploadDocument(c.Request.Context(), objectName, file, header.Size, contentType); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store document: " + err.Error()})
		return
	}

	now := time.Now().UTC()
	contract := &model.Contract{
		ID:             contractID,
		UserID:         userID,
		Filename:       header.Filename,
		FilePath:       objectName,
		FileSize:       header.Size,
		FileType:       ext,
		Title:          c.PostForm("contract_title"),
		Counterparties: c.PostForm("counterparties"),
		Amount:         c.PostForm("contract_amount"),
		EffectiveDate:  c.PostForm("effective_date"),
		ExpirationDate: c.PostForm("expiration_date"),
		Category:       c.PostForm("category"),
		Status:         model.StatusUploaded,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	var saved model.Contract
	if err := h.store.Insert(c.Request.Context(), service.TableContracts, contract, &saved); err != nil {
		// Don't leave an orphaned object behind a failed insert.
		if delErr := h.storage.DeleteDocument(c.Request.Context(), objectName); delErr != nil {
			logger.Warn(c.Request.Context(), "failed to remove document after insert failure",
				"object", objectName, "error", delErr)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save contract: " + err.Error()})
		return
	}

	logger.Info(c.Request.Context(), "contract uploaded",
		"contract_id", saved.ID, "filename", saved.Filename, "size", saved.FileSize)

	c.JSON(http.StatusOK, saved)
}

// List returns the caller's contracts, newest first.
func (h *ContractHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)

	filter := store.Filter{"user_id": userID}
	if status := c.Query("status"); status != "" {
		filter["status"] = status
	}
	if category := c.Query("category"); category != "" {
		filter["category"] = category
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	opts := &store.QueryOptions{
		Limit:      limit,
		Offset:     offset,
		OrderBy:    "created_at",
		Descending: true,
	}

	var contracts []model.Contract
	if err := h.store.Select(c.Request.Context(), service.TableContracts, filter, opts, &contracts); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list contracts: " + err.Error()})
		return
	}
	if contracts == nil {
		contracts = []model.Contract{}
	}

	c.JSON(http.StatusOK, gin.H{"contracts": contracts, "limit": limit, "offset": offset})
}

// Get returns one contract owned by the caller.
func (h *ContractHandler) Get(c *gin.Context) {
	contract, ok := h.findOwned(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, contract)
}

// UpdateRequest carries the editable business metadata of a contract.
type UpdateRequest struct {
	Title          *string `json:"contract_title"`
	Counterparties *string `json:"counterparties"`
	Amount         *string `json:"contract_amount"`
	EffectiveDate  *string `json:"effective_date"`
	ExpirationDate *string `json:"expiration_date"`
	Category       *string `json:"category"`
	Status         *string `json:"status"`
}

var reviewStatuses = map[string]bool{
	model.StatusReviewed: true,
	model.StatusApproved: true,
	model.StatusRejected: true,
}

// Update patches a contract's business metadata. Status can only move into
// the review states; the analysis lifecycle states are owned by the pipeline.
func (h *ContractHandler) Update(c *gin.Context) {
	contract, ok := h.findOwned(c)
	if !ok {
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	patch := map[string]any{}
	setIf(patch, "contract_title", req.Title)
	setIf(patch, "counterparties", req.Counterparties)
	setIf(patch, "contract_amount", req.Amount)
	setIf(patch, "effective_date", req.EffectiveDate)
	setIf(patch, "expiration_date", req.ExpirationDate)
	setIf(patch, "category", req.Category)
	if req.Status != nil {
		if !reviewStatuses[*req.Status] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Status can only be set to reviewed, approved or rejected"})
			return
		}
		patch["status"] = *req.Status
	}
	if len(patch) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}
	patch["updated_at"] = time.Now().UTC().Format(time.RFC3339)

	var updated model.Contract
	if err := h.store.Update(c.Request.Context(), service.TableContracts, contract.ID, patch, &updated); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update contract: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, updated)
}

// Delete removes a contract, its stored document and its cached text.
func (h *ContractHandler) Delete(c *gin.Context) {
	contract, ok := h.findOwned(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if contract.HasFile() {
		if err := h.storage.DeleteDocument(ctx, contract.FilePath); err != nil {
			logger.Warn(ctx, "failed to delete stored document", "object", contract.FilePath, "error", err)
		}
	}

	var cached []model.TextCacheEntry
	if err := h.store.Select(ctx, service.TableTextCache, store.Filter{"contract_id": contract.ID}, nil, &cached); err == nil {
		for _, entry := range cached {
			if err := h.store.Delete(ctx, service.TableTextCache, entry.ID); err != nil {
				logger.Warn(ctx, "failed to delete cached text", "contract_id", contract.ID, "error", err)
			}
		}
	}

	if err := h.store.Delete(ctx, service.TableContracts, contract.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete contract: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": contract.ID})
}

// findOwned loads the contract from the id path param scoped to the caller,
// writing the error response itself on failure.
func (h *ContractHandler) findOwned(c *gin.Context) (*model.Contract, bool) {
	userID := middleware.GetUserID(c)
	contractID := c.Param("id")

	var contracts []model.Contract
	filter := store.Filter{"id": contractID, "user_id": userID}
	if err := h.store.Select(c.Request.Context(), service.TableContracts, filter, &store.QueryOptions{Limit: 1}, &contracts); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up contract: " + err.Error()})
		return nil, false
	}
	if len(contracts) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
		return nil, false
	}
	return &contracts[0], true
}

func setIf(patch map[string]any, key string, v *string) {
	if v != nil {
		patch[key] = *v
	}
}
