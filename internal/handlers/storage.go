package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"base0-backend/internal/database"
	"base0-backend/internal/middleware"
	"base0-backend/internal/models"
	"base0-backend/internal/storage"
)

type StorageHandler struct {
	pipeline *storage.Pipeline
	db       *database.Client
}

func NewStorageHandler(pipeline *storage.Pipeline, db *database.Client) *StorageHandler {
	return &StorageHandler{
		pipeline: pipeline,
		db:       db,
	}
}

// StorePrompt godoc
// @Summary     Store a prompt on Filecoin
// @Description Runs the payment and upload pipeline. Payment failures are blocking; transient storage failures degrade to local-only persistence and still return 200.
// @Tags        storage
// @Security    Bearer
// @Accept      json
// @Produce     json
// @Param       request body models.StorePromptRequest true "Prompt to store"
// @Success     200 {object} models.StorePromptResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     402 {object} models.ErrorResponse
// @Router      /storage/prompts [post]
func (h *StorageHandler) StorePrompt(c *gin.Context) {
	var req models.StorePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Prompt.ID == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "prompt with id is required"})
		return
	}

	// The stored record always belongs to the authenticated wallet,
	// whatever the body claims.
	req.Prompt.UserID = middleware.WalletAddress(c)

	result, err := h.pipeline.StorePrompt(c.Request.Context(), &req.Prompt, nil)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrPayment):
			c.JSON(http.StatusPaymentRequired, models.ErrorResponse{Error: "storage payment failed", Details: err.Error()})
		case errors.Is(err, storage.ErrSignerTiming), errors.Is(err, storage.ErrLocalFallback):
			// Degraded but not failed: the prompt is safe locally.
			c.JSON(http.StatusOK, models.StorePromptResponse{
				Success:   true,
				LocalOnly: true,
				Status:    "stored locally, Filecoin storage unavailable",
			})
		default:
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to store prompt", Details: err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, models.StorePromptResponse{
		Success:     true,
		CID:         result.CID,
		FilecoinURL: result.FilecoinURL,
		Status:      "stored on Filecoin",
	})
}

// RetrievePrompt godoc
// @Summary     Retrieve a stored prompt by piece CID
// @Tags        storage
// @Security    Bearer
// @Produce     json
// @Param       cid path string true "Piece CID"
// @Success     200 {object} models.UserPrompt
// @Failure     404 {object} models.ErrorResponse
// @Router      /storage/prompts/{cid} [get]
func (h *StorageHandler) RetrievePrompt(c *gin.Context) {
	cid := c.Param("cid")
	if cid == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "cid is required"})
		return
	}

	prompt, err := h.pipeline.RetrievePrompt(c.Request.Context(), cid)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "failed to retrieve prompt", Details: err.Error()})
		return
	}

	c.JSON(http.StatusOK, prompt)
}

// GetCIDs godoc
// @Summary     List the wallet's stored piece CIDs in storage order
// @Tags        storage
// @Security    Bearer
// @Produce     json
// @Success     200 {object} models.WalletCIDsResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /storage/cids [get]
func (h *StorageHandler) GetCIDs(c *gin.Context) {
	address := middleware.WalletAddress(c)

	cids, err := h.db.GetWalletCIDs(address)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to load cids", Details: err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.WalletCIDsResponse{Address: address, CIDs: cids})
}

// Pay godoc
// @Summary     Pay for 10 GB of storage for 30 days
// @Tags        storage
// @Security    Bearer
// @Produce     json
// @Success     200 {object} models.PaymentResponse
// @Failure     402 {object} models.ErrorResponse
// @Router      /storage/pay [post]
func (h *StorageHandler) Pay(c *gin.Context) {
	result, err := h.pipeline.PayForStorage(c.Request.Context(), nil)
	if err != nil {
		if errors.Is(err, storage.ErrPayment) {
			c.JSON(http.StatusPaymentRequired, models.ErrorResponse{Error: "storage payment failed", Details: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "payment failed", Details: err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.PaymentResponse{
		DepositAmount: storage.FormatUSDFC(result.DepositAmount),
		StorageGB:     result.StorageGB,
		DurationDays:  result.DurationDays,
		TxHash:        result.TxHash,
	})
}
