package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"base0-backend/internal/middleware"
	"base0-backend/internal/models"
	"base0-backend/internal/registry"
)

type ContentHandler struct {
	contract *registry.Contract
}

func NewContentHandler(contract *registry.Contract) *ContentHandler {
	return &ContentHandler{contract: contract}
}

// List godoc
// @Summary     List active content in the registry
// @Tags        content
// @Produce     json
// @Success     200 {array} models.StoredContent
// @Failure     500 {object} models.ErrorResponse
// @Router      /content [get]
func (h *ContentHandler) List(c *gin.Context) {
	// Access flags are evaluated for the caller when authenticated; the
	// listing itself is public.
	caller := middleware.WalletAddress(c)

	content, err := h.contract.GetAllActiveContent(c.Request.Context(), caller)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to list content", Details: err.Error()})
		return
	}

	c.JSON(http.StatusOK, content)
}

// Get godoc
// @Summary     Get content metadata
// @Tags        content
// @Produce     json
// @Param       id path int true "Content ID"
// @Success     200 {object} models.StoredContent
// @Failure     400 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /content/{id} [get]
func (h *ContentHandler) Get(c *gin.Context) {
	contentID, ok := contentIDParam(c)
	if !ok {
		return
	}

	info, err := h.contract.GetContentInfo(c.Request.Context(), contentID, middleware.WalletAddress(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to get content", Details: err.Error()})
		return
	}

	c.JSON(http.StatusOK, info)
}

// Store godoc
// @Summary     Register content for paid access
// @Tags        content
// @Security    Bearer
// @Accept      json
// @Produce     json
// @Param       request body models.StoreContentRequest true "Content record"
// @Success     200 {object} models.StoreContentResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /content [post]
func (h *ContentHandler) Store(c *gin.Context) {
	var req models.StoreContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "pieceCid, dataCid, price, title and pieceSize are required"})
		return
	}

	price, err := registry.ParseFIL(req.Price)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid price", Details: err.Error()})
		return
	}

	contentID, txHash, err := h.contract.StoreContent(c.Request.Context(),
		req.PieceCID, req.DataCID, price, req.Title, req.Description, req.PieceSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to store content", Details: err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.StoreContentResponse{ContentID: contentID, TxHash: txHash})
}

// Purchase godoc
// @Summary     Purchase access to content
// @Tags        content
// @Security    Bearer
// @Produce     json
// @Param       id path int true "Content ID"
// @Success     200 {object} models.PurchaseResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /content/{id}/purchase [post]
func (h *ContentHandler) Purchase(c *gin.Context) {
	contentID, ok := contentIDParam(c)
	if !ok {
		return
	}

	txHash, err := h.contract.PurchaseAccess(c.Request.Context(), contentID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to purchase access", Details: err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.PurchaseResponse{ContentID: contentID, TxHash: txHash})
}

// GetCID godoc
// @Summary     Get the data CID after purchase
// @Tags        content
// @Security    Bearer
// @Produce     json
// @Param       id path int true "Content ID"
// @Success     200 {object} models.CIDResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Router      /content/{id}/cid [get]
func (h *ContentHandler) GetCID(c *gin.Context) {
	contentID, ok := contentIDParam(c)
	if !ok {
		return
	}
	caller := middleware.WalletAddress(c)

	hasAccess, err := h.contract.HasAccess(c.Request.Context(), contentID, caller)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to check access", Details: err.Error()})
		return
	}
	if !hasAccess {
		c.JSON(http.StatusForbidden, models.ErrorResponse{Error: "access not purchased"})
		return
	}

	dataCID, err := h.contract.GetCID(c.Request.Context(), contentID, caller)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to get cid", Details: err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.CIDResponse{ContentID: contentID, DataCID: dataCID})
}

// DealStatus godoc
// @Summary     Check Filecoin deal activation
// @Tags        content
// @Produce     json
// @Param       id path int true "Content ID"
// @Success     200 {object} models.DealStatusResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /content/{id}/deal [get]
func (h *ContentHandler) DealStatus(c *gin.Context) {
	contentID, ok := contentIDParam(c)
	if !ok {
		return
	}

	activated, err := h.contract.CheckDealActivation(c.Request.Context(), contentID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to check deal", Details: err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.DealStatusResponse{ContentID: contentID, Activated: activated})
}

func contentIDParam(c *gin.Context) (uint64, bool) {
	contentID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid content id"})
		return 0, false
	}
	return contentID, true
}
