package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"base0-backend/internal/database"
	"base0-backend/internal/middleware"
	"base0-backend/internal/models"
)

type PromptsHandler struct {
	db *database.Client
}

func NewPromptsHandler(db *database.Client) *PromptsHandler {
	return &PromptsHandler{db: db}
}

// GetPrompts godoc
// @Summary     List the wallet's prompt history, newest first
// @Tags        history
// @Security    Bearer
// @Produce     json
// @Success     200 {array} models.UserPrompt
// @Failure     500 {object} models.ErrorResponse
// @Router      /prompts [get]
func (h *PromptsHandler) GetPrompts(c *gin.Context) {
	address := middleware.WalletAddress(c)

	prompts, err := h.db.GetUserPrompts(address)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to load prompts", Details: err.Error()})
		return
	}

	c.JSON(http.StatusOK, prompts)
}

// GetImages godoc
// @Summary     List the wallet's generated images, newest first
// @Tags        history
// @Security    Bearer
// @Produce     json
// @Success     200 {array} models.GeneratedImage
// @Failure     500 {object} models.ErrorResponse
// @Router      /images [get]
func (h *PromptsHandler) GetImages(c *gin.Context) {
	address := middleware.WalletAddress(c)

	images, err := h.db.GetUserImages(address)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to load images", Details: err.Error()})
		return
	}

	c.JSON(http.StatusOK, images)
}
