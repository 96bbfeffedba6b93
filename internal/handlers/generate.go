package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"base0-backend/internal/auth"
	"base0-backend/internal/database"
	"base0-backend/internal/deepai"
	"base0-backend/internal/models"
)

type GenerateHandler struct {
	client *deepai.Client
	db     *database.Client
}

func NewGenerateHandler(client *deepai.Client, db *database.Client) *GenerateHandler {
	return &GenerateHandler{
		client: client,
		db:     db,
	}
}

// Generate godoc
// @Summary     Generate an image from a text prompt
// @Description Prefixes the prompt with the UGC style template and forwards it to the image API. When a wallet address is supplied, the prompt and result are recorded in that wallet's history.
// @Tags        generate
// @Accept      json
// @Produce     json
// @Param       request body models.GenerateImageRequest true "Generation parameters"
// @Success     200 {object} models.GenerateImageResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     408 {object} models.ErrorResponse
// @Failure     429 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Failure     503 {object} models.ErrorResponse
// @Router      /generate-image [post]
func (h *GenerateHandler) Generate(c *gin.Context) {
	var req models.GenerateImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "prompt is required"})
		return
	}

	result, err := h.client.Generate(c.Request.Context(), deepai.GenerateRequest{
		Prompt:           req.Prompt,
		Width:            req.Width,
		Height:           req.Height,
		Version:          req.ImageGeneratorVersion,
		GeniusPreference: req.GeniusPreference,
		NegativePrompt:   req.NegativePrompt,
		BaseImage:        req.BaseObject,
	})
	if err != nil {
		status, message := classifyGenerateError(err)
		c.JSON(status, models.ErrorResponse{Error: message, Details: err.Error()})
		return
	}

	metadata := models.GenerateImageMetadata{
		Prompt:        req.Prompt,
		WalletAddress: req.WalletAddress,
		GeneratedAt:   time.Now().UTC().Format(time.RFC3339),
		Width:         orDefault(req.Width, deepai.DefaultWidth),
		Height:        orDefault(req.Height, deepai.DefaultHeight),
		Version:       orDefaultStr(req.ImageGeneratorVersion, deepai.DefaultVersion),
		Preference:    orDefaultStr(req.GeniusPreference, deepai.DefaultPreference),
		HasBaseImage:  req.BaseObject != "",
	}

	if req.WalletAddress != "" {
		h.recordHistory(&req, result, metadata)
	}

	c.JSON(http.StatusOK, models.GenerateImageResponse{
		Success:          true,
		ImageURL:         result.OutputURL,
		ShareURL:         result.ShareURL,
		ID:               result.ID,
		BackendRequestID: result.BackendRequestID,
		NSFWScore:        result.NSFWScore,
		Metadata:         metadata,
	})
}

// Usage godoc
// @Summary     Describe the image generation endpoint
// @Tags        generate
// @Produce     json
// @Success     200 {object} models.UsageResponse
// @Router      /generate-image [get]
func (h *GenerateHandler) Usage(c *gin.Context) {
	c.JSON(http.StatusOK, models.UsageResponse{
		Message: "Image generation endpoint",
		Usage:   "POST a JSON body with a prompt to generate an image",
		Example: map[string]any{
			"prompt":                  "a cat on a skateboard",
			"width":                   512,
			"height":                  512,
			"image_generator_version": "standard",
		},
	})
}

// recordHistory persists the prompt and image for the wallet. History is
// best effort: a failed write never fails the generation response.
func (h *GenerateHandler) recordHistory(req *models.GenerateImageRequest, result *deepai.GenerateResult, metadata models.GenerateImageMetadata) {
	address, err := auth.NormalizeAddress(req.WalletAddress)
	if err != nil {
		return
	}

	now := time.Now().UnixMilli()
	promptMeta := models.PromptMetadata{
		Width:      metadata.Width,
		Height:     metadata.Height,
		Version:    metadata.Version,
		Preference: metadata.Preference,
	}

	prompt := &models.UserPrompt{
		ID:             uuid.NewString(),
		UserID:         address,
		Prompt:         req.Prompt,
		EnhancedPrompt: result.EnhancedPrompt,
		BaseImageURL:   req.BaseObject,
		Timestamp:      now,
		Metadata:       promptMeta,
	}
	_ = h.db.UpsertPrompt(prompt)

	_ = h.db.UpsertImage(&models.GeneratedImage{
		ID:        uuid.NewString(),
		UserID:    address,
		PromptID:  prompt.ID,
		ImageURL:  result.OutputURL,
		ShareURL:  result.ShareURL,
		DeepAIID:  result.ID,
		Timestamp: now,
		Metadata:  promptMeta,
	})
}

func classifyGenerateError(err error) (int, string) {
	var upstream *deepai.UpstreamError

	switch {
	case errors.Is(err, deepai.ErrInvalidAPIKey):
		return http.StatusUnauthorized, "invalid API key"
	case errors.Is(err, deepai.ErrRateLimited):
		return http.StatusTooManyRequests, "rate limit exceeded"
	case errors.As(err, &upstream):
		return upstream.StatusCode, "image API error"
	case errors.Is(err, deepai.ErrTimeout):
		return http.StatusRequestTimeout, "image generation timed out"
	case errors.Is(err, deepai.ErrNetwork):
		return http.StatusServiceUnavailable, "image API unreachable"
	case errors.Is(err, deepai.ErrMalformedResponse):
		return http.StatusInternalServerError, "malformed image API response"
	default:
		return http.StatusInternalServerError, "image generation failed"
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func orDefaultStr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
