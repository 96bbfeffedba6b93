package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"base0-backend/internal/auth"
	"base0-backend/internal/database"
	"base0-backend/internal/models"
)

type AuthHandler struct {
	sessions *auth.Sessions
	db       *database.Client
}

func NewAuthHandler(sessions *auth.Sessions, db *database.Client) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		db:       db,
	}
}

// Nonce godoc
// @Summary     Request a signing challenge for a wallet address
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body models.NonceRequest true "Wallet address"
// @Success     200 {object} models.NonceResponse
// @Failure     400 {object} models.ErrorResponse
// @Router      /auth/nonce [post]
func (h *AuthHandler) Nonce(c *gin.Context) {
	var req models.NonceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "address is required"})
		return
	}

	address, err := auth.NormalizeAddress(req.Address)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid wallet address"})
		return
	}

	nonce, err := auth.NewNonce()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to generate nonce"})
		return
	}

	if err := h.db.SaveNonce(address, nonce); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to save nonce", Details: err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.NonceResponse{Address: address, Nonce: nonce})
}

// Verify godoc
// @Summary     Verify a signed challenge and issue a session token
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body models.VerifyRequest true "Address and signature"
// @Success     200 {object} models.VerifyResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /auth/verify [post]
func (h *AuthHandler) Verify(c *gin.Context) {
	var req models.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "address and signature are required"})
		return
	}

	address, err := auth.NormalizeAddress(req.Address)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid wallet address"})
		return
	}

	// Nonces are single-use: a replayed signature finds nothing to verify
	// against.
	nonce, err := h.db.TakeNonce(address)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "no pending challenge for address"})
		return
	}

	message := auth.ChallengeMessage(address, nonce)
	if err := auth.VerifySignature(address, message, req.Signature); err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "signature verification failed", Details: err.Error()})
		return
	}

	token, err := h.sessions.IssueToken(address)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to issue session token"})
		return
	}

	c.JSON(http.StatusOK, models.VerifyResponse{Token: token, Address: address})
}
