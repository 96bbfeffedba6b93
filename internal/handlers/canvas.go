package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"base0-backend/internal/database"
	"base0-backend/internal/graph"
	"base0-backend/internal/middleware"
	"base0-backend/internal/models"
)

type CanvasHandler struct {
	db *database.Client
}

func NewCanvasHandler(db *database.Client) *CanvasHandler {
	return &CanvasHandler{db: db}
}

type setOutputRequest struct {
	Output string `json:"output"`
}

type setOutputResponse struct {
	Updated []string       `json:"updated"`
	Canvas  graph.Document `json:"canvas"`
}

// Get godoc
// @Summary     Load the wallet's canvas document
// @Tags        canvas
// @Security    Bearer
// @Produce     json
// @Success     200 {object} graph.Document
// @Failure     500 {object} models.ErrorResponse
// @Router      /canvas [get]
func (h *CanvasHandler) Get(c *gin.Context) {
	address := middleware.WalletAddress(c)

	data, err := h.db.GetCanvas(address)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to load canvas", Details: err.Error()})
		return
	}
	if data == nil {
		c.JSON(http.StatusOK, graph.Document{Nodes: []graph.Node{}, Edges: []graph.Edge{}})
		return
	}

	c.Data(http.StatusOK, "application/json", data)
}

// Put godoc
// @Summary     Save the wallet's canvas document
// @Tags        canvas
// @Security    Bearer
// @Accept      json
// @Produce     json
// @Param       request body graph.Document true "Canvas document"
// @Success     200 {object} graph.Document
// @Failure     400 {object} models.ErrorResponse
// @Router      /canvas [put]
func (h *CanvasHandler) Put(c *gin.Context) {
	var doc graph.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid canvas document", Details: err.Error()})
		return
	}

	g, err := graph.Load(doc)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid canvas document", Details: err.Error()})
		return
	}

	data, err := g.Encode()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to encode canvas", Details: err.Error()})
		return
	}

	if err := h.db.SaveCanvas(middleware.WalletAddress(c), data); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to save canvas", Details: err.Error()})
		return
	}

	c.JSON(http.StatusOK, g.Document())
}

// SetNodeOutput godoc
// @Summary     Set a node output and propagate downstream
// @Tags        canvas
// @Security    Bearer
// @Accept      json
// @Produce     json
// @Param       id path string true "Node ID"
// @Success     200 {object} setOutputResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /canvas/nodes/{id}/output [post]
func (h *CanvasHandler) SetNodeOutput(c *gin.Context) {
	address := middleware.WalletAddress(c)

	var req setOutputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "output is required"})
		return
	}

	data, err := h.db.GetCanvas(address)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to load canvas", Details: err.Error()})
		return
	}
	if data == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "no canvas saved for wallet"})
		return
	}

	g, err := graph.Parse(data)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "stored canvas is invalid", Details: err.Error()})
		return
	}

	updated, err := g.SetOutput(c.Param("id"), req.Output)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "node not found", Details: err.Error()})
		return
	}

	encoded, err := g.Encode()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to encode canvas", Details: err.Error()})
		return
	}
	if err := h.db.SaveCanvas(address, encoded); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to save canvas", Details: err.Error()})
		return
	}

	c.JSON(http.StatusOK, setOutputResponse{Updated: updated, Canvas: g.Document()})
}
