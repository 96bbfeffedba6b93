// @title           Base0 Backend API
// @version         1.0.0
// @description     Backend API for wallet-gated AI image generation with Filecoin storage and a pay-per-access content registry. Handles image generation via DeepAI, prompt persistence to Filecoin through the Synapse storage network, and on-chain content access control.

// @host      localhost:8080
// @BasePath  /api

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"base0-backend/docs"
	"base0-backend/internal/auth"
	"base0-backend/internal/config"
	"base0-backend/internal/database"
	"base0-backend/internal/deepai"
	"base0-backend/internal/handlers"
	"base0-backend/internal/middleware"
	"base0-backend/internal/registry"
	"base0-backend/internal/storage"
	"base0-backend/internal/synapse"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Update Swagger docs with dynamic base URL
	if cfg.BaseURL != "" {
		baseURL, err := url.Parse(cfg.BaseURL)
		if err == nil {
			docs.SwaggerInfo.Host = baseURL.Host
			if baseURL.Scheme == "https" {
				docs.SwaggerInfo.Schemes = []string{"https", "http"}
			} else {
				docs.SwaggerInfo.Schemes = []string{"http", "https"}
			}
		}
	}

	// Local database
	db, err := database.NewClient(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// Run migrations
	migrator := database.NewMigrator(db.DB())
	if err := migrator.Run(); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("Migrations completed successfully")

	// Image generation client
	deepaiClient := deepai.NewClient(cfg.DeepAIBaseURL, cfg.DeepAIAPIKey)

	// Storage network client
	synapseClient := synapse.NewClient(cfg.SynapseAPIBaseURL)

	// On-chain clients need an RPC connection; give startup dials a bound.
	dialCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Payments contract (optional: requires a signing key)
	var payments synapse.PaymentService
	if cfg.SignerPrivateKey != "" && cfg.PaymentsAddress != "" {
		p, err := synapse.NewPayments(dialCtx, cfg.FilecoinRPCURL, cfg.PaymentsAddress, cfg.SignerPrivateKey)
		if err != nil {
			log.Printf("Warning: Failed to initialize payments client: %v", err)
			log.Println("Filecoin storage will degrade to local-only persistence.")
		} else {
			payments = p
		}
	} else {
		log.Println("Warning: PRIVATE_KEY or PAYMENTS_ADDRESS not set. Filecoin storage will degrade to local-only persistence.")
	}

	// Storage pipeline
	pipeline := storage.NewPipeline(synapseClient, payments, db, cfg.WarmStorageAddress)
	pipeline.SetSignerCheck(func(ctx context.Context) error {
		if payments == nil {
			return errors.New("no signing key configured")
		}
		return nil
	})

	// Content registry contract (optional)
	var contract *registry.Contract
	if cfg.CIDStoreAddress != "" {
		if cfg.SignerPrivateKey != "" {
			contract, err = registry.NewContractWithKey(dialCtx, cfg.FilecoinRPCURL, cfg.CIDStoreAddress, cfg.SignerPrivateKey)
		} else {
			contract, err = registry.NewContract(dialCtx, cfg.FilecoinRPCURL, cfg.CIDStoreAddress)
		}
		if err != nil {
			log.Printf("Warning: Failed to initialize content registry: %v", err)
			contract = nil
		}
	} else {
		log.Println("Warning: CID_STORE_ADDRESS not set. Content registry routes disabled.")
	}

	// Wallet sessions
	sessions := auth.NewSessions(cfg.SessionJWTSecret)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(sessions, db)
	generateHandler := handlers.NewGenerateHandler(deepaiClient, db)
	promptsHandler := handlers.NewPromptsHandler(db)
	storageHandler := handlers.NewStorageHandler(pipeline, db)
	canvasHandler := handlers.NewCanvasHandler(db)

	// Setup router
	router := gin.Default()

	// Middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check (no auth)
	router.GET("/health", handlers.HealthHandler)

	// Public API routes
	api := router.Group("/api")
	api.POST("/auth/nonce", authHandler.Nonce)
	api.POST("/auth/verify", authHandler.Verify)
	api.GET("/generate-image", generateHandler.Usage)
	api.POST("/generate-image", generateHandler.Generate)

	// Wallet-gated routes
	gated := api.Group("")
	gated.Use(middleware.AuthMiddleware(sessions))

	gated.GET("/prompts", promptsHandler.GetPrompts)
	gated.GET("/images", promptsHandler.GetImages)

	gated.POST("/storage/prompts", storageHandler.StorePrompt)
	gated.GET("/storage/prompts/:cid", storageHandler.RetrievePrompt)
	gated.GET("/storage/cids", storageHandler.GetCIDs)
	gated.POST("/storage/pay", storageHandler.Pay)

	gated.GET("/canvas", canvasHandler.Get)
	gated.PUT("/canvas", canvasHandler.Put)
	gated.POST("/canvas/nodes/:id/output", canvasHandler.SetNodeOutput)

	if contract != nil {
		contentHandler := handlers.NewContentHandler(contract)
		api.GET("/content", contentHandler.List)
		api.GET("/content/:id", contentHandler.Get)
		api.GET("/content/:id/deal", contentHandler.DealStatus)
		gated.POST("/content", contentHandler.Store)
		gated.POST("/content/:id/purchase", contentHandler.Purchase)
		gated.GET("/content/:id/cid", contentHandler.GetCID)
	}

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
