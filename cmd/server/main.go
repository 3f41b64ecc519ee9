package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/doclens-ai/doclens/internal/adapter/ai"
	"github.com/doclens-ai/doclens/internal/adapter/auth"
	"github.com/doclens-ai/doclens/internal/adapter/enrich"
	"github.com/doclens-ai/doclens/internal/adapter/objstore"
	"github.com/doclens-ai/doclens/internal/adapter/store"
	"github.com/doclens-ai/doclens/internal/embed"
	"github.com/doclens-ai/doclens/internal/extract"
	"github.com/doclens-ai/doclens/internal/handler"
	"github.com/doclens-ai/doclens/internal/mcp"
	"github.com/doclens-ai/doclens/internal/middleware"
	"github.com/doclens-ai/doclens/internal/port"
	"github.com/doclens-ai/doclens/internal/service"
	"github.com/doclens-ai/doclens/pkg/config"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"

	_ "github.com/lib/pq"
)

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	slog.Info("🚀 Starting DocLens AI",
		"port", cfg.Port,
		"ollama_embed", cfg.OllamaEmbedURL,
		"ollama_chat", cfg.OllamaChatURL,
		"embedding_dimension", cfg.EmbeddingDimension,
		"mcp_enabled", cfg.MCPEnabled,
	)

	if cfg.UnidocLicenseKey != "" {
		if err := extract.SetPDFLicense(cfg.UnidocLicenseKey); err != nil {
			slog.Warn("unidoc license rejected, PDF extraction runs unlicensed", "error", err)
		}
	}

	// ── Database ─────────────────────────────────────────────────────────
	pgStore, err := store.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pgStore.Close()

	vectorStore := store.NewVectorStore(pgStore, cfg.EmbeddingDimension)

	// ── Adapters ─────────────────────────────────────────────────────────
	googleAuth := auth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	githubAuth := auth.NewGitHubProvider(cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.GitHubRedirectURL)

	providers := port.AuthProviderRegistry{
		"google": googleAuth,
		"github": githubAuth,
	}

	ollamaAI := ai.NewOllamaProvider(
		ai.OllamaEndpointConfig{
			BaseURL: cfg.OllamaEmbedURL,
			Model:   cfg.OllamaEmbedModel,
			Token:   cfg.OllamaEmbedToken,
		},
		ai.OllamaEndpointConfig{
			BaseURL: cfg.OllamaChatURL,
			Model:   cfg.OllamaChatModel,
			Token:   cfg.OllamaChatToken,
		},
	)

	fetcher, err := objstore.NewMinioFetcher(objstore.Config{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
	})
	if err != nil {
		slog.Error("failed to connect to object storage", "error", err)
		os.Exit(1)
	}

	// ── Enrichment Engine (Strategy Pattern) ─────────────────────────────
	engine := port.NewEnrichmentEngine(
		enrich.NewSummaryStrategy(ollamaAI),
		enrich.NewTagsStrategy(ollamaAI),
	)

	// ── Services ─────────────────────────────────────────────────────────
	embedder := embed.New(ollamaAI, cfg.EmbeddingDimension)

	authService := service.NewAuthService(providers, pgStore, cfg)
	ingestService := service.NewIngestService(
		fetcher, extract.NewDispatcher(), embedder,
		pgStore, vectorStore, engine,
		cfg.ChunkMaxLength, cfg.ChunkOverlap,
	)
	retrievalService := service.NewRetrievalService(embedder, vectorStore, service.RetrievalOptions{
		SimilarityThreshold: cfg.SimilarityThreshold,
		KeywordScore:        cfg.KeywordScore,
		RecentChunkScore:    cfg.RecentChunkScore,
		DefaultLimit:        cfg.SearchLimit,
	})
	chatService := service.NewChatService(ollamaAI, retrievalService, pgStore, cfg.SearchLimit)

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}))

	// Audit middleware (logs all requests)
	app.Use(middleware.AuditMiddleware(pgStore))

	// ── Public Routes ────────────────────────────────────────────────────
	authHandler := handler.NewAuthHandler(authService, cfg.FrontendURL)
	authHandler.Register(app)

	// Health check
	app.Get("/api/v1/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"app":     cfg.AppName,
			"version": "1.0.0",
		})
	})

	// ── Protected Routes ─────────────────────────────────────────────────
	jwtMiddleware := middleware.JWTMiddleware(middleware.JWTConfig{
		Secret:    cfg.JWTSecret,
		Issuer:    cfg.JWTIssuer,
		ExpiresIn: time.Duration(cfg.JWTExpiration) * time.Hour,
	})

	api := app.Group("/api/v1", jwtMiddleware)

	documentHandler := handler.NewDocumentHandler(pgStore, vectorStore, ingestService, cfg.SimilarityThreshold, cfg.SearchLimit)
	documentHandler.Register(api)

	searchHandler := handler.NewSearchHandler(retrievalService)
	searchHandler.Register(api)

	chatHandler := handler.NewChatHandler(chatService)
	chatHandler.Register(api)

	conversationsHandler := handler.NewConversationsHandler(pgStore)
	conversationsHandler.Register(api)

	auditHandler := handler.NewAuditHandler(pgStore)
	auditHandler.Register(api)

	// ── MCP Server (separate port) ───────────────────────────────────────
	if cfg.MCPEnabled {
		mcpServer := mcp.NewServer(retrievalService, chatService, cfg.MCPPort)
		go func() {
			if err := mcpServer.Start(); err != nil {
				slog.Error("MCP server failed", "error", err)
			}
		}()
	}

	// ── Start ────────────────────────────────────────────────────────────
	slog.Info("🌐 Fiber listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
