package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wayfind-ai/wayfind/internal/config"
	"github.com/wayfind-ai/wayfind/internal/queue"
	mid "github.com/wayfind-ai/wayfind/internal/server/middleware"
	"github.com/wayfind-ai/wayfind/internal/storage"
	"github.com/wayfind-ai/wayfind/internal/util"
	"github.com/wayfind-ai/wayfind/pkg/ai"
	"github.com/wayfind-ai/wayfind/pkg/ai/ollama"
	"github.com/wayfind-ai/wayfind/pkg/ai/openai"
	"github.com/wayfind-ai/wayfind/pkg/answer"
	"github.com/wayfind-ai/wayfind/pkg/flow"
	"github.com/wayfind-ai/wayfind/pkg/grade"
	"github.com/wayfind-ai/wayfind/pkg/logger"
	"github.com/wayfind-ai/wayfind/pkg/route"
	"github.com/wayfind-ai/wayfind/pkg/search"
	"github.com/wayfind-ai/wayfind/pkg/store"
	storepgx "github.com/wayfind-ai/wayfind/pkg/store/pgx"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/go-playground/validator"
	"github.com/golang-migrate/migrate/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	pgxvec "github.com/pgvector/pgvector-go/pgx"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// NewModelClient builds the AI backend selected by cfg.Adapter.
func NewModelClient(cfg *config.Config) ai.ModelClient {
	switch cfg.Adapter {
	case "ollama":
		client, err := ollama.NewOllamaModelClient(ollama.NewOllamaModelClientParams{
			ChatModel:             cfg.ChatModel,
			EmbeddingModel:        cfg.EmbedModel,
			EmbedDim:              cfg.EmbedDim,
			BaseURL:               cfg.ChatURL,
			ApiKey:                cfg.ChatKey,
			MaxConcurrentRequests: cfg.MaxConcurrentRequests,
		})
		if err != nil {
			logger.Fatal("Failed to create ollama client", "err", err)
		}
		return client
	default:
		return openai.NewOpenAIModelClient(openai.NewOpenAIModelClientParams{
			ChatModel:             cfg.ChatModel,
			EmbeddingModel:        cfg.EmbedModel,
			EmbedDim:              cfg.EmbedDim,
			ChatURL:               cfg.ChatURL,
			ChatKey:               cfg.ChatKey,
			EmbeddingURL:          cfg.EmbedURL,
			EmbeddingKey:          cfg.EmbedKey,
			MaxConcurrentRequests: cfg.MaxConcurrentRequests,
		})
	}
}

// BuildEngine wires the collaborators around the shared model client and
// retriever.
func BuildEngine(cfg *config.Config, aiClient ai.ModelClient, retriever *store.VectorRetriever) (*flow.Engine, *route.QuestionRouter, error) {
	router := route.NewQuestionRouter(route.QuestionRouterParams{
		Client:      aiClient,
		Model:       cfg.RouterModel,
		Temperature: cfg.Temperature,
	})

	engine, err := flow.NewEngine(flow.EngineParams{
		Config: cfg,
		Collaborators: flow.Collaborators{
			Router:    router,
			Retriever: retriever,
			WebSearcher: search.NewTavilySearcher(search.TavilySearcherParams{
				APIKey:     cfg.TavilyKey,
				Endpoint:   cfg.TavilyURL,
				MaxResults: cfg.WebSearchK,
			}),
			RelevanceGrader:    grade.NewRelevanceGrader(grade.GraderParams{Client: aiClient, Temperature: cfg.Temperature}),
			GroundednessGrader: grade.NewGroundednessGrader(grade.GraderParams{Client: aiClient, Temperature: cfg.Temperature}),
			AdequacyGrader:     grade.NewAdequacyGrader(grade.GraderParams{Client: aiClient, Temperature: cfg.Temperature}),
			Generator:          answer.NewGenerator(answer.GeneratorParams{Client: aiClient, Temperature: cfg.Temperature}),
		},
		MaxRetries:    cfg.MaxRetries,
		MaxIterations: cfg.MaxIterations,
	})
	if err != nil {
		return nil, nil, err
	}
	return engine, router, nil
}

// RunMigrations applies any pending schema migrations. Both binaries call
// this on startup; golang-migrate serializes concurrent runs with its own
// advisory lock.
func RunMigrations(databaseURL string) {
	m, err := migrate.New("file://migrations", databaseURL)
	if err != nil {
		logger.Fatal("Failed to load migrations", "err", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		logger.Fatal("Failed to run migrations", "err", err)
	}
}

func Init() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", "err", err)
	}

	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	var key *keyfunc.Keyfunc
	if authURL := util.GetEnv("AUTH_URL"); authURL != "" {
		k, err := keyfunc.NewDefault([]string{authURL + "/jwks"})
		if err != nil {
			logger.Fatal("Failed to load jwks keys", "err", err)
		}
		key = &k
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	RunMigrations(cfg.DatabaseURL)

	conn, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", "err", err)
	}
	defer conn.Close()
	conn.Config().AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	que := queue.Init()
	defer que.Close()
	ch, err := que.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	if err := queue.SetupQueues(ch, queue.QueueNames); err != nil {
		logger.Fatal("Failed to setup queues", "err", err)
	}

	s3 := storage.NewS3Client(ctx)

	aiClient := NewModelClient(cfg)

	passageStore := storepgx.NewPassageDBStore(conn)
	retriever := store.NewVectorRetriever(store.VectorRetrieverParams{
		Store:  passageStore,
		Client: aiClient,
		K:      cfg.RetrievalK,
	})
	if err := retriever.Load(ctx); err != nil {
		logger.Warn("Index not loaded yet, queries fall back to web search after ingest", "err", err)
	}

	engine, router, err := BuildEngine(cfg, aiClient, retriever)
	if err != nil {
		logger.Fatal("Failed to build workflow engine", "err", err)
	}

	app := &mid.App{
		Config:       cfg,
		DBConn:       conn,
		Queue:        ch,
		Key:          key,
		S3:           s3,
		AiClient:     aiClient,
		Engine:       engine,
		Router:       router,
		Retriever:    retriever,
		Store:        passageStore,
		MasterAPIKey: util.GetEnv("MASTER_API_KEY"),
	}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())

	RegisterRoutes(e)

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
