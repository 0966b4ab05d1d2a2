package middleware

import (
	"github.com/MicahParks/keyfunc/v3"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/wayfind-ai/wayfind/internal/config"
	"github.com/wayfind-ai/wayfind/pkg/ai"
	"github.com/wayfind-ai/wayfind/pkg/flow"
	"github.com/wayfind-ai/wayfind/pkg/route"
	"github.com/wayfind-ai/wayfind/pkg/store"
)

type AppUser struct {
	UserID string
	Role   string
}

// App bundles the long-lived dependencies every request handler needs.
type App struct {
	Config    *config.Config
	DBConn    *pgxpool.Pool
	Queue     *amqp091.Channel
	Key       *keyfunc.Keyfunc
	S3        *s3.Client
	AiClient  ai.ModelClient
	Engine    *flow.Engine
	Router    *route.QuestionRouter
	Retriever *store.VectorRetriever
	Store     store.PassageStore

	MasterAPIKey string
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

// AppContextMiddleware wraps every request context with the shared App.
func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
