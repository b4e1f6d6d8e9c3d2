package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	googleauth "notes-backend/internal/auth"
	"notes-backend/internal/notes"
	"notes-backend/internal/recordings"
	"notes-backend/internal/services/health"
	"notes-backend/internal/shared/config"
	"notes-backend/internal/shared/metrics"
	"notes-backend/internal/shared/server/middleware"
	"notes-backend/internal/shared/server/respond"
	"notes-backend/internal/users"
)

// RouterDeps holds the handlers mounted under /api/v1.
type RouterDeps struct {
	Config            config.Config
	NotesHandler      *notes.Handler
	RecordingsHandler *recordings.Handler
	UsersHandler      *users.Handler
	GoogleAuth        *googleauth.GoogleService
	Health            *health.Service
	RateLimiter       *middleware.RateLimiter
}

const (
	rateGroupDefault = "DEFAULT"
	rateGroupChunks  = "CHUNKS"
	rateGroupAI      = "AI"
)

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.Use(
		middleware.Auth(deps.Config.Env),
		middleware.RateLimit(middleware.RateLimitConfig{
			DefaultGroup: rateGroupDefault,
			GroupFor:     rateGroupFor,
			Limiter:      deps.RateLimiter,
			Rules: map[string]middleware.RateLimitRule{
				rateGroupDefault: {Rate: 5, Burst: 30},
				rateGroupChunks:  {Rate: 20, Burst: 60},
				rateGroupAI:      {Rate: 0.5, Burst: 5},
			},
		}),
	)
	api.GET("/health", func(c *gin.Context) {
		status := deps.Health.Check(c.Request.Context())
		code := http.StatusOK
		if !status.OK {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(c, code, status)
	})

	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.UsersHandler != nil {
		deps.UsersHandler.RegisterRoutes(api)
	}
	if deps.NotesHandler != nil {
		deps.NotesHandler.RegisterRoutes(api)
	}
	if deps.RecordingsHandler != nil {
		deps.RecordingsHandler.RegisterRoutes(api)
	}

	return r
}

// rateGroupFor gives streamed chunks a larger budget and model-backed calls
// a smaller one.
func rateGroupFor(c *gin.Context) string {
	if c.Request.Method != http.MethodPost {
		return rateGroupDefault
	}
	switch c.FullPath() {
	case "/api/v1/recordings/:id/chunks":
		return rateGroupChunks
	case "/api/v1/recordings/:id/stop", "/api/v1/notes/:id/summary", "/api/v1/notes/:id/questions":
		return rateGroupAI
	}
	return rateGroupDefault
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
