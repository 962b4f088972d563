package server

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"mission-backend/internal/account"
	"mission-backend/internal/analyses"
	googleauth "mission-backend/internal/auth"
	"mission-backend/internal/guide"
	"mission-backend/internal/industry"
	"mission-backend/internal/shared/config"
	"mission-backend/internal/shared/metrics"
	"mission-backend/internal/shared/server/middleware"
	"mission-backend/internal/shared/server/respond"
	"mission-backend/internal/shared/storage/db"
	"mission-backend/internal/uploads"
	"mission-backend/internal/usage"
	"mission-backend/internal/users"
)

// RouterDeps are the handlers mounted under /api/v1. Nil handlers are skipped.
type RouterDeps struct {
	Config     config.Config
	DB         *sql.DB
	Analyses   *analyses.Handler
	Industry   *industry.Handler
	Uploads    *uploads.Handler
	Usage      *usage.Handler
	Account    *account.Handler
	Users      *users.Handler
	GoogleAuth *googleauth.GoogleService
	Limiter    *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.IsDevLike() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
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
		middleware.Auth(),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:    middleware.DefaultRateLimitRules(),
			GroupFor: middleware.GroupForRoute,
			Limiter:  deps.Limiter,
		}),
	)
	api.GET("/health", health(deps.DB))
	guide.RegisterRoutes(api)

	if deps.Industry != nil {
		deps.Industry.RegisterRoutes(api)
	}
	if deps.Analyses != nil {
		deps.Analyses.RegisterRoutes(api)
	}
	if deps.Uploads != nil {
		deps.Uploads.RegisterRoutes(api)
	}
	if deps.Usage != nil {
		deps.Usage.RegisterRoutes(api)
		if deps.Config.Env == "dev" {
			deps.Usage.RegisterDevRoutes(api.Group("/dev"))
		}
	}
	if deps.Account != nil {
		deps.Account.RegisterRoutes(api)
	}
	if deps.Users != nil {
		deps.Users.RegisterRoutes(api)
	}
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}

	return r
}

func health(pool *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(c.Request.Context(), pool, 0); err != nil {
			respond.Error(c, http.StatusServiceUnavailable, "unhealthy", "database unreachable", nil)
			return
		}
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	}
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
