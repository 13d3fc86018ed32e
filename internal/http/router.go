// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, authentication, idempotency, and rate
// limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/docs"
	"github.com/tbourn/go-social-backend/internal/auth"
	"github.com/tbourn/go-social-backend/internal/config"
	"github.com/tbourn/go-social-backend/internal/events"
	"github.com/tbourn/go-social-backend/internal/http/handlers"
	"github.com/tbourn/go-social-backend/internal/http/middleware"
	"github.com/tbourn/go-social-backend/internal/repo"
	"github.com/tbourn/go-social-backend/internal/services"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), CORS and security
// headers, health and metrics endpoints, and then mounts the versioned API
// under cfg.APIBasePath. pub receives domain events; nil disables publishing.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access log with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Gzip, CORS and security headers
//
// and on the authenticated group:
//  8. Authenticate: resolve the actor (bearer token or dev header)
//  9. Idempotency validator (before rate limiter to allow bypass on replay)
//  10. Rate limiter (per user, bypass on replay)
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config, pub events.Publisher) {
	r.HandleMethodNotAllowed = true
	if pub == nil {
		pub = events.Noop{}
	}
	handlers.RegisterValidators()

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.Logger(middleware.LogOptions{
		MaskHeaders: []string{middleware.HeaderUserID},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	r.Use(limitBody(maxBody))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Compression, CORS posture, security headers
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	r.Use(corsMiddleware(cfg.CORS))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
		PrivateCache: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/events
	tokens := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL)
	msgSvc := services.NewMessageService(db, cfg.MaxMessageRunes)
	roomSvc := services.NewRoomService(db, msgSvc, pub)
	if cfg.IdempotencyTTL > 0 {
		roomSvc.IdempotencyTTL = cfg.IdempotencyTTL
	}
	h := handlers.New(handlers.Services{
		Users:    services.NewUserService(db, pub),
		Follows:  services.NewFollowService(db, pub),
		Likes:    services.NewLikeService(db, pub),
		Rooms:    roomSvc,
		Posts:    services.NewPostService(db, repo.PostStore{}),
		Comments: services.NewCommentService(db, cfg.MaxMessageRunes),
		Tokens:   tokens,
	})

	base := groupWithPrefix(r, cfg.APIBasePath) // e.g. "/api/v1"

	// Public API
	base.POST("/users", h.Register)

	// Authenticated API
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	api := base.Group("",
		middleware.Authenticate(tokens, middleware.AuthOptions{AllowHeader: cfg.Auth.AllowHeader}),
		middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, roomSvc.HasReplay),
		rl.Handler(),
	)
	{
		// Users
		api.GET("/me", h.Me)
		api.GET("/users/:id", h.GetProfile)

		// Follow graph
		api.POST("/users/:id/follow", h.Follow)
		api.DELETE("/users/:id/follow", h.Unfollow)
		api.GET("/users/:id/followers", h.ListFollowers)
		api.GET("/users/:id/followings", h.ListFollowings)
		api.GET("/users/:id/relationship", h.GetRelationship)

		// Posts & comments
		api.POST("/posts", h.CreatePost)
		api.GET("/posts", h.ListPosts)
		api.GET("/posts/:id", h.GetPost)
		api.PUT("/posts/:id", h.UpdatePost)
		api.DELETE("/posts/:id", h.DeletePost)
		api.POST("/posts/:id/comments", h.CreateComment)
		api.GET("/posts/:id/comments", h.ListComments)

		// Likes
		api.POST("/posts/:id/like", h.LikePost)
		api.DELETE("/posts/:id/like", h.UnlikePost)
		api.GET("/posts/:id/likes", h.GetLikes)

		// Rooms
		api.POST("/rooms", h.OpenRoom)
		api.GET("/rooms", h.ListRooms)
		api.GET("/rooms/:id", h.GetRoom)
		api.POST("/rooms/:id/messages", h.PostMessage)
		api.GET("/rooms/:id/messages", h.ListMessages)
	}
}

// corsMiddleware returns the CORS posture for the configured origins: allow
// all when none are configured, otherwise echo allowed origins only.
func corsMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderUserID, middleware.HeaderIdempotencyKey, "If-None-Match"}
	exposeHeaders := []string{"X-Request-ID", "Content-Length", "ETag", "Idempotency-Replayed", "Retry-After"}
	methods := []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}

	if len(cfg.AllowedOrigins) == 0 {
		allowAll := cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     methods,
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		})
		return func(c *gin.Context) {
			// Force ACAO: * even for requests without an Origin header (helps simple health checks).
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			allowAll(c)
		}
	}

	allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		allowed[o] = struct{}{}
	}
	listed := cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     methods,
		AllowHeaders:     allowHeaders,
		ExposeHeaders:    exposeHeaders,
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	})
	return func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			if _, ok := allowed[origin]; ok {
				h := c.Writer.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
		}
		listed(c)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
