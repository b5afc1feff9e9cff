package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/emilythestrangee/feedback-board/backend/internal/database"
	"github.com/emilythestrangee/feedback-board/backend/internal/handlers"
	"github.com/emilythestrangee/feedback-board/backend/internal/logging"
	"github.com/emilythestrangee/feedback-board/backend/internal/middleware"
)

type Server struct {
	db       database.Service
	handler  *handlers.Handler
	auth     middleware.Resolver
	origins  []string
	gatherer prometheus.Gatherer
	log      *zap.Logger
}

type Options struct {
	Port        string
	CORSOrigins []string
	DB          database.Service
	Handler     *handlers.Handler
	Auth        middleware.Resolver
	Gatherer    prometheus.Gatherer
	Log         *zap.Logger
}

// NewServer creates and configures a new server
func NewServer(opts Options) *http.Server {
	s := &Server{
		db:       opts.DB,
		handler:  opts.Handler,
		auth:     opts.Auth,
		origins:  opts.CORSOrigins,
		gatherer: opts.Gatherer,
		log:      opts.Log,
	}

	port := opts.Port
	if port == "" {
		port = "8080" // local dev fallback
	}

	// WriteTimeout stays zero: the feed websocket holds its response open.
	server := &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           s.RegisterRoutes(),
		IdleTimeout:       time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return server
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logging.Middleware(s.log), middleware.SecureHeaders())

	origins := s.origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:  []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 1 && origins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
		corsConfig.AllowCredentials = true
	}
	r.Use(cors.New(corsConfig))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		if s.db == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		stats := s.db.Health()
		status := http.StatusOK
		if stats["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, stats)
	})

	if s.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	h := s.handler

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		api.POST("/auth/signup", h.Auth.SignUp)
		api.POST("/auth/confirm", h.Auth.Confirm)
		api.POST("/auth/signin", h.Auth.SignIn)

		// Public reads; a valid token adds the caller's own vote
		public := api.Group("")
		public.Use(middleware.OptionalAuth(s.auth))
		{
			public.GET("/requests", h.Request.GetRequests)
			public.GET("/requests/:id", h.Request.GetRequest)
			public.GET("/requests/:id/comments", h.Comment.GetComments)
			public.GET("/tags", h.Tag.GetTags)
			public.GET("/profiles/:id", h.Profile.GetProfile)
			public.GET("/feed", h.Feed.Stream)
		}

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(s.auth))
		{
			protected.POST("/auth/signout", h.Auth.SignOut)
			protected.GET("/auth/session", h.Auth.GetSession)

			protected.POST("/requests", h.Request.CreateRequest)
			protected.DELETE("/requests/:id", h.Request.DeleteRequest)
			protected.POST("/requests/:id/vote", h.Request.VoteRequest)

			protected.POST("/requests/:id/comments", h.Comment.CreateComment)
			protected.DELETE("/comments/:id", h.Comment.DeleteComment)

			protected.PUT("/profile", h.Profile.UpdateProfile)
		}
	}

	return r
}
