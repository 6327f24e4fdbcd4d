package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"wagerpool/config"
	"wagerpool/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// HealthFunc reports whether the backing store is reachable
type HealthFunc func(ctx context.Context) bool

// Server is the REST surface over the bet and account services
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
}

// NewServer builds the router and registers every route
func NewServer(cfg *config.Config, betService service.BetService, accountService service.AccountService, auth *Authenticator, health HealthFunc) *Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	h := NewHandlers(betService, accountService)

	router.GET("/health", func(c *gin.Context) {
		if health != nil && !health(c.Request.Context()) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	api := router.Group("/api")
	{
		api.GET("/bets", h.ListBets)
		api.GET("/bets/:id", h.GetBet)
		api.GET("/bets/:id/pools", h.GetPools)
		api.GET("/bets/:id/groups/:group/members/:index", h.GetMember)
		api.GET("/accounts/:address", h.GetAccount)
		api.GET("/accounts/:address/history", h.GetAccountHistory)
	}

	protected := router.Group("/api")
	protected.Use(auth.Middleware())
	{
		protected.POST("/bets", h.PlaceBet)
		protected.POST("/bets/:id/bettors", h.AddBettor)
		protected.POST("/bets/:id/approve", h.ApproveBet)
		protected.POST("/bets/:id/close", h.CloseBet)
		protected.POST("/bets/:id/settle", h.SettleBet)
	}

	return &Server{
		router: router,
		httpServer: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler returns the underlying router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves HTTP until Shutdown is called
func (s *Server) Start() error {
	log.WithField("addr", s.httpServer.Addr).Info("HTTP API listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
			"caller":   callerAddress(c),
		}).Debug("HTTP request")
	}
}
