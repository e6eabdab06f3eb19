package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"trendag/internal/config"
	"trendag/internal/models"
	"trendag/internal/scheduler"
	"trendag/internal/scorer"
	"trendag/internal/security"
	"trendag/internal/storage"
	"trendag/internal/trend"
	"trendag/internal/web"

	"github.com/gin-gonic/gin"
)

type Server struct {
	router        *gin.Engine
	scheduler     *scheduler.Scheduler
	scorer        *scorer.Scorer
	trendEngine   *trend.Engine
	store         storage.Storage
	port          int
	swaggerServer *web.SwaggerServer
}

func NewServer(sched *scheduler.Scheduler, keywordScorer *scorer.Scorer, trendEngine *trend.Engine, store storage.Storage, cfg *config.Config) *Server {
	router := gin.Default()

	securityConfig := &security.SecurityConfig{
		EnableRateLimit:       cfg.Security.EnableRateLimit,
		RateLimitPerSecond:    cfg.Security.RateLimitPerSecond,
		RateLimitBurst:        cfg.Security.RateLimitBurst,
		EnableCORS:            cfg.Security.EnableCORS,
		AllowedOrigins:        cfg.Security.AllowedOrigins,
		EnableSecurityHeaders: cfg.Security.EnableSecurityHeaders,
		MaxRequestSize:        cfg.Security.MaxRequestSize,
		EnableRequestID:       cfg.Security.EnableRequestID,
	}
	security.SetupSecurityMiddleware(router, securityConfig)

	server := &Server{
		router:        router,
		scheduler:     sched,
		scorer:        keywordScorer,
		trendEngine:   trendEngine,
		store:         store,
		port:          cfg.Port,
		swaggerServer: web.NewSwaggerServer(cfg.EnableSwagger),
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)

	api := s.router.Group("/api/v1")
	{
		api.POST("/pipeline/run", s.runPipeline)
		api.GET("/pipeline/status", s.getStatus)
		api.GET("/pipeline/errors", s.getErrors)
		api.GET("/pipeline/runs", s.getRecentRuns)
		api.POST("/pipeline/start", s.startScheduler)
		api.POST("/pipeline/stop", s.stopScheduler)

		api.GET("/content", s.getAllContent)
		api.GET("/content/:type", s.getContent)
		api.GET("/viral", s.getViralContent)
		api.GET("/crisis", s.getCrisisContent)

		api.GET("/trends", s.getTrends)
		api.GET("/trends/history", s.getTopicHistory)

		api.GET("/keywords", s.getKeywords)
		api.POST("/keywords/:category", s.addKeywords)
		api.DELETE("/keywords/:category", s.removeKeywords)
		api.POST("/keywords/:category/weight", s.setCategoryWeight)
		api.POST("/thresholds/spam", s.setSpamThreshold)

		api.GET("/stats", s.getStats)
	}

	s.swaggerServer.RegisterRoutes(s.router)
}

func (s *Server) Start() error {
	return s.router.Run(":" + strconv.Itoa(s.port))
}

// StartWithContext runs the server and shuts it down when ctx is canceled.
func (s *Server) StartWithContext(ctx context.Context) error {
	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(s.port),
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		_ = srv.Close()
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":           "healthy",
		"service":          "trend-aggregator",
		"scheduler_active": s.scheduler.IsRunning(),
	})
}

func (s *Server) runPipeline(c *gin.Context) {
	result, err := s.scheduler.RunCycle()
	if err != nil {
		if errors.Is(err, scheduler.ErrCycleInFlight) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  err.Error(),
			"result": result,
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.scheduler.Status())
}

func (s *Server) getErrors(c *gin.Context) {
	errs := s.scheduler.Errors()
	c.JSON(http.StatusOK, gin.H{
		"errors": errs,
		"count":  len(errs),
	})
}

func (s *Server) getRecentRuns(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run archive not configured"})
		return
	}

	limit := 20
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}

	runs, err := s.store.RecentRuns(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

func (s *Server) startScheduler(c *gin.Context) {
	s.scheduler.Start()
	c.JSON(http.StatusOK, gin.H{"message": "Scheduler started"})
}

func (s *Server) stopScheduler(c *gin.Context) {
	s.scheduler.Stop()
	c.JSON(http.StatusOK, gin.H{"message": "Scheduler stopped"})
}

func (s *Server) getAllContent(c *gin.Context) {
	items := s.scheduler.AllContent()
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (s *Server) getContent(c *gin.Context) {
	providerType := c.Param("type")
	items := s.scheduler.Content(providerType)
	if items == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no content cached for provider type '" + providerType + "'"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"provider_type": providerType, "items": items, "count": len(items)})
}

func (s *Server) getViralContent(c *gin.Context) {
	items := s.trendEngine.GetViralContent(parseMinScore(c, 0.6))
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (s *Server) getCrisisContent(c *gin.Context) {
	items := s.trendEngine.GetCrisisContent(parseMinScore(c, 0.3))
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func parseMinScore(c *gin.Context, defaultVal float64) float64 {
	if v := c.Query("min_score"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func (s *Server) getTrends(c *gin.Context) {
	force := false
	if v := c.Query("force"); v != "" {
		force, _ = strconv.ParseBool(v)
	}

	analysis := s.trendEngine.DetectTrendingTopics(s.scheduler.AllContent(), force)
	c.JSON(http.StatusOK, analysis)
}

func (s *Server) getTopicHistory(c *gin.Context) {
	histories := s.trendEngine.History(c.Query("keyword"))
	c.JSON(http.StatusOK, gin.H{"topics": histories, "count": len(histories)})
}

func (s *Server) getKeywords(c *gin.Context) {
	c.JSON(http.StatusOK, s.scorer.Categories())
}

type keywordsRequest struct {
	Terms []string `json:"terms" binding:"required"`
}

func (s *Server) addKeywords(c *gin.Context) {
	var req keywordsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category := c.Param("category")
	if err := s.scorer.AddKeywords(category, req.Terms); err != nil {
		respondMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Keywords added", "category": category})
}

func (s *Server) removeKeywords(c *gin.Context) {
	var req keywordsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category := c.Param("category")
	if err := s.scorer.RemoveKeywords(category, req.Terms); err != nil {
		respondMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Keywords removed", "category": category})
}

func (s *Server) setCategoryWeight(c *gin.Context) {
	var req struct {
		Weight float64 `json:"weight"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category := c.Param("category")
	if err := s.scorer.SetCategoryWeight(category, req.Weight); err != nil {
		respondMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Weight updated", "category": category})
}

func (s *Server) setSpamThreshold(c *gin.Context) {
	var req struct {
		Threshold float64 `json:"threshold"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.scorer.SetSpamThreshold(req.Threshold); err != nil {
		respondMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Spam threshold updated"})
}

func respondMutationError(c *gin.Context, err error) {
	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func (s *Server) getStats(c *gin.Context) {
	stats := gin.H{
		"scorer":            s.scorer.Stats(),
		"dedup":             s.scheduler.DedupTotals(),
		"scheduler":         s.scheduler.Status(),
		"trend_cache_valid": s.trendEngine.CacheValid(),
		"analyses":          s.trendEngine.Analyses(),
	}

	if s.store != nil {
		if dbStats, err := s.store.GetDatabaseStats(); err == nil {
			stats["database"] = dbStats
		}
	}

	c.JSON(http.StatusOK, stats)
}
