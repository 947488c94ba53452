package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"market-screener/src/helpers"
	"market-screener/src/interfaces"
	"market-screener/src/logger"
	"market-screener/src/models"
)

// The built table doubles as the price lookup consumers read.
var _ interfaces.IPriceLookup = (*models.MCombinedTable)(nil)

// -----------------------------------------------------------------------------
// APIServer
// -----------------------------------------------------------------------------

type APIServer struct {
	Config   *models.MConfig
	Logger   *logger.Logger
	Screener interfaces.IScreener
	engine   *gin.Engine

	// WebSocket clients
	clients    map[*Client]struct{}
	broadcast  chan *models.MScreenerUpdate
	register   chan *Client
	unregister chan *Client

	// Latest pipeline output. The wire projection is what clients get; the
	// raw table keeps its NaN semantics for screening and price lookups.
	latestState *models.MScreenerUpdate
	latestTable *models.MCombinedTable
	stateMutex  sync.RWMutex

	// On-demand refresh signals picked up by the main loop.
	refreshRequests chan struct{}
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewAPIServer(cfg *models.MConfig, log *logger.Logger, scr interfaces.IScreener) *APIServer {
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &APIServer{
		Config:   cfg,
		Logger:   log,
		Screener: scr,
		engine:   gin.Default(),
		clients:  make(map[*Client]struct{}),
		// Buffered so a slow hub tick never blocks the refresh loop.
		broadcast:  make(chan *models.MScreenerUpdate, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		latestState: &models.MScreenerUpdate{
			Type:  "INITIAL",
			Table: make(map[string]map[string]models.MTableCell),
		},
		latestTable:     models.NewCombinedTable(nil),
		refreshRequests: make(chan struct{}, 1),
	}

	// CORS middleware for local dashboards.
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *APIServer) setupRoutes() {
	// REST API endpoints
	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/api/config", s.getConfig)
	s.engine.GET("/api/metrics", s.getMetrics)
	s.engine.GET("/api/table", s.getTable)
	s.engine.POST("/api/screen", s.postScreen)
	s.engine.GET("/api/historical/:symbol", s.getHistorical)
	s.engine.GET("/api/timeseries/:symbol", s.getTimeseries)
	s.engine.GET("/api/price/:symbol", s.getPrice)
	s.engine.POST("/api/refresh", s.postRefresh)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *APIServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)

	go s.handleWebsockets()

	return s.engine.Run(addr)
}

// -----------------------------------------------------------------------------

func (s *APIServer) Stop() error {
	close(s.broadcast)
	close(s.register)
	close(s.unregister)
	return nil
}

// -----------------------------------------------------------------------------

// RefreshRequests exposes the on-demand refresh signal to the main loop.
func (s *APIServer) RefreshRequests() <-chan struct{} {
	return s.refreshRequests
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *APIServer) getHealth(c *gin.Context) {
	s.stateMutex.RLock()
	connections := len(s.clients)
	timestamp := s.latestState.Timestamp
	s.stateMutex.RUnlock()

	c.JSON(200, gin.H{
		"status":        "ok",
		"connections":   connections,
		"latest_update": timestamp,
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getConfig(c *gin.Context) {
	c.JSON(200, gin.H{
		"symbols":     s.Config.Screener.Symbols,
		"resolutions": s.Config.Screener.Resolutions,
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getMetrics(c *gin.Context) {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()

	c.JSON(200, s.latestState.Metrics)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getTable(c *gin.Context) {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()

	c.JSON(200, s.latestState)
}

// -----------------------------------------------------------------------------

type screenRequest struct {
	Filters []models.MFilter `json:"filters"`
}

func (s *APIServer) postScreen(c *gin.Context) {
	var req screenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	s.stateMutex.RLock()
	table := s.latestTable
	metrics := s.latestState.Metrics
	s.stateMutex.RUnlock()

	result := s.Screener.Screen(table, req.Filters)
	c.JSON(200, tableToUpdate(result, metrics, "SCREEN"))
}

// -----------------------------------------------------------------------------

func (s *APIServer) getHistorical(c *gin.Context) {
	symbol := c.Param("symbol")

	resolutions := s.Config.Screener.Resolutions
	if raw := c.Query("resolutions"); raw != "" {
		resolutions = strings.Split(raw, ",")
	}

	cutoff := time.Time{}
	if raw := c.Query("cutoff"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(400, gin.H{"error": fmt.Sprintf("invalid cutoff: %v", err)})
			return
		}
		cutoff = parsed
	}

	frame, err := s.Screener.Historical(c.Request.Context(), symbol, resolutions, cutoff)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, frameToWire(frame))
}

// -----------------------------------------------------------------------------

func (s *APIServer) getTimeseries(c *gin.Context) {
	symbol := c.Param("symbol")

	lastN, err := strconv.Atoi(c.DefaultQuery("last", "20"))
	if err != nil {
		c.JSON(400, gin.H{"error": fmt.Sprintf("invalid last: %v", err)})
		return
	}

	series, err := s.Screener.GetTimeseries(symbol, lastN)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, series)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getPrice(c *gin.Context) {
	symbol := c.Param("symbol")

	s.stateMutex.RLock()
	price, ok := s.latestTable.LatestClose(symbol)
	s.stateMutex.RUnlock()

	if !ok {
		c.JSON(404, gin.H{"error": fmt.Sprintf("no price for %q", symbol)})
		return
	}
	c.JSON(200, gin.H{"symbol": symbol, "price": price})
}

// -----------------------------------------------------------------------------

func (s *APIServer) postRefresh(c *gin.Context) {
	select {
	case s.refreshRequests <- struct{}{}:
		c.JSON(202, gin.H{"status": "refresh scheduled"})
	default:
		// A refresh is already pending; nothing to queue.
		c.JSON(202, gin.H{"status": "refresh already pending"})
	}
}

// -----------------------------------------------------------------------------

// statusFor maps the error taxonomy onto HTTP statuses: caller mistakes are
// 400s, everything else is a 500.
func statusFor(err error) int {
	var confErr *helpers.ConfigurationError
	var valErr *helpers.ValidationError
	if errors.As(err, &confErr) || errors.As(err, &valErr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
