package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"finance-pipeline/src/catalog"
	"finance-pipeline/src/data_source/fred"
	"finance-pipeline/src/ingest"
	"finance-pipeline/src/logger"
	"finance-pipeline/src/models"
	"finance-pipeline/src/storage"
	"finance-pipeline/src/usage"
	"finance-pipeline/src/watchlist"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// APIServer
// -----------------------------------------------------------------------------

// APIServer is the HTTP surface consumed by the dashboard. It is a thin
// layer over the core components; ingestion progress streams to websocket
// clients through the hub.
type APIServer struct {
	Config     *models.MConfig
	Logger     *logger.Logger
	Store      *storage.Store
	Catalog    *catalog.Catalog
	Prices     *ingest.PriceIngester
	Macro      *ingest.MacroIngester
	Watchlists *watchlist.Manager
	Usage      *usage.Tracker

	engine *gin.Engine

	// WebSocket clients
	clients    map[*Client]struct{}
	broadcast  chan *models.MIngestEvent
	register   chan *Client
	unregister chan *Client
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewAPIServer(
	cfg *models.MConfig,
	log *logger.Logger,
	store *storage.Store,
	cat *catalog.Catalog,
	prices *ingest.PriceIngester,
	macro *ingest.MacroIngester,
	watchlists *watchlist.Manager,
	tracker *usage.Tracker,
) *APIServer {
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &APIServer{
		Config:     cfg,
		Logger:     log,
		Store:      store,
		Catalog:    cat,
		Prices:     prices,
		Macro:      macro,
		Watchlists: watchlists,
		Usage:      tracker,
		engine:     gin.Default(),
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan *models.MIngestEvent, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}

	// Ingesters feed the hub
	prices.Progress = s.Broadcast
	macro.Progress = s.Broadcast

	s.engine.Use(corsMiddleware())
	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *APIServer) setupRoutes() {
	api := s.engine.Group("/api")

	api.GET("/health", s.getHealth)
	api.GET("/symbols", s.searchSymbols)
	api.GET("/prices/:symbol", s.getPrices)
	api.GET("/prices/:symbol/latest", s.getLatestPrice)
	api.GET("/macro", s.listIndicators)
	api.GET("/macro/:indicator", s.getMacro)
	api.GET("/usage", s.getUsage)

	api.GET("/watchlists", s.listWatchlists)
	api.GET("/watchlists/:name", s.getWatchlist)
	api.PUT("/watchlists/:name", s.putWatchlist)
	api.DELETE("/watchlists/:name", s.deleteWatchlist)

	api.POST("/query", s.postQuery)
	api.POST("/fetch/prices", s.postFetchPrices)
	api.POST("/fetch/macro", s.postFetchMacro)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *APIServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Server.Host, s.Config.Server.Port)
	s.Logger.Info("Starting server on %s", addr)

	go s.runHub()

	return s.engine.Run(addr)
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *APIServer) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"database":    s.Store.Path(),
		"connections": len(s.clients),
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) searchSymbols(c *gin.Context) {
	filters := make(map[string]string)
	for _, col := range []string{"sector", "industry", "country", "exchange", "currency", "asset_class"} {
		if v := c.Query(col); v != "" {
			filters[col] = v
		}
	}

	limit := 100
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	symbols, err := s.Catalog.Search(filters, limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, symbols)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getPrices(c *gin.Context) {
	symbol := c.Param("symbol")

	limit := 500
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	result, err := s.Store.Execute(`
		SELECT symbol, timestamp, open, high, low, close, volume, source
		FROM daily_prices
		WHERE symbol = ?
		ORDER BY timestamp DESC
		LIMIT ?
	`, symbol, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getLatestPrice(c *gin.Context) {
	symbol := c.Param("symbol")

	bar, err := s.Prices.Latest(symbol)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if bar == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no price data for %s", symbol)})
		return
	}
	c.JSON(http.StatusOK, bar)
}

// -----------------------------------------------------------------------------

func (s *APIServer) listIndicators(c *gin.Context) {
	codes, err := s.Macro.Indicators()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"indicators": codes})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getMacro(c *gin.Context) {
	observations, err := s.Macro.Observations(c.Param("indicator"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, observations)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getUsage(c *gin.Context) {
	source := c.Query("source")
	if source == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source parameter is required"})
		return
	}

	hours := 24
	if v := c.Query("hours"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			hours = n
		}
	}

	count, err := s.Usage.Usage(source, hours)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"source": source, "hours": hours, "calls": count})
}

// -----------------------------------------------------------------------------

func (s *APIServer) listWatchlists(c *gin.Context) {
	names, err := s.Watchlists.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"watchlists": names})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getWatchlist(c *gin.Context) {
	symbols, err := s.Watchlists.Get(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": c.Param("name"), "symbols": symbols})
}

// -----------------------------------------------------------------------------

func (s *APIServer) putWatchlist(c *gin.Context) {
	var body struct {
		Symbols []string `json:"symbols"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.Watchlists.CreateOrReplace(c.Param("name"), body.Symbols); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": c.Param("name"), "symbols": body.Symbols})
}

// -----------------------------------------------------------------------------

func (s *APIServer) deleteWatchlist(c *gin.Context) {
	if err := s.Watchlists.Delete(c.Param("name")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// -----------------------------------------------------------------------------

func (s *APIServer) postQuery(c *gin.Context) {
	var body struct {
		SQL    string `json:"sql"`
		Params []any  `json:"params"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if body.SQL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sql is required"})
		return
	}

	result, err := s.Store.Execute(body.SQL, body.Params...)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// -----------------------------------------------------------------------------

func (s *APIServer) postFetchPrices(c *gin.Context) {
	var body struct {
		Symbols   []string `json:"symbols"`
		Period    string   `json:"period"`
		Refetch   bool     `json:"refetch"`
		SkipFresh bool     `json:"skip_fresh"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if body.Period == "" {
		body.Period = "1y"
	}

	if body.Refetch {
		report, err := s.Prices.RefetchAll(body.Symbols, body.Period)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, report)
		return
	}

	if len(body.Symbols) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbols are required"})
		return
	}

	symbols := body.Symbols
	if body.SkipFresh {
		symbols = s.filterStale(symbols)
	}

	c.JSON(http.StatusOK, s.Prices.FetchBatch(symbols, body.Period))
}

// filterStale drops symbols whose stored series already covers the last
// completed trading session.
func (s *APIServer) filterStale(symbols []string) []string {
	stale := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		fresh, err := s.Prices.UpToDate(symbol)
		if err != nil {
			s.Logger.Warning("Freshness check failed for %s: %v", symbol, err)
		}
		if fresh {
			s.Logger.Info("Skipping %s: already current", symbol)
			continue
		}
		stale = append(stale, symbol)
	}
	return stale
}

// -----------------------------------------------------------------------------

func (s *APIServer) postFetchMacro(c *gin.Context) {
	var body struct {
		Indicators []string `json:"indicators"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	indicators := body.Indicators
	if len(indicators) == 0 {
		indicators = s.Config.Macro.Indicators
	}
	if len(indicators) == 0 {
		indicators = fred.DefaultIndicators
	}

	c.JSON(http.StatusOK, s.Macro.FetchBatch(indicators))
}
