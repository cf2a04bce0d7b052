package cmd

import (
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"baton/config"
	"baton/handlers"
	"baton/live"
	"baton/middleware"
	"baton/services"
	"baton/types"
	"baton/websocket"
)

// StartBridgeServer starts the HTTP/WebSocket bridge in front of Live
func StartBridgeServer(cfg config.Config) {
	// Set production mode if not specified
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Open the OSC transport
	query := live.NewQuery(cfg.LiveHost, cfg.LivePort, cfg.ListenPort)
	query.SetTimeout(cfg.QueryTimeout)
	if err := query.Listen(); err != nil {
		logrus.WithError(err).Fatalf("Failed to listen for OSC replies on port %d", cfg.ListenPort)
	}
	defer query.Close()

	set := live.NewSet(query)

	// Initialize services
	hub := websocket.NewHub()
	go hub.Run()

	session := services.NewSession(set)
	scanQueue := services.NewScanQueue(session, hub)
	scanQueue.Start()

	// Forward beat ticks and AbletonOSC restarts to subscribers. The beat
	// listener registration does not survive a Live restart, so renew it
	// whenever the startup message arrives.
	query.OnBeat(func(beat int) {
		hub.BroadcastEvent(types.EventMessage{
			Topic: types.TopicBeat,
			Type:  "beat",
			Beat:  beat,
		})
	})
	query.OnStartup(func() {
		hub.BroadcastEvent(types.EventMessage{
			Topic:   types.TopicTransport,
			Type:    "startup",
			Message: "Live restarted",
		})
		if err := set.StartBeatListener(); err != nil {
			logrus.WithError(err).Warn("Could not renew beat listener")
		}
	})
	if err := set.StartBeatListener(); err != nil {
		logrus.WithError(err).Warn("Live is not answering, beat events start once it comes up")
	}

	r := NewRouter(cfg, session, scanQueue, hub)

	// Start server
	logrus.WithFields(logrus.Fields{
		"port": cfg.ServerPort,
		"live": cfg.LiveAddr(),
	}).Info("Baton bridge starting")
	if err := r.Run(":" + strconv.Itoa(cfg.ServerPort)); err != nil {
		logrus.Fatalf("Failed to start server: %v", err)
	}
}

// NewRouter builds the bridge's gin engine with all middleware and routes.
// StartBridgeServer and the integration tests share it.
func NewRouter(cfg config.Config, session services.Session, scanQueue services.ScanQueue, hub websocket.Hub) *gin.Engine {
	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(session)
	setHandler := handlers.NewSetHandler(session)
	scanHandler := handlers.NewScanHandler(scanQueue)
	trackHandler := handlers.NewTrackHandler(session)
	clipHandler := handlers.NewClipHandler(session)
	viewClipHandler := handlers.NewViewClipHandler(session)
	eventsHandler := handlers.NewEventsHandler(hub)

	// Setup router
	r := gin.New()
	r.Use(gin.Recovery())

	// Apply middleware
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.Logging())
	r.Use(middleware.Security())

	// Setup routes
	setupRoutes(r, healthHandler, setHandler, scanHandler, trackHandler, clipHandler, viewClipHandler, eventsHandler)

	return r
}

// setupRoutes configures all the HTTP routes
func setupRoutes(r *gin.Engine, healthHandler *handlers.HealthHandler, setHandler *handlers.SetHandler, scanHandler *handlers.ScanHandler, trackHandler *handlers.TrackHandler, clipHandler *handlers.ClipHandler, viewClipHandler *handlers.ViewClipHandler, eventsHandler *handlers.EventsHandler) {
	// Health check endpoint
	r.GET("/health", healthHandler.HealthCheck)

	// WebSocket endpoints for real-time events
	r.GET("/ws/events", eventsHandler.HandleWebSocketAll)
	r.GET("/ws/events/:topic", eventsHandler.HandleWebSocket)

	// API routes group
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/status", healthHandler.APIStatus)

		// Set-level endpoints
		setGroup := apiGroup.Group("/set")
		{
			setGroup.GET("", setHandler.GetSet)
			setGroup.POST("/play", setHandler.Play)
			setGroup.POST("/stop", setHandler.Stop)
			setGroup.GET("/tempo", setHandler.GetTempo)
			setGroup.PUT("/tempo", setHandler.SetTempo)
			setGroup.GET("/snapshot", setHandler.GetSnapshot)
			setGroup.POST("/snapshot", setHandler.SaveSnapshot)

			// Scan jobs
			setGroup.POST("/scan", scanHandler.StartScan)
			setGroup.GET("/scan", scanHandler.GetAllJobs)
			setGroup.GET("/scan/:jobId", scanHandler.GetJob)
		}

		// Track and clip slot endpoints
		tracksGroup := apiGroup.Group("/tracks")
		{
			tracksGroup.GET("", trackHandler.GetTracks)
			tracksGroup.GET("/:trackId", trackHandler.GetTrack)
			tracksGroup.POST("/:trackId/stop", trackHandler.StopTrack)
			tracksGroup.PUT("/:trackId/volume", trackHandler.SetVolume)

			tracksGroup.GET("/:trackId/clips/:clipId", clipHandler.GetClip)
			tracksGroup.GET("/:trackId/clips/:clipId/details", clipHandler.GetDetails)
			tracksGroup.POST("/:trackId/clips/:clipId/play", clipHandler.Play)
			tracksGroup.POST("/:trackId/clips/:clipId/stop", clipHandler.Stop)
			tracksGroup.PUT("/:trackId/clips/:clipId/name", clipHandler.Rename)
			tracksGroup.GET("/:trackId/clips/:clipId/notes", clipHandler.GetNotes)
			tracksGroup.POST("/:trackId/clips/:clipId/notes", clipHandler.AddNote)
			tracksGroup.DELETE("/:trackId/clips/:clipId/notes", clipHandler.RemoveNotes)
		}

		// Detail view clip endpoints
		viewGroup := apiGroup.Group("/view/clip")
		{
			viewGroup.GET("", viewClipHandler.GetDetails)
			viewGroup.GET("/notes", viewClipHandler.GetNotes)
			viewGroup.POST("/notes", viewClipHandler.AddNote)
			viewGroup.DELETE("/notes", viewClipHandler.RemoveNotes)
		}
	}
}
