package handlers

import (
	"context"

	"coldchain_logger/internal/logger"
	"coldchain_logger/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// EventStream serves live published events over an upgraded connection.
type EventStream interface {
	Serve(ctx context.Context, conn *websocket.Conn)
}

// Link is the simulated cloud link an operator can drop and restore.
type Link interface {
	Connected() bool
	SetConnected(up bool)
}

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	deviceID string
	stream   EventStream
	link     Link
	log      *logger.Logger
}

// Option configures optional collaborators of the Handler.
type Option func(*Handler)

func WithEventStream(s EventStream) Option { return func(h *Handler) { h.stream = s } }
func WithLink(l Link) Option               { return func(h *Handler) { h.link = l } }

// NewHandler constructs a new HTTP handler for the device identified by deviceID.
func NewHandler(services *service.Service, deviceID string, log *logger.Logger, opts ...Option) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	h := &Handler{services: services, deviceID: deviceID, log: log}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	// live telemetry, same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		h.registerDeviceRoutes(api)
		h.registerEventRoutes(api)
	}
}

func (h *Handler) registerDeviceRoutes(api *gin.RouterGroup) {
	api.POST("/functions/:name", h.callFunction)
	api.GET("/variables", h.getVariables)
	api.GET("/variables/:name", h.getVariable)
	api.POST("/devices/:id/hook-response", h.hookResponse)
	if h.link != nil {
		api.PUT("/link", h.setLink)
	}
}

func (h *Handler) registerEventRoutes(api *gin.RouterGroup) {
	api.GET("/events", h.getEvents)
	if h.stream != nil {
		api.GET("/events/stream", h.eventsConnect)
	}
}
