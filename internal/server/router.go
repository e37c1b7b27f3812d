package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/MarcoPoloResearchLab/aura-sync/internal/activitysync"
	"github.com/MarcoPoloResearchLab/aura-sync/internal/auth"
	"github.com/MarcoPoloResearchLab/aura-sync/internal/records"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const principalContextKey = "aura_principal"

var (
	errMissingHookValidator = errors.New("hook validator dependency required")
	errMissingRecordStore   = errors.New("record store dependency required")
	errMissingSynchronizer  = errors.New("synchronizer dependency required")
)

// HookValidator authenticates record event requests sent by the CMS.
type HookValidator interface {
	ValidateRequest(r *http.Request) (auth.HookClaims, error)
}

// RecordWriter persists the host's own view of records.
type RecordWriter interface {
	SaveRecord(ctx context.Context, id records.RecordID, snapshot records.Snapshot) error
	DeleteRecord(ctx context.Context, id records.RecordID) error
}

// Synchronizer receives record events.
type Synchronizer interface {
	OnRecordSaved(ctx context.Context, event activitysync.SaveEvent) activitysync.SaveOutcome
	OnRecordDeleted(ctx context.Context, id records.RecordID) activitysync.DeleteOutcome
}

type Dependencies struct {
	HookValidator  HookValidator
	Records        RecordWriter
	Synchronizer   Synchronizer
	Logger         *zap.Logger
	MetricsHandler http.Handler
}

// NewHTTPHandler wires the record event hooks, health, and metrics endpoints.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.HookValidator == nil {
		return nil, errMissingHookValidator
	}
	if deps.Records == nil {
		return nil, errMissingRecordStore
	}
	if deps.Synchronizer == nil {
		return nil, errMissingSynchronizer
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metricsHandler := deps.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	handler := &httpHandler{
		validator:    deps.HookValidator,
		records:      deps.Records,
		synchronizer: deps.Synchronizer,
		logger:       logger,
	}

	router.GET("/healthz", handler.handleHealth)
	router.GET("/metrics", gin.WrapH(metricsHandler))

	hooks := router.Group("/hooks")
	hooks.Use(handler.authorizeRequest)
	hooks.POST("/records/:id/saved", handler.handleRecordSaved)
	hooks.POST("/records/:id/deleted", handler.handleRecordDeleted)

	return router, nil
}

func corsMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	})
}

type httpHandler struct {
	validator    HookValidator
	records      RecordWriter
	synchronizer Synchronizer
	logger       *zap.Logger
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	claims, err := h.validator.ValidateRequest(c.Request)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredHookToken) {
			h.logger.Info("hook token validation failed", zap.Error(err))
		} else {
			h.logger.Warn("hook token validation failed", zap.Error(err))
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if !claims.Can(auth.CapabilityEditPosts) {
		h.logger.Warn("hook principal lacks capability",
			zap.String("principal", claims.Subject),
			zap.String("capability", auth.CapabilityEditPosts))
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	c.Set(principalContextKey, claims.Subject)
	c.Next()
}
