package api

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"partforge/internal/catalog"
	"partforge/internal/metrics"
	"partforge/internal/models"
	"partforge/internal/worker"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	defaultPartsLimit = 50
	maxPartsLimit     = 500
)

// StatusSource reports the ingest worker's current status.
type StatusSource interface {
	Status() worker.Status
}

type APIHandler struct {
	db     *gorm.DB
	status StatusSource
}

// NewRouter builds the status server: health, metrics and the /api/v1 group.
func NewRouter(db *gorm.DB, status StatusSource) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	SetupRoutes(r.Group("/api/v1"), db, status)
	return r
}

func SetupRoutes(r *gin.RouterGroup, db *gorm.DB, status StatusSource) *APIHandler {
	handler := &APIHandler{
		db:     db,
		status: status,
	}

	r.GET("/parts", handler.ListParts)
	if status != nil {
		r.GET("/worker/status", handler.WorkerStatus)
	}
	return handler
}

// ListParts: GET /api/v1/parts?category=gpu&limit=20 -> newest parts first
func (h *APIHandler) ListParts(c *gin.Context) {
	limit := defaultPartsLimit
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		if n > maxPartsLimit {
			n = maxPartsLimit
		}
		limit = n
	}

	q := h.db.WithContext(c.Request.Context()).Model(&models.Part{})
	if raw := strings.TrimSpace(c.Query("category")); raw != "" {
		category, err := catalog.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		q = q.Where("category = ?", string(category))
	}

	parts := make([]models.Part, 0, limit)
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&parts).Error; err != nil {
		log.Printf("[api] list parts: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load parts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": parts})
}

// WorkerStatus: GET /api/v1/worker/status
func (h *APIHandler) WorkerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.status.Status())
}
