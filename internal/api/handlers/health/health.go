package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"meal-planner-api/internal/infrastructure/cache"
	"meal-planner-api/internal/infrastructure/mongodb"
)

// probeTimeout bounds each dependency probe so health checks stay fast.
const probeTimeout = 2 * time.Second

// Handler serves liveness and readiness probes.
type Handler struct {
	db    *mongodb.MongoDB
	cache *cache.Store
}

// NewHandler creates a health handler.
func NewHandler(db *mongodb.MongoDB, cacheStore *cache.Store) *Handler {
	return &Handler{db: db, cache: cacheStore}
}

// Liveness reports that the process is up.
func (h *Handler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// Readiness probes the dependencies. Mongo must answer; the cache is
// optional and only reported.
func (h *Handler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), probeTimeout)
	defer cancel()

	checks := gin.H{}
	status := http.StatusOK

	if err := h.db.Ping(ctx); err != nil {
		checks["mongodb"] = "down: " + err.Error()
		status = http.StatusServiceUnavailable
	} else {
		checks["mongodb"] = "up"
	}

	if err := h.cache.Ping(ctx); err != nil {
		checks["cache"] = "down: " + err.Error()
	} else {
		checks["cache"] = "up"
	}

	overall := "ready"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, gin.H{"status": overall, "checks": checks})
}
