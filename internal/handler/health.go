package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

const serviceName = "food-ordering-api"

// HealthHandler reports liveness and the readiness of the backing
// services order processing depends on.
type HealthHandler struct {
	db     *pgxpool.Pool
	cache  *redis.Client
	broker *amqp.Connection
}

func NewHealthHandler(db *pgxpool.Pool, cache *redis.Client, broker *amqp.Connection) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, broker: broker}
}

func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": serviceName})
}

// Readyz probes every dependency so one outage does not mask another.
func (h *HealthHandler) Readyz(c *gin.Context) {
	ctx := c.Request.Context()

	checks := gin.H{"postgres": "up", "redis": "up", "rabbitmq": "up"}
	ready := true

	if err := h.db.Ping(ctx); err != nil {
		checks["postgres"] = "down"
		ready = false
	}
	if err := h.cache.Ping(ctx).Err(); err != nil {
		checks["redis"] = "down"
		ready = false
	}
	if h.broker.IsClosed() {
		checks["rabbitmq"] = "down"
		ready = false
	}

	body := gin.H{"status": "ready", "service": serviceName, "checks": checks}
	if !ready {
		body["status"] = "not_ready"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	c.JSON(http.StatusOK, body)
}
