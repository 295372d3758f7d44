package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jrobgood/fineract-poc/internal/infrastructure/cache"
	"github.com/jrobgood/fineract-poc/internal/interfaces/http/dto"
)

// IdempotencyKeyHeader carries the client-chosen key that makes a mutation
// safe to retry. The header is optional; requests without it pass through.
const IdempotencyKeyHeader = "X-Idempotency-Key"

// MaxIdempotencyKeyLength bounds the header so oversized keys cannot bloat
// the store.
const MaxIdempotencyKeyLength = 128

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	// Store records which keys have been processed
	Store cache.IdempotencyStore
	// TTL is how long a processed key blocks replays
	TTL time.Duration
	// Logger for middleware logging
	Logger *zap.Logger
}

// DefaultIdempotencyConfig returns a config with a 24 hour replay window
func DefaultIdempotencyConfig(store cache.IdempotencyStore) IdempotencyConfig {
	return IdempotencyConfig{
		Store: store,
		TTL:   24 * time.Hour,
	}
}

// Idempotency returns middleware that rejects replayed mutations. When a
// request carries an X-Idempotency-Key that the store has seen before, the
// request is answered with 409 without reaching the handler. Store failures
// fail open: availability wins over replay protection.
func Idempotency(store cache.IdempotencyStore) gin.HandlerFunc {
	return IdempotencyWithConfig(DefaultIdempotencyConfig(store))
}

// IdempotencyWithConfig returns idempotency middleware with custom config
func IdempotencyWithConfig(cfg IdempotencyConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			c.Next()
			return
		}

		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > MaxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeBadRequest,
					"Idempotency key exceeds maximum length", getRequestIDFromContext(c)))
			return
		}

		firstUse, err := cfg.Store.MarkProcessed(c.Request.Context(), key, cfg.TTL)
		if err != nil {
			if cfg.Logger != nil {
				cfg.Logger.Error("idempotency store unavailable, allowing request",
					zap.String("key", key),
					zap.Error(err))
			}
			c.Next()
			return
		}

		if !firstUse {
			c.AbortWithStatusJSON(http.StatusConflict,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeDuplicateRequest,
					"Request with this idempotency key was already processed", getRequestIDFromContext(c)))
			return
		}

		c.Next()
	}
}
