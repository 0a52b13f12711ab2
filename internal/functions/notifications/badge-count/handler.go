// internal/functions/notifications/badge-count/handler.go
package badgecount

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"byteplus-functions/internal/common/errors"
	"byteplus-functions/internal/common/logger"
	"byteplus-functions/internal/store"
)

const HandlerName = "notifications.badge-count"

type Input struct {
	UID string `json:"uid"`
}

type Output struct {
	Count  int  `json:"count"`
	Cached bool `json:"cached"`
}

// Cache is the narrow read/write surface used for short-lived badge counts.
// Satisfied by database.RedisClient; nil disables caching entirely.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type Handler struct {
	config *Config
	logger logger.Logger
	store  store.DocumentStore
	cache  Cache
}

type HandlerOptions struct {
	Config *Config
	Logger logger.Logger
	Store  store.DocumentStore
	Cache  Cache
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", HandlerName, err)
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("%s requires a document store", HandlerName)
	}

	loggerInstance := opts.Logger
	if loggerInstance == nil {
		loggerInstance = logger.NewStructured("info", "json")
	}

	return &Handler{
		config: cfg,
		logger: loggerInstance.WithFields(map[string]interface{}{"handler": HandlerName}),
		store:  opts.Store,
		cache:  opts.Cache,
	}, nil
}

// Execute counts the caller's own unread notification sub-records.
// Read-only; cache failures degrade to a direct store count.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.UID == "" {
		return nil, errors.NewUnauthenticatedError("badge count requires a verified caller identity")
	}

	key := cacheKey(input.UID)
	if h.cacheEnabled() {
		if cached, err := h.cache.Get(ctx, key); err == nil {
			if count, parseErr := strconv.Atoi(cached); parseErr == nil {
				return &Output{Count: count, Cached: true}, nil
			}
		}
	}

	docs, err := h.store.Query(ctx, store.UserSubcollection(input.UID, "notifications"), store.Filter{
		Field: "read",
		Op:    "==",
		Value: false,
	}, 0)
	if err != nil {
		return nil, errors.NewInternalError("document store", err)
	}
	count := len(docs)

	if h.cacheEnabled() {
		if err := h.cache.Set(ctx, key, strconv.Itoa(count), h.config.CacheTTL); err != nil {
			h.logger.Warn("failed to cache badge count", map[string]interface{}{
				"uid":   input.UID,
				"error": err.Error(),
			})
		}
	}

	return &Output{Count: count}, nil
}

// Invalidate drops the cached count for a user. Called when a new
// notification record arrives so the next count reflects it; a cache
// failure here is tolerated, the entry simply expires on its TTL.
func (h *Handler) Invalidate(ctx context.Context, uid string) {
	if uid == "" || !h.cacheEnabled() {
		return
	}
	if err := h.cache.Del(ctx, cacheKey(uid)); err != nil {
		h.logger.Warn("failed to invalidate badge cache", map[string]interface{}{
			"uid":   uid,
			"error": err.Error(),
		})
	}
}

func (h *Handler) cacheEnabled() bool {
	return h.cache != nil && h.config.CacheTTL > 0
}

func cacheKey(uid string) string {
	return "badge:" + uid
}
