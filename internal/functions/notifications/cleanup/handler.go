// internal/functions/notifications/cleanup/handler.go
package cleanup

import (
	"context"
	"fmt"
	"time"

	"byteplus-functions/internal/common/errors"
	"byteplus-functions/internal/common/logger"
	"byteplus-functions/internal/common/metrics"
	"byteplus-functions/internal/store"
)

const HandlerName = "notifications.cleanup"

type Output struct {
	Deleted int       `json:"deleted"`
	Cutoff  time.Time `json:"cutoff"`
}

type Handler struct {
	config *Config
	logger logger.Logger
	store  store.DocumentStore
	clock  func() time.Time
}

type HandlerOptions struct {
	Config *Config
	Logger logger.Logger
	Store  store.DocumentStore
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
		clock:  time.Now,
	}, nil
}

// Execute performs one retention sweep: records strictly older than the
// retention window are removed in a single batch, capped at the batch
// limit. Records beyond the cap are picked up by the next scheduled run.
func (h *Handler) Execute(ctx context.Context) (*Output, error) {
	cutoff := h.clock().UTC().AddDate(0, 0, -h.config.RetentionDays)

	docs, err := h.store.Query(ctx, store.NotificationsCollection, store.Filter{
		Field: "createdAt",
		Op:    "<",
		Value: cutoff,
	}, h.config.BatchLimit)
	if err != nil {
		return nil, errors.NewInternalError("document store", err)
	}

	if len(docs) == 0 {
		h.logger.Info("no stale notifications to sweep", map[string]interface{}{
			"cutoff": cutoff,
		})
		return &Output{Deleted: 0, Cutoff: cutoff}, nil
	}

	keys := make([]string, len(docs))
	for i, doc := range docs {
		keys[i] = doc.Key
	}

	if err := h.store.BatchDelete(ctx, store.NotificationsCollection, keys); err != nil {
		return nil, errors.NewInternalError("document store", err)
	}

	metrics.NotificationsSwept.Add(float64(len(keys)))
	h.logger.Info("swept stale notifications", map[string]interface{}{
		"deleted": len(keys),
		"cutoff":  cutoff,
	})
	return &Output{Deleted: len(keys), Cutoff: cutoff}, nil
}
