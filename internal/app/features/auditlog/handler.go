// Package auditlog serves the admin view of the audit trail.
package auditlog

import (
	"context"

	"github.com/dalemusser/clubsphere/internal/app/store/audit"
	"go.uber.org/zap"
)

// Querier reads audit events. *audit.Store satisfies it.
type Querier interface {
	Query(ctx context.Context, filter audit.QueryFilter) ([]audit.Event, error)
	CountByFilter(ctx context.Context, filter audit.QueryFilter) (int64, error)
}

type Handler struct {
	Events Querier
	Log    *zap.Logger
}

// NewHandler constructs an audit log handler over the given event store.
func NewHandler(events Querier, logger *zap.Logger) *Handler {
	return &Handler{
		Events: events,
		Log:    logger,
	}
}
