// Package users serves the user sign-in upsert and role endpoints.
package users

import (
	"context"

	"github.com/dalemusser/clubsphere/internal/app/system/auditlog"
	"github.com/dalemusser/clubsphere/internal/app/system/auth"
	"github.com/dalemusser/clubsphere/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Store is the user persistence the handlers need. *userstore.Store
// satisfies it.
type Store interface {
	CreateIfAbsent(ctx context.Context, u models.User) (models.User, bool, error)
	RoleByEmail(ctx context.Context, email string) (string, error)
	SetRole(ctx context.Context, id primitive.ObjectID, role string) error
}

// Handler serves /users.
type Handler struct {
	Users    Store
	Sessions *auth.SessionManager
	Audit    *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(users Store, sessions *auth.SessionManager, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    users,
		Sessions: sessions,
		Audit:    audit,
		Log:      logger,
	}
}
