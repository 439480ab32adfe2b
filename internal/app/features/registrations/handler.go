// Package registrations serves registration listings: a user's own
// registrations and the report across every club a manager runs.
package registrations

import (
	"context"
	"net/http"

	"github.com/dalemusser/clubsphere/internal/app/eventreg"
	"github.com/dalemusser/clubsphere/internal/app/system/auth"
	"github.com/dalemusser/clubsphere/internal/app/system/jsonresp"
	"github.com/dalemusser/clubsphere/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Reporter produces registration listings.
type Reporter interface {
	ListUserRegistrations(ctx context.Context, email string) ([]eventreg.ReportRow, error)
	ManagerReport(ctx context.Context, managerEmail string) (eventreg.Report, error)
}

// Handler serves registration listings.
type Handler struct {
	Regs     Reporter
	Sessions *auth.SessionManager
	Log      *zap.Logger
}

func NewHandler(regs Reporter, sessions *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{Regs: regs, Sessions: sessions, Log: logger}
}

// ServeUserList handles GET /event-registrations?userEmail=.
func (h *Handler) ServeUserList(w http.ResponseWriter, r *http.Request) {
	email, err := h.Sessions.ActingEmail(r, "userEmail", r.URL.Query().Get("userEmail"))
	if err != nil {
		jsonresp.Error(w, h.Log, "list registrations", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list registrations")
	defer cancel()

	rows, err := h.Regs.ListUserRegistrations(ctx, email)
	if err != nil {
		jsonresp.Error(w, h.Log, "list registrations", err)
		return
	}
	if rows == nil {
		rows = []eventreg.ReportRow{}
	}
	jsonresp.OK(w, rows)
}

// ServeManagerReport handles GET /manager/event-registrations?managerEmail=.
// The report only covers clubs the acting identity manages.
func (h *Handler) ServeManagerReport(w http.ResponseWriter, r *http.Request) {
	email, err := h.Sessions.ActingEmail(r, "managerEmail", r.URL.Query().Get("managerEmail"))
	if err != nil {
		jsonresp.Error(w, h.Log, "manager report", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "manager report")
	defer cancel()

	report, err := h.Regs.ManagerReport(ctx, email)
	if err != nil {
		jsonresp.Error(w, h.Log, "manager report", err)
		return
	}
	jsonresp.OK(w, report)
}
