package auditlog

import (
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/clubsphere/internal/app/store/audit"
	"github.com/dalemusser/clubsphere/internal/app/system/apperr"
	"github.com/dalemusser/clubsphere/internal/app/system/inputval"
	"github.com/dalemusser/clubsphere/internal/app/system/jsonresp"
	"github.com/dalemusser/clubsphere/internal/app/system/normalize"
	"github.com/dalemusser/clubsphere/internal/app/system/paging"
	"github.com/dalemusser/clubsphere/internal/app/system/timeouts"
)

const dateLayout = "2006-01-02"

type listResponse struct {
	Events []audit.Event `json:"events"`
	paging.Info
}

// ServeList handles GET /audit with optional category, event_type, club_id,
// user_email, start_date, end_date (YYYY-MM-DD) and page filters.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := paging.ParsePage(r)

	filter := audit.QueryFilter{
		Category:     strings.TrimSpace(q.Get("category")),
		EventType:    strings.TrimSpace(q.Get("event_type")),
		SubjectEmail: normalize.Email(q.Get("user_email")),
		Limit:        paging.PageSize,
		Offset:       paging.Offset(page),
	}

	if s := strings.TrimSpace(q.Get("club_id")); s != "" {
		id, err := inputval.ObjectID("club_id", s)
		if err != nil {
			jsonresp.Error(w, h.Log, "audit log list", err)
			return
		}
		filter.ClubID = &id
	}
	if s := strings.TrimSpace(q.Get("start_date")); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			jsonresp.Error(w, h.Log, "audit log list", apperr.Validation("start_date must be YYYY-MM-DD"))
			return
		}
		filter.StartTime = &t
	}
	if s := strings.TrimSpace(q.Get("end_date")); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			jsonresp.Error(w, h.Log, "audit log list", apperr.Validation("end_date must be YYYY-MM-DD"))
			return
		}
		// Inclusive of the whole day.
		end := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndTime = &end
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		jsonresp.Error(w, h.Log, "audit log list", err)
		return
	}
	total, err := h.Events.CountByFilter(ctx, filter)
	if err != nil {
		jsonresp.Error(w, h.Log, "audit log list", err)
		return
	}

	jsonresp.OK(w, listResponse{Events: events, Info: paging.Compute(page, total)})
}
