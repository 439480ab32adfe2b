// Package eventreg runs event registration: eligibility checks, registering,
// cancelling, and the manager's registration report.
package eventreg

import (
	"context"
	"errors"
	"time"

	clubstore "github.com/dalemusser/clubsphere/internal/app/store/clubs"
	eventstore "github.com/dalemusser/clubsphere/internal/app/store/events"
	registrationstore "github.com/dalemusser/clubsphere/internal/app/store/registrations"
	"github.com/dalemusser/clubsphere/internal/app/system/apperr"
	"github.com/dalemusser/clubsphere/internal/app/system/auditlog"
	"github.com/dalemusser/clubsphere/internal/app/system/metrics"
	"github.com/dalemusser/clubsphere/internal/app/system/normalize"
	"github.com/dalemusser/clubsphere/internal/app/system/txn"
	"github.com/dalemusser/clubsphere/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Placeholders used when a joined record no longer exists.
const (
	UnknownEvent = "Unknown event"
	UnknownClub  = "Unknown club"
)

// MembershipChecker answers whether a user is an active member of a club.
type MembershipChecker interface {
	CheckMembership(ctx context.Context, clubID primitive.ObjectID, email string) (bool, error)
}

// Service implements the event registration workflow.
type Service struct {
	events  *eventstore.Store
	regs    *registrationstore.Store
	clubs   *clubstore.Store
	members MembershipChecker
	txn     *txn.Runner
	audit   *auditlog.Logger
	log     *zap.Logger
}

// New creates the workflow over db. Membership questions go to members.
func New(db *mongo.Database, members MembershipChecker, runner *txn.Runner, audit *auditlog.Logger, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		events:  eventstore.New(db),
		regs:    registrationstore.New(db),
		clubs:   clubstore.New(db),
		members: members,
		txn:     runner,
		audit:   audit,
		log:     log,
	}
}

// Eligibility is the advisory answer to "may this user register?".
type Eligibility struct {
	IsClubMember      bool `json:"isClubMember"`
	AlreadyRegistered bool `json:"alreadyRegistered"`
	EventFull         bool `json:"eventFull"`
	CanRegister       bool `json:"canRegister"`
}

// ReportRow is one registration in a manager's report.
type ReportRow struct {
	models.EventRegistration
	EventTitle    string    `json:"eventTitle"`
	EventDate     time.Time `json:"eventDate"`
	EventLocation string    `json:"eventLocation"`
	ClubName      string    `json:"clubName"`
}

// Summary counts registrations by status.
type Summary struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Cancelled int `json:"cancelled"`
}

// Report is every registration across the clubs a manager runs.
type Report struct {
	Registrations []ReportRow `json:"registrations"`
	Summary       Summary     `json:"summary"`
}

func requireEmail(email string) (string, error) {
	email = normalize.Email(email)
	if email == "" {
		return "", apperr.Validation("userEmail is required")
	}
	return email, nil
}

func (s *Service) loadEvent(ctx context.Context, id primitive.ObjectID) (models.Event, error) {
	ev, err := s.events.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Event{}, apperr.NotFound("event not found")
	}
	return ev, err
}

func (s *Service) alreadyRegistered(ctx context.Context, eventID primitive.ObjectID, email string) (bool, error) {
	_, err := s.regs.FindActive(ctx, eventID, email)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return false, nil
	default:
		return false, err
	}
}

// CanRegister reports whether email could register for the event right now.
// The answer is advisory; Register checks again.
func (s *Service) CanRegister(ctx context.Context, eventID primitive.ObjectID, email string) (Eligibility, error) {
	email, err := requireEmail(email)
	if err != nil {
		return Eligibility{}, err
	}
	ev, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return Eligibility{}, err
	}

	var el Eligibility
	if el.IsClubMember, err = s.members.CheckMembership(ctx, ev.ClubID, email); err != nil {
		return Eligibility{}, err
	}
	if el.AlreadyRegistered, err = s.alreadyRegistered(ctx, eventID, email); err != nil {
		return Eligibility{}, err
	}
	el.EventFull = ev.Full()
	el.CanRegister = el.IsClubMember && !el.AlreadyRegistered && !el.EventFull
	return el, nil
}

// errRegistered is returned from the Register transaction when the user
// already holds a registered record.
var errRegistered = errors.New("already registered")

// Register records a registration for email and adds them to the event's
// attendees.
func (s *Service) Register(ctx context.Context, eventID primitive.ObjectID, email string) (models.EventRegistration, error) {
	email, err := requireEmail(email)
	if err != nil {
		return models.EventRegistration{}, err
	}

	var reg models.EventRegistration
	err = s.txn.Run(ctx, func(ctx context.Context) error {
		ev, err := s.loadEvent(ctx, eventID)
		if err != nil {
			return err
		}

		member, err := s.members.CheckMembership(ctx, ev.ClubID, email)
		if err != nil {
			return err
		}
		if !member {
			return apperr.Conflict("not a club member")
		}

		already, err := s.alreadyRegistered(ctx, eventID, email)
		if err != nil {
			return err
		}
		if already {
			return errRegistered
		}
		if ev.Full() {
			return apperr.Conflict("event is full")
		}

		reg, err = s.regs.Insert(ctx, eventID, ev.ClubID, email)
		if errors.Is(err, registrationstore.ErrAlreadyRegistered) {
			return apperr.Conflict("already registered")
		}
		if err != nil {
			return err
		}
		_, err = s.events.AddAttendee(ctx, eventID, email)
		return err
	})
	if errors.Is(err, errRegistered) {
		// A write without a transaction may have stopped between the insert
		// and the attendee update; the conditional add restores it.
		if _, aerr := s.events.AddAttendee(ctx, eventID, email); aerr != nil {
			s.log.Warn("restore attendee failed", zap.String("event_id", eventID.Hex()), zap.Error(aerr))
		}
		err = apperr.Conflict("already registered")
	}
	metrics.Registrations.WithLabelValues("register", outcome(err)).Inc()
	if err != nil {
		return models.EventRegistration{}, err
	}

	s.audit.RegistrationCreated(ctx, reg.ClubID, eventID, email)
	return reg, nil
}

// Cancel marks the user's most recent registration for the event as
// cancelled and removes them from the attendees. The record is kept.
func (s *Service) Cancel(ctx context.Context, eventID primitive.ObjectID, email string) (models.EventRegistration, error) {
	email, err := requireEmail(email)
	if err != nil {
		return models.EventRegistration{}, err
	}

	var reg models.EventRegistration
	err = s.txn.Run(ctx, func(ctx context.Context) error {
		var err error
		reg, err = s.regs.CancelLatest(ctx, eventID, email)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.NotFound("registration not found")
		}
		if err != nil {
			return err
		}
		_, err = s.events.RemoveAttendee(ctx, eventID, email)
		return err
	})
	metrics.Registrations.WithLabelValues("cancel", outcome(err)).Inc()
	if err != nil {
		return models.EventRegistration{}, err
	}

	s.audit.RegistrationCancelled(ctx, reg.ClubID, eventID, email)
	return reg, nil
}

// ManagerReport lists every registration for events in clubs managed by
// managerEmail, newest first.
func (s *Service) ManagerReport(ctx context.Context, managerEmail string) (Report, error) {
	managerEmail = normalize.Email(managerEmail)
	if managerEmail == "" {
		return Report{}, apperr.Validation("managerEmail is required")
	}

	clubs, err := s.clubs.ListByManager(ctx, managerEmail)
	if err != nil {
		return Report{}, err
	}
	report := Report{Registrations: []ReportRow{}}
	if len(clubs) == 0 {
		return report, nil
	}

	clubIDs := make([]primitive.ObjectID, 0, len(clubs))
	clubNames := make(map[primitive.ObjectID]string, len(clubs))
	for _, c := range clubs {
		clubIDs = append(clubIDs, c.ID)
		clubNames[c.ID] = c.Name
	}

	regs, err := s.regs.ListByClubs(ctx, clubIDs)
	if err != nil {
		return Report{}, err
	}
	events, err := s.events.ByIDs(ctx, eventIDs(regs))
	if err != nil {
		return Report{}, err
	}

	for _, r := range regs {
		row := ReportRow{EventRegistration: r, EventTitle: UnknownEvent, ClubName: UnknownClub}
		if ev, ok := events[r.EventID]; ok {
			row.EventTitle = ev.Title
			row.EventDate = ev.Date
			row.EventLocation = ev.Location
		}
		if name, ok := clubNames[r.ClubID]; ok {
			row.ClubName = name
		}
		report.Registrations = append(report.Registrations, row)

		report.Summary.Total++
		switch r.Status {
		case models.RegistrationRegistered:
			report.Summary.Active++
		case models.RegistrationCancelled:
			report.Summary.Cancelled++
		}
	}
	return report, nil
}

// ListUserRegistrations returns email's registrations, newest first, with
// event and club names.
func (s *Service) ListUserRegistrations(ctx context.Context, email string) ([]ReportRow, error) {
	email, err := requireEmail(email)
	if err != nil {
		return nil, err
	}

	regs, err := s.regs.ListByUser(ctx, email)
	if err != nil {
		return nil, err
	}
	events, err := s.events.ByIDs(ctx, eventIDs(regs))
	if err != nil {
		return nil, err
	}
	clubIDs := make([]primitive.ObjectID, 0, len(regs))
	for _, r := range regs {
		clubIDs = append(clubIDs, r.ClubID)
	}
	names, err := s.clubs.NamesByIDs(ctx, clubIDs)
	if err != nil {
		return nil, err
	}

	out := make([]ReportRow, 0, len(regs))
	for _, r := range regs {
		row := ReportRow{EventRegistration: r, EventTitle: UnknownEvent, ClubName: UnknownClub}
		if ev, ok := events[r.EventID]; ok {
			row.EventTitle = ev.Title
			row.EventDate = ev.Date
			row.EventLocation = ev.Location
		}
		if name, ok := names[r.ClubID]; ok {
			row.ClubName = name
		}
		out = append(out, row)
	}
	return out, nil
}

func eventIDs(regs []models.EventRegistration) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool, len(regs))
	ids := make([]primitive.ObjectID, 0, len(regs))
	for _, r := range regs {
		if !seen[r.EventID] {
			seen[r.EventID] = true
			ids = append(ids, r.EventID)
		}
	}
	return ids
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return apperr.KindOf(err).String()
}
