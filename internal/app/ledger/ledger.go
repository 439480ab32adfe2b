// Package ledger is the authoritative record of which users belong to which
// clubs.
//
// The memberships collection is the source of truth. Each club also carries a
// members array and member_count as a read cache; only this package writes
// them, and every write is a single conditional update so the array length,
// the counter, and the number of active memberships stay equal.
package ledger

import (
	"context"
	"errors"

	"github.com/dalemusser/clubsphere/internal/app/policy/clubpolicy"
	clubstore "github.com/dalemusser/clubsphere/internal/app/store/clubs"
	membershipstore "github.com/dalemusser/clubsphere/internal/app/store/memberships"
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
	UnknownMember = "Unknown member"
	UnknownClub   = "Unknown club"
)

// Service implements the membership ledger.
type Service struct {
	clubs       *clubstore.Store
	memberships *membershipstore.Store
	txn         *txn.Runner
	audit       *auditlog.Logger
	log         *zap.Logger
}

// New creates a ledger over db. runner and audit may be nil.
func New(db *mongo.Database, runner *txn.Runner, audit *auditlog.Logger, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		clubs:       clubstore.New(db),
		memberships: membershipstore.New(db),
		txn:         runner,
		audit:       audit,
		log:         log,
	}
}

// MemberView is a membership joined with the member's profile.
type MemberView struct {
	models.Membership
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
}

// MembershipView is a membership with the club's name.
type MembershipView struct {
	models.Membership
	ClubName string `json:"clubName"`
}

func requireEmail(email string) (string, error) {
	email = normalize.Email(email)
	if email == "" {
		return "", apperr.Validation("userEmail is required")
	}
	return email, nil
}

func (s *Service) loadClub(ctx context.Context, id primitive.ObjectID) (models.Club, error) {
	club, err := s.clubs.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Club{}, apperr.NotFound("club not found")
	}
	return club, err
}

// CheckMembership reports whether email holds an active membership in the club.
func (s *Service) CheckMembership(ctx context.Context, clubID primitive.ObjectID, email string) (bool, error) {
	email, err := requireEmail(email)
	if err != nil {
		return false, err
	}
	return s.memberships.IsActive(ctx, clubID, email)
}

// UpsertActiveMembership makes the pair active, creating the membership when
// absent. The bool reports whether the pair became active by this call.
// Calling it again for an active pair changes nothing but the timestamps.
func (s *Service) UpsertActiveMembership(ctx context.Context, clubID primitive.ObjectID, email, paymentRef string) (models.Membership, bool, error) {
	email, err := requireEmail(email)
	if err != nil {
		return models.Membership{}, false, err
	}

	var (
		m       models.Membership
		became  bool
		changed bool
	)
	err = s.txn.Run(ctx, func(ctx context.Context) error {
		var err error
		m, became, err = s.memberships.UpsertActive(ctx, clubID, email, paymentRef)
		if err != nil {
			return err
		}
		// Conditional: a no-op when the email is already cached, which also
		// repairs the cache if an earlier non-transactional attempt stopped here.
		changed, err = s.clubs.AddMember(ctx, clubID, email)
		return err
	})
	if err != nil {
		return models.Membership{}, false, err
	}

	metrics.LedgerMutations.WithLabelValues("upsert_active", metrics.Bool(changed)).Inc()
	if became {
		s.audit.MembershipActivated(ctx, clubID, email, paymentRef)
	}
	return m, became, nil
}

// RemoveMembership deletes the pair's membership. The club cache drops the
// email if it was there.
func (s *Service) RemoveMembership(ctx context.Context, clubID primitive.ObjectID, email string) error {
	email, err := requireEmail(email)
	if err != nil {
		return err
	}

	var (
		removed models.Membership
		changed bool
	)
	err = s.txn.Run(ctx, func(ctx context.Context) error {
		var err error
		removed, err = s.memberships.Delete(ctx, clubID, email)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.NotFound("membership not found")
		}
		if err != nil {
			return err
		}
		changed, err = s.clubs.RemoveMember(ctx, clubID, email)
		return err
	})
	if err != nil {
		return err
	}

	metrics.LedgerMutations.WithLabelValues("remove", metrics.Bool(changed)).Inc()
	s.audit.MembershipRemoved(ctx, clubID, email, removed.Status)
	return nil
}

// SetMemberStatus changes the status of a membership in clubID on behalf of
// actor, who must manage the club. Moving into or out of active updates the
// club cache in the same unit of work.
func (s *Service) SetMemberStatus(ctx context.Context, actor clubpolicy.Actor, clubID, membershipID primitive.ObjectID, status string) (models.Membership, error) {
	status = normalize.Status(status)
	if !models.IsValidMembershipStatus(status) {
		return models.Membership{}, apperr.Validation("invalid status; must be one of active, inactive, expired, suspended")
	}

	club, err := s.loadClub(ctx, clubID)
	if err != nil {
		return models.Membership{}, err
	}
	if err := clubpolicy.RequireManager(actor, club); err != nil {
		return models.Membership{}, err
	}

	current, err := s.memberships.GetByID(ctx, membershipID)
	if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && current.ClubID != clubID) {
		return models.Membership{}, apperr.NotFound("membership not found")
	}
	if err != nil {
		return models.Membership{}, err
	}

	var (
		before, after models.Membership
		changed       bool
	)
	err = s.txn.Run(ctx, func(ctx context.Context) error {
		var err error
		before, after, err = s.memberships.SetStatus(ctx, membershipID, status)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.NotFound("membership not found")
		}
		if err != nil {
			return err
		}
		if after.Status == models.MembershipActive {
			changed, err = s.clubs.AddMember(ctx, clubID, after.UserEmail)
		} else {
			changed, err = s.clubs.RemoveMember(ctx, clubID, after.UserEmail)
		}
		return err
	})
	if err != nil {
		return models.Membership{}, err
	}

	metrics.LedgerMutations.WithLabelValues("set_status", metrics.Bool(changed)).Inc()
	if before.Status != after.Status {
		s.audit.MembershipStatusChanged(ctx, clubID, after.UserEmail, actor.Email, before.Status, after.Status)
	}
	return after, nil
}

// RequireJoinable returns a Conflict when email may not start a new
// membership in club. Inactive and expired members may rejoin; suspended
// members stay out until a manager changes their status.
func (s *Service) RequireJoinable(ctx context.Context, club models.Club, email string) error {
	if !club.Joinable() {
		return apperr.Conflict("club is not accepting members")
	}
	m, err := s.memberships.Get(ctx, club.ID, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	if err != nil {
		return err
	}
	switch m.Status {
	case models.MembershipActive:
		return apperr.Conflict("already a member")
	case models.MembershipSuspended:
		return apperr.Conflict("membership suspended")
	}
	return nil
}

// Join activates a free membership for email. Clubs with a fee must be
// joined through checkout.
func (s *Service) Join(ctx context.Context, clubID primitive.ObjectID, email string) (models.Membership, error) {
	email, err := requireEmail(email)
	if err != nil {
		return models.Membership{}, err
	}

	club, err := s.loadClub(ctx, clubID)
	if err != nil {
		return models.Membership{}, err
	}
	if err := s.RequireJoinable(ctx, club, email); err != nil {
		return models.Membership{}, err
	}
	if club.RequiresPayment() {
		return models.Membership{}, apperr.Conflict("payment required")
	}

	m, _, err := s.UpsertActiveMembership(ctx, clubID, email, "")
	return m, err
}

// ListMembers returns a club's memberships with member profiles, newest first.
// An empty status lists every status.
func (s *Service) ListMembers(ctx context.Context, actor clubpolicy.Actor, clubID primitive.ObjectID, status string) ([]MemberView, error) {
	status = normalize.Status(status)
	if status != "" && !models.IsValidMembershipStatus(status) {
		return nil, apperr.Validation("invalid status; must be one of active, inactive, expired, suspended")
	}

	club, err := s.loadClub(ctx, clubID)
	if err != nil {
		return nil, err
	}
	if err := clubpolicy.RequireManager(actor, club); err != nil {
		return nil, err
	}

	rows, err := s.memberships.ListWithUsers(ctx, clubID, status)
	if err != nil {
		return nil, err
	}

	out := make([]MemberView, 0, len(rows))
	for _, r := range rows {
		v := MemberView{Membership: r.Membership, DisplayName: r.DisplayName, PhotoURL: r.PhotoURL}
		if !r.UserFound {
			v.DisplayName = UnknownMember
			v.PhotoURL = ""
		}
		out = append(out, v)
	}
	return out, nil
}

// ListForUser returns every membership held by email with club names.
func (s *Service) ListForUser(ctx context.Context, email string) ([]MembershipView, error) {
	email, err := requireEmail(email)
	if err != nil {
		return nil, err
	}

	ms, err := s.memberships.ListByUser(ctx, email)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(ms))
	for _, m := range ms {
		ids = append(ids, m.ClubID)
	}
	names, err := s.clubs.NamesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]MembershipView, 0, len(ms))
	for _, m := range ms {
		name, ok := names[m.ClubID]
		if !ok {
			name = UnknownClub
		}
		out = append(out, MembershipView{Membership: m, ClubName: name})
	}
	return out, nil
}

// ClubSummary returns the club and its number of active memberships as
// counted from the ledger.
func (s *Service) ClubSummary(ctx context.Context, clubID primitive.ObjectID) (models.Club, int64, error) {
	club, err := s.loadClub(ctx, clubID)
	if err != nil {
		return models.Club{}, 0, err
	}
	n, err := s.memberships.CountActive(ctx, clubID)
	if err != nil {
		return models.Club{}, 0, err
	}
	return club, n, nil
}
