// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/clubsphere/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called from EnsureSchema at startup. Each ensure* function is
idempotent. Problems are aggregated so every broken collection shows up in
one error and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	sets := []struct {
		name string
		fn   func(context.Context, *mongo.Database) error
	}{
		{"users", ensureUsers},
		{"clubs", ensureClubs},
		{"memberships", ensureMemberships},
		{"events", ensureEvents},
		{"event_registrations", ensureEventRegistrations},
		{"payments", ensurePayments},
		{"audit_events", ensureAuditEvents},
	}

	var problems []string
	for _, s := range sets {
		if err := s.fn(ctx, db); err != nil {
			problems = append(problems, s.name+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Reconciling one collection's desired indexes                               */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name    string `bson:"name"`
	Key     bson.D `bson:"key"`
	Unique  *bool  `bson:"unique,omitempty"`
	Partial bson.D `bson:"partialFilterExpression,omitempty"`
}

type desiredIndex struct {
	model   mongo.IndexModel
	name    string
	sig     string
	unique  bool
	partial string
}

func describe(m mongo.IndexModel) desiredIndex {
	d := desiredIndex{model: m, sig: keySig(m.Keys.(bson.D))}
	if o := m.Options; o != nil {
		if o.Name != nil {
			d.name = *o.Name
		}
		d.unique = o.Unique != nil && *o.Unique
		if pf, ok := o.PartialFilterExpression.(bson.D); ok {
			d.partial = keySig(pf)
		}
	}
	return d
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

// sameShape reports whether an existing index can stand in for the desired one.
func (d desiredIndex) sameShape(ex existingIndex) bool {
	exUnique := ex.Unique != nil && *ex.Unique
	return exUnique == d.unique && keySig(ex.Partial) == d.partial
}

// isOptionsConflictErr matches IndexOptionsConflict / IndexKeySpecsConflict,
// returned when an index with the same keys exists under other options.
func isOptionsConflictErr(err error) bool {
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 85 || ce.Code == 86) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "IndexOptionsConflict")
}

func listIndexes(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]existingIndex{}
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out, cur.Err()
}

// recreate drops the index named old and creates the desired one in its place.
func recreate(ctx context.Context, coll *mongo.Collection, old string, d desiredIndex) error {
	if _, err := coll.Indexes().DropOne(ctx, old); err != nil {
		return fmt.Errorf("drop %s failed: %w", old, err)
	}
	if _, err := coll.Indexes().CreateOne(ctx, d.model); err != nil {
		if mongo.IsDuplicateKeyError(err) && d.unique {
			return fmt.Errorf("cannot create unique index (duplicates present on %s)", d.sig)
		}
		return err
	}
	return nil
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		d := describe(m)
		start := time.Now()
		fields := []zap.Field{
			zap.String("collection", coll.Name()),
			zap.String("name", d.name),
			zap.String("keys", d.sig),
			zap.Bool("unique", d.unique),
		}

		existing, err := listIndexes(ctx, coll)
		if err != nil {
			// The collection may not exist yet; CreateOne below creates it.
			existing = map[string]existingIndex{}
		}

		ex, found := existing[d.sig]
		switch {
		case found && d.sameShape(ex) && (d.name == "" || ex.Name == d.name):
			zap.L().Debug("reusing existing index", append(fields, zap.Duration("took", time.Since(start)))...)

		case found:
			// Same keys but a different name or options: align it.
			if err := recreate(ctx, coll, ex.Name, d); err != nil {
				zap.L().Warn("index recreate failed", append(fields, zap.Error(err))...)
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), d.name, err))
				continue
			}
			zap.L().Info("index recreated",
				append(fields, zap.String("from", ex.Name), zap.Duration("took", time.Since(start)))...)

		default:
			if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
				if isOptionsConflictErr(err) {
					zap.L().Warn("index options conflict", append(fields, zap.Error(err))...)
				}
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), d.name, err))
				continue
			}
			zap.L().Info("index ensured", append(fields, zap.Duration("took", time.Since(start)))...)
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},
		{
			Keys:    bson.D{{Key: "role", Value: 1}, {Key: "display_name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_users_role_nameci_id"),
		},
	})
}

func ensureClubs(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("clubs"), []mongo.IndexModel{
		// Manager dashboards list their clubs by name.
		{
			Keys:    bson.D{{Key: "manager_email", Value: 1}, {Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_clubs_manager_nameci_id"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_clubs_status_nameci_id"),
		},
	})
}

func ensureMemberships(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("memberships"), []mongo.IndexModel{
		// At most one membership per (club, user).
		{
			Keys:    bson.D{{Key: "club_id", Value: 1}, {Key: "user_email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_memberships_club_user"),
		},
		{
			Keys:    bson.D{{Key: "club_id", Value: 1}, {Key: "status", Value: 1}, {Key: "joined_at", Value: -1}},
			Options: options.Index().SetName("idx_memberships_club_status_joined"),
		},
		{
			Keys:    bson.D{{Key: "user_email", Value: 1}, {Key: "joined_at", Value: -1}},
			Options: options.Index().SetName("idx_memberships_user_joined"),
		},
	})
}

func ensureEvents(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("events"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "club_id", Value: 1}, {Key: "date", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_events_club_date_id"),
		},
	})
}

func ensureEventRegistrations(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("event_registrations"), []mongo.IndexModel{
		// One live registration per (event, user); cancelled rows are history.
		{
			Keys: bson.D{{Key: "event_id", Value: 1}, {Key: "user_email", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "status", Value: models.RegistrationRegistered}}).
				SetName("uniq_eventregs_event_user_registered"),
		},
		{
			Keys:    bson.D{{Key: "user_email", Value: 1}, {Key: "registered_at", Value: -1}},
			Options: options.Index().SetName("idx_eventregs_user_registered"),
		},
		{
			Keys:    bson.D{{Key: "club_id", Value: 1}, {Key: "registered_at", Value: -1}},
			Options: options.Index().SetName("idx_eventregs_club_registered"),
		},
	})
}

func ensurePayments(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("payments"), []mongo.IndexModel{
		// A gateway reference is recorded at most once.
		{
			Keys:    bson.D{{Key: "gateway_ref", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_payments_gateway_ref"),
		},
		{
			Keys:    bson.D{{Key: "user_email", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_payments_user_created"),
		},
	})
}

func ensureAuditEvents(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("audit_events"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "club_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_club_ts"),
		},
		{
			Keys:    bson.D{{Key: "subject_email", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_subject_ts"),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_category_ts"),
		},
	})
}
