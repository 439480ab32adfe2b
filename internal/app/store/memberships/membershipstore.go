// internal/app/store/memberships/membershipstore.go
package membershipstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/clubsphere/internal/app/system/normalize"
	"github.com/dalemusser/clubsphere/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("memberships")}
}

var errBadStatus = errors.New(`status must be "active"|"inactive"|"expired"|"suspended"`)

// IsActive reports whether an active membership exists for the pair.
func (s *Store) IsActive(ctx context.Context, clubID primitive.ObjectID, email string) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{
		"club_id":    clubID,
		"user_email": normalize.Email(email),
		"status":     models.MembershipActive,
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Get loads the membership for the pair. Returns mongo.ErrNoDocuments if absent.
func (s *Store) Get(ctx context.Context, clubID primitive.ObjectID, email string) (models.Membership, error) {
	var m models.Membership
	err := s.c.FindOne(ctx, bson.M{"club_id": clubID, "user_email": normalize.Email(email)}).Decode(&m)
	return m, err
}

// GetByID loads a membership by id.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Membership, error) {
	var m models.Membership
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	return m, err
}

// UpsertActive creates or overwrites the membership for the pair with status
// active. It returns the stored membership and whether the pair was not
// active before this call.
//
// The unique (club_id, user_email) index makes concurrent first upserts
// collide; the loser retries once and then finds the winner's document.
func (s *Store) UpsertActive(ctx context.Context, clubID primitive.ObjectID, email, paymentRef string) (models.Membership, bool, error) {
	email = normalize.Email(email)
	now := time.Now().UTC()

	set := bson.M{
		"status":     models.MembershipActive,
		"joined_at":  now,
		"updated_at": now,
	}
	if paymentRef != "" {
		set["payment_ref"] = paymentRef
	}
	filter := bson.M{"club_id": clubID, "user_email": email}
	update := bson.M{"$set": set}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.Before)

	var prev models.Membership
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		err = s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&prev)
		if !wafflemongo.IsDup(err) {
			break
		}
	}

	var became bool
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		became = true
	case err != nil:
		return models.Membership{}, false, err
	default:
		became = prev.Status != models.MembershipActive
	}

	cur, err := s.Get(ctx, clubID, email)
	if err != nil {
		return models.Membership{}, false, err
	}
	return cur, became, nil
}

// Delete removes the membership for the pair and returns what was removed.
// Returns mongo.ErrNoDocuments if there was nothing to remove.
func (s *Store) Delete(ctx context.Context, clubID primitive.ObjectID, email string) (models.Membership, error) {
	var m models.Membership
	err := s.c.FindOneAndDelete(ctx, bson.M{"club_id": clubID, "user_email": normalize.Email(email)}).Decode(&m)
	return m, err
}

// SetStatus changes a membership's status and returns the document as it
// was before and after the change.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) (before, after models.Membership, err error) {
	status = normalize.Status(status)
	if !models.IsValidMembershipStatus(status) {
		return before, after, errBadStatus
	}
	now := time.Now().UTC()
	err = s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updated_at": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&before)
	if err != nil {
		return before, after, err
	}
	after = before
	after.Status = status
	after.UpdatedAt = now
	return before, after, nil
}

// CountActive counts active memberships in a club.
func (s *Store) CountActive(ctx context.Context, clubID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"club_id": clubID, "status": models.MembershipActive})
}

// MemberRow is a membership joined with the member's profile.
type MemberRow struct {
	models.Membership `bson:",inline"`
	DisplayName       string `bson:"display_name"`
	PhotoURL          string `bson:"photo_url"`
	UserFound         bool   `bson:"user_found"`
}

// ListWithUsers returns a club's memberships joined against users by email,
// newest first. A status filter of "" means all statuses. Memberships whose
// user record is missing are returned with UserFound false.
func (s *Store) ListWithUsers(ctx context.Context, clubID primitive.ObjectID, status string) ([]MemberRow, error) {
	match := bson.M{"club_id": clubID}
	if status != "" {
		match["status"] = normalize.Status(status)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "joined_at", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "user_email",
			"foreignField": "email",
			"as":           "user",
		}}},
		{{Key: "$addFields", Value: bson.M{
			"user_found":   bson.M{"$gt": bson.A{bson.M{"$size": "$user"}, 0}},
			"display_name": bson.M{"$ifNull": bson.A{bson.M{"$arrayElemAt": bson.A{"$user.display_name", 0}}, ""}},
			"photo_url":    bson.M{"$ifNull": bson.A{bson.M{"$arrayElemAt": bson.A{"$user.photo_url", 0}}, ""}},
		}}},
		{{Key: "$project", Value: bson.M{"user": 0}}},
	}

	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []MemberRow{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByUser returns every membership held by email, newest first.
func (s *Store) ListByUser(ctx context.Context, email string) ([]models.Membership, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"user_email": normalize.Email(email)},
		options.Find().SetSort(bson.D{{Key: "joined_at", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Membership{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
