// internal/app/store/events/eventstore.go
package eventstore

import (
	"context"
	"time"

	"github.com/dalemusser/clubsphere/internal/app/system/normalize"
	"github.com/dalemusser/clubsphere/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("events")}
}

// Create inserts an event. Events are never paid: the fee is forced to zero.
func (s *Store) Create(ctx context.Context, e models.Event) (models.Event, error) {
	now := time.Now().UTC()
	e.ID = primitive.NewObjectID()
	e.Title = normalize.Name(e.Title)
	e.CreatedBy = normalize.Email(e.CreatedBy)
	e.IsPaid = false
	e.Fee = 0
	e.Attendees = []string{}
	e.AttendeeCount = 0
	e.CreatedAt = now
	e.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.Event{}, err
	}
	return e, nil
}

// GetByID loads an event. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Event, error) {
	var e models.Event
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return models.Event{}, err
	}
	return e, nil
}

// ListByClub returns a club's events by date.
func (s *Store) ListByClub(ctx context.Context, clubID primitive.ObjectID) ([]models.Event, error) {
	return s.find(ctx, bson.M{"club_id": clubID})
}

// ByIDs returns event summaries keyed by id. Unknown ids are absent.
func (s *Store) ByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Event, error) {
	out := make(map[primitive.ObjectID]models.Event, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"title": 1, "date": 1, "location": 1, "club_id": 1}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var e models.Event
		if err := cur.Decode(&e); err != nil {
			return nil, err
		}
		out[e.ID] = e
	}
	return out, cur.Err()
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Event, error) {
	cur, err := s.c.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Event{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddAttendee adds email to the attendee set and increments the count in one
// conditional update. It reports false when email was already present.
func (s *Store) AddAttendee(ctx context.Context, id primitive.ObjectID, email string) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "attendees": bson.M{"$ne": email}},
		bson.M{
			"$addToSet": bson.M{"attendees": email},
			"$inc":      bson.M{"attendee_count": 1},
			"$set":      bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// RemoveAttendee pulls email from the attendee set and decrements the count in
// one conditional update. It reports false when email was not present.
func (s *Store) RemoveAttendee(ctx context.Context, id primitive.ObjectID, email string) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "attendees": email},
		bson.M{
			"$pull": bson.M{"attendees": email},
			"$inc":  bson.M{"attendee_count": -1},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}
