// internal/app/store/registrations/registrationstore.go
package registrationstore

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
	return &Store{c: db.Collection("event_registrations")}
}

// ErrAlreadyRegistered is returned when a registered document already exists
// for the (event, user) pair. The partial unique index on
// (event_id, user_email) where status is "registered" enforces it.
var ErrAlreadyRegistered = errors.New("user is already registered for this event")

// FindActive returns the registered document for the pair.
// Returns mongo.ErrNoDocuments if the user holds no active registration.
func (s *Store) FindActive(ctx context.Context, eventID primitive.ObjectID, email string) (models.EventRegistration, error) {
	var r models.EventRegistration
	err := s.c.FindOne(ctx, bson.M{
		"event_id":   eventID,
		"user_email": normalize.Email(email),
		"status":     models.RegistrationRegistered,
	}).Decode(&r)
	return r, err
}

// Insert stores a new registered document.
func (s *Store) Insert(ctx context.Context, eventID, clubID primitive.ObjectID, email string) (models.EventRegistration, error) {
	r := models.EventRegistration{
		ID:           primitive.NewObjectID(),
		EventID:      eventID,
		ClubID:       clubID,
		UserEmail:    normalize.Email(email),
		Status:       models.RegistrationRegistered,
		RegisteredAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		if wafflemongo.IsDup(err) {
			return models.EventRegistration{}, ErrAlreadyRegistered
		}
		return models.EventRegistration{}, err
	}
	return r, nil
}

// CancelLatest marks the most recent registered document for the pair as
// cancelled and returns it. The document is kept.
// Returns mongo.ErrNoDocuments if there is nothing to cancel.
func (s *Store) CancelLatest(ctx context.Context, eventID primitive.ObjectID, email string) (models.EventRegistration, error) {
	now := time.Now().UTC()
	var r models.EventRegistration
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{
			"event_id":   eventID,
			"user_email": normalize.Email(email),
			"status":     models.RegistrationRegistered,
		},
		bson.M{"$set": bson.M{"status": models.RegistrationCancelled, "cancelled_at": now}},
		options.FindOneAndUpdate().
			SetSort(bson.D{{Key: "registered_at", Value: -1}}).
			SetReturnDocument(options.After),
	).Decode(&r)
	return r, err
}

// ListByClubs returns registrations for events of the given clubs, newest first.
func (s *Store) ListByClubs(ctx context.Context, clubIDs []primitive.ObjectID) ([]models.EventRegistration, error) {
	if len(clubIDs) == 0 {
		return []models.EventRegistration{}, nil
	}
	return s.find(ctx, bson.M{"club_id": bson.M{"$in": clubIDs}})
}

// ListByUser returns a user's registrations, newest first.
func (s *Store) ListByUser(ctx context.Context, email string) ([]models.EventRegistration, error) {
	return s.find(ctx, bson.M{"user_email": normalize.Email(email)})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.EventRegistration, error) {
	cur, err := s.c.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "registered_at", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.EventRegistration{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
