// internal/app/store/payments/paymentstore.go
package paymentstore

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
	return &Store{c: db.Collection("payments")}
}

var (
	// ErrDuplicateRef is returned when a payment already exists for a gateway reference.
	ErrDuplicateRef = errors.New("a payment with this gateway reference already exists")
	// ErrAlreadyCompleted is returned by Complete when the payment was
	// completed by an earlier call.
	ErrAlreadyCompleted = errors.New("payment already completed")
)

// GetByRef loads the payment for a gateway reference.
// Returns mongo.ErrNoDocuments if there is none.
func (s *Store) GetByRef(ctx context.Context, ref string) (models.Payment, error) {
	var p models.Payment
	err := s.c.FindOne(ctx, bson.M{"gateway_ref": ref}).Decode(&p)
	return p, err
}

// CreatePending records a checkout attempt before the user pays.
func (s *Store) CreatePending(ctx context.Context, p models.Payment) (models.Payment, error) {
	p.ID = primitive.NewObjectID()
	p.UserEmail = normalize.Email(p.UserEmail)
	p.Status = models.PaymentPending
	p.CreatedAt = time.Now().UTC()
	p.CompletedAt = nil

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Payment{}, ErrDuplicateRef
		}
		return models.Payment{}, err
	}
	return p, nil
}

// Complete marks the payment for p.GatewayRef completed with the given
// amounts, creating the record if checkout never pre-created one.
//
// The update only matches a payment that is not yet completed. When one is,
// the upsert collides with the unique gateway_ref index and Complete returns
// ErrAlreadyCompleted, so exactly one caller completes each reference.
func (s *Store) Complete(ctx context.Context, p models.Payment) (models.Payment, error) {
	now := time.Now().UTC()
	email := normalize.Email(p.UserEmail)

	var out models.Payment
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"gateway_ref": p.GatewayRef, "status": bson.M{"$ne": models.PaymentCompleted}},
		bson.M{
			"$set": bson.M{
				"status":       models.PaymentCompleted,
				"user_email":   email,
				"club_id":      p.ClubID,
				"amount":       p.Amount,
				"amount_minor": p.AmountMinor,
				"currency":     p.Currency,
				"completed_at": now,
			},
			"$setOnInsert": bson.M{
				"club_name":  p.ClubName,
				"created_at": now,
			},
		},
		options.FindOneAndUpdate().
			SetUpsert(true).
			SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Payment{}, ErrAlreadyCompleted
		}
		return models.Payment{}, err
	}
	return out, nil
}

// ListByUser returns a user's payments, newest first.
func (s *Store) ListByUser(ctx context.Context, email string) ([]models.Payment, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"user_email": normalize.Email(email)},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Payment{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
