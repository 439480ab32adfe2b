package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/clubsphere/internal/app/system/normalize"
	"github.com/dalemusser/clubsphere/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var errBadRole = errors.New(`role must be "member"|"manager"|"admin"`)

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateIfAbsent inserts u unless a user with the same email exists.
// It returns the stored user and whether this call created it.
func (s *Store) CreateIfAbsent(ctx context.Context, u models.User) (models.User, bool, error) {
	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	u.Email = normalize.Email(u.Email)
	u.DisplayName = normalize.Name(u.DisplayName)
	u.DisplayNameCI = text.Fold(u.DisplayName)
	if u.Role == "" {
		u.Role = models.RoleMember
	}
	if !models.IsValidRole(u.Role) {
		return models.User{}, false, errBadRole
	}
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if !wafflemongo.IsDup(err) {
			return models.User{}, false, err
		}
		existing, err := s.GetByEmail(ctx, u.Email)
		if err != nil {
			return models.User{}, false, err
		}
		return *existing, false, nil
	}
	return u, true, nil
}

// RoleByEmail returns the user's role, or RoleMember when the user is
// unknown or has no role stored.
func (s *Store) RoleByEmail(ctx context.Context, email string) (string, error) {
	var u models.User
	opts := options.FindOne().SetProjection(bson.M{"role": 1})
	err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}, opts).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.RoleMember, nil
	}
	if err != nil {
		return "", err
	}
	return u.EffectiveRole(), nil
}

// SetRole changes a user's role. Returns mongo.ErrNoDocuments if no user has id.
func (s *Store) SetRole(ctx context.Context, id primitive.ObjectID, role string) error {
	role = normalize.Role(role)
	if !models.IsValidRole(role) {
		return errBadRole
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"role": role, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// EnsureAdmin creates the user as admin, or promotes an existing user.
// It reports whether anything changed.
func (s *Store) EnsureAdmin(ctx context.Context, email string) (bool, error) {
	email = normalize.Email(email)
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"email": email, "role": bson.M{"$ne": models.RoleAdmin}},
		bson.M{
			"$set": bson.M{"role": models.RoleAdmin, "updated_at": now},
			"$setOnInsert": bson.M{
				"display_name":    email,
				"display_name_ci": text.Fold(email),
				"created_at":      now,
			},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		// An admin with this email already exists.
		if wafflemongo.IsDup(err) {
			return false, nil
		}
		return false, err
	}
	return res.ModifiedCount > 0 || res.UpsertedCount > 0, nil
}
