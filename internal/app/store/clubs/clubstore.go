// internal/app/store/clubs/clubstore.go
package clubstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/clubsphere/internal/app/system/normalize"
	"github.com/dalemusser/clubsphere/internal/domain/models"
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
	return &Store{c: db.Collection("clubs")}
}

var errBadStatus = errors.New(`status must be "pending"|"approved"|"rejected"|"active"|"inactive"`)

// Create inserts a new club in pending status with an empty member cache.
func (s *Store) Create(ctx context.Context, c models.Club) (models.Club, error) {
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.Name = normalize.Name(c.Name)
	c.NameCI = text.Fold(c.Name)
	c.ManagerEmail = normalize.Email(c.ManagerEmail)
	c.Status = models.ClubPending
	c.Members = []string{}
	c.MemberCount = 0
	c.CreatedAt = now
	c.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Club{}, err
	}
	return c, nil
}

// GetByID loads a club. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Club, error) {
	var c models.Club
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return models.Club{}, err
	}
	return c, nil
}

// SetStatus moves a club to a new lifecycle state.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) (models.Club, error) {
	status = normalize.Status(status)
	if !models.IsValidClubStatus(status) {
		return models.Club{}, errBadStatus
	}
	var c models.Club
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		return models.Club{}, err
	}
	return c, nil
}

// ListByManager returns the clubs managed by email, by name.
func (s *Store) ListByManager(ctx context.Context, email string) ([]models.Club, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"manager_email": normalize.Email(email)},
		options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Club{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// NamesByIDs returns club names keyed by id. Unknown ids are absent.
func (s *Store) NamesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	out := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"name": 1}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var row struct {
			ID   primitive.ObjectID `bson:"_id"`
			Name string             `bson:"name"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = row.Name
	}
	return out, cur.Err()
}

// AddMember appends email to the member cache and increments the count in
// one conditional update. It reports false when email was already cached.
func (s *Store) AddMember(ctx context.Context, id primitive.ObjectID, email string) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "members": bson.M{"$ne": normalize.Email(email)}},
		bson.M{
			"$addToSet": bson.M{"members": normalize.Email(email)},
			"$inc":      bson.M{"member_count": 1},
			"$set":      bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// RemoveMember pulls email from the member cache and decrements the count in
// one conditional update. It reports false when email was not cached.
func (s *Store) RemoveMember(ctx context.Context, id primitive.ObjectID, email string) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "members": normalize.Email(email)},
		bson.M{
			"$pull": bson.M{"members": normalize.Email(email)},
			"$inc":  bson.M{"member_count": -1},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}
