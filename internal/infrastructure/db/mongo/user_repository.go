package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/atica/user-roster/internal/core/domain"
)

const (
	collectionUsers    = "users"
	collectionCounters = "counters"
	userSequence       = "users"

	indexActiveDocument = "ux_users_document_active"
	indexActiveEmail    = "ux_users_email_active"
)

// UserRepository implements ports.UserRepository on MongoDB. Integer IDs come
// from a counters collection; uniqueness among active users is enforced by
// partial unique indexes created in EnsureIndexes.
type UserRepository struct {
	col      *mongo.Collection
	counters *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		col:      db.Collection(collectionUsers),
		counters: db.Collection(collectionCounters),
	}
}

type mongoUser struct {
	ID        int64     `bson:"_id"`
	FirstName string    `bson:"first_name"`
	LastName  string    `bson:"last_name"`
	Document  string    `bson:"document"`
	Email     string    `bson:"email"`
	Role      string    `bson:"role"`
	CreatedAt time.Time `bson:"created_at"`
	Active    bool      `bson:"active"`
}

func toMongoUser(u *domain.User) mongoUser {
	return mongoUser{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Document:  u.Document,
		Email:     domain.NormalizeEmail(u.Email),
		Role:      u.Role,
		CreatedAt: u.CreatedAt.UTC(),
		Active:    u.Active,
	}
}

func (m mongoUser) toDomain() domain.User {
	return domain.User{
		ID:        m.ID,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Document:  m.Document,
		Email:     m.Email,
		Role:      m.Role,
		CreatedAt: m.CreatedAt.UTC(),
		Active:    m.Active,
	}
}

var listOrder = bson.D{{Key: "last_name", Value: 1}, {Key: "first_name", Value: 1}, {Key: "_id", Value: 1}}

// ListActive returns active users ordered by last name, first name and ID.
func (r *UserRepository) ListActive(ctx context.Context) ([]domain.User, error) {
	return r.list(ctx, bson.M{"active": true})
}

// ListByRole returns active users with the given role.
func (r *UserRepository) ListByRole(ctx context.Context, role string) ([]domain.User, error) {
	return r.list(ctx, bson.M{"active": true, "role": role})
}

func (r *UserRepository) list(ctx context.Context, filter bson.M) ([]domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(listOrder))
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoUser
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	users := make([]domain.User, len(docs))
	for i, d := range docs {
		users[i] = d.toDomain()
	}
	return users, nil
}

// GetByID returns the user with the given ID regardless of its active flag.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoUser
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	u := doc.toDomain()
	return &u, nil
}

// Create allocates the next ID and inserts the user.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.nextID(ctx)
	if err != nil {
		return 0, err
	}

	doc := toMongoUser(u)
	doc.ID = id
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return 0, fmt.Errorf("insert user: %w", classifyWriteError(err))
	}
	return id, nil
}

// nextID atomically increments the users sequence, creating it on first use.
func (r *UserRepository) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": userSequence},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next user id: %w", err)
	}
	return counter.Seq, nil
}

// Update overwrites every field but ID and CreatedAt.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"document":   u.Document,
		"email":      domain.NormalizeEmail(u.Email),
		"role":       u.Role,
		"active":     u.Active,
	}}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": u.ID}, update)
	if err != nil {
		return false, fmt.Errorf("update user: %w", classifyWriteError(err))
	}
	return res.MatchedCount > 0, nil
}

// SoftDelete clears the active flag.
func (r *UserRepository) SoftDelete(ctx context.Context, id int64) (bool, error) {
	return r.setActive(ctx, id, false)
}

// Reactivate sets the active flag again.
func (r *UserRepository) Reactivate(ctx context.Context, id int64) (bool, error) {
	return r.setActive(ctx, id, true)
}

func (r *UserRepository) setActive(ctx context.Context, id int64, active bool) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"active": active}})
	if err != nil {
		return false, fmt.Errorf("set active=%t: %w", active, classifyWriteError(err))
	}
	return res.MatchedCount > 0, nil
}

// DocumentExists reports whether an active user other than excludeID holds document.
func (r *UserRepository) DocumentExists(ctx context.Context, document string, excludeID int64) (bool, error) {
	return r.exists(ctx, bson.M{"document": document}, excludeID)
}

// EmailExists reports whether an active user other than excludeID holds email.
// Stored emails are lower case; the anchored case-insensitive match also covers
// rows written before normalization.
func (r *UserRepository) EmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {
	pattern := "^" + regexp.QuoteMeta(strings.TrimSpace(email)) + "$"
	return r.exists(ctx, bson.M{"email": bson.M{"$regex": pattern, "$options": "i"}}, excludeID)
}

func (r *UserRepository) exists(ctx context.Context, filter bson.M, excludeID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter["active"] = true
	if excludeID != 0 {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	n, err := r.col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return n > 0, nil
}

// EnsureIndexes creates the listing index and the partial unique indexes that
// keep document and email unique among active users.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	activeOnly := bson.D{{Key: "active", Value: true}}
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "document", Value: 1}},
			Options: options.Index().
				SetName(indexActiveDocument).
				SetUnique(true).
				SetPartialFilterExpression(activeOnly),
		},
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().
				SetName(indexActiveEmail).
				SetUnique(true).
				SetPartialFilterExpression(activeOnly),
		},
		{Keys: bson.D{{Key: "active", Value: 1}, {Key: "role", Value: 1}, {Key: "last_name", Value: 1}, {Key: "first_name", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

// classifyWriteError maps a duplicate key error to the matching domain error,
// keyed on the violated index name.
func classifyWriteError(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return err
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, indexActiveDocument):
		return fmt.Errorf("%w: %v", domain.ErrDuplicateDocument, err)
	case strings.Contains(msg, indexActiveEmail):
		return fmt.Errorf("%w: %v", domain.ErrDuplicateEmail, err)
	}
	return err
}
