package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/config"
	"github.com/ridehail/backend/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection     = "users"
	captainsCollection  = "captains"
	blacklistCollection = "blacklist_tokens"
)

// Mongo stores users and captains in separate collections and revoked
// tokens in a TTL-indexed collection, so expiry is done by the server.
type Mongo struct {
	client    *mongo.Client
	db        *mongo.Database
	retention time.Duration
}

func NewMongo(ctx context.Context, cfg config.MongoConfig, retention time.Duration) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return &Mongo{
		client:    client,
		db:        client.Database(cfg.Database),
		retention: retention,
	}, nil
}

func (m *Mongo) EnsureAuthSchema(ctx context.Context) error {
	for _, name := range []string{usersCollection, captainsCollection} {
		_, err := m.db.Collection(name).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		})
		if err != nil {
			return fmt.Errorf("failed to index %s.email: %w", name, err)
		}
	}

	_, err := m.db.Collection(blacklistCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(m.retention.Seconds())),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to index %s: %w", blacklistCollection, err)
	}
	return nil
}

func (m *Mongo) CreateAccount(ctx context.Context, acc *model.Account) (*model.Account, error) {
	created := *acc
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	created.CreatedAt = now
	created.UpdatedAt = now

	if _, err := m.accounts(created.Role).InsertOne(ctx, &created); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return &created, nil
}

func (m *Mongo) FindAccountByEmail(ctx context.Context, role model.Role, email string) (*model.Account, error) {
	return m.findAccount(ctx, role, bson.M{"email": email}, nil)
}

func (m *Mongo) FindAccountByID(ctx context.Context, role model.Role, id string) (*model.Account, error) {
	opts := options.FindOne().SetProjection(bson.M{"password": 0})
	return m.findAccount(ctx, role, bson.M{"_id": id}, opts)
}

func (m *Mongo) findAccount(ctx context.Context, role model.Role, filter bson.M, opts *options.FindOneOptions) (*model.Account, error) {
	var acc model.Account
	var err error
	if opts != nil {
		err = m.accounts(role).FindOne(ctx, filter, opts).Decode(&acc)
	} else {
		err = m.accounts(role).FindOne(ctx, filter).Decode(&acc)
	}
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	acc.Role = role
	return &acc, nil
}

// RevokeToken upserts so a repeated logout leaves a single entry with its
// original createdAt.
func (m *Mongo) RevokeToken(ctx context.Context, token string) error {
	entry := model.RevokedToken{Token: token, CreatedAt: time.Now().UTC()}
	_, err := m.db.Collection(blacklistCollection).UpdateOne(ctx,
		bson.M{"token": token},
		bson.M{"$setOnInsert": entry},
		options.Update().SetUpsert(true),
	)
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

// IsTokenRevoked filters on createdAt because the TTL monitor only runs
// about once a minute.
func (m *Mongo) IsTokenRevoked(ctx context.Context, token string) (bool, error) {
	filter := bson.M{
		"token":     token,
		"createdAt": bson.M{"$gt": time.Now().UTC().Add(-m.retention)},
	}
	n, err := m.db.Collection(blacklistCollection).CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func (m *Mongo) accounts(role model.Role) *mongo.Collection {
	if role == model.RoleCaptain {
		return m.db.Collection(captainsCollection)
	}
	return m.db.Collection(usersCollection)
}
