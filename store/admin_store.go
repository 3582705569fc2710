package store

import (
	"context"
	"errors"
	"fmt"
	"jojarts/models"
	"jojarts/utils"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

// AdminStore holds administrator accounts in the users collection.
type AdminStore struct {
	coll   *mongo.Collection
	logger *zap.Logger
}

func NewAdminStore(coll *mongo.Collection, logger *zap.Logger) *AdminStore {
	return &AdminStore{coll: coll, logger: logger}
}

// EnsureIndexes creates the unique username index that backs bootstrap idempotency.
func (s *AdminStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("creating username index: %w", err)
	}
	return nil
}

// FindByUsername returns ErrNotFound when no such administrator exists.
func (s *AdminStore) FindByUsername(ctx context.Context, username string) (*models.Admin, error) {
	admin := &models.Admin{}
	err := s.coll.FindOne(ctx, bson.M{"username": username}).Decode(admin)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding admin %q: %w", username, err)
	}
	return admin, nil
}

// Create inserts a new administrator. A clash on username yields ErrDuplicateKey.
func (s *AdminStore) Create(ctx context.Context, username, passwordHash, role string) (*models.Admin, error) {
	if role == "" {
		role = models.RoleAdmin
	}
	now := time.Now().UTC()
	admin := &models.Admin{
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	result, err := s.coll.InsertOne(ctx, admin)
	if mongo.IsDuplicateKeyError(err) {
		return nil, ErrDuplicateKey
	}
	if err != nil {
		return nil, fmt.Errorf("inserting admin %q: %w", username, err)
	}
	if id, ok := result.InsertedID.(bson.ObjectID); ok {
		admin.ID = id
	}
	return admin, nil
}

// EnsureBootstrapAdmin creates the configured administrator unless it
// already exists. Safe to run on every start: losing an insert race to
// another process surfaces as ErrDuplicateKey and is treated as done.
func (s *AdminStore) EnsureBootstrapAdmin(ctx context.Context, username, password string) error {
	_, err := s.FindByUsername(ctx, username)
	if err == nil {
		s.logger.Debug("Bootstrap admin already present", zap.String("username", username))
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	hash, err := utils.HashPass(password)
	if err != nil {
		return fmt.Errorf("hashing bootstrap password: %w", err)
	}

	_, err = s.Create(ctx, username, hash, models.RoleAdmin)
	if errors.Is(err, ErrDuplicateKey) {
		s.logger.Info("Bootstrap admin created concurrently, skipping", zap.String("username", username))
		return nil
	}
	if err != nil {
		return err
	}

	s.logger.Info("Bootstrap admin created", zap.String("username", username))
	return nil
}
