package store

import (
	"context"
	"errors"
	"fmt"
	"jojarts/models"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ImageStore is the gallery catalog. It is the only code that touches the
// images collection; every write is a single-document operation, so
// concurrent updates of one record resolve as last writer wins.
type ImageStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewImageStore(coll *mongo.Collection) *ImageStore {
	return &ImageStore{coll: coll, now: func() time.Time { return time.Now().UTC() }}
}

// EnsureIndexes creates the index used by List's ordering.
func (s *ImageStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("creating createdAt index: %w", err)
	}
	return nil
}

// List returns every image, newest first.
func (s *ImageStore) List(ctx context.Context) ([]models.Image, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := s.coll.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}
	defer cursor.Close(ctx)

	images := make([]models.Image, 0)
	if err := cursor.All(ctx, &images); err != nil {
		return nil, fmt.Errorf("decoding images: %w", err)
	}
	return images, nil
}

// Create stores a new image. An empty url is rejected before anything is written.
func (s *ImageStore) Create(ctx context.Context, url, label string) (*models.Image, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("%w: url is required", ErrValidation)
	}

	now := s.now()
	img := &models.Image{
		URL:       url,
		Label:     label,
		CreatedAt: now,
		UpdatedAt: now,
	}

	result, err := s.coll.InsertOne(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("inserting image: %w", err)
	}
	id, ok := result.InsertedID.(bson.ObjectID)
	if !ok {
		return nil, fmt.Errorf("unexpected inserted id type %T", result.InsertedID)
	}
	img.ID = id
	return img, nil
}

// Update replaces the fields present in patch and leaves the rest alone.
// A missing target is reported as ErrNotFound even when the patch is invalid.
func (s *ImageStore) Update(ctx context.Context, id string, patch models.ImagePatch) (*models.Image, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	if patch.URL != nil {
		trimmed := strings.TrimSpace(*patch.URL)
		if trimmed == "" {
			if err := s.exists(ctx, objectID); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("%w: url must not be empty", ErrValidation)
		}
		patch.URL = &trimmed
	}

	set := bson.M{"updatedAt": s.now()}
	if patch.URL != nil {
		set["url"] = *patch.URL
	}
	if patch.Label != nil {
		set["label"] = *patch.Label
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	updated := &models.Image{}
	err = s.coll.FindOneAndUpdate(ctx, bson.M{"_id": objectID}, bson.M{"$set": set}, opts).Decode(updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating image %s: %w", id, err)
	}
	return updated, nil
}

func (s *ImageStore) exists(ctx context.Context, id bson.ObjectID) error {
	err := s.coll.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("looking up image %s: %w", id.Hex(), err)
	}
	return nil
}

// Remove deletes the image and echoes its id.
func (s *ImageStore) Remove(ctx context.Context, id string) (string, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return "", ErrNotFound
	}

	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return "", fmt.Errorf("deleting image %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return "", ErrNotFound
	}
	return objectID.Hex(), nil
}
