package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Image is one gallery photo. The bytes live at URL on the image host; only
// the reference and its label are stored in MongoDB.
type Image struct {
	ID        bson.ObjectID `json:"id" bson:"_id,omitempty"`
	URL       string        `json:"url" bson:"url"`
	Label     string        `json:"label" bson:"label"`
	CreatedAt time.Time     `json:"created_at" bson:"createdAt"`
	UpdatedAt time.Time     `json:"updated_at" bson:"updatedAt"`
}

// ImagePatch carries the fields of a partial update. A nil field is left unchanged.
type ImagePatch struct {
	URL   *string `json:"url"`
	Label *string `json:"label"`
}

// Empty reports whether the patch changes nothing.
func (p ImagePatch) Empty() bool {
	return p.URL == nil && p.Label == nil
}

type CreateImageRequest struct {
	URL   string `json:"url" validate:"required"`
	Label string `json:"label"`
}

type ImageResponse struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Label string `json:"label"`
}

type DeleteImageResponse struct {
	ID string `json:"id"`
}

// NewImageResponse converts a stored image to its public shape.
func NewImageResponse(img *Image) ImageResponse {
	return ImageResponse{
		ID:    img.ID.Hex(),
		URL:   img.URL,
		Label: img.Label,
	}
}

// UploadResult mirrors the fields the SPA reads back from the image host.
type UploadResult struct {
	SecureURL        string `json:"secure_url"`
	OriginalFilename string `json:"original_filename"`
}
