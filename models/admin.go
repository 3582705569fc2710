package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const RoleAdmin = "admin"

// Admin is an administrator account. Only the bootstrap account is ever
// created; no endpoint updates or deletes it.
type Admin struct {
	ID           bson.ObjectID `json:"id" bson:"_id,omitempty"`
	Username     string        `json:"username" bson:"username"`
	PasswordHash string        `json:"-" bson:"passwordHash"`
	Role         string        `json:"role" bson:"role"`
	CreatedAt    time.Time     `json:"created_at" bson:"createdAt"`
	UpdatedAt    time.Time     `json:"updated_at" bson:"updatedAt"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

type MeResponse struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}
