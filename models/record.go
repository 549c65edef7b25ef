package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Generation is the persisted record of one completed pipeline run, used by
// the gallery endpoint. Image fields hold S3 object keys; presigned URLs
// are generated on read.
type Generation struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID        string              `bson:"user_id,omitempty" json:"user_id,omitempty"`
	SessionID     string              `bson:"session_id" json:"session_id"`
	Query         string              `bson:"query,omitempty" json:"query,omitempty"`
	QueryResponse string              `bson:"query_response,omitempty" json:"query_response,omitempty"`
	Outfits       []OutfitCombination `bson:"outfits" json:"outfits"`
	Weather       WeatherContext      `bson:"weather" json:"weather"`
	Status        string              `bson:"status" json:"status"` // "completed" or "partial"
	CreatedAt     time.Time           `bson:"created_at" json:"created_at"`
}
