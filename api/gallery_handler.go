package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/fitly/fashion-ai/models"
	"github.com/fitly/fashion-ai/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GalleryResponse represents the response structure for the gallery API
type GalleryResponse struct {
	Generations []models.Generation `json:"generations"`
	Total       int64               `json:"total"`
	CurrentPage int                 `json:"current_page"`
	TotalPages  int                 `json:"total_pages"`
}

// GalleryHandler returns the user's past generations, newest first.
func GalleryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if utils.Client == nil {
		http.Error(w, "Gallery unavailable without database", http.StatusServiceUnavailable)
		return
	}

	page := 1
	limit := 10
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}

	collection := utils.GetCollection("generations")
	filter := bson.M{"user_id": userID}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		http.Error(w, "Failed to fetch data", http.StatusInternalServerError)
		return
	}

	findOptions := options.Find()
	findOptions.SetSort(bson.D{{Key: "created_at", Value: -1}}) // Show latest first
	findOptions.SetSkip(int64((page - 1) * limit))
	findOptions.SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, findOptions)
	if err != nil {
		http.Error(w, "Failed to fetch data", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	var generations []models.Generation
	if err = cursor.All(ctx, &generations); err != nil {
		http.Error(w, "Failed to decode data", http.StatusInternalServerError)
		return
	}

	// Stored records hold S3 keys; swap them for fresh presigned URLs.
	for i := range generations {
		utils.PresignOutfitImages(r.Context(), generations[i].Outfits)
	}

	// Ensure empty slice is returned as [] instead of null
	if generations == nil {
		generations = []models.Generation{}
	}

	totalPages := 0
	if total > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}

	utils.RespondJSON(w, http.StatusOK, GalleryResponse{
		Generations: generations,
		Total:       total,
		CurrentPage: page,
		TotalPages:  totalPages,
	})
}
