package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fitly/fashion-ai/models"
	"github.com/fitly/fashion-ai/pipeline"
	"github.com/fitly/fashion-ai/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxUploadBytes = 50 << 20 // 50 MB across all parts

var allowedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// GenerationRunner runs the outfit pipeline for one request.
type GenerationRunner interface {
	Generate(ctx context.Context, req *models.GenerationRequest) (*models.GenerationResponse, error)
}

// GenerateHandler handles the outfit generation request. It accepts a
// multipart form with clothing images, optional selfies and an optional
// free-text query, runs the pipeline and returns the assembled outfits.
func GenerateHandler(coord GenerationRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var logMessageBuilder strings.Builder
		defer func() {
			fmt.Println(logMessageBuilder.String())
		}()
		utils.AddToLogMessage(&logMessageBuilder, "[Generate Outfits API]")

		if r.Method != http.MethodPost {
			utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			utils.RespondError(w, &logMessageBuilder, fmt.Sprintf("Invalid multipart form: %v", err), http.StatusBadRequest)
			return
		}

		req := &models.GenerationRequest{
			SessionID:    r.FormValue("session_id"),
			ConnectionID: r.FormValue("connection_id"),
			Query:        strings.TrimSpace(r.FormValue("query")),
		}

		if temp := r.FormValue("weather_temp"); temp != "" {
			if v, err := strconv.ParseFloat(temp, 64); err == nil {
				req.Weather.TemperatureC = v
			}
		}
		req.Weather.Condition = r.FormValue("weather_condition")
		req.Weather.Location = r.FormValue("weather_location")

		// Cached descriptions let repeat requests skip the vision model.
		if raw := r.FormValue("descriptions"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &req.KnownDescriptions); err != nil {
				utils.RespondError(w, &logMessageBuilder, "descriptions must be a JSON object of filename to text", http.StatusBadRequest)
				return
			}
		}

		var err error
		req.ClothingImages, err = readImageParts(r.MultipartForm.File["clothing_images"], models.ImageRoleClothing)
		if err != nil {
			utils.RespondError(w, &logMessageBuilder, err.Error(), http.StatusBadRequest)
			return
		}
		req.Selfies, err = readImageParts(r.MultipartForm.File["selfies"], models.ImageRoleSelfie)
		if err != nil {
			utils.RespondError(w, &logMessageBuilder, err.Error(), http.StatusBadRequest)
			return
		}

		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Request: %d clothing, %d selfies, query=%q, session=%q",
			len(req.ClothingImages), len(req.Selfies), req.Query, req.SessionID))

		// The pipeline keeps running if the client disconnects; progress
		// still reaches the websocket and the result is persisted.
		pipelineCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		resp, err := coord.Generate(pipelineCtx, req)
		if err != nil {
			utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Pipeline failed: %v", err))

			var vErr *pipeline.ValidationError
			var upErr *pipeline.UpstreamError
			switch {
			case errors.As(err, &vErr):
				utils.RespondError(w, nil, vErr.Error(), http.StatusBadRequest)
			case errors.As(err, &upErr):
				if strings.Contains(err.Error(), "429") || strings.Contains(strings.ToLower(err.Error()), "quota") {
					utils.RespondError(w, nil, "Quota exceeded. Please try again later.", http.StatusTooManyRequests)
				} else {
					utils.RespondError(w, nil, "Outfit generation failed: "+upErr.Error(), http.StatusBadGateway)
				}
			default:
				utils.RespondError(w, nil, "Internal error: "+err.Error(), http.StatusInternalServerError)
			}
			return
		}

		userID, err := GetUserIDFromContext(r.Context())
		if err != nil {
			utils.AddToLogMessage(&logMessageBuilder, "Warning: UserID not found in context")
		}

		if utils.Client != nil {
			go saveGenerationRecord(userID, req, resp)
		}

		if email := r.FormValue("notify_email"); email != "" && len(resp.Outfits) > 0 {
			go func() {
				if err := utils.SendOutfitsReadyEmail(email, resp.Outfits); err != nil {
					log.Printf("Failed to send outfits-ready email: %v", err)
				}
			}()
		}

		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Done: %d outfits, session=%s", len(resp.Outfits), resp.SessionID))
		utils.RespondJSON(w, http.StatusOK, resp)
	}
}

func readImageParts(headers []*multipart.FileHeader, role models.ImageRole) ([]models.UploadedImage, error) {
	var images []models.UploadedImage
	for _, header := range headers {
		ext := strings.ToLower(filepath.Ext(header.Filename))
		if !allowedImageExtensions[ext] {
			return nil, fmt.Errorf("unsupported image type %q for %s", ext, header.Filename)
		}

		file, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("cannot open upload %s: %v", header.Filename, err)
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("cannot read upload %s: %v", header.Filename, err)
		}
		if len(data) == 0 {
			return nil, fmt.Errorf("upload %s is empty", header.Filename)
		}

		img := models.UploadedImage{
			Filename: header.Filename,
			Data:     data,
			Role:     role,
		}
		// Only trust the part's Content-Type when it names an image;
		// generic octet-stream uploads get sniffed instead.
		if ct := header.Header.Get("Content-Type"); strings.HasPrefix(ct, "image/") {
			img.MimeType = ct
		}
		if err := utils.NormalizeForModel(&img); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

func saveGenerationRecord(userID string, req *models.GenerationRequest, resp *models.GenerationResponse) {
	status := "completed"
	for _, o := range resp.Outfits {
		if o.Error != "" {
			status = "partial"
			break
		}
	}

	record := models.Generation{
		ID:            primitive.NewObjectID(),
		UserID:        userID,
		SessionID:     resp.SessionID,
		Query:         req.Query,
		QueryResponse: resp.QueryResponse,
		Outfits:       resp.Outfits,
		Weather:       req.Weather,
		Status:        status,
		CreatedAt:     time.Now(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	collection := utils.GetCollection("generations")
	if _, err := collection.InsertOne(ctx, record); err != nil {
		log.Printf("Failed to save generation record: %v", err)
	}
}
