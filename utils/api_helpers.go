package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fitly/fashion-ai/models"
)

// RespondJSON sends a JSON response with the given status code and payload.
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// Fallback error logging if encoding fails, though we can't write to w anymore if headers sent
		fmt.Printf("Error encoding JSON response: %v\n", err)
	}
}

// RespondError sends a JSON error response and logs the error to the provided logger or stdout.
// If logger is nil, it prints to stdout using fmt.Println.
func RespondError(w http.ResponseWriter, logger *strings.Builder, message string, status int) {
	if logger != nil {
		AddToLogMessage(logger, message)
	} else {
		fmt.Println("[Error]", message)
	}
	RespondJSON(w, status, map[string]string{"error": message})
}

func AddToLogMessage(logMessagesBuilder *strings.Builder, strToAdd string) {
	if logMessagesBuilder.Len() == logMessagesBuilder.Cap() {
		logMessagesBuilder.Grow(len(strToAdd))
	}

	logMessagesBuilder.WriteString(strToAdd)
	logMessagesBuilder.WriteString(";")
	logMessagesBuilder.WriteString("\n")
}

// PresignOutfitImages swaps each stored image key for a presigned URL.
// Outfits that already carry an http(s) URL, or whose presign fails, are
// left untouched.
func PresignOutfitImages(ctx context.Context, outfits []models.OutfitCombination) {
	for i := range outfits {
		if outfits[i].ImageKey == "" || strings.HasPrefix(outfits[i].ImageURL, "http") {
			continue
		}
		if url, err := GetPresignedURL(ctx, outfits[i].ImageKey); err == nil {
			outfits[i].ImageURL = url
		}
	}
}

// LatencyMiddleware logs the duration of each request
func LatencyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		duration := time.Since(start)
		fmt.Printf("[LATENCY] %s %s - %v\n", r.Method, r.URL.Path, duration)
	})
}
