package api

import (
	"net/http"

	"github.com/fitly/fashion-ai/utils"
)

// HealthHandler reports process liveness and which backends are wired.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"mongodb": utils.Client != nil,
	})
}
