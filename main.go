package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/fitly/fashion-ai/ai"
	"github.com/fitly/fashion-ai/api"
	"github.com/fitly/fashion-ai/config"
	"github.com/fitly/fashion-ai/pipeline"
	"github.com/fitly/fashion-ai/progress"
	"github.com/fitly/fashion-ai/session"
	"github.com/fitly/fashion-ai/utils"
)

func main() {
	config.LoadConfig()

	if config.GeminiAPIKey == "" {
		log.Fatal("GEMINI_API_KEY is required")
	}
	if config.AgentEndpoint == "" || config.AgentAccessKey == "" {
		log.Fatal("AGENT_ENDPOINT and AGENT_ACCESS_KEY are required")
	}

	// The pipeline works without MongoDB; only the gallery and generation
	// history need it.
	if err := utils.ConnectMongo(config.MongoURI); err != nil {
		log.Printf("Warning: MongoDB unavailable, gallery disabled: %v", err)
	}
	if err := utils.InitS3(); err != nil {
		log.Printf("Warning: S3 unavailable, generated images cannot be stored: %v", err)
	}

	broadcaster := progress.NewBroadcaster()
	sessions := session.NewStore(time.Duration(config.SessionTTLMinutes) * time.Minute)

	coordinator := pipeline.New(pipeline.Config{
		Describer:         ai.NewGeminiDescriber(config.GeminiAPIKey),
		Classifier:        ai.NewStylistAgent(config.AgentEndpoint, config.AgentAccessKey, config.AgentModel),
		Selector:          ai.NewStylistAgent(config.AgentEndpoint, config.AgentAccessKey, config.AgentModel),
		Generator:         ai.NewGeminiGenerator(config.GeminiAPIKey),
		Images:            utils.S3ImageStore{},
		Events:            broadcaster,
		Sessions:          sessions,
		DescribeBatchSize: config.DescribeBatchSize,
		GenerationTimeout: time.Duration(config.GenerationTimeoutS) * time.Second,
	})

	// Expired sessions are also dropped lazily on access; the ticker keeps
	// memory bounded when sessions are simply abandoned.
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			if removed := sessions.CleanupExpired(); removed > 0 {
				log.Printf("Session cleanup: removed %d expired sessions, %d active", removed, sessions.Count())
			}
		}
	}()

	// CORS Middleware
	corsMiddleware := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	http.HandleFunc("/generate", corsMiddleware(api.AuthContext(api.GenerateHandler(coordinator))))
	http.HandleFunc("/ws", api.ProgressSocketHandler(broadcaster))
	http.HandleFunc("/gallery", corsMiddleware(api.AuthContext(api.GalleryHandler)))
	http.HandleFunc("/health", corsMiddleware(api.HealthHandler))

	port := config.Port
	fmt.Printf("Server starting on port %s...\n", port)
	if err := http.ListenAndServe(":"+port, utils.LatencyMiddleware(http.DefaultServeMux)); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
