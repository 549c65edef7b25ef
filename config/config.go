package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

var (
	MongoURI           string
	Port               string
	GeminiAPIKey       string
	AgentEndpoint      string
	AgentAccessKey     string
	AgentModel         string
	AWSRegion          string
	AWSBucketName      string
	JWTSecret          string
	SessionTTLMinutes  int
	DescribeBatchSize  int
	GenerationTimeoutS int
)

// LoadConfig loads environment variables from .env file
func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using default values or system environment variables")
	}

	MongoURI = os.Getenv("MONGO_URI")
	if MongoURI == "" {
		MongoURI = "mongodb://localhost:27017/"
	}

	Port = os.Getenv("PORT")
	if Port == "" {
		Port = "8080"
	}

	GeminiAPIKey = os.Getenv("GEMINI_API_KEY")

	AgentEndpoint = os.Getenv("AGENT_ENDPOINT")
	AgentAccessKey = os.Getenv("AGENT_ACCESS_KEY")
	AgentModel = os.Getenv("AGENT_MODEL")
	if AgentModel == "" {
		AgentModel = "llama3.3-70b-instruct"
	}

	AWSRegion = os.Getenv("AWS_REGION")
	if AWSRegion == "" {
		AWSRegion = "us-east-1"
	}
	AWSBucketName = os.Getenv("AWS_BUCKET_NAME")

	JWTSecret = os.Getenv("JWT_SECRET")

	SessionTTLMinutes = intFromEnv("SESSION_TTL_MINUTES", 60)
	DescribeBatchSize = intFromEnv("DESCRIBE_BATCH_SIZE", 3)
	GenerationTimeoutS = intFromEnv("GENERATION_TIMEOUT_SECONDS", 300)
}

func intFromEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		log.Printf("Invalid value for %s: %q, using default %d", key, raw, fallback)
		return fallback
	}
	return v
}
