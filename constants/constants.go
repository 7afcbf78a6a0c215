package constants

import (
	"os"
	"time"
)

func getEnv(key string, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}

func GetPort() string {
	return getEnv("PORT", "8080")
}

func GetUploadDir() string {
	return getEnv("UPLOAD_PATH", "./uploads")
}

// GetDefaultKey is the key used when a request does not name one.
func GetDefaultKey() string {
	return getEnv("DEFAULT_KEY", "C")
}

// GetRecognizerCommand is the external note recognizer, e.g.
// "python3 OpenOMR/extract_notes.py". Empty means the simulated detector.
func GetRecognizerCommand() string {
	return os.Getenv("OMR_COMMAND")
}

func GetRecognizerTimeout() time.Duration {
	d, err := time.ParseDuration(getEnv("OMR_TIMEOUT", "60s"))
	if err != nil {
		return time.Minute
	}
	return d
}

// GetTranscriptTable is the DynamoDB table for transcripts. Empty keeps them in
// memory.
func GetTranscriptTable() string {
	return os.Getenv("TRANSCRIPT_TABLE")
}

func GetDynamoEndpoint() string {
	return os.Getenv("DYNAMO_ENDPOINT")
}

func GetAWSRegion() string {
	return getEnv("AWS_REGION", "us-east-1")
}

func GetSentryDSN() string {
	return os.Getenv("SENTRY_DSN")
}

func GetEnvironment() string {
	return getEnv("ENVIRONMENT", "development")
}

const MaxUploadSize = 20 * 1024 * 1024

const UploadField = "notationFile"
