package types

import (
	"os"
	"strconv"
)

// Config carries the deployment-wide defaults. Every field that maps to a
// request parameter can still be overridden per call.
type Config struct {
	EmbeddingModelID   string
	EmbeddingDimension int
	DefaultModelID     string
	DefaultMethod      string
	DefaultK           int
	FrameThreshold     float64
	MaxSegmentChars    int
}

func ConfigFromEnv() Config {
	return Config{
		EmbeddingModelID:   envStr("EMBEDDING_MODEL_ID", "amazon.titan-embed-image-v1"),
		EmbeddingDimension: envInt("EMBEDDING_DIMENSION", 1024),
		DefaultModelID:     envStr("DEFAULT_MODEL_ID", "us.amazon.nova-pro-v1:0"),
		DefaultMethod:      envStr("DEFAULT_SEARCH_METHOD", "cosine"),
		DefaultK:           envInt("DEFAULT_K", 5),
		FrameThreshold:     envFloat("FRAME_DIFF_THRESHOLD", 0.8),
		MaxSegmentChars:    envInt("MAX_SEGMENT_CHARS", 1000),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
