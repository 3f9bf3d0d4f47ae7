// Package config holds the offline renderer's configuration. Flags provide
// the primary surface; a .env file or environment variables supply defaults
// for the values that tend to differ per machine.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config drives one offline overlay render.
type Config struct {
	ManifestPath string
	OutputDir    string
	OutputVideo  string
	Background   string // optional background image composited under the overlay
	Width        int
	Height       int
	FPS          int
	DurationMs   float64 // 0 derives the duration from the manifest
	StartMs      float64
	Workers      int // 0 sizes from host resources
	Encoder      string
	Quality      int
	LogLevel     string
	LogFormat    string
}

// Load reads .env files into the environment. Missing files are not an
// error worth failing over; callers may ignore the result.
func Load(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	return godotenv.Load(paths...)
}

// GetEnv returns the environment value for key, or fallback when unset or
// empty.
func GetEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// GetEnvInt returns the integer environment value for key, or fallback when
// unset, empty or unparseable.
func GetEnvInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

// GetEnvFloat returns the float environment value for key, or fallback when
// unset, empty or unparseable.
func GetEnvFloat(key string, fallback float64) float64 {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return n
		}
	}
	return fallback
}
