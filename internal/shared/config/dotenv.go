package config

import (
	"os"

	"github.com/joho/godotenv"
)

// loadEnvFiles loads the first files that exist. Variables already present
// in the environment win.
func loadEnvFiles(paths ...string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		_ = godotenv.Load(p)
	}
}
