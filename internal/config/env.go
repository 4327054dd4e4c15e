package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// LoadEnv loads environment variables from a .env file.
//
// When profile is non-empty, ".env.<profile>" is probed before ".env" in each
// candidate directory. Search order (stops at the first file found):
//  1. Current working directory.
//  2. Directory of the running executable, walking up to 3 parents.
//
// If no file is found anywhere, the process continues with system env vars.
func LoadEnv(profile string, log *zap.Logger) {
	names := []string{".env"}
	if profile != "" {
		names = []string{".env." + profile, ".env"}
	}

	for _, dir := range envCandidateDirs() {
		for _, name := range names {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err != nil {
				continue
			}
			if err := godotenv.Load(p); err != nil {
				log.Warn("failed to load env file", zap.String("path", p), zap.Error(err))
				continue
			}
			log.Info("loaded env file", zap.String("path", p))
			return
		}
	}
	log.Info("no env file found, using system environment variables")
}

// envCandidateDirs returns the ordered list of directories to probe.
func envCandidateDirs() []string {
	var dirs []string
	seen := map[string]bool{}
	add := func(d string) {
		d = filepath.Clean(d)
		if !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}

	if cwd, err := os.Getwd(); err == nil {
		add(cwd)
	}

	// Walk up from the executable directory so bin/warden finds a
	// project-root .env without users relocating it.
	if exe, err := os.Executable(); err == nil {
		if real, err := filepath.EvalSymlinks(exe); err == nil {
			exe = real
		}
		dir := filepath.Dir(exe)
		for i := 0; i <= 3; i++ {
			add(dir)
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}
	return dirs
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return defaultValue
}
