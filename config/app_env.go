package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/akeren/pingaroo/internal/log"
	"github.com/akeren/pingaroo/pkg/utils"
	"github.com/joho/godotenv"
)

const (
	AppEnvKey  = "APP_ENV"
	EnvFileKey = "ENV_FILE"
)

// envFiles returns the dotenv files to load. ENV_FILE accepts a
// comma-separated list; earlier files win because godotenv never
// overrides a variable that is already set.
func envFiles() []string {
	raw := utils.GetEnvTrimmed(EnvFileKey)
	if raw == "" {
		return []string{".env"}
	}

	var files []string
	for _, f := range strings.Split(raw, ",") {
		if f = strings.TrimSpace(f); f != "" {
			files = append(files, f)
		}
	}
	if len(files) == 0 {
		return []string{".env"}
	}
	return files
}

func InitializeEnvFile(logger *log.Logger) {
	if utils.GetEnvBool("SKIP_DOTENV", false) {
		logger.Info("Skipping .env file load (SKIP_DOTENV=true)")
		return
	}

	files := envFiles()
	if err := godotenv.Load(files...); err != nil {
		logger.Warn("No .env file found or failed to load it", "files", files, "error", err.Error())
		return
	}

	logger.Info("Environment variables loaded", "files", files)
}

func GetValueFromEnvironmentVariable(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultValue
}

func GetAppEnv() string {
	return strings.ToLower(utils.GetEnvTrimmed(AppEnvKey))
}

func isDevLikeEnv(env string) bool {
	switch env {
	case "", "dev", "development", "local", "test", "testing":
		return true
	}
	return false
}

func ValidateAutoMigrateAllowed(appEnv string) error {
	env := strings.ToLower(strings.TrimSpace(appEnv))
	if isDevLikeEnv(env) {
		return nil
	}
	return fmt.Errorf("--auto-migrate is not allowed when %s=%q (allowed: \"\", dev, development, local, test, testing)", AppEnvKey, env)
}
