package app

import (
	"time"

	"github.com/pharmchat/pharmchat-backend/internal/pkg/envutil"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/logger"
)

type Config struct {
	Port string

	AuthJWTSecret string

	GatewayURL     string
	GatewayTimeout time.Duration
	GatewayModel   string
}

func LoadConfig(log *logger.Logger) Config {
	timeoutMS := envutil.GetEnvAsInt("BACKEND_API_TIMEOUT", 60000, log)
	return Config{
		Port:           envutil.GetEnv("PORT", "8080", log),
		AuthJWTSecret:  envutil.GetEnv("AUTH_JWT_SECRET", "", log),
		GatewayURL:     envutil.GetEnv("BACKEND_API_URL", "http://localhost:8000", log),
		GatewayTimeout: time.Duration(timeoutMS) * time.Millisecond,
		GatewayModel:   envutil.GetEnv("BACKEND_API_MODEL", "gpt-4", log),
	}
}
