package app

import (
	httpMW "github.com/pharmchat/pharmchat-backend/internal/http/middleware"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

func wireMiddleware(log *logger.Logger, s Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, s.User),
	}
}
