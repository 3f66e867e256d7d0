package main

import (
	"github.com/alphabatem/common/context"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tutoo-mr/tutoo_core/middleware"
	"github.com/tutoo-mr/tutoo_core/services"
)

// The dev backend: the same contract the production deployment serves,
// backed by sqlite so a classroom can run it on one laptop.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found, using system environment")
	}

	authMw := &middleware.AuthMiddleware{}
	httpSvc := &services.HttpService{}
	httpSvc.SetAuthGuard(authMw.RequiredAuth())

	ctx, err := context.NewCtx(
		&services.SqliteService{},
		&services.JWTService{},
		authMw,
		&services.RedisService{},
		&services.RateLimitService{},
		&services.AuthService{},
		&services.LearningService{},

		httpSvc,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build service container")
		return
	}

	if err := ctx.Run(); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
		return
	}
}
