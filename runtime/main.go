package main

import (
	gocontext "context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tutoo-mr/tutoo_core/services"
)

// The client shell: local store, connectivity watcher, offline cache,
// remote client and the state controller that drives them.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found, using system environment")
	}

	stateSvc := &services.StateService{}

	ctx, err := context.NewCtx(
		&services.SqliteService{},
		&services.ConnectivityService{},
		&services.OfflineService{},
		&services.ApiClientService{},

		stateSvc,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build service container")
		return
	}

	go func() {
		bootCtx, cancel := gocontext.WithTimeout(gocontext.Background(), 15*time.Second)
		defer cancel()
		stateSvc.Bootstrap(bootCtx)
	}()

	if err := ctx.Run(); err != nil {
		log.Fatal().Err(err).Msg("Service container stopped")
		return
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
}
