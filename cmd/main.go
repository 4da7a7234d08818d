package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/moonbeamcafe/barista/internal/config"
	"github.com/moonbeamcafe/barista/internal/handlers"
	"github.com/moonbeamcafe/barista/internal/logger"
	"github.com/moonbeamcafe/barista/internal/roomserver"
	"github.com/moonbeamcafe/barista/internal/services"
	"github.com/rs/zerolog/log"
)

func main() {
	logger.Setup()

	r := setupRouter()

	addr := ":" + config.GetServerPort()
	log.Info().Str("addr", addr).Msg("Moonbeam ordering server starting")
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

func setupRouter() *mux.Router {
	svcs := services.Initialize()
	hub := roomserver.NewHub(roomserver.DefaultTimeouts)
	return handlers.NewRouter(svcs, hub)
}
